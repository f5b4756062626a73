package types

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewPriceBreakdown(t *testing.T) {
	pb := NewPriceBreakdown(
		decimal.RequireFromString("45.50"),
		decimal.RequireFromString("20"),
		decimal.NewFromInt(100),
		decimal.NewFromInt(2),
	)

	require.True(t, pb.Subtotal.Equal(decimal.RequireFromString("910")))
	require.True(t, pb.PlatformFee.Equal(decimal.RequireFromString("18.2")))
	require.True(t, pb.Total.Equal(decimal.RequireFromString("1028.2")))
}

func TestStatusHistoryScanAndAppend(t *testing.T) {
	photo := "/uploads/deliveries/a.jpg"
	actor := uuid.New()
	history := StatusHistory{{Status: "assigned", Timestamp: time.Unix(0, 0).UTC(), Note: "Assigned"}}
	next := history.Append(StatusHistoryEntry{Status: "picked", Photo: &photo, UpdatedBy: &actor})

	require.Len(t, history, 1)
	require.Len(t, next, 2)

	raw, err := next.Value()
	require.NoError(t, err)

	var scanned StatusHistory
	require.NoError(t, scanned.Scan([]byte(raw.(string))))
	require.Equal(t, "picked", scanned[1].Status)
	require.Equal(t, photo, *scanned[1].Photo)
}

func TestScanNullAndBadInput(t *testing.T) {
	var loc Location
	require.NoError(t, loc.Scan(nil))
	require.Nil(t, loc.Coordinates)

	var proof PhotoProof
	require.Error(t, proof.Scan(42))

	var list StringList
	require.NoError(t, list.Scan(`["Dhaka","Gazipur"]`))
	require.Equal(t, StringList{"Dhaka", "Gazipur"}, list)

	var nilLoc *Location
	require.Nil(t, nilLoc.Point())
}

func TestAverageRating(t *testing.T) {
	if got := AverageRating(0, 0); got != 0 {
		t.Fatalf("expected 0 for no ratings, got %v", got)
	}
	if got := AverageRating(13, 3); got != 4.3 {
		t.Fatalf("expected 4.3, got %v", got)
	}
	if got := AverageRating(9, 2); got != 4.5 {
		t.Fatalf("expected 4.5, got %v", got)
	}
}
