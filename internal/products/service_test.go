package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Nafis5858/Krishak/pkg/db/dbtest"
	"github.com/Nafis5858/Krishak/pkg/enums"
	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
)

func validInput() CreateProductInput {
	return CreateProductInput{
		CropName:          "Tomato",
		Category:          enums.ProductCategoryVegetables,
		Grade:             enums.ProductGradeA,
		Unit:              "kg",
		PricePerUnit:      decimal.RequireFromString("45.50"),
		QuantityAvailable: decimal.NewFromInt(100),
	}
}

func newTestService(t *testing.T) (Service, Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	farmerID := uuid.New()

	created, err := svc.Create(context.Background(), farmerID, validInput())
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.Equal(t, farmerID, created.FarmerID)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, got.PricePerUnit.Equal(decimal.RequireFromString("45.5")))
	require.Equal(t, []string{}, got.Photos)

	_, err = svc.Get(context.Background(), uuid.New())
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := map[string]func(*CreateProductInput){
		"blank crop":     func(in *CreateProductInput) { in.CropName = "  " },
		"bad category":   func(in *CreateProductInput) { in.Category = "flowers" },
		"bad grade":      func(in *CreateProductInput) { in.Grade = "Z" },
		"zero price":     func(in *CreateProductInput) { in.PricePerUnit = decimal.Zero },
		"negative stock": func(in *CreateProductInput) { in.QuantityAvailable = decimal.NewFromInt(-1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validInput()
			mutate(&input)
			_, err := svc.Create(context.Background(), uuid.New(), input)
			if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	farmerID := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		p, err := svc.Create(context.Background(), farmerID, validInput())
		require.NoError(t, err)
		ids = append(ids, p.ID)
		time.Sleep(2 * time.Millisecond)
	}
	_, err := svc.Create(context.Background(), uuid.New(), validInput())
	require.NoError(t, err)

	first, err := svc.List(context.Background(), ListProductsInput{FarmerID: &farmerID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.Equal(t, ids[2], first.Items[0].ID)
	require.NotEmpty(t, first.Cursor)

	second, err := svc.List(context.Background(), ListProductsInput{FarmerID: &farmerID, Limit: 2, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	require.Equal(t, ids[0], second.Items[0].ID)
	require.Empty(t, second.Cursor)
}

func TestReserveAndRelease(t *testing.T) {
	svc, repo := newTestService(t)
	p, err := svc.Create(context.Background(), uuid.New(), validInput())
	require.NoError(t, err)

	ok, err := repo.Reserve(context.Background(), p.ID, decimal.RequireFromString("60"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.Reserve(context.Background(), p.ID, decimal.RequireFromString("50"))
	require.NoError(t, err)
	require.False(t, ok, "only 40 remain")

	require.NoError(t, repo.Release(context.Background(), p.ID, decimal.RequireFromString("10")))
	got, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.True(t, got.QuantityAvailable.Equal(decimal.NewFromInt(50)), "got %s", got.QuantityAvailable)
}
