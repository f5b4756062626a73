package photos

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/pkg/db/models"
	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type fakeOrders struct {
	findFn func(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

func (f fakeOrders) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.findFn(ctx, id)
}

type memoryStore struct {
	keys  []string
	types []string
	putFn func() error
}

func (m *memoryStore) Put(_ context.Context, key, contentType string, body io.Reader, _ int64) (string, error) {
	if m.putFn != nil {
		if err := m.putFn(); err != nil {
			return "", err
		}
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	m.keys = append(m.keys, key)
	m.types = append(m.types, contentType)
	return "/uploads/" + key, nil
}

func (m *memoryStore) Exists(context.Context, string) (bool, error) { return true, nil }
func (m *memoryStore) Delete(context.Context, string) error         { return nil }

func assignedTo(transporterID uuid.UUID) fakeOrders {
	return fakeOrders{findFn: func(_ context.Context, id uuid.UUID) (*models.Order, error) {
		return &models.Order{ID: id, TransporterID: &transporterID}, nil
	}}
}

func TestUploadStoresUnderOrderPrefix(t *testing.T) {
	transporter := uuid.New()
	orderID := uuid.New()
	store := &memoryStore{}
	svc, err := NewService(assignedTo(transporter), store, 1<<20)
	require.NoError(t, err)

	res, err := svc.Upload(context.Background(), transporter, orderID, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.Equal(t, "image/png", res.ContentType)
	require.True(t, strings.HasPrefix(res.PhotoURL, "/uploads/deliveries/"+orderID.String()+"/"))
	require.True(t, strings.HasSuffix(res.PhotoURL, ".png"))
	require.Len(t, store.keys, 1)
}

func TestUploadRejectsOtherTransporter(t *testing.T) {
	svc, err := NewService(assignedTo(uuid.New()), &memoryStore{}, 1<<20)
	require.NoError(t, err)

	_, err = svc.Upload(context.Background(), uuid.New(), uuid.New(), bytes.NewReader(pngHeader))
	require.Equal(t, pkgerrors.CodeNotAssigned, pkgerrors.As(err).Code())
}

func TestUploadMissingOrder(t *testing.T) {
	orders := fakeOrders{findFn: func(context.Context, uuid.UUID) (*models.Order, error) {
		return nil, gorm.ErrRecordNotFound
	}}
	svc, err := NewService(orders, &memoryStore{}, 1<<20)
	require.NoError(t, err)

	_, err = svc.Upload(context.Background(), uuid.New(), uuid.New(), bytes.NewReader(pngHeader))
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUploadValidatesContent(t *testing.T) {
	transporter := uuid.New()
	store := &memoryStore{}
	svc, err := NewService(assignedTo(transporter), store, 32)
	require.NoError(t, err)

	cases := map[string][]byte{
		"empty":     {},
		"too large": append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...),
		"not image": []byte("%PDF-1.4 definitely a document"),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), transporter, uuid.New(), bytes.NewReader(body))
			if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	require.Empty(t, store.keys)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, &memoryStore{}, 1)
	require.Error(t, err)
	_, err = NewService(assignedTo(uuid.New()), nil, 1)
	require.Error(t, err)
	_, err = NewService(assignedTo(uuid.New()), &memoryStore{}, 0)
	require.Error(t, err)
}
