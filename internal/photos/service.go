// Package photos accepts pickup and delivery proof images from transporters.
package photos

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/Nafis5858/Krishak/internal/orders"
	"github.com/Nafis5858/Krishak/pkg/db/models"
	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
	"github.com/Nafis5858/Krishak/pkg/storage"
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadResult is returned to the transporter for use in a status update.
type UploadResult struct {
	PhotoURL    string `json:"photoUrl"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type Service interface {
	Upload(ctx context.Context, transporterID, orderID uuid.UUID, file io.Reader) (*UploadResult, error)
}

type orderFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type service struct {
	orders   orderFinder
	store    storage.ObjectStore
	maxBytes int64
}

func NewService(orderRepo orderFinder, store storage.ObjectStore, maxBytes int64) (Service, error) {
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	return &service{orders: orderRepo, store: store, maxBytes: maxBytes}, nil
}

func (s *service) Upload(ctx context.Context, transporterID, orderID uuid.UUID, file io.Reader) (*UploadResult, error) {
	if file == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo file is required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, orders.MapLookupError(err)
	}
	if order.TransporterID == nil || *order.TransporterID != transporterID {
		return nil, pkgerrors.New(pkgerrors.CodeNotAssigned, "order is not assigned to you")
	}

	body, err := io.ReadAll(io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read photo")
	}
	if len(body) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo file is empty")
	}
	if int64(len(body)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo exceeds the upload limit").
			WithDetails(map[string]any{"maxBytes": s.maxBytes})
	}

	detected := mimetype.Detect(body)
	contentType := detected.String()
	ext, ok := allowedTypes[contentType]
	if !ok {
		for parent := detected.Parent(); parent != nil && !ok; parent = parent.Parent() {
			contentType = parent.String()
			ext, ok = allowedTypes[contentType]
		}
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only jpeg, png, webp or gif images are allowed").
			WithDetails(map[string]any{"detected": detected.String()})
	}

	key := fmt.Sprintf("deliveries/%s/%s%s", orderID, uuid.NewString(), ext)
	url, err := s.store.Put(ctx, key, contentType, bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store photo")
	}
	return &UploadResult{PhotoURL: url, ContentType: contentType, Size: int64(len(body))}, nil
}
