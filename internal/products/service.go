package product

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/pkg/db/models"
	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
	"github.com/Nafis5858/Krishak/pkg/pagination"
	"github.com/Nafis5858/Krishak/pkg/types"
)

// Service exposes farmer listing management and the public catalogue.
type Service interface {
	Create(ctx context.Context, farmerID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, farmerID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer id required")
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		FarmerID:          farmerID,
		CropName:          strings.TrimSpace(input.CropName),
		Category:          input.Category,
		Grade:             input.Grade,
		Unit:              strings.TrimSpace(input.Unit),
		Description:       input.Description,
		PricePerUnit:      input.PricePerUnit.Round(2),
		QuantityAvailable: input.QuantityAvailable.Round(2),
		Location:          input.Location,
		Photos:            types.StringList(input.Photos),
		IsActive:          true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return FromModel(product), nil
}

func validateCreate(input CreateProductInput) error {
	if strings.TrimSpace(input.CropName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cropName is required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if !input.Grade.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "grade must be A, B or C")
	}
	if !input.PricePerUnit.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "pricePerUnit must be positive")
	}
	if input.QuantityAvailable.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantityAvailable cannot be negative")
	}
	return nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return FromModel(product), nil
}

func (s *service) List(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	params := listParams{
		FarmerID:   input.FarmerID,
		Category:   input.Category,
		ActiveOnly: true,
		Limit:      input.Limit,
	}
	if input.Category != nil && !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if input.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		params.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	result := &ProductListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}
