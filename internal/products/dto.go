package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/enums"
	"github.com/Nafis5858/Krishak/pkg/types"
)

// ProductDTO is the public listing shape.
type ProductDTO struct {
	ID                uuid.UUID             `json:"id"`
	FarmerID          uuid.UUID             `json:"farmerId"`
	CropName          string                `json:"cropName"`
	Category          enums.ProductCategory `json:"category"`
	Grade             enums.ProductGrade    `json:"grade"`
	Unit              string                `json:"unit"`
	Description       *string               `json:"description,omitempty"`
	PricePerUnit      decimal.Decimal       `json:"pricePerUnit"`
	QuantityAvailable decimal.Decimal       `json:"quantityAvailable"`
	Location          *types.Location       `json:"location,omitempty"`
	Photos            []string              `json:"photos"`
	IsActive          bool                  `json:"isActive"`
	AverageRating     float64               `json:"averageRating"`
	ReviewCount       int64                 `json:"reviewCount"`
	CreatedAt         time.Time             `json:"createdAt"`
}

// SummaryDTO is embedded in orders and delivery jobs.
type SummaryDTO struct {
	ID           uuid.UUID       `json:"id"`
	CropName     string          `json:"cropName"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	Photos       []string        `json:"photos"`
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:                p.ID,
		FarmerID:          p.FarmerID,
		CropName:          p.CropName,
		Category:          p.Category,
		Grade:             p.Grade,
		Unit:              p.Unit,
		Description:       p.Description,
		PricePerUnit:      p.PricePerUnit,
		QuantityAvailable: p.QuantityAvailable,
		Location:          p.Location,
		Photos:            photosOrEmpty(p.Photos),
		IsActive:          p.IsActive,
		AverageRating:     p.AverageRating,
		ReviewCount:       p.ReviewCount,
		CreatedAt:         p.CreatedAt,
	}
}

func SummaryFromModel(p models.Product) SummaryDTO {
	return SummaryDTO{
		ID:           p.ID,
		CropName:     p.CropName,
		Unit:         p.Unit,
		PricePerUnit: p.PricePerUnit,
		Photos:       photosOrEmpty(p.Photos),
	}
}

func photosOrEmpty(photos types.StringList) []string {
	if photos == nil {
		return []string{}
	}
	return []string(photos)
}

// CreateProductInput is the farmer's listing request.
type CreateProductInput struct {
	CropName          string                `json:"cropName" validate:"required,max=120"`
	Category          enums.ProductCategory `json:"category" validate:"required"`
	Grade             enums.ProductGrade    `json:"grade" validate:"required"`
	Unit              string                `json:"unit" validate:"required,max=20"`
	Description       *string               `json:"description" validate:"omitempty,max=2000"`
	PricePerUnit      decimal.Decimal       `json:"pricePerUnit"`
	QuantityAvailable decimal.Decimal       `json:"quantityAvailable"`
	Location          *types.Location       `json:"location"`
	Photos            []string              `json:"photos" validate:"omitempty,max=10,dive,url"`
}

// ListProductsInput filters the public catalogue.
type ListProductsInput struct {
	FarmerID *uuid.UUID
	Category *enums.ProductCategory
	Limit    int
	Cursor   string
}

// ProductListResult wraps a page of products and the cursor for the next one.
type ProductListResult struct {
	Items  []ProductDTO `json:"items"`
	Cursor string       `json:"cursor"`
}
