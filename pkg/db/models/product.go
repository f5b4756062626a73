package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/pkg/enums"
	"github.com/Nafis5858/Krishak/pkg/types"
)

// Product is a farmer's produce listing.
type Product struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	FarmerID          uuid.UUID             `gorm:"column:farmer_id;type:uuid;not null;index"`
	CropName          string                `gorm:"column:crop_name;not null"`
	Category          enums.ProductCategory `gorm:"column:category;type:text;not null"`
	Grade             enums.ProductGrade    `gorm:"column:grade;type:text;not null"`
	Unit              string                `gorm:"column:unit;not null"`
	Description       *string               `gorm:"column:description"`
	PricePerUnit      decimal.Decimal       `gorm:"column:price_per_unit;type:numeric(12,2);not null"`
	QuantityAvailable decimal.Decimal       `gorm:"column:quantity_available;type:numeric(12,2);not null"`
	Location          *types.Location       `gorm:"column:location;type:jsonb"`
	Photos            types.StringList      `gorm:"column:photos;type:jsonb"`
	IsActive          bool                  `gorm:"column:is_active;not null"`
	AverageRating     float64               `gorm:"column:average_rating;not null"`
	ReviewCount       int64                 `gorm:"column:review_count;not null"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
