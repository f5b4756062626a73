package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/pkg/enums"
	"github.com/Nafis5858/Krishak/pkg/types"
)

// User is a marketplace participant. Identity is issued elsewhere; the row
// carries profile, location and aggregate rating data.
type User struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name             string           `gorm:"column:name;not null"`
	Email            string           `gorm:"column:email;not null;uniqueIndex"`
	Phone            *string          `gorm:"column:phone"`
	Role             enums.UserRole   `gorm:"column:role;type:text;not null"`
	FarmLocation     *types.Location  `gorm:"column:farm_location;type:jsonb"`
	BaseLocation     *types.Location  `gorm:"column:base_location;type:jsonb"`
	ServiceDistricts types.StringList `gorm:"column:service_districts;type:jsonb"`
	RatingAverage    float64          `gorm:"column:rating_average;not null"`
	RatingCount      int64            `gorm:"column:rating_count;not null"`
	IsActive         bool             `gorm:"column:is_active;not null"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
