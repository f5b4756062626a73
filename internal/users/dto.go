package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/enums"
	"github.com/Nafis5858/Krishak/pkg/types"
)

// ProfileDTO is the caller-facing view of a user row.
type ProfileDTO struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Phone            *string         `json:"phone,omitempty"`
	Role             enums.UserRole  `json:"role"`
	FarmLocation     *types.Location `json:"farmLocation,omitempty"`
	BaseLocation     *types.Location `json:"baseLocation,omitempty"`
	ServiceDistricts []string        `json:"serviceDistricts"`
	Rating           RatingDTO       `json:"rating"`
	IsActive         bool            `json:"isActive"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type RatingDTO struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// PartyDTO is the short form embedded in order and job payloads.
type PartyDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone *string   `json:"phone,omitempty"`
}

func FromModel(u *models.User) *ProfileDTO {
	if u == nil {
		return nil
	}
	districts := []string(u.ServiceDistricts)
	if districts == nil {
		districts = []string{}
	}
	return &ProfileDTO{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Phone:            u.Phone,
		Role:             u.Role,
		FarmLocation:     u.FarmLocation,
		BaseLocation:     u.BaseLocation,
		ServiceDistricts: districts,
		Rating:           RatingDTO{Average: u.RatingAverage, Count: u.RatingCount},
		IsActive:         u.IsActive,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func PartyFromModel(u models.User) PartyDTO {
	return PartyDTO{ID: u.ID, Name: u.Name, Phone: u.Phone}
}

// UpdateLocationInput carries the location body for the calling user.
// Farmers set Location as their farm; transporters set it as their base and
// may also replace ServiceDistricts.
type UpdateLocationInput struct {
	Location         *types.Location `json:"location" validate:"omitempty"`
	ServiceDistricts []string        `json:"serviceDistricts" validate:"omitempty,max=32,dive,required,max=64"`
}

func normalizeDistricts(in []string) types.StringList {
	if in == nil {
		return nil
	}
	seen := map[string]struct{}{}
	out := make(types.StringList, 0, len(in))
	for _, d := range in {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		key := strings.ToLower(d)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	return out
}
