package types

import (
	"database/sql/driver"
	"math"
)

// ReviewAspects are optional 1..5 sub-scores attached to a review.
type ReviewAspects struct {
	Quality   *int `json:"quality,omitempty" validate:"omitempty,min=1,max=5"`
	Freshness *int `json:"freshness,omitempty" validate:"omitempty,min=1,max=5"`
	Packaging *int `json:"packaging,omitempty" validate:"omitempty,min=1,max=5"`
	Worth     *int `json:"value,omitempty" validate:"omitempty,min=1,max=5"`
}

func (a ReviewAspects) Value() (driver.Value, error) {
	return marshalJSONB(a)
}

func (a *ReviewAspects) Scan(value any) error {
	var out ReviewAspects
	if _, err := scanJSONB(value, &out, "review aspects"); err != nil {
		return err
	}
	*a = out
	return nil
}

// RatingDistribution counts reviews per star, keyed "1" through "5".
type RatingDistribution map[string]int64

// NewRatingDistribution returns a distribution with every star present.
func NewRatingDistribution() RatingDistribution {
	return RatingDistribution{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}
}

// AverageRating is sum/count rounded to one decimal place; zero when count is zero.
func AverageRating(sum, count int64) float64 {
	if count <= 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(count)*10) / 10
}
