package enums

import "fmt"

// ProductCategory groups produce listings.
type ProductCategory string

const (
	ProductCategoryVegetables ProductCategory = "vegetables"
	ProductCategoryFruits     ProductCategory = "fruits"
	ProductCategoryGrains     ProductCategory = "grains"
	ProductCategoryPulses     ProductCategory = "pulses"
	ProductCategorySpices     ProductCategory = "spices"
	ProductCategoryOther      ProductCategory = "other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryVegetables,
	ProductCategoryFruits,
	ProductCategoryGrains,
	ProductCategoryPulses,
	ProductCategorySpices,
	ProductCategoryOther,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}

// ProductGrade is the quality grade a farmer assigns to a listing.
type ProductGrade string

const (
	ProductGradeA ProductGrade = "A"
	ProductGradeB ProductGrade = "B"
	ProductGradeC ProductGrade = "C"
)

func (g ProductGrade) IsValid() bool {
	return g == ProductGradeA || g == ProductGradeB || g == ProductGradeC
}

// ReviewSort orders product review listings.
type ReviewSort string

const (
	ReviewSortNewest  ReviewSort = "newest"
	ReviewSortOldest  ReviewSort = "oldest"
	ReviewSortHighest ReviewSort = "highest"
	ReviewSortLowest  ReviewSort = "lowest"
)

// ParseReviewSort falls back to newest for empty input.
func ParseReviewSort(value string) (ReviewSort, error) {
	switch ReviewSort(value) {
	case "":
		return ReviewSortNewest, nil
	case ReviewSortNewest, ReviewSortOldest, ReviewSortHighest, ReviewSortLowest:
		return ReviewSort(value), nil
	}
	return "", fmt.Errorf("invalid review sort %q", value)
}
