package enums

import "fmt"

// ProductCategory is the closed set of catalog categories.
type ProductCategory string

const (
	ProductCategoryKitchen     ProductCategory = "Kitchen"
	ProductCategoryHealth      ProductCategory = "Health"
	ProductCategoryFashion     ProductCategory = "Fashion"
	ProductCategoryBeauty      ProductCategory = "Beauty"
	ProductCategoryElectronics ProductCategory = "Electronics"
	ProductCategoryFitness     ProductCategory = "Fitness"
	ProductCategorySpiritual   ProductCategory = "Spiritual"
	ProductCategoryKids        ProductCategory = "Kids"
	ProductCategoryPets        ProductCategory = "Pets"
	ProductCategoryStationery  ProductCategory = "Stationery"
)

var validProductCategories = []ProductCategory{
	ProductCategoryKitchen,
	ProductCategoryHealth,
	ProductCategoryFashion,
	ProductCategoryBeauty,
	ProductCategoryElectronics,
	ProductCategoryFitness,
	ProductCategorySpiritual,
	ProductCategoryKids,
	ProductCategoryPets,
	ProductCategoryStationery,
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
