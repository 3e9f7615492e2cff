package types

import "fmt"

// PriceAdjustment binds one permitted filter value to its price.
// DiscountPrice of 0 means no discount.
type PriceAdjustment struct {
	Value         string  `json:"value"`
	Price         float64 `json:"price"`
	DiscountPrice float64 `json:"discountPrice"`
}

// Filter is a product variant axis such as size or color.
type Filter struct {
	Name             string            `json:"name"`
	Values           []string          `json:"values"`
	PriceAdjustments []PriceAdjustment `json:"priceAdjustments"`
}

// Allows reports whether value is among the filter's permitted values.
func (f Filter) Allows(value string) bool {
	for _, v := range f.Values {
		if v == value {
			return true
		}
	}
	return false
}

// Adjustment finds the price adjustment bound to value.
func (f Filter) Adjustment(value string) (PriceAdjustment, bool) {
	for _, adj := range f.PriceAdjustments {
		if adj.Value == value {
			return adj, true
		}
	}
	return PriceAdjustment{}, false
}

// Validate checks that the filter is well formed and every adjustment references a permitted value.
func (f Filter) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("filter name is required")
	}
	if len(f.Values) == 0 {
		return fmt.Errorf("filter %q has no values", f.Name)
	}
	for _, adj := range f.PriceAdjustments {
		if !f.Allows(adj.Value) {
			return fmt.Errorf("filter %q adjustment value %q is not a permitted value", f.Name, adj.Value)
		}
		if adj.Price < 0 || adj.DiscountPrice < 0 {
			return fmt.Errorf("filter %q adjustment %q has a negative price", f.Name, adj.Value)
		}
	}
	return nil
}

// Filters is the ordered filter list of a product.
type Filters []Filter

// ByName returns the filter with the given name.
func (fs Filters) ByName(name string) (Filter, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return Filter{}, false
}

// Validate checks every filter and rejects duplicate names.
func (fs Filters) Validate() error {
	seen := make(map[string]struct{}, len(fs))
	for _, f := range fs {
		if err := f.Validate(); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate filter %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}
