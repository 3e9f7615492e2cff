package pricing

import (
	"fmt"

	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

// InvalidSelectionError names the first illegal (filter, value) pair of a selection.
type InvalidSelectionError struct {
	Filter string
	Value  string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("Invalid filter value: %s = %s", e.Filter, e.Value)
}

// ValidateSelection checks that every selected filter exists on the product and
// that the chosen value is one of its permitted values. Keys are checked in
// sorted order so the reported pair is stable.
func ValidateSelection(filters types.Filters, selection types.Selection) error {
	for _, name := range selection.Keys() {
		value := selection[name]
		filter, ok := filters.ByName(name)
		if !ok || !filter.Allows(value) {
			return &InvalidSelectionError{Filter: name, Value: value}
		}
	}
	return nil
}
