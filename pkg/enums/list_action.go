package enums

import "fmt"

// ListAction toggles membership of a product in a curated list.
type ListAction string

const (
	ListActionAdd    ListAction = "add"
	ListActionRemove ListAction = "remove"
)

// ParseListAction converts raw input into a ListAction.
func ParseListAction(value string) (ListAction, error) {
	switch ListAction(value) {
	case ListActionAdd, ListActionRemove:
		return ListAction(value), nil
	}
	return "", fmt.Errorf("invalid list action %q", value)
}
