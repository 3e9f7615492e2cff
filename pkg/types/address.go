package types

import (
	"strings"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// Address is a saved customer address.
type Address struct {
	Type     enums.AddressType `json:"type"`
	Address  string            `json:"address"`
	City     string            `json:"city"`
	State    string            `json:"state"`
	ZipCode  string            `json:"zipCode"`
	Phone    string            `json:"phone"`
	IsActive bool              `json:"isActive"`
}

// Complete reports whether every required field is present and the type is known.
func (a Address) Complete() bool {
	return a.Type.IsValid() &&
		strings.TrimSpace(a.Address) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.State) != "" &&
		strings.TrimSpace(a.ZipCode) != "" &&
		strings.TrimSpace(a.Phone) != ""
}

// ShippingInfo is the delivery address frozen onto an order.
type ShippingInfo struct {
	Type       enums.AddressType `json:"type" validate:"required,oneof=Home Work Other"`
	Address    string            `json:"address" validate:"required"`
	City       string            `json:"city" validate:"required"`
	State      string            `json:"state" validate:"required"`
	PostalCode string            `json:"postalCode" validate:"required"`
	Phone      string            `json:"phone" validate:"required"`
}

// PersonalInfo is the buyer contact snapshot on an order.
type PersonalInfo struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}
