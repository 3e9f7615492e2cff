package enums

import "fmt"

// AuthMethod records how a user signs in.
type AuthMethod string

const (
	AuthMethodPassword AuthMethod = "password"
	AuthMethodGoogle   AuthMethod = "google"
)

func (a AuthMethod) IsValid() bool {
	return a == AuthMethodPassword || a == AuthMethodGoogle
}

// AddressType labels a saved address.
type AddressType string

const (
	AddressTypeHome  AddressType = "Home"
	AddressTypeWork  AddressType = "Work"
	AddressTypeOther AddressType = "Other"
)

func (a AddressType) IsValid() bool {
	switch a {
	case AddressTypeHome, AddressTypeWork, AddressTypeOther:
		return true
	}
	return false
}

// ParseAddressType converts raw input into an AddressType.
func ParseAddressType(value string) (AddressType, error) {
	if t := AddressType(value); t.IsValid() {
		return t, nil
	}
	return "", fmt.Errorf("invalid address type %q", value)
}
