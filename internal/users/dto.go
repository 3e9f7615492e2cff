package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

// ProfileDTO is the user-facing view of an account.
type ProfileDTO struct {
	ID         uuid.UUID        `json:"id"`
	FirstName  string           `json:"firstName"`
	LastName   string           `json:"lastName"`
	Email      string           `json:"email"`
	Phone      *string          `json:"phone,omitempty"`
	Addresses  []types.Address  `json:"addresses"`
	AuthMethod enums.AuthMethod `json:"authMethod"`
	IsAdmin    bool             `json:"isAdmin"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// FromModel maps a user row to its profile view.
func FromModel(u *models.User) ProfileDTO {
	addresses := u.Addresses
	if addresses == nil {
		addresses = []types.Address{}
	}
	method := u.AuthMethod
	if method == "" {
		method = enums.AuthMethodPassword
	}
	return ProfileDTO{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Phone:      u.Phone,
		Addresses:  addresses,
		AuthMethod: method,
		IsAdmin:    u.IsAdmin,
		CreatedAt:  u.CreatedAt,
	}
}

// UpdateProfileInput carries optional profile edits; nil fields are left unchanged.
type UpdateProfileInput struct {
	FirstName *string         `json:"firstName"`
	LastName  *string         `json:"lastName"`
	Email     *string         `json:"email"`
	Phone     *string         `json:"phone"`
	Addresses []types.Address `json:"addresses"`
}
