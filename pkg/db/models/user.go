package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

// User is the account entity. Addresses are stored as a jsonb document.
type User struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirstName    string           `gorm:"column:first_name;not null" json:"firstName"`
	LastName     string           `gorm:"column:last_name;not null;default:''" json:"lastName"`
	Email        string           `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	Phone        *string          `gorm:"column:phone" json:"phone,omitempty"`
	PasswordHash *string          `gorm:"column:password_hash" json:"-"`
	AuthMethod   enums.AuthMethod `gorm:"column:auth_method;not null;default:'password'" json:"authMethod"`
	GoogleID     *string          `gorm:"column:google_id" json:"-"`
	IsAdmin      bool             `gorm:"column:is_admin;not null;default:false" json:"isAdmin"`
	Addresses    []types.Address  `gorm:"column:addresses;type:jsonb;serializer:json;not null;default:'[]'" json:"addresses"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// ActiveAddress returns the address flagged active, if any.
func (u User) ActiveAddress() (types.Address, bool) {
	for _, addr := range u.Addresses {
		if addr.IsActive {
			return addr, true
		}
	}
	return types.Address{}, false
}
