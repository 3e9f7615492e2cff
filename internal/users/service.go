package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

const (
	msgUserNotFound     = "User not found"
	msgEmailInUse       = "Email already in use"
	msgInvalidAddress   = "Invalid address data"
	msgMultipleActive   = "Only one address can be active"
	msgFirstNameMissing = "First name cannot be empty"
)

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error
	Count(ctx context.Context) (int64, error)
}

// Service manages account profiles.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
	SetAdmin(ctx context.Context, userID uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type ServiceParams struct {
	Repo userStore
}

type service struct {
	repo userStore
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repository is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(user)
	return &dto, nil
}

// UpdateProfile applies the non-nil fields. Addresses, when present, replace the saved list.
func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != "" && !strings.EqualFold(email, user.Email) {
			taken, err := s.repo.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
			}
			if taken {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, msgEmailInUse)
			}
			user.Email = email
		}
	}
	if input.FirstName != nil {
		first := strings.TrimSpace(*input.FirstName)
		if first == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgFirstNameMissing)
		}
		user.FirstName = first
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil && strings.TrimSpace(*input.Phone) != "" {
		phone := strings.TrimSpace(*input.Phone)
		user.Phone = &phone
	}
	if input.Addresses != nil {
		active := 0
		for _, addr := range input.Addresses {
			if !addr.Complete() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidAddress)
			}
			if addr.IsActive {
				active++
			}
		}
		if active > 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgMultipleActive)
		}
		user.Addresses = input.Addresses
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgEmailInUse)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	dto := FromModel(user)
	return &dto, nil
}

// SetAdmin grants admin rights to the target user.
func (s *service) SetAdmin(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	}
	if err := s.repo.SetAdmin(ctx, userID, true); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set admin")
	}
	return nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
	}
	return count, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
