package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

type stubUserStore struct {
	users   map[uuid.UUID]*models.User
	taken   bool
	updated *models.User
	admins  []uuid.UUID
}

func (s *stubUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubUserStore) EmailTaken(context.Context, string, uuid.UUID) (bool, error) {
	return s.taken, nil
}

func (s *stubUserStore) UpdateProfile(_ context.Context, u *models.User) error {
	s.updated = u
	return nil
}

func (s *stubUserStore) SetAdmin(_ context.Context, id uuid.UUID, _ bool) error {
	if _, ok := s.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.admins = append(s.admins, id)
	return nil
}

func (s *stubUserStore) Count(context.Context) (int64, error) {
	return int64(len(s.users)), nil
}

func newUsersService(t *testing.T) (Service, *stubUserStore, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	store := &stubUserStore{users: map[uuid.UUID]*models.User{
		id: {ID: id, FirstName: "Ada", Email: "ada@example.com"},
	}}
	svc, err := NewService(ServiceParams{Repo: store})
	require.NoError(t, err)
	return svc, store, id
}

func address(active bool) types.Address {
	return types.Address{
		Type:     enums.AddressTypeHome,
		Address:  "12 MG Road",
		City:     "Pune",
		State:    "MH",
		ZipCode:  "411001",
		Phone:    "9999999999",
		IsActive: active,
	}
}

func TestGetProfileDefaultsAuthMethod(t *testing.T) {
	svc, _, id := newUsersService(t)
	profile, err := svc.GetProfile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, enums.AuthMethodPassword, profile.AuthMethod)
	assert.NotNil(t, profile.Addresses)
}

func TestUpdateProfileRejectsTwoActiveAddresses(t *testing.T) {
	svc, store, id := newUsersService(t)
	_, err := svc.UpdateProfile(context.Background(), id, UpdateProfileInput{
		Addresses: []types.Address{address(true), address(true)},
	})
	require.Error(t, err)
	assert.Equal(t, msgMultipleActive, pkgerrors.As(err).Message())
	assert.Nil(t, store.updated)
}

func TestUpdateProfileRejectsIncompleteAddress(t *testing.T) {
	svc, _, id := newUsersService(t)
	bad := address(false)
	bad.ZipCode = ""
	_, err := svc.UpdateProfile(context.Background(), id, UpdateProfileInput{Addresses: []types.Address{bad}})
	require.Error(t, err)
	assert.Equal(t, msgInvalidAddress, pkgerrors.As(err).Message())
}

func TestUpdateProfileRejectsTakenEmail(t *testing.T) {
	svc, store, id := newUsersService(t)
	store.taken = true
	email := "grace@example.com"
	_, err := svc.UpdateProfile(context.Background(), id, UpdateProfileInput{Email: &email})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, msgEmailInUse, pkgerrors.As(err).Message())
}

func TestUpdateProfileAppliesFields(t *testing.T) {
	svc, store, id := newUsersService(t)
	last := ""
	email := "ADA@new.example.com"
	profile, err := svc.UpdateProfile(context.Background(), id, UpdateProfileInput{
		LastName:  &last,
		Email:     &email,
		Addresses: []types.Address{address(true), address(false)},
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@new.example.com", profile.Email)
	require.NotNil(t, store.updated)
	assert.Len(t, store.updated.Addresses, 2)
}

func TestSetAdminUnknownUser(t *testing.T) {
	svc, _, _ := newUsersService(t)
	err := svc.SetAdmin(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
