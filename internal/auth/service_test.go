package auth

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/shopfront-backend/pkg/auth"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/mailer"
	"github.com/angelmondragon/shopfront-backend/pkg/redis"
	"github.com/angelmondragon/shopfront-backend/pkg/security"
)

var otpPattern = regexp.MustCompile(`is (\d+)\.`)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*models.User{}}
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[strings.ToLower(email)]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = uuid.New()
	m.users[user.Email] = user
	return nil
}

func (m *memoryUsers) UpdateLastLogin(context.Context, uuid.UUID, time.Time) error {
	return nil
}

func (m *memoryUsers) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			u.PasswordHash = &hash
		}
	}
	return nil
}

type memoryKV struct {
	mu   sync.Mutex
	data map[string]string
	// afterGet runs once after the next Get, outside the lock.
	afterGet func()
}

func (m *memoryKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	return nil
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	hook := m.afterGet
	m.afterGet = nil
	if hook != nil {
		defer hook()
	}
	if !ok {
		return "", redis.ErrNil
	}
	return v, nil
}

func (m *memoryKV) ConsumeIfEqual(_ context.Context, key, expected string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; !ok || v != expected {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func (m *memoryKV) OTPKey(email string) string {
	return "sf:otp:" + strings.ToLower(email)
}

type capturingMailer struct {
	sent []mailer.Message
}

func (c *capturingMailer) Send(_ context.Context, msg mailer.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

type authFixture struct {
	svc   Service
	users *memoryUsers
	kv    *memoryKV
	mail  *capturingMailer
	jwt   config.JWTConfig
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	users := newMemoryUsers()
	kv := &memoryKV{data: map[string]string{}}
	mail := &capturingMailer{}
	jwtCfg := config.JWTConfig{Secret: "test-secret", Issuer: "shopfront", ExpirationDays: 30}
	svc, err := NewService(ServiceParams{
		UserRepo:  users,
		OTPStore:  NewOTPStore(kv, 10*time.Minute),
		Mailer:    mail,
		JWTConfig: jwtCfg,
		PasswordCfg: config.PasswordConfig{
			ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
		},
		OTPConfig: config.OTPConfig{TTL: 10 * time.Minute, Length: 6},
	})
	require.NoError(t, err)
	return authFixture{svc: svc, users: users, kv: kv, mail: mail, jwt: jwtCfg}
}

func (f authFixture) sentOTP(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.mail.sent)
	match := otpPattern.FindStringSubmatch(f.mail.sent[len(f.mail.sent)-1].Body)
	require.Len(t, match, 2)
	return match[1]
}

func TestRegisterSendsOTPMail(t *testing.T) {
	f := newAuthFixture(t)
	err := f.svc.Register(context.Background(), RegisterRequest{FirstName: "Ada", Email: "Ada@Example.com", Password: "secret1"})
	require.NoError(t, err)

	require.Len(t, f.mail.sent, 1)
	msg := f.mail.sent[0]
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Verify Your Email", msg.Subject)
	assert.Contains(t, msg.Body, "It is valid for 10 minutes.")
	assert.Len(t, f.sentOTP(t), 6)

	_, err = f.users.FindByEmail(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRegisterRejectsExistingAccounts(t *testing.T) {
	f := newAuthFixture(t)
	f.users.users["g@example.com"] = &models.User{ID: uuid.New(), Email: "g@example.com", AuthMethod: enums.AuthMethodGoogle}
	f.users.users["p@example.com"] = &models.User{ID: uuid.New(), Email: "p@example.com", AuthMethod: enums.AuthMethodPassword}

	err := f.svc.Register(context.Background(), RegisterRequest{FirstName: "G", Email: "g@example.com", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, msgGoogleAccount, pkgerrors.As(err).Message())

	err = f.svc.Register(context.Background(), RegisterRequest{FirstName: "P", Email: "p@example.com", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, msgUserExists, pkgerrors.As(err).Message())

	err = f.svc.Register(context.Background(), RegisterRequest{Email: "n@example.com", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, msgRegisterFieldsRequired, pkgerrors.As(err).Message())
}

func TestVerifyOTPWrongCodeKeepsPending(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.svc.Register(context.Background(), RegisterRequest{FirstName: "Ada", Email: "ada@example.com", Password: "secret1"}))
	code := f.sentOTP(t)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{Email: "ada@example.com", OTP: wrong})
	require.Error(t, err)
	assert.Equal(t, msgInvalidOTP, pkgerrors.As(err).Message())

	resp, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{Email: "ada@example.com", OTP: code})
	require.NoError(t, err)

	claims, err := pkgAuth.ParseAccessToken(f.jwt, resp.Token)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin)

	user, err := f.users.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, user.ID)
	assert.Equal(t, enums.AuthMethodPassword, user.AuthMethod)
}

func TestVerifyOTPIsSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.svc.Register(context.Background(), RegisterRequest{FirstName: "Ada", Email: "ada@example.com", Password: "secret1"}))
	code := f.sentOTP(t)

	_, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{Email: "ada@example.com", OTP: code})
	require.NoError(t, err)

	_, err = f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{Email: "ada@example.com", OTP: code})
	require.Error(t, err)
	assert.Equal(t, msgInvalidOTP, pkgerrors.As(err).Message())
}

func TestVerifyOTPKeepsRegistrationSavedMidRedeem(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Register(ctx, RegisterRequest{FirstName: "Ada", Email: "ada@example.com", Password: "secret1"}))
	oldCode := f.sentOTP(t)

	// the user registers again between the passcode check and the consume
	f.kv.afterGet = func() {
		require.NoError(t, f.svc.Register(ctx, RegisterRequest{FirstName: "Ada", Email: "ada@example.com", Password: "secret2"}))
	}
	_, err := f.svc.VerifyOTP(ctx, VerifyOTPRequest{Email: "ada@example.com", OTP: oldCode})
	require.Error(t, err)
	assert.Equal(t, msgInvalidOTP, pkgerrors.As(err).Message())

	_, err = f.users.FindByEmail(ctx, "ada@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	newCode := f.sentOTP(t)
	_, err = f.svc.VerifyOTP(ctx, VerifyOTPRequest{Email: "ada@example.com", OTP: newCode})
	require.NoError(t, err)

	user, err := f.users.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, user.PasswordHash)
	ok, err := security.VerifyPassword("secret2", *user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginFlows(t *testing.T) {
	f := newAuthFixture(t)
	hash, err := security.HashPassword("secret1", config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32})
	require.NoError(t, err)
	admin := &models.User{ID: uuid.New(), Email: "admin@example.com", PasswordHash: &hash, AuthMethod: enums.AuthMethodPassword, IsAdmin: true}
	f.users.users[admin.Email] = admin
	f.users.users["g@example.com"] = &models.User{ID: uuid.New(), Email: "g@example.com", AuthMethod: enums.AuthMethodGoogle}

	resp, err := f.svc.Login(context.Background(), LoginRequest{Email: "ADMIN@example.com", Password: "secret1"})
	require.NoError(t, err)
	claims, err := pkgAuth.ParseAccessToken(f.jwt, resp.Token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)

	_, err = f.svc.Login(context.Background(), LoginRequest{Email: "admin@example.com", Password: "nope"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, msgInvalidCredentials, pkgerrors.As(err).Message())

	_, err = f.svc.Login(context.Background(), LoginRequest{Email: "g@example.com", Password: "x"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	cfg := config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	hash, err := security.HashPassword("secret1", cfg)
	require.NoError(t, err)
	user := &models.User{ID: uuid.New(), Email: "u@example.com", PasswordHash: &hash, AuthMethod: enums.AuthMethodPassword}
	f.users.users[user.Email] = user

	err = f.svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "another1"})
	require.Error(t, err)
	assert.Equal(t, msgWrongPassword, pkgerrors.As(err).Message())

	err = f.svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "abc"})
	require.Error(t, err)
	assert.Equal(t, msgPasswordTooShort, pkgerrors.As(err).Message())

	require.NoError(t, f.svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "another1"}))
	ok, err := security.VerifyPassword("another1", *user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}
