package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/shopfront-backend/pkg/auth"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/mailer"
	"github.com/angelmondragon/shopfront-backend/pkg/security"
)

const (
	minPasswordLength = 6

	msgRegisterFieldsRequired = "First name, email, and password are required"
	msgGoogleAccount          = "This email is registered with Google authentication. Please log in using Google."
	msgGoogleLogin            = "This account is registered with Google authentication. Please log in using Google."
	msgUserExists             = "User already exists"
	msgInvalidOTP             = "Invalid or expired OTP"
	msgInvalidCredentials     = "Invalid email or password"
	msgPasswordFieldsRequired = "Current password and new password are required"
	msgPasswordAccountsOnly   = "Password change is only available for password-based accounts"
	msgWrongPassword          = "Current password is incorrect"
	msgPasswordTooShort       = "New password must be at least 6 characters long"

	otpSubject = "Verify Your Email"
)

// Service implements registration, login and password changes.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) error
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type pendingStore interface {
	Save(ctx context.Context, email string, pending PendingRegistration) error
	Load(ctx context.Context, email string) (*PendingRegistration, error)
	Consume(ctx context.Context, email string, pending *PendingRegistration) (bool, error)
}

type mailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo    userRepository
	OTPStore    pendingStore
	Mailer      mailSender
	JWTConfig   config.JWTConfig
	PasswordCfg config.PasswordConfig
	OTPConfig   config.OTPConfig
	Now         func() time.Time
}

type service struct {
	users  userRepository
	otps   pendingStore
	mail   mailSender
	jwtCfg config.JWTConfig
	pwdCfg config.PasswordConfig
	otpCfg config.OTPConfig
	now    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.OTPStore == nil {
		return nil, fmt.Errorf("otp store is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if strings.TrimSpace(params.JWTConfig.Secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	otpCfg := params.OTPConfig
	if otpCfg.Length <= 0 {
		otpCfg.Length = 6
	}
	if otpCfg.TTL <= 0 {
		otpCfg.TTL = 10 * time.Minute
	}
	return &service{
		users:  params.UserRepo,
		otps:   params.OTPStore,
		mail:   params.Mailer,
		jwtCfg: params.JWTConfig,
		pwdCfg: params.PasswordCfg,
		otpCfg: otpCfg,
		now:    now,
	}, nil
}

// Register hashes the password, parks the registration and mails a passcode.
// No user row exists until VerifyOTP succeeds.
func (s *service) Register(ctx context.Context, req RegisterRequest) error {
	firstName := strings.TrimSpace(req.FirstName)
	email := normalizeEmail(req.Email)
	if firstName == "" || email == "" || req.Password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, msgRegisterFieldsRequired)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.AuthMethod == enums.AuthMethodGoogle {
			return pkgerrors.New(pkgerrors.CodeValidation, msgGoogleAccount)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, msgUserExists)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	hash, err := security.HashPassword(req.Password, s.pwdCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	code, err := security.GenerateOTP(s.otpCfg.Length)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}

	pending := PendingRegistration{
		OTP:          code,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     strings.TrimSpace(req.LastName),
	}
	if err := s.otps.Save(ctx, email, pending); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
	}

	msg := mailer.Message{
		To:      email,
		Subject: otpSubject,
		Body:    fmt.Sprintf("Your OTP for registration is %s. It is valid for %d minutes.", code, int(s.otpCfg.TTL.Minutes())),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send otp email")
	}
	return nil
}

// VerifyOTP redeems a passcode and creates the account. A wrong code leaves the
// pending registration in place; a right one is consumed exactly once.
func (s *service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*TokenResponse, error) {
	email := normalizeEmail(req.Email)
	code := strings.TrimSpace(req.OTP)
	if email == "" || code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidOTP)
	}

	pending, err := s.otps.Load(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load otp")
	}
	if pending == nil || !security.EqualOTP(pending.OTP, code) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidOTP)
	}
	won, err := s.otps.Consume(ctx, email, pending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume otp")
	}
	if !won {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidOTP)
	}

	hash := pending.PasswordHash
	user := &models.User{
		FirstName:    pending.FirstName,
		LastName:     pending.LastName,
		Email:        email,
		PasswordHash: &hash,
		AuthMethod:   enums.AuthMethodPassword,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, msgUserExists)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return s.issue(user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidCredentials)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidCredentials)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if user.AuthMethod == enums.AuthMethodGoogle {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgGoogleLogin)
	}
	if user.PasswordHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidCredentials)
	}
	ok, err := security.VerifyPassword(req.Password, *user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidCredentials)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	return s.issue(user)
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, msgPasswordFieldsRequired)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.AuthMethod != enums.AuthMethodPassword || user.PasswordHash == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, msgPasswordAccountsOnly)
	}
	ok, err := security.VerifyPassword(req.CurrentPassword, *user.PasswordHash)
	if err != nil || !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, msgWrongPassword)
	}
	if len(req.NewPassword) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, msgPasswordTooShort)
	}

	hash, err := security.HashPassword(req.NewPassword, s.pwdCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return nil
}

func (s *service) issue(user *models.User) (*TokenResponse, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenResponse{Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
