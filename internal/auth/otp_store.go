package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/shopfront-backend/pkg/redis"
)

// PendingRegistration is held until the emailed passcode is redeemed.
type PendingRegistration struct {
	OTP          string `json:"otp"`
	PasswordHash string `json:"passwordHash"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`

	// stored is the exact value Load read, used to consume that entry only.
	stored string
}

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	ConsumeIfEqual(ctx context.Context, key, expected string) (bool, error)
	OTPKey(email string) string
}

// OTPStore keeps pending registrations in redis with a fixed lifetime.
type OTPStore struct {
	kv  kvStore
	ttl time.Duration
}

func NewOTPStore(kv kvStore, ttl time.Duration) *OTPStore {
	return &OTPStore{kv: kv, ttl: ttl}
}

// Save replaces any pending registration for email and restarts its lifetime.
func (s *OTPStore) Save(ctx context.Context, email string, pending PendingRegistration) error {
	buf, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.kv.OTPKey(email), string(buf), s.ttl)
}

// Load returns the pending registration, or nil when none exists or it expired.
func (s *OTPStore) Load(ctx context.Context, email string) (*PendingRegistration, error) {
	raw, err := s.kv.Get(ctx, s.kv.OTPKey(email))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	var pending PendingRegistration
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return nil, err
	}
	pending.stored = raw
	return &pending, nil
}

// Consume removes pending only if it is still the registration held for email.
// Only one caller observes true; a registration saved after Load survives.
func (s *OTPStore) Consume(ctx context.Context, email string, pending *PendingRegistration) (bool, error) {
	if pending == nil || pending.stored == "" {
		return false, nil
	}
	return s.kv.ConsumeIfEqual(ctx, s.kv.OTPKey(email), pending.stored)
}
