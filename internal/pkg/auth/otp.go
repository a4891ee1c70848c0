// internal/pkg/auth/otp.go
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTP purposes share one store under different key prefixes
const (
	PurposeVerifyEmail   = "verify_email"
	PurposeResetPassword = "reset_password"
)

// ErrOTPInvalid covers wrong, expired and already-used codes
var ErrOTPInvalid = errors.New("invalid or expired code")

// GenerateOTP returns six hex characters from three random bytes
func GenerateOTP() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// OTPStore keeps one-time codes in Redis with a TTL
type OTPStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOTPStore(client *redis.Client, ttl time.Duration) *OTPStore {
	return &OTPStore{client: client, ttl: ttl}
}

func otpKey(purpose, email string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, email)
}

// Save replaces any code previously issued for the same purpose and email
func (s *OTPStore) Save(ctx context.Context, purpose, email, code string) error {
	if err := s.client.Set(ctx, otpKey(purpose, email), code, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// Consume checks the code and deletes it so it cannot be replayed
func (s *OTPStore) Consume(ctx context.Context, purpose, email, code string) error {
	stored, err := s.client.GetDel(ctx, otpKey(purpose, email)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrOTPInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to read otp: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrOTPInvalid
	}
	return nil
}
