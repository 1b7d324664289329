// Package verification stores short-lived email verification codes.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/dmaltsev/tasklist/internal/server/cache"
)

// Purpose namespaces codes so a signup code can never satisfy a
// password reset check for the same address.
type Purpose string

const (
	PurposeSignup        Purpose = "signup"
	PurposeResetPassword Purpose = "resetPassword"
)

func (p Purpose) key(email string) string {
	return fmt.Sprintf("%s:%s", p, email)
}

type Store struct {
	cache     cache.Cache
	signupTTL time.Duration
	resetTTL  time.Duration
}

func NewStore(c cache.Cache, signupTTL, resetTTL time.Duration) *Store {
	return &Store{cache: c, signupTTL: signupTTL, resetTTL: resetTTL}
}

func (s *Store) ttl(p Purpose) time.Duration {
	if p == PurposeResetPassword {
		return s.resetTTL
	}
	return s.signupTTL
}

// Save stores the code for the address, replacing any previous one.
func (s *Store) Save(ctx context.Context, p Purpose, email, code string) error {
	return s.cache.Set(ctx, p.key(email), code, s.ttl(p))
}

// Verify reports whether code matches the stored value. A missing or
// expired entry is a mismatch, not an error.
func (s *Store) Verify(ctx context.Context, p Purpose, email, code string) (bool, error) {
	stored, err := s.cache.Get(ctx, p.key(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return stored == code, nil
}

// Delete removes the stored code. Deleting an absent code is not an error.
func (s *Store) Delete(ctx context.Context, p Purpose, email string) error {
	return s.cache.Delete(ctx, p.key(email))
}
