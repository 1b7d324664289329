// Package mail delivers verification codes to users by email.
package mail

import (
	"context"
	"fmt"
)

// Dispatcher sends a single message. Implementations must be safe for
// concurrent use.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SignupSubject and ResetPasswordSubject are the subjects used for the
// two verification flows.
const (
	SignupSubject        = "Verify your email address"
	ResetPasswordSubject = "Reset your password"
)

func CodeBody(code string) string {
	return fmt.Sprintf("Your verification code is %s. It expires shortly, so use it soon.", code)
}
