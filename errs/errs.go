package errs

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInvalidCredential    = errors.New("invalid credential")
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrUnknownStatCategory  = errors.New("unknown statistics category")
)

type InvalidArgumentError struct{ err error }

func (e *InvalidArgumentError) Error() string        { return e.err.Error() }
func (e *InvalidArgumentError) Unwrap() error        { return e.err }
func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

func InvalidArgumentf(format string, args ...any) error {
	return &InvalidArgumentError{err: fmt.Errorf(format, args...)}
}

// InvalidCredentialError is also an InvalidArgumentError.
type InvalidCredentialError struct{ err error }

func (e *InvalidCredentialError) Error() string { return e.err.Error() }
func (e *InvalidCredentialError) Unwrap() error { return e.err }
func (e *InvalidCredentialError) Is(target error) bool {
	return target == ErrInvalidCredential || target == ErrInvalidArgument
}

func InvalidCredentialf(format string, args ...any) error {
	return &InvalidCredentialError{err: fmt.Errorf(format, args...)}
}

// RateLimitExceededError reports the first owner whose credential has no core quota left.
type RateLimitExceededError struct {
	Owner string
	Reset time.Time
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for owner %q; resets at %s", e.Owner, e.Reset.UTC().Format(time.RFC3339))
}
func (e *RateLimitExceededError) Is(target error) bool { return target == ErrRateLimitExceeded }

type AuthenticationFailedError struct{ err error }

func (e *AuthenticationFailedError) Error() string        { return e.err.Error() }
func (e *AuthenticationFailedError) Unwrap() error        { return e.err }
func (e *AuthenticationFailedError) Is(target error) bool { return target == ErrAuthenticationFailed }

func AuthenticationFailed(err error) error {
	if err == nil {
		return nil
	}
	return &AuthenticationFailedError{err: err}
}

func AuthenticationFailedf(format string, args ...any) error {
	return &AuthenticationFailedError{err: fmt.Errorf(format, args...)}
}

type UnknownCategoryError struct{ Category string }

func (e *UnknownCategoryError) Error() string        { return fmt.Sprintf("unknown category: %q", e.Category) }
func (e *UnknownCategoryError) Is(target error) bool { return target == ErrUnknownCategory }

type UnknownStatCategoryError struct{ Category string }

func (e *UnknownStatCategoryError) Error() string {
	return fmt.Sprintf("unknown statistics category: %q", e.Category)
}
func (e *UnknownStatCategoryError) Is(target error) bool { return target == ErrUnknownStatCategory }
