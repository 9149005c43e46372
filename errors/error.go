package errors

import (
	"context"
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
var New = errors.New

// Is and As forward to the standard library so callers need a single errors import.
var (
	Is = errors.Is
	As = errors.As
)

// known errors
var (
	ErrUnknownApplication    = errors.New("unknown application")
	ErrAuthenticationFailure = errors.New("invalid username or password")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrAppKeyMismatch        = errors.New("token does not match requested application key")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrApplicationExists     = errors.New("application key already exists")
	ErrNotFound              = errors.New("not found")
)

// InfrastructureError reports that a collaborator (persistence, cache, signer)
// could not serve the request. It is distinct from authorization outcomes.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

// Infrastructure wraps err as an InfrastructureError. Cancellation and deadline
// errors are returned unchanged, as are errors already in the taxonomy.
func Infrastructure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var ie *InfrastructureError
	if errors.As(err, &ie) || isKnown(err) {
		return err
	}
	return &InfrastructureError{Op: op, Err: err}
}

// IsInfrastructure reports whether err came from a failing collaborator.
func IsInfrastructure(err error) bool {
	var ie *InfrastructureError
	return errors.As(err, &ie)
}

func isKnown(err error) bool {
	for known := range StatusCodes {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
