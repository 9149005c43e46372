package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"
)

func TestNewResponse(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{fmt.Errorf("%w: demo", ErrUnknownApplication), "unknown_application", http.StatusBadRequest},
		{ErrAuthenticationFailure, "invalid_grant", http.StatusUnauthorized},
		{ErrInvalidOrExpiredToken, "invalid_token", http.StatusUnauthorized},
		{ErrAppKeyMismatch, "app_key_mismatch", http.StatusForbidden},
		{Infrastructure("find application", New("connection refused")), "server_error", http.StatusInternalServerError},
		{context.DeadlineExceeded, "temporarily_unavailable", http.StatusServiceUnavailable},
	}
	for _, c := range cases {
		re := NewResponse(c.err)
		if re.ErrorCode != c.code || re.StatusCode != c.status {
			t.Fatalf("NewResponse(%v) = (%s,%d), want (%s,%d)", c.err, re.ErrorCode, re.StatusCode, c.code, c.status)
		}
	}
}

func TestAuthenticationFailureDoesNotNameAField(t *testing.T) {
	re := NewResponse(ErrAuthenticationFailure)
	if re.Description != "Invalid username or password" {
		t.Fatalf("unexpected description %q", re.Description)
	}
}

func TestInfrastructure(t *testing.T) {
	if Infrastructure("op", nil) != nil {
		t.Fatal("nil error should stay nil")
	}
	if err := Infrastructure("op", context.Canceled); err != context.Canceled {
		t.Fatalf("cancellation must pass through verbatim, got %v", err)
	}
	wrapped := fmt.Errorf("lookup: %w", ErrUnknownApplication)
	if err := Infrastructure("op", wrapped); err != wrapped {
		t.Fatalf("taxonomy errors must not be rewrapped, got %v", err)
	}
	err := Infrastructure("list assignments", New("dial tcp: refused"))
	if !IsInfrastructure(err) {
		t.Fatalf("expected infrastructure error, got %T", err)
	}
	if err.Error() != "list assignments: dial tcp: refused" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
