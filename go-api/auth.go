package main

import (
	"context"
	"errors"
)

// Claim is what a verified bearer token tells us about the caller.
// Email is empty when the provider didn't include one.
type Claim struct {
	Subject string
	Email   string
}

// IdentityVerifier turns a bearer token into a Claim. Implementations return
// errUnauthorized (possibly wrapped) for every kind of failure.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (Claim, error)
}

var errUnauthorized = errors.New("unauthorized")
