package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// devClaims is the payload of locally minted HS256 tokens. It carries the
// same subject/email pair a Firebase ID token does.
type devClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

const devIssuer = "taskpad-dev"

func signDevToken(secret []byte, subject, email string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty signing secret")
	}
	if subject == "" {
		return "", errors.New("empty subject")
	}
	now := time.Now()
	claims := &devClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    devIssuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(secret)
}

// devVerifier accepts tokens from signDevToken. Local development and tests only.
type devVerifier struct {
	secret []byte
}

func newDevVerifier(secret string) *devVerifier {
	return &devVerifier{secret: []byte(secret)}
}

func (v *devVerifier) Verify(_ context.Context, tokenStr string) (Claim, error) {
	claims := &devClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(devIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claim{}, fmt.Errorf("%w: %v", errUnauthorized, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Claim{}, fmt.Errorf("%w: token has no subject", errUnauthorized)
	}
	return Claim{Subject: claims.Subject, Email: claims.Email}, nil
}
