package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// Issuers accepted on Google ID tokens.
var googleIssuers = map[string]struct{}{
	"accounts.google.com":         {},
	"https://accounts.google.com": {},
}

var ErrEmptyAudience = errors.New("google client id is empty")

// IDTokenValidator checks a provider token's signature, audience and
// expiry. *idtoken.Validator satisfies it.
type IDTokenValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// FederatedIdentity is the verified identity extracted from a Google ID
// token. It lives for a single request and is never stored.
type FederatedIdentity struct {
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
	Issuer        string
}

// GoogleVerifier validates Google ID tokens issued for one OAuth client.
type GoogleVerifier struct {
	audience  string
	validator IDTokenValidator
}

// NewGoogleVerifier builds a verifier backed by Google's published signing
// keys. The key set is fetched and cached by the idtoken package.
func NewGoogleVerifier(ctx context.Context, audience string, opts ...option.ClientOption) (*GoogleVerifier, error) {
	if audience == "" {
		return nil, ErrEmptyAudience
	}
	v, err := idtoken.NewValidator(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create id token validator: %w", err)
	}
	return NewGoogleVerifierWithValidator(audience, v)
}

// NewGoogleVerifierWithValidator builds a verifier around an existing
// validator.
func NewGoogleVerifierWithValidator(audience string, v IDTokenValidator) (*GoogleVerifier, error) {
	if audience == "" {
		return nil, ErrEmptyAudience
	}
	return &GoogleVerifier{audience: audience, validator: v}, nil
}

// Verify validates token and returns the identity it carries. Any failure,
// whatever the cause, is reported as common.ErrFederatedTokenInvalid.
func (g *GoogleVerifier) Verify(ctx context.Context, token string) (*FederatedIdentity, error) {
	if token == "" {
		return nil, common.ErrFederatedTokenInvalid
	}

	payload, err := g.validator.Validate(ctx, token, g.audience)
	if err != nil || payload == nil {
		return nil, common.ErrFederatedTokenInvalid
	}

	if _, ok := googleIssuers[payload.Issuer]; !ok {
		return nil, common.ErrFederatedTokenInvalid
	}

	email := claimString(payload.Claims, "email")
	if email == "" {
		return nil, common.ErrFederatedTokenInvalid
	}

	return &FederatedIdentity{
		Email:         email,
		EmailVerified: claimBool(payload.Claims, "email_verified"),
		Name:          claimString(payload.Claims, "name"),
		Picture:       claimString(payload.Claims, "picture"),
		Issuer:        payload.Issuer,
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}

// claimBool accepts both a JSON boolean and the string "true".
func claimBool(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}
