// Package auth issues and verifies the signed tokens that gate the admin
// surface: bearer tokens carrying capabilities and action-bound form nonces.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CapManageOptions is required for every admin page and endpoint.
const CapManageOptions = "manage_options"

const (
	issuer        = "exchange-rate-hub"
	audienceAdmin = "admin"
	audienceForm  = "form"
)

var (
	// ErrInvalidToken is returned for tokens that are malformed, forged or of the wrong kind.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpired is returned for tokens past their expiry.
	ErrExpired = errors.New("token expired")
)

// Claims are the claims of an admin token.
type Claims struct {
	Capabilities []string `json:"caps,omitempty"`
	jwt.RegisteredClaims
}

// Can reports whether the token grants capability.
func (c *Claims) Can(capability string) bool {
	return c != nil && slices.Contains(c.Capabilities, capability)
}

type nonceClaims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 tokens with one shared secret.
type Authenticator struct {
	secret   []byte
	tokenTTL time.Duration
	nonceTTL time.Duration
	now      func() time.Time
}

// New creates an Authenticator.
func New(secret string, tokenTTL, nonceTTL time.Duration) *Authenticator {
	return &Authenticator{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		nonceTTL: nonceTTL,
		now:      time.Now,
	}
}

// IssueToken returns a signed admin token for subject.
func (a *Authenticator) IssueToken(subject string, capabilities ...string) (string, error) {
	claims := Claims{
		Capabilities: capabilities,
		RegisteredClaims: a.registered(subject, audienceAdmin, a.tokenTTL),
	}
	return a.sign(claims)
}

// ParseToken verifies an admin token and returns its claims.
func (a *Authenticator) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	if err := a.parse(token, claims, audienceAdmin); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueNonce returns a short-lived token that authorizes subject to perform action once per form render.
func (a *Authenticator) IssueNonce(subject, action string) (string, error) {
	claims := nonceClaims{
		Action:           action,
		RegisteredClaims: a.registered(subject, audienceForm, a.nonceTTL),
	}
	return a.sign(claims)
}

// VerifyNonce checks that nonce was issued to subject for action and has not expired.
func (a *Authenticator) VerifyNonce(nonce, subject, action string) error {
	claims := &nonceClaims{}
	if err := a.parse(nonce, claims, audienceForm); err != nil {
		return err
	}
	if claims.Subject != subject || claims.Action != action {
		return ErrInvalidToken
	}
	return nil
}

func (a *Authenticator) registered(subject, audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := a.now()
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
}

func (a *Authenticator) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (a *Authenticator) parse(token string, claims jwt.Claims, audience string) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
}
