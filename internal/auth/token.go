package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrTokenInvalid is returned by [TokenManager.Verify] for malformed or
// tampered tokens.
var ErrTokenInvalid = errors.New("invalid token")

// ErrTokenExpired is returned by [TokenManager.Verify] for well-formed
// tokens past their expiry.
var ErrTokenExpired = errors.New("token expired")

// DefaultTokenTTL is the access-token lifetime when none is configured.
const DefaultTokenTTL = time.Hour

// Claims is the payload carried inside an access token.
type Claims struct {
	// Subject is the user's email.
	Subject string `json:"sub"`

	// UserID is the user's store ID.
	UserID string `json:"uid"`

	// Role is the user's role at issue time.
	Role Role `json:"role"`

	// IssuedAt and ExpiresAt are Unix seconds.
	IssuedAt  int64 `json:"iat"`
	ExpiresAt int64 `json:"exp"`
}

// TokenOption is a functional option for configuring a [TokenManager].
type TokenOption func(*TokenManager)

// WithTTL sets the access-token lifetime. Default: [DefaultTokenTTL].
func WithTTL(d time.Duration) TokenOption {
	return func(m *TokenManager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithTokenClock replaces the time source. Intended for tests.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

// TokenManager issues and verifies stateless access tokens: a base64url
// JSON claims payload joined to its HMAC-SHA256 signature with a dot.
// It is safe for concurrent use.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a [TokenManager] signing with secret.
func NewTokenManager(secret []byte, opts ...TokenOption) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: token secret must not be empty")
	}
	m := &TokenManager{
		secret: secret,
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Issue signs a token for the given user.
func (m *TokenManager) Issue(u User) (string, error) {
	now := m.now()
	claims := Claims{
		Subject:   u.Email,
		UserID:    u.ID,
		Role:      u.Role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(m.ttl).Unix(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("auth: marshal claims: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + m.sign(encoded), nil
}

// Verify checks the token's signature and expiry and returns its claims.
func (m *TokenManager) Verify(token string) (Claims, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return Claims{}, ErrTokenInvalid
	}
	if !hmac.Equal([]byte(m.sign(encoded)), []byte(sig)) {
		return Claims{}, ErrTokenInvalid
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Claims{}, ErrTokenInvalid
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, ErrTokenInvalid
	}
	if claims.Subject == "" || !claims.Role.IsValid() {
		return Claims{}, ErrTokenInvalid
	}
	if m.now().Unix() >= claims.ExpiresAt {
		return Claims{}, ErrTokenExpired
	}
	return claims, nil
}

func (m *TokenManager) sign(encoded string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
