package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by [Service.Login] for unknown emails
// and wrong passwords alike, so callers cannot probe which accounts exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service authenticates users and manages accounts.
type Service struct {
	store  Store
	tokens *TokenManager
}

// NewService creates an authentication service over the given store and
// token manager.
func NewService(store Store, tokens *TokenManager) *Service {
	return &Service{store: store, tokens: tokens}
}

// Login verifies the credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("auth: login: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", err
	}
	slog.Info("auth: user logged in", "user_id", u.ID, "role", u.Role)
	return token, nil
}

// Verify checks an access token and returns its claims.
func (s *Service) Verify(token string) (Claims, error) {
	return s.tokens.Verify(token)
}

// CreateUser hashes the password and persists a new account.
func (s *Service) CreateUser(ctx context.Context, email, name, password string, role Role) (User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	return s.store.Create(ctx, User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
	})
}

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("auth: password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}
