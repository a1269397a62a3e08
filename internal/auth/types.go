// Package auth provides user accounts, password verification and signed
// access tokens for the HTTP API.
//
// Passwords are hashed with bcrypt. Tokens are stateless: a JSON claims
// payload signed with HMAC-SHA256, carrying subject, role and expiry.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role controls what a user may do through the API.
type Role string

const (
	// RoleAdmin may manage the catalog and other users.
	RoleAdmin Role = "admin"

	// RoleSeller may interpret utterances and record sales.
	RoleSeller Role = "seller"
)

// IsValid reports whether r is a recognised role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSeller:
		return true
	}
	return false
}

// User is an account that can log in to the API.
type User struct {
	// ID is a unique identifier. Auto-generated if empty on create.
	ID string `json:"id"`

	// Email is the login identifier, stored lowercased.
	Email string `json:"email"`

	// Name is the user's display name.
	Name string `json:"name"`

	// PasswordHash is the bcrypt hash of the user's password. Never
	// serialised.
	PasswordHash string `json:"-"`

	// Role defaults to [RoleSeller] when empty.
	Role Role `json:"role"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the invariants a user must satisfy before persistence.
func (u *User) Validate() error {
	var errs []error
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		errs = append(errs, fmt.Errorf("invalid email %q", u.Email))
	}
	if u.PasswordHash == "" {
		errs = append(errs, errors.New("password hash must not be empty"))
	}
	if u.Role != "" && !u.Role.IsValid() {
		errs = append(errs, fmt.Errorf("unknown role %q", u.Role))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("auth: invalid user: %w", err)
	}
	return nil
}

// normalizeRole returns the role with the documented default applied.
func normalizeRole(r Role) Role {
	if r == "" {
		return RoleSeller
	}
	return r
}
