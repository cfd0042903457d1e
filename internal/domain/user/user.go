package user

import (
	"strings"
	"time"

	"github.com/kama-line/service-reservation/internal/domain/errs"
)

// Role determines which workflows a user may enter.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User is a registered rider or administrator, keyed by the opaque stable
// handle assigned by the chat transport. Created on first contact once the
// phone number is verified; immutable afterwards except for role escalation
// performed outside this service.
type User struct {
	ID         int64
	ExternalID int64
	FullName   string
	Phone      string
	Role       Role
	CreatedAt  time.Time
}

// NewUser creates a customer-role user from the registration contact.
func NewUser(externalID int64, fullName, phone string) (*User, error) {
	if externalID == 0 {
		return nil, errs.NewValidationError("external ID is required")
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, errs.NewValidationError("phone number is required")
	}
	return &User{
		ExternalID: externalID,
		FullName:   strings.TrimSpace(fullName),
		Phone:      phone,
		Role:       RoleCustomer,
		CreatedAt:  time.Now(),
	}, nil
}

// IsAdmin reports whether the user may enter the admin workflow.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
