// ABOUTME: Identity models shared by the session core and the API client
// ABOUTME: Defines roles, the session subject and login/register contracts

package models

import (
	"fmt"
	"strings"
)

// Role is one of the platform's closed set of account roles
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleCompany Role = "Company"
	RoleDriver  Role = "Driver"
	RoleRider   Role = "Rider"
)

// Roles lists every valid role in display order
var Roles = []Role{RoleAdmin, RoleCompany, RoleDriver, RoleRider}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole converts user input to a Role, ignoring case
func ParseRole(s string) (Role, error) {
	for _, known := range Roles {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown role %q (must be one of Admin, Company, Driver, Rider)", s)
}

// ParseRoles parses a comma separated role list. Empty input yields nil.
func ParseRoles(s string) ([]Role, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var roles []Role
	for _, part := range strings.Split(s, ",") {
		role, err := ParseRole(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// Subject is the identity snapshot bound to a session.
// It is only ever held alongside a credential.
type Subject struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// LoginRequest represents credentials for authentication
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a new account signup
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Role     Role   `json:"role"`
}

// Profile is the account record returned by the backend
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Subject narrows a profile to the fields kept in the session
func (p Profile) Subject() Subject {
	return Subject{ID: p.ID, Email: p.Email, Role: p.Role}
}

// AuthResponse is the payload of the login and register endpoints
type AuthResponse struct {
	Token   string  `json:"token"`
	Profile Profile `json:"profile"`
}

// ProfileUpdate carries the editable profile fields.
// Empty fields are left unchanged by the backend.
type ProfileUpdate struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}
