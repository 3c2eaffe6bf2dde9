package models

import "strings"

// UserRole is the closed set of roles an identity may hold.
type UserRole string

const (
	RoleStudent  UserRole = "student"
	RoleAdmin    UserRole = "admin"
	RoleReviewer UserRole = "reviewer"
)

// ParseUserRole accepts the canonical role names plus the campus aliases
// "mahasiswa" (student) and "dosen" (reviewer).
func ParseUserRole(raw string) (UserRole, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "student", "mahasiswa":
		return RoleStudent, true
	case "admin":
		return RoleAdmin, true
	case "reviewer", "dosen":
		return RoleReviewer, true
	}
	return "", false
}

// Identity is the authenticated principal supplied by the identity provider.
type Identity struct {
	ID   string   `json:"id"`
	Role UserRole `json:"role"`
}

// IsReviewer reports whether the identity may review requests.
func (i Identity) IsReviewer() bool {
	return i.Role == RoleAdmin || i.Role == RoleReviewer
}
