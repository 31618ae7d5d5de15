package domain

import (
	"strings"

	"github.com/google/uuid"

	"fieldops_backend/platform/apperr"
)

// Role is the canonical actor role. It is parsed once at the request
// boundary; everything below the handlers works with the typed value.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleTechnician Role = "technician"
)

// ParseRole converts a raw role string into a canonical Role.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleSupervisor:
		return RoleSupervisor, nil
	case RoleTechnician:
		return RoleTechnician, nil
	default:
		return "", apperr.Forbidden("unknown role")
	}
}

// Actor is the authenticated principal performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}
