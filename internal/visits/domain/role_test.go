package domain

import (
	"testing"

	"fieldops_backend/platform/apperr"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		input string
		want  Role
	}{
		{"admin", RoleAdmin},
		{"supervisor", RoleSupervisor},
		{"technician", RoleTechnician},
		{"ADMIN", RoleAdmin},
		{"  Supervisor  ", RoleSupervisor},
	}

	for _, tc := range cases {
		got, err := ParseRole(tc.input)
		if err != nil {
			t.Fatalf("ParseRole(%q) error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseRole(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseRoleRejectsUnknown(t *testing.T) {
	for _, input := range []string{"", "root", "superadmin", "tech"} {
		_, err := ParseRole(input)
		if !apperr.Is(err, apperr.KindForbidden) {
			t.Fatalf("ParseRole(%q) = %v, want forbidden error", input, err)
		}
	}
}
