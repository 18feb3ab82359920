package model

import "fmt"

// Role is the closed set of account roles. The zero value is not a valid role.
type Role uint8

const (
	RoleDependent Role = iota + 1
	RoleSupervisor
	RoleEducator
)

// AllRoles lists every valid role in declaration order.
var AllRoles = []Role{RoleDependent, RoleSupervisor, RoleEducator}

// String returns the wire name used in JSON bodies, storage, and URLs.
func (r Role) String() string {
	switch r {
	case RoleDependent:
		return "student"
	case RoleSupervisor:
		return "caregiver"
	case RoleEducator:
		return "educator"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// ParseRole converts a wire name into a Role.
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDependent, RoleSupervisor, RoleEducator:
		return true
	}
	return false
}

// IsDependent reports whether r raises help requests.
func (r Role) IsDependent() bool {
	return r == RoleDependent
}

// IsSupervisor reports whether r receives and resolves help requests.
// Educators supervise with the same rights as caregivers.
func (r Role) IsSupervisor() bool {
	switch r {
	case RoleSupervisor, RoleEducator:
		return true
	case RoleDependent:
		return false
	}
	return false
}

// CodePrefix is the leading segment of pairing codes issued to this role.
func (r Role) CodePrefix() string {
	switch r {
	case RoleDependent:
		return "STU"
	case RoleSupervisor:
		return "CAR"
	case RoleEducator:
		return "EDU"
	}
	return ""
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("marshal invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
