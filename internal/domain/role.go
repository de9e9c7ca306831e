package domain

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleUser    Role = "ROLE_USER"
	RoleManager Role = "ROLE_MANAGER"
	RoleAdmin   Role = "ROLE_ADMIN"
)

const rolePrefix = "ROLE_"

// ParseRole accepts the canonical form and the bare form ("ADMIN"), in any case.
func ParseRole(raw string) (Role, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if normalized == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownRole)
	}
	if !strings.HasPrefix(normalized, rolePrefix) {
		normalized = rolePrefix + normalized
	}

	role := Role(normalized)
	if role.rank() == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
	return role, nil
}

func (r Role) Short() string {
	return strings.TrimPrefix(string(r), rolePrefix)
}

func (r Role) rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleManager:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// HighestRole picks the most privileged recognised role out of raw values.
func HighestRole(raw []string) (Role, error) {
	var best Role
	for _, value := range raw {
		role, err := ParseRole(value)
		if err != nil {
			continue
		}
		if role.rank() > best.rank() {
			best = role
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: none of %v", ErrUnknownRole, raw)
	}
	return best, nil
}

// RoleSet is the set of roles a view admits. A nil set means the view has
// no role requirement beyond being authenticated.
type RoleSet []Role

func Roles(roles ...Role) RoleSet {
	if roles == nil {
		return RoleSet{}
	}
	return RoleSet(roles)
}

func (s RoleSet) Contains(role Role) bool {
	for _, candidate := range s {
		if candidate == role {
			return true
		}
	}
	return false
}

func (s RoleSet) String() string {
	if s == nil {
		return "any"
	}
	parts := make([]string, 0, len(s))
	for _, role := range s {
		parts = append(parts, role.Short())
	}
	return strings.Join(parts, ",")
}
