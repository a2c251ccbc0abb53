package staff

import (
	"errors"
	"strings"
)

var (
	ErrInvalidRole      = errors.New("invalid staff role")
	ErrMissingPrincipal = errors.New("staff id and tenant id are required")
)

type Role string

const (
	RoleKitchen Role = "kitchen"
	RoleWaiter  Role = "waiter"
	RoleManager Role = "manager"
)

var roleLevel = map[Role]int{
	RoleKitchen: 1,
	RoleWaiter:  2,
	RoleManager: 3,
}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	_, ok := roleLevel[r]
	return ok
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	level, ok := roleLevel[r]
	minLevel, minOK := roleLevel[min]
	return ok && minOK && level >= minLevel
}

func NewRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

// Principal is an authenticated staff member, scoped to one tenant.
type Principal struct {
	ID       string
	TenantID string
	Role     Role
}

func NewPrincipal(id, tenantID, role string) (Principal, error) {
	id = strings.TrimSpace(id)
	tenantID = strings.TrimSpace(tenantID)
	if id == "" || tenantID == "" {
		return Principal{}, ErrMissingPrincipal
	}
	r, err := NewRole(role)
	if err != nil {
		return Principal{}, err
	}
	return Principal{ID: id, TenantID: tenantID, Role: r}, nil
}
