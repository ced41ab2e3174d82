package domain

import "time"

type Role string

const (
	RoleAdmin            Role = "admin"
	RoleCashier          Role = "cashier"
	RoleInventoryManager Role = "inventory_manager"
)

// DefaultRole is assigned to newly registered profiles.
const DefaultRole = RoleCashier

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCashier, RoleInventoryManager:
		return true
	}
	return false
}

type Profile struct {
	ID        string
	Username  string
	FullName  string
	Role      Role
	CreatedAt time.Time
}

func (p Profile) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
