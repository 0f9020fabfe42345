package domain

import "time"

// Principal is the opaque caller identity supplied by the external identity
// provider. The core never trusts a principal carried in a request body; it is
// always taken from the authenticated transport layer.
type Principal string

// Role classifies a caller for authorization purposes.
type Role string

const (
	// RoleAdmin is the single platform-wide super-admin. It manages the tenant
	// lifecycle and has no visibility into any shop's inventory.
	RoleAdmin Role = "admin"
	// RoleUser is a shop owner bound to exactly one shop.
	RoleUser Role = "user"
	// RoleGuest is an authenticated caller with no bound shop and no elevated
	// role.
	RoleGuest Role = "guest"
)

// Shop is an isolated inventory tenant with exactly one owning principal.
// Shops are never deleted; suspension is the deletion substitute.
type Shop struct {
	ID          int64     `json:"id"`
	Owner       Principal `json:"owner"`
	Name        string    `json:"name"`
	IsActive    bool      `json:"is_active"`
	IsSuspended bool      `json:"is_suspended"`
	LastUpdated time.Time `json:"last_updated"`
}

// Usable reports whether the shop's owner may read or write it.
func (s *Shop) Usable() bool {
	return s.IsActive && !s.IsSuspended
}

// UserProfile binds a principal to its display data, optional shop, and
// super-admin flag. At most one profile is bound to a given shop, and at most
// one profile carries the super-admin flag at any time.
type UserProfile struct {
	Principal    Principal `json:"principal"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ShopID       *int64    `json:"shop_id,omitempty"`
	IsSuperAdmin bool      `json:"is_super_admin"`
}
