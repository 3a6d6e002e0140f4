package enums

import (
	"fmt"
	"strings"
)

// Role is a closed set of account roles reported by the API.
type Role string

const (
	RoleUser   Role = "ROLE_USER"
	RoleSeller Role = "ROLE_SELLER"
	RoleAdmin  Role = "ROLE_ADMIN"
)

var validRoles = []Role{
	RoleUser,
	RoleSeller,
	RoleAdmin,
}

// Capability is something a session may be allowed to do.
type Capability string

const (
	CapabilityShop           Capability = "shop"
	CapabilityManageProducts Capability = "manage_products"
	CapabilityViewSellerSide Capability = "view_seller_orders"
	CapabilityManageSellers  Capability = "manage_sellers"
	CapabilityManageCatalog  Capability = "manage_categories"
	CapabilityViewAllOrders  Capability = "view_all_orders"
)

var capabilitiesByRole = map[Role][]Capability{
	RoleUser: {
		CapabilityShop,
	},
	RoleSeller: {
		CapabilityShop,
		CapabilityManageProducts,
		CapabilityViewSellerSide,
	},
	RoleAdmin: {
		CapabilityShop,
		CapabilityManageProducts,
		CapabilityViewSellerSide,
		CapabilityManageSellers,
		CapabilityManageCatalog,
		CapabilityViewAllOrders,
	},
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Capabilities lists what the role grants.
func (r Role) Capabilities() []Capability {
	caps := capabilitiesByRole[r]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

// ParseRole converts raw input into a Role. The ROLE_ prefix is optional.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized != "" && !strings.HasPrefix(normalized, "ROLE_") {
		normalized = "ROLE_" + normalized
	}
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// CapabilitySet is the union of capabilities for a set of roles.
type CapabilitySet map[Capability]struct{}

// CapabilitiesFor unions the capabilities of every role.
func CapabilitiesFor(roles []Role) CapabilitySet {
	set := CapabilitySet{}
	for _, role := range roles {
		for _, capability := range capabilitiesByRole[role] {
			set[capability] = struct{}{}
		}
	}
	return set
}

// Has reports membership.
func (s CapabilitySet) Has(capability Capability) bool {
	_, ok := s[capability]
	return ok
}
