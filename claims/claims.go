package claims

import "slices"

// Claims are the authorization facts carried by an access token.
type Claims struct {
	Subject     string
	Permissions []string
	Roles       []string
}

// HasPermission reports whether the claims include permission.
func (c Claims) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// HasRole reports whether the claims include role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Requirements lists what a view demands of the caller.
type Requirements struct {
	Permissions []string `mapstructure:"permissions"`
	Roles       []string `mapstructure:"roles"`
}

// IsEmpty reports whether no permission or role is required.
func (r Requirements) IsEmpty() bool {
	return len(r.Permissions) == 0 && len(r.Roles) == 0
}

// Satisfies reports whether c holds every required permission and every
// required role.
func Satisfies(c Claims, req Requirements) bool {
	for _, p := range req.Permissions {
		if !c.HasPermission(p) {
			return false
		}
	}
	for _, r := range req.Roles {
		if !c.HasRole(r) {
			return false
		}
	}
	return true
}
