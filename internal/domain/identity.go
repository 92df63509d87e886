package domain

// Role is the value stored in the identity provider's "role" custom claim.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
)

// Roles lists every assignable role.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleUser}

// ParseRole reports whether value names an assignable role.
func ParseRole(value string) (Role, bool) {
	for _, role := range Roles {
		if string(role) == value {
			return role, true
		}
	}
	return "", false
}

// AuthUser is the flattened view of an identity provider account.
type AuthUser struct {
	UID           string       `json:"uid"`
	Email         *string      `json:"email"`
	DisplayName   *string      `json:"displayName"`
	PhoneNumber   *string      `json:"phoneNumber"`
	PhotoURL      *string      `json:"photoUrl"`
	EmailVerified bool         `json:"emailVerified"`
	Disabled      bool         `json:"disabled"`
	Role          *Role        `json:"role"`
	Metadata      UserMetadata `json:"metadata"`
}

// UserMetadata holds display-formatted account timestamps.
type UserMetadata struct {
	CreatedAt   *string `json:"createdAt"`
	LastLoginAt *string `json:"lastLoginAt"`
}
