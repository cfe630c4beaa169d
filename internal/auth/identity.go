package auth

import "todoapp/internal/model"

// Identity is the resolved, request-scoped view of an authenticated user.
// It is built once by the resolver and passed by value.
type Identity struct {
	ID       uint
	Username string
	Role     model.Role
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

// IdentityOf builds the identity carried in tokens for user.
func IdentityOf(user *model.User) Identity {
	return Identity{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
}
