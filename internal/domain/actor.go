package domain

// Role represents an actor's access level
type Role string

const (
	// RoleAdmin resolves withdrawals and manages wallets
	RoleAdmin Role = "admin"

	// RoleUser acts on their own wallets only
	RoleUser Role = "user"

	// RoleSystem is used by background workers and internal callers
	RoleSystem Role = "system"
)

var validRoles = map[Role]bool{
	RoleAdmin:  true,
	RoleUser:   true,
	RoleSystem: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// Actor is the identity on whose behalf an operation runs.
type Actor struct {
	UserID string
	Role   Role
}

// SystemActor returns the actor used by internal workers.
func SystemActor() Actor {
	return Actor{UserID: "system", Role: RoleSystem}
}

// IsElevated reports whether the actor may act on any wallet.
func (a Actor) IsElevated() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess reports whether the actor may read or act on the wallet.
func (a Actor) CanAccess(w *Wallet) bool {
	if a.IsElevated() {
		return true
	}
	return a.Role == RoleUser && a.UserID != "" && w.OwnerID == a.UserID
}

// RequireElevated returns ErrForbidden unless the actor is admin or system.
func (a Actor) RequireElevated() error {
	if !a.IsElevated() {
		return ErrForbidden
	}
	return nil
}

// RequireAdmin returns ErrForbidden unless the actor is an admin.
func (a Actor) RequireAdmin() error {
	if !a.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
