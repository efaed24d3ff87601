package authz

import "github.com/yukikurage/issue-tracker-api/internal/models"

// Principal is the authenticated caller with its resolved role set.
type Principal struct {
	UserID uint64
	Roles  []models.RoleID
}

// Authenticated reports whether the principal carries an identity.
func (p Principal) Authenticated() bool {
	return p.UserID != 0
}

// HasRole reports whether the principal holds exactly the given role.
func (p Principal) HasRole(role models.RoleID) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether any held role is administrative.
func (p Principal) IsAdmin() bool {
	for _, r := range p.Roles {
		if r.IsAdmin() {
			return true
		}
	}
	return false
}

// Meets reports whether any held role reaches the threshold.
func (p Principal) Meets(min models.RoleID) bool {
	for _, r := range p.Roles {
		if r.AtLeast(min) {
			return true
		}
	}
	return false
}
