package enums

import "fmt"

// CollaboratorRole represents a wishlist-level permissions role.
type CollaboratorRole string

const (
	CollaboratorRoleOwner  CollaboratorRole = "owner"
	CollaboratorRoleEditor CollaboratorRole = "editor"
	CollaboratorRoleViewer CollaboratorRole = "viewer"
)

var validCollaboratorRoles = []CollaboratorRole{
	CollaboratorRoleOwner,
	CollaboratorRoleEditor,
	CollaboratorRoleViewer,
}

// String implements fmt.Stringer.
func (c CollaboratorRole) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CollaboratorRole.
func (c CollaboratorRole) IsValid() bool {
	for _, candidate := range validCollaboratorRoles {
		if candidate == c {
			return true
		}
	}
	return false
}

// CanEdit reports whether the role grants mutation rights on wishlist content.
func (c CollaboratorRole) CanEdit() bool {
	return c == CollaboratorRoleOwner || c == CollaboratorRoleEditor
}

// ParseCollaboratorRole converts raw input into a CollaboratorRole.
func ParseCollaboratorRole(value string) (CollaboratorRole, error) {
	for _, candidate := range validCollaboratorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid collaborator role %q", value)
}
