package enums

import "fmt"

// ShareType distinguishes in-app shares from tokenized public links.
type ShareType string

const (
	ShareTypeInternal ShareType = "internal"
	ShareTypeExternal ShareType = "external"
)

var validShareTypes = []ShareType{ShareTypeInternal, ShareTypeExternal}

// IsValid reports whether the value is a known ShareType.
func (s ShareType) IsValid() bool {
	for _, candidate := range validShareTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShareType converts raw input into a ShareType.
func ParseShareType(value string) (ShareType, error) {
	for _, candidate := range validShareTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid share type %q", value)
}

// SharePermission is the access level granted by a share.
type SharePermission string

const (
	SharePermissionViewer SharePermission = "viewer"
	SharePermissionEditor SharePermission = "editor"
)

var validSharePermissions = []SharePermission{SharePermissionViewer, SharePermissionEditor}

// IsValid reports whether the value is a known SharePermission.
func (p SharePermission) IsValid() bool {
	for _, candidate := range validSharePermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// Role maps the share permission onto the collaborator role scale.
func (p SharePermission) Role() CollaboratorRole {
	if p == SharePermissionEditor {
		return CollaboratorRoleEditor
	}
	return CollaboratorRoleViewer
}

// ParseSharePermission converts raw input into a SharePermission.
func ParseSharePermission(value string) (SharePermission, error) {
	for _, candidate := range validSharePermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid share permission %q", value)
}
