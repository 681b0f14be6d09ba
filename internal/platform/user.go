// ABOUTME: User payload normalization for the backend's inconsistent shapes
// ABOUTME: Absorbs full_name vs name and nested role.name vs flat role_name

package platform

// User is the normalized identity record derived from a backend user payload.
// This is the only shape downstream components ever see.
type User struct {
	ID          string
	Email       string
	DisplayName string
	RoleID      string
	RoleName    string
	IsActive    bool
}

// DefaultDisplayName is used when the backend provides neither full_name nor name.
const DefaultDisplayName = "User"

// userPayload mirrors the backend's user object. The backend has been
// observed to return the display name under either full_name or name, and
// the role under either a nested role object or a flat role_name field; all
// variants must decode.
type userPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Name     string `json:"name"`
	RoleID   string `json:"role_id"`
	Role     *struct {
		Name string `json:"name"`
	} `json:"role"`
	RoleName string `json:"role_name"`
	IsActive *bool  `json:"is_active"`
}

// normalize applies the extraction rules, first match wins:
//
//	display name: full_name, then name, then "User"
//	role name:    role.name, then role_name
//
// is_active defaults to true when absent; only an explicit false deactivates.
func (p *userPayload) normalize() User {
	u := User{
		ID:       p.ID,
		Email:    p.Email,
		RoleID:   p.RoleID,
		IsActive: p.IsActive == nil || *p.IsActive,
	}

	switch {
	case p.FullName != "":
		u.DisplayName = p.FullName
	case p.Name != "":
		u.DisplayName = p.Name
	default:
		u.DisplayName = DefaultDisplayName
	}

	switch {
	case p.Role != nil && p.Role.Name != "":
		u.RoleName = p.Role.Name
	default:
		u.RoleName = p.RoleName
	}

	return u
}
