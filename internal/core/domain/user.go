package domain

import "time"

// TenantRef is the tenant summary embedded in a user profile.
type TenantRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
}

// UserGroup is a group membership carried in the user profile.
type UserGroup struct {
	GroupID     string         `json:"groupId"`
	GroupName   string         `json:"groupName"`
	Role        string         `json:"role"`
	Permissions map[string]any `json:"permissions,omitempty"`
	AssignedAt  string         `json:"assignedAt,omitempty"`
}

// User models an authenticated actor. The JSON shape is the profile the client
// keeps in its session storage.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Username     string      `json:"username"`
	FirstName    string      `json:"firstName,omitempty"`
	LastName     string      `json:"lastName,omitempty"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	Department   string      `json:"department,omitempty"`
	TenantID     string      `json:"tenantId,omitempty"`
	Tenant       *TenantRef  `json:"tenant,omitempty"`
	UserGroups   []UserGroup `json:"userGroups,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// HasTenantBinding reports whether the user carries both a tenant id and a tenant
// record.
func (u *User) HasTenantBinding() bool {
	return u != nil && u.TenantID != "" && u.Tenant != nil
}
