package models

import "time"

// Role represents a named bundle of granted permissions in the role-based
// access control (RBAC) system. The default roles (Admin, Librarian, Author,
// Member) are provisioned from the permission catalog; additional custom
// roles can be created at runtime with an arbitrary permission set.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the unique, case-sensitive name of the role (e.g. "Admin").
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255" json:"description"`
	// Permissions are the permission rows owned by this role.
	// They are removed automatically when the role is deleted (CASCADE).
	Permissions []RolePermission `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"permissions,omitempty"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Role model.
// This overrides GORM's default pluralized table naming.
func (Role) TableName() string {
	return "roles"
}
