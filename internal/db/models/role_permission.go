package models

import "time"

// RolePermission is one granted capability owned by exactly one role. The
// row stores both the derived permission name and the raw (action, resource)
// pair; the composite unique index guarantees a role can hold a given pair
// at most once, so granting the same capability twice is a conflict, never a
// duplicate row.
type RolePermission struct {
	// ID is the unique identifier for the granted permission.
	ID uint `gorm:"primaryKey" json:"id"`
	// RoleID is the owning role. Rows cascade away with the role.
	RoleID uint `gorm:"not null;uniqueIndex:idx_role_action_resource" json:"role_id"`
	// Name is the canonical permission name ("Permissions.<resource>.<action>").
	Name string `gorm:"size:150;not null;index" json:"name"`
	// Action is the permission verb (e.g. "View", "Create").
	Action string `gorm:"size:50;not null;uniqueIndex:idx_role_action_resource" json:"action"`
	// Resource is the protected entity (e.g. "Books", "Roles").
	Resource string `gorm:"size:100;not null;uniqueIndex:idx_role_action_resource" json:"resource"`
	// CreatedAt is the timestamp when the permission was granted (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the database table name for the RolePermission model.
// This overrides GORM's default pluralized table naming.
func (RolePermission) TableName() string {
	return "role_permissions"
}
