package authz

import "fmt"

// RoleTag names one of the four default roles provisioned from the catalog.
type RoleTag string

const (
	// RoleAdmin is the reserved administrator role.
	RoleAdmin RoleTag = "Admin"
	// RoleLibrarian is the default librarian role.
	RoleLibrarian RoleTag = "Librarian"
	// RoleAuthor is the default author role.
	RoleAuthor RoleTag = "Author"
	// RoleMember is the default member role.
	RoleMember RoleTag = "Member"
)

// DefaultRoles returns the role tags provisioned at seed time.
func DefaultRoles() []RoleTag {
	return []RoleTag{RoleAdmin, RoleLibrarian, RoleAuthor, RoleMember}
}

// DefaultRoleDescriptions maps each default role to its seeded description.
func DefaultRoleDescriptions() map[RoleTag]string {
	return map[RoleTag]string{
		RoleAdmin:     "Administrator role with all permissions",
		RoleLibrarian: "Librarian role with library management permissions",
		RoleAuthor:    "Author role with book creation and management permissions",
		RoleMember:    "Member role with basic library access",
	}
}

// Definition is one immutable catalog entry: a described (action, resource)
// pair plus the default-role flags deciding who receives it at provisioning
// time. The flag fields double as the TOML schema for operator-supplied
// catalog files.
type Definition struct {
	// Description is the human readable explanation of the grant.
	Description string `toml:"description"`
	// Action is the permission verb.
	Action Action `toml:"action"`
	// Resource is the permission noun.
	Resource Resource `toml:"resource"`
	// Admin marks the entry as granted to the Admin role.
	Admin bool `toml:"admin"`
	// Librarian marks the entry as granted to the Librarian role.
	Librarian bool `toml:"librarian"`
	// Author marks the entry as granted to the Author role.
	Author bool `toml:"author"`
	// Member marks the entry as granted to the Member role.
	Member bool `toml:"member"`
}

// Name returns the canonical permission name of this entry.
func (d Definition) Name() string {
	return PermissionName(d.Action, d.Resource)
}

// GrantedTo reports whether the entry is granted to the given default role.
func (d Definition) GrantedTo(tag RoleTag) bool {
	switch tag {
	case RoleAdmin:
		return d.Admin
	case RoleLibrarian:
		return d.Librarian
	case RoleAuthor:
		return d.Author
	case RoleMember:
		return d.Member
	}

	return false
}

// PermissionName derives the canonical permission name for an (action,
// resource) pair. The function is pure and total: every pair has a name,
// cataloged or not, and distinct pairs never map to the same name.
func PermissionName(action Action, resource Resource) string {
	return fmt.Sprintf("Permissions.%s.%s", resource, action)
}
