package authz

// Resource is the noun half of a permission. Unlike actions the resource set
// is configuration, not law: the authorization check derives permission names
// from whatever (action, resource) pair it is handed, so custom roles may
// carry grants over resources this list does not know about. The constants
// below exist for the compiled-in catalog and for route declarations.
type Resource string

const (
	// ResourceDashboard is the statistics dashboard.
	ResourceDashboard Resource = "Dashboard"
	// ResourceUsers is user account management.
	ResourceUsers Resource = "Users"
	// ResourceUserRoles is the user-role assignment surface.
	ResourceUserRoles Resource = "UserRoles"
	// ResourceRoles is role and permission management.
	ResourceRoles Resource = "Roles"
	// ResourceAuthors is author management.
	ResourceAuthors Resource = "Authors"
	// ResourceBooks is the book inventory.
	ResourceBooks Resource = "Books"
	// ResourceMembers is library member management.
	ResourceMembers Resource = "Members"
	// ResourceBorrowings is the borrowing ledger.
	ResourceBorrowings Resource = "Borrowings"
	// ResourceCategories is book category management.
	ResourceCategories Resource = "Categories"
	// ResourcePublishers is publisher management.
	ResourcePublishers Resource = "Publishers"
)

// Resources returns every resource the compiled-in catalog knows about.
func Resources() []Resource {
	return []Resource{
		ResourceDashboard,
		ResourceUsers,
		ResourceUserRoles,
		ResourceRoles,
		ResourceAuthors,
		ResourceBooks,
		ResourceMembers,
		ResourceBorrowings,
		ResourceCategories,
		ResourcePublishers,
	}
}
