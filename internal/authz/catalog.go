package authz

import (
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Catalog is the single source of truth mapping (action, resource) pairs to
// descriptions and default-role grants. A catalog never fails: it is pure
// data plus pure functions. Instances are immutable after construction.
type Catalog struct {
	defs []Definition
}

var (
	defaultCatalog     *Catalog //nolint:gochecknoglobals
	defaultCatalogOnce sync.Once
)

// Default returns the process-wide catalog built from the compiled-in
// definitions. It is computed once and cached for the process lifetime.
func Default() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog = &Catalog{defs: builtinDefinitions()}
	})

	return defaultCatalog
}

// LoadCatalog reads an operator-supplied catalog from a TOML file. The file
// carries a [[permission]] table array using the Definition field names. It
// replaces, not extends, the compiled-in defaults.
func LoadCatalog(path string) (*Catalog, error) {
	var file struct {
		Permission []Definition `toml:"permission"`
	}

	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, errors.Wrap(err, "failed to read permission catalog file")
	}

	return NewCatalog(file.Permission)
}

// NewCatalog builds a catalog from the given definitions. It rejects entries
// with a missing action or resource and duplicate (action, resource) pairs,
// since duplicate pairs would collide on the derived permission name.
func NewCatalog(defs []Definition) (*Catalog, error) {
	seen := make(map[string]struct{}, len(defs))

	for _, def := range defs {
		if def.Action == "" || def.Resource == "" {
			return nil, errors.Wrapf(ErrInvalidDefinition,
				"catalog entry %q needs both action and resource", def.Description)
		}

		name := def.Name()
		if _, dup := seen[name]; dup {
			return nil, errors.Wrapf(ErrInvalidDefinition, "duplicate catalog entry %s", name)
		}

		seen[name] = struct{}{}
	}

	return &Catalog{defs: append([]Definition(nil), defs...)}, nil
}

// Definitions returns every catalog entry in stable order.
func (c *Catalog) Definitions() []Definition {
	return append([]Definition(nil), c.defs...)
}

// ForRole returns the catalog entries granted to the given default role.
func (c *Catalog) ForRole(tag RoleTag) []Definition {
	var out []Definition

	for _, def := range c.defs {
		if def.GrantedTo(tag) {
			out = append(out, def)
		}
	}

	return out
}

// Lookup finds the catalog entry for an (action, resource) pair. Pairs
// outside the catalog are still legal to name and to grant; they simply have
// no default-role mapping.
func (c *Catalog) Lookup(action Action, resource Resource) (Definition, bool) {
	for _, def := range c.defs {
		if def.Action == action && def.Resource == resource {
			return def, true
		}
	}

	return Definition{}, false
}

// grant builds a compiled-in catalog entry. Admin receives every entry; the
// tags list the additional default roles the entry is granted to.
func grant(description string, action Action, resource Resource, tags ...RoleTag) Definition {
	def := Definition{
		Description: description,
		Action:      action,
		Resource:    resource,
		Admin:       true,
	}

	for _, tag := range tags {
		switch tag {
		case RoleAdmin: // already granted
		case RoleLibrarian:
			def.Librarian = true
		case RoleAuthor:
			def.Author = true
		case RoleMember:
			def.Member = true
		}
	}

	return def
}

//nolint:funlen // the catalog is a data table
func builtinDefinitions() []Definition {
	return []Definition{
		// User management, admin only
		grant("View Users", ActionView, ResourceUsers),
		grant("Search Users", ActionSearch, ResourceUsers),
		grant("Create Users", ActionCreate, ResourceUsers),
		grant("Update Users", ActionUpdate, ResourceUsers),
		grant("Delete Users", ActionDelete, ResourceUsers),
		grant("Export Users", ActionExport, ResourceUsers),

		// Role management, admin only
		grant("View UserRoles", ActionView, ResourceUserRoles),
		grant("Update UserRoles", ActionUpdate, ResourceUserRoles),
		grant("View Roles", ActionView, ResourceRoles),
		grant("Create Roles", ActionCreate, ResourceRoles),
		grant("Update Roles", ActionUpdate, ResourceRoles),
		grant("Delete Roles", ActionDelete, ResourceRoles),

		// Dashboard
		grant("View Dashboard", ActionView, ResourceDashboard, RoleLibrarian),

		// Authors
		grant("View Authors", ActionView, ResourceAuthors, RoleLibrarian, RoleAuthor, RoleMember),
		grant("Search Authors", ActionSearch, ResourceAuthors, RoleLibrarian, RoleAuthor),
		grant("Create Authors", ActionCreate, ResourceAuthors, RoleLibrarian),
		grant("Update Authors", ActionUpdate, ResourceAuthors, RoleLibrarian, RoleAuthor),
		grant("Delete Authors", ActionDelete, ResourceAuthors, RoleLibrarian, RoleAuthor),
		grant("Export Authors", ActionExport, ResourceAuthors, RoleLibrarian),

		// Books
		grant("View Books", ActionView, ResourceBooks, RoleLibrarian, RoleAuthor, RoleMember),
		grant("Search Books", ActionSearch, ResourceBooks, RoleLibrarian, RoleAuthor, RoleMember),
		grant("Create Books", ActionCreate, ResourceBooks, RoleLibrarian, RoleAuthor),
		grant("Update Books", ActionUpdate, ResourceBooks, RoleLibrarian, RoleAuthor),
		grant("Delete Books", ActionDelete, ResourceBooks, RoleLibrarian, RoleAuthor),
		grant("Export Books", ActionExport, ResourceBooks, RoleLibrarian),
		grant("Purchase Books", ActionSubmission, ResourceBooks, RoleLibrarian, RoleMember),

		// Members
		grant("View Members", ActionView, ResourceMembers, RoleLibrarian),
		grant("Search Members", ActionSearch, ResourceMembers, RoleLibrarian),
		grant("Create Members", ActionCreate, ResourceMembers, RoleLibrarian),
		grant("Update Members", ActionUpdate, ResourceMembers, RoleLibrarian, RoleMember),
		grant("Delete Members", ActionDelete, ResourceMembers, RoleLibrarian, RoleMember),
		grant("Export Members", ActionExport, ResourceMembers, RoleLibrarian),

		// Borrowings
		grant("View Borrowings", ActionView, ResourceBorrowings, RoleLibrarian, RoleMember),
		grant("Search Borrowings", ActionSearch, ResourceBorrowings, RoleLibrarian),
		grant("Create Borrowings", ActionCreate, ResourceBorrowings, RoleLibrarian, RoleMember),
		grant("Update Borrowings", ActionUpdate, ResourceBorrowings, RoleLibrarian, RoleMember),
		grant("Delete Borrowings", ActionDelete, ResourceBorrowings, RoleLibrarian),
		grant("Export Borrowings", ActionExport, ResourceBorrowings, RoleLibrarian),
		grant("Submit Borrowings", ActionSubmission, ResourceBorrowings, RoleLibrarian, RoleMember),

		// Categories
		grant("View Categories", ActionView, ResourceCategories, RoleLibrarian, RoleAuthor, RoleMember),
		grant("Search Categories", ActionSearch, ResourceCategories, RoleLibrarian, RoleAuthor, RoleMember),
		grant("Create Categories", ActionCreate, ResourceCategories, RoleLibrarian),
		grant("Update Categories", ActionUpdate, ResourceCategories, RoleLibrarian),
		grant("Delete Categories", ActionDelete, ResourceCategories, RoleLibrarian),
	}
}
