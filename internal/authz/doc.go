// Package authz implements the role-based access control core of Shelfwise.
//
// The package is built from three pieces:
//
//   - A permission catalog: the static seed data describing every
//     (action, resource) pair the system knows about and which of the
//     default roles (Admin, Librarian, Author, Member) receives it when the
//     database is provisioned. The catalog is computed once per process and
//     can be replaced by an operator-supplied TOML file, so default grants
//     evolve without a code change.
//
//   - A role and permission store: persisted roles owning granted permission
//     rows, linked to users through a many-to-many junction table. All
//     mutations run inside a single database transaction.
//
//   - The authorization check: Authorize(userID, action, resource) reports
//     whether any role held by the user grants the derived permission name.
//     Denial is a plain false, never an error; only an unresolvable user id
//     produces an error. There is no admin bypass: the Admin role is simply
//     provisioned with every admin-flagged catalog entry, so every capability
//     stays auditable as an explicit grant.
//
// The fiber middleware in this package is the enforcement point: protected
// routes declare their required (action, resource) pair at registration time
// and a denial short-circuits the request with a 403 before any handler runs.
package authz
