// Package auth implements authentication for the REST API: local
// email/password accounts hashed with Argon2id, opaque bearer tokens issued
// at login, and the fiber middleware resolving a presented token to its user.
//
// Authentication is deliberately separate from authorization: this package
// only answers "who is calling"; package authz answers "may they do this".
// The middleware stores the resolved user under authz.LocalsUserKey so the
// enforcement point can pick it up.
package auth
