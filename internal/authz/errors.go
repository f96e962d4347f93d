package authz

import "errors"

var (
	// ErrRoleNotFound is returned when a role id or name does not resolve.
	ErrRoleNotFound = errors.New("role not found")

	// ErrPermissionNotFound is returned when a permission id does not resolve
	// or does not belong to the addressed role.
	ErrPermissionNotFound = errors.New("permission not found")

	// ErrUserNotFound is returned when a user id does not resolve. The
	// enforcement point treats this as an authentication failure, not an
	// authorization one.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateRoleName is returned when creating or renaming a role to a
	// name that already exists (case-sensitive exact match).
	ErrDuplicateRoleName = errors.New("role with this name already exists")

	// ErrDuplicatePermission is returned when granting an (action, resource)
	// pair a role already holds.
	ErrDuplicatePermission = errors.New("permission already exists for this role")

	// ErrRoleHasUsers is returned when deleting a role that users still hold.
	ErrRoleHasUsers = errors.New("cannot delete role with assigned users")

	// ErrInvalidDefinition is returned for malformed catalog entries or
	// permission payloads missing action or resource.
	ErrInvalidDefinition = errors.New("invalid permission definition")
)

// IsNotFound reports whether err belongs to the not-found error class,
// mapped to 404 at the API boundary.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoleNotFound) ||
		errors.Is(err, ErrPermissionNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsConflict reports whether err belongs to the conflict error class,
// mapped to 409 at the API boundary.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateRoleName) ||
		errors.Is(err, ErrDuplicatePermission) ||
		errors.Is(err, ErrRoleHasUsers)
}
