package authz_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/db/models"
)

func newTestService(t *testing.T) (*authz.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.RolePermission{},
		&models.UserRole{},
	))

	return authz.NewService(db), db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Active:   true,
		Email:    email,
		Password: "x",
	}
	require.NoError(t, db.Create(user).Error)

	return user
}

func TestCreateRoleDuplicateName(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.CreateRole("Editor", "desc", nil)
	require.NoError(t, err)

	_, err = svc.CreateRole("Editor", "other desc", nil)
	require.ErrorIs(t, err, authz.ErrDuplicateRoleName)

	var count int64
	require.NoError(t, db.Model(&models.Role{}).Where("name = ?", "Editor").Count(&count).Error)
	assert.EqualValues(t, 1, count, "exactly one Editor role must exist")
}

func TestCreateRoleWithInitialPermissions(t *testing.T) {
	svc, _ := newTestService(t)

	role, err := svc.CreateRole("Editor", "desc", []authz.PermissionInput{
		{Action: authz.ActionView, Resource: authz.ResourceBooks},
		{Action: authz.ActionUpdate, Resource: authz.ResourceBooks},
	})
	require.NoError(t, err)
	require.Len(t, role.Permissions, 2)

	has, err := svc.RoleHasPermission(role.ID, "Permissions.Books.View")
	require.NoError(t, err)
	assert.True(t, has)

	// duplicate pair in the initial set rolls the whole create back
	_, err = svc.CreateRole("Editor2", "desc", []authz.PermissionInput{
		{Action: authz.ActionView, Resource: authz.ResourceBooks},
		{Action: authz.ActionView, Resource: authz.ResourceBooks},
	})
	require.ErrorIs(t, err, authz.ErrDuplicatePermission)

	_, err = svc.GetRoleByName("Editor2")
	assert.ErrorIs(t, err, authz.ErrRoleNotFound)
}

func TestAddAndRemovePermission(t *testing.T) {
	svc, _ := newTestService(t)

	role, err := svc.CreateRole("Editor", "desc", nil)
	require.NoError(t, err)

	granted, err := svc.AddPermission(role.ID, authz.PermissionInput{
		Action: authz.ActionCreate, Resource: authz.ResourceBooks,
	})
	require.NoError(t, err)
	assert.Equal(t, "Permissions.Books.Create", granted.Name)

	has, err := svc.RoleHasPermissionByAction(role.ID, authz.ActionCreate, authz.ResourceBooks)
	require.NoError(t, err)
	assert.True(t, has)

	// same pair again is a conflict, not a duplicate row
	_, err = svc.AddPermission(role.ID, authz.PermissionInput{
		Action: authz.ActionCreate, Resource: authz.ResourceBooks,
	})
	require.ErrorIs(t, err, authz.ErrDuplicatePermission)

	require.NoError(t, svc.RemovePermission(role.ID, granted.ID))

	has, err = svc.RoleHasPermissionByAction(role.ID, authz.ActionCreate, authz.ResourceBooks)
	require.NoError(t, err)
	assert.False(t, has)

	// removing again does not resolve
	err = svc.RemovePermission(role.ID, granted.ID)
	assert.ErrorIs(t, err, authz.ErrPermissionNotFound)
}

func TestRemovePermissionWrongRole(t *testing.T) {
	svc, _ := newTestService(t)

	editor, err := svc.CreateRole("Editor", "", nil)
	require.NoError(t, err)

	viewer, err := svc.CreateRole("Viewer", "", nil)
	require.NoError(t, err)

	granted, err := svc.AddPermission(editor.ID, authz.PermissionInput{
		Action: authz.ActionView, Resource: authz.ResourceBooks,
	})
	require.NoError(t, err)

	err = svc.RemovePermission(viewer.ID, granted.ID)
	require.ErrorIs(t, err, authz.ErrPermissionNotFound)

	// grant is untouched
	has, err := svc.RoleHasPermission(editor.ID, granted.Name)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestSyncPermissionsFullReplace(t *testing.T) {
	svc, _ := newTestService(t)

	role, err := svc.CreateRole("Editor", "", []authz.PermissionInput{
		{Action: authz.ActionView, Resource: authz.ResourceBooks},
		{Action: authz.ActionUpdate, Resource: authz.ResourceBooks},
	})
	require.NoError(t, err)

	synced, err := svc.SyncPermissions(role.ID, []authz.PermissionInput{
		{Action: authz.ActionDelete, Resource: authz.ResourceCategories},
	})
	require.NoError(t, err)
	require.Len(t, synced.Permissions, 1)
	assert.Equal(t, "Permissions.Categories.Delete", synced.Permissions[0].Name)

	has, err := svc.RoleHasPermission(role.ID, "Permissions.Books.View")
	require.NoError(t, err)
	assert.False(t, has, "old grants must be gone after sync")
}

func TestSyncPermissionsEmptyList(t *testing.T) {
	svc, _ := newTestService(t)

	role, err := svc.CreateRole("Editor", "", []authz.PermissionInput{
		{Action: authz.ActionView, Resource: authz.ResourceBooks},
		{Action: authz.ActionSearch, Resource: authz.ResourceBooks},
	})
	require.NoError(t, err)

	names, err := svc.RolePermissionNames(role.ID)
	require.NoError(t, err)
	require.Len(t, names, 2)

	synced, err := svc.SyncPermissions(role.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, synced.Permissions)

	for _, name := range names {
		has, errHas := svc.RoleHasPermission(role.ID, name)
		require.NoError(t, errHas)
		assert.False(t, has, "%s must be revoked", name)
	}
}

func TestAuthorizeUnionAcrossRoles(t *testing.T) {
	svc, db := newTestService(t)

	viewers, err := svc.CreateRole("Viewers", "", []authz.PermissionInput{
		{Action: authz.ActionView, Resource: authz.ResourceBooks},
	})
	require.NoError(t, err)

	creators, err := svc.CreateRole("Creators", "", []authz.PermissionInput{
		{Action: authz.ActionCreate, Resource: authz.ResourceBooks},
	})
	require.NoError(t, err)

	user := createUser(t, db, "both@example.com")
	require.NoError(t, svc.AssignUsers(viewers.ID, []uint64{user.ID}))
	require.NoError(t, svc.AssignUsers(creators.ID, []uint64{user.ID}))

	allowed, err := svc.Authorize(user.ID, authz.ActionView, authz.ResourceBooks)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.Authorize(user.ID, authz.ActionCreate, authz.ResourceBooks)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.Authorize(user.ID, authz.ActionDelete, authz.ResourceBooks)
	require.NoError(t, err)
	assert.False(t, allowed, "no held role grants Delete/Books")
}

func TestAuthorizeAbsenceIsFalseNotError(t *testing.T) {
	svc, db := newTestService(t)

	user := createUser(t, db, "nobody@example.com")

	allowed, err := svc.Authorize(user.ID, authz.ActionView, authz.ResourceBooks)
	require.NoError(t, err)
	assert.False(t, allowed, "a user with no roles is denied, not errored")

	// uncataloged pair is also a plain denial
	allowed, err = svc.Authorize(user.ID, authz.ActionGenerate, authz.Resource("Magazines"))
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAuthorizeUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authorize(4242, authz.ActionView, authz.ResourceBooks)
	require.ErrorIs(t, err, authz.ErrUserNotFound)
}

func TestDeleteRoleWithUsersConflict(t *testing.T) {
	svc, db := newTestService(t)

	role, err := svc.CreateRole("Editor", "", []authz.PermissionInput{
		{Action: authz.ActionView, Resource: authz.ResourceBooks},
	})
	require.NoError(t, err)

	user := createUser(t, db, "held@example.com")
	require.NoError(t, svc.AssignUsers(role.ID, []uint64{user.ID}))

	err = svc.DeleteRole(role.ID)
	require.ErrorIs(t, err, authz.ErrRoleHasUsers)

	// role and its permissions are intact
	kept, err := svc.GetRole(role.ID)
	require.NoError(t, err)
	assert.Len(t, kept.Permissions, 1)

	// detaching the user unblocks deletion and cascades permissions
	require.NoError(t, svc.RemoveUsers(role.ID, []uint64{user.ID}))
	require.NoError(t, svc.DeleteRole(role.ID))

	_, err = svc.GetRole(role.ID)
	require.ErrorIs(t, err, authz.ErrRoleNotFound)

	var orphaned int64
	require.NoError(t, db.Model(&models.RolePermission{}).
		Where("role_id = ?", role.ID).Count(&orphaned).Error)
	assert.EqualValues(t, 0, orphaned)
}

func TestAssignUsersIdempotent(t *testing.T) {
	svc, db := newTestService(t)

	role, err := svc.CreateRole("Editor", "", nil)
	require.NoError(t, err)

	user := createUser(t, db, "once@example.com")

	require.NoError(t, svc.AssignUsers(role.ID, []uint64{user.ID}))
	require.NoError(t, svc.AssignUsers(role.ID, []uint64{user.ID}))

	users, err := svc.RoleUsers(role.ID)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	// detaching a role the user does not hold is a no-op
	require.NoError(t, svc.RemoveUsers(role.ID, []uint64{user.ID}))
	require.NoError(t, svc.RemoveUsers(role.ID, []uint64{user.ID}))
}

func TestAssignUsersUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	role, err := svc.CreateRole("Editor", "", nil)
	require.NoError(t, err)

	err = svc.AssignUsers(role.ID, []uint64{999})
	require.ErrorIs(t, err, authz.ErrUserNotFound)
}

func TestUpdateRole(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateRole("Editor", "", nil)
	require.NoError(t, err)

	role, err := svc.CreateRole("Viewer", "read only", nil)
	require.NoError(t, err)

	_, err = svc.UpdateRole(role.ID, "Editor", "", nil)
	require.ErrorIs(t, err, authz.ErrDuplicateRoleName)

	updated, err := svc.UpdateRole(role.ID, "Reader", "still read only", []authz.PermissionInput{
		{Action: authz.ActionView, Resource: authz.ResourceBooks},
	})
	require.NoError(t, err)
	assert.Equal(t, "Reader", updated.Name)
	assert.Equal(t, "still read only", updated.Description)
	assert.Len(t, updated.Permissions, 1)
}

func TestProvisionSeedsDefaultRoles(t *testing.T) {
	svc, db := newTestService(t)

	catalog := authz.Default()
	require.NoError(t, svc.Provision(catalog))

	admin, err := svc.GetRoleByName("Admin")
	require.NoError(t, err)

	has, err := svc.RoleHasPermission(admin.ID, "Permissions.Books.Delete")
	require.NoError(t, err)
	assert.True(t, has, "Admin must be provisioned with Delete/Books")

	user := createUser(t, db, "root@example.com")
	require.NoError(t, svc.AssignRoleByName(user.ID, "Admin"))

	allowed, err := svc.Authorize(user.ID, authz.ActionDelete, authz.ResourceBooks)
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, svc.RemoveUsers(admin.ID, []uint64{user.ID}))

	allowed, err = svc.Authorize(user.ID, authz.ActionDelete, authz.ResourceBooks)
	require.NoError(t, err)
	assert.False(t, allowed, "detached role must stop granting")

	// member gets the basic library surface only
	member, err := svc.GetRoleByName("Member")
	require.NoError(t, err)

	has, err = svc.RoleHasPermissionByAction(member.ID, authz.ActionView, authz.ResourceBooks)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = svc.RoleHasPermissionByAction(member.ID, authz.ActionDelete, authz.ResourceBorrowings)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestProvisionIdempotent(t *testing.T) {
	svc, db := newTestService(t)

	catalog := authz.Default()
	require.NoError(t, svc.Provision(catalog))
	require.NoError(t, svc.Provision(catalog))

	var roleCount int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roleCount).Error)
	assert.EqualValues(t, 4, roleCount)

	admin, err := svc.GetRoleByName("Admin")
	require.NoError(t, err)

	names, err := svc.RolePermissionNames(admin.ID)
	require.NoError(t, err)
	assert.Len(t, names, len(catalog.ForRole(authz.RoleAdmin)))
}

func TestListRolesFilters(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateRole("Editor", "can edit books", []authz.PermissionInput{
		{Action: authz.ActionUpdate, Resource: authz.ResourceBooks},
	})
	require.NoError(t, err)

	_, err = svc.CreateRole("Viewer", "read only", []authz.PermissionInput{
		{Action: authz.ActionView, Resource: authz.ResourceBooks},
	})
	require.NoError(t, err)

	roles, total, err := svc.ListRoles(authz.RoleFilter{Search: "edit"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, roles, 1)
	assert.Equal(t, "Editor", roles[0].Name)

	roles, total, err = svc.ListRoles(authz.RoleFilter{Action: "View", WithPermissions: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, roles, 1)
	assert.Equal(t, "Viewer", roles[0].Name)
	assert.Len(t, roles[0].Permissions, 1)

	_, total, err = svc.ListRoles(authz.RoleFilter{Resource: "Books"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestHasPermissionPreDerivedName(t *testing.T) {
	svc, db := newTestService(t)

	role, err := svc.CreateRole("Exporters", "", []authz.PermissionInput{
		{Action: authz.ActionExport, Resource: authz.ResourceBorrowings},
	})
	require.NoError(t, err)

	user := createUser(t, db, "exporter@example.com")
	require.NoError(t, svc.AssignUsers(role.ID, []uint64{user.ID}))

	has, err := svc.HasPermission(user.ID, "Permissions.Borrowings.Export")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = svc.HasPermission(user.ID, "Permissions.Borrowings.Delete")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = svc.HasPermission(4242, "Permissions.Borrowings.Export")
	require.ErrorIs(t, err, authz.ErrUserNotFound)
}

func TestIsAdminFollowsRoleMembership(t *testing.T) {
	svc, db := newTestService(t)
	require.NoError(t, svc.Provision(authz.Default()))

	user := createUser(t, db, "maybe-admin@example.com")

	isAdmin, err := svc.IsAdmin(user.ID)
	require.NoError(t, err)
	assert.False(t, isAdmin, "fresh user holds no roles")

	// a role other than Admin must not count, the check is by name
	require.NoError(t, svc.AssignRoleByName(user.ID, "Librarian"))

	isAdmin, err = svc.IsAdmin(user.ID)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	require.NoError(t, svc.AssignRoleByName(user.ID, "Admin"))

	isAdmin, err = svc.IsAdmin(user.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	admin, err := svc.GetRoleByName("Admin")
	require.NoError(t, err)
	require.NoError(t, svc.RemoveUsers(admin.ID, []uint64{user.ID}))

	isAdmin, err = svc.IsAdmin(user.ID)
	require.NoError(t, err)
	assert.False(t, isAdmin, "detaching the role revokes the flag")

	_, err = svc.IsAdmin(4242)
	require.ErrorIs(t, err, authz.ErrUserNotFound)
}
