package auth_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelfwise/shelfwise/internal/auth"
	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/db/models"
)

func newTestProvider(t *testing.T) (*auth.Provider, *gorm.DB) {
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
		&models.AuthToken{},
		&models.Author{},
		&models.Member{},
		&models.Librarian{},
	))

	require.NoError(t, authz.NewService(db).Provision(authz.Default()))

	return auth.NewProvider(db), db
}

func TestRegisterMember(t *testing.T) {
	provider, db := newTestProvider(t)

	user, err := provider.Register(auth.RegisterInput{
		Email:     "member@example.com",
		Password:  "s3cretpassword",
		FirstName: "Jane",
		LastName:  "Reader",
		Kind:      models.ProfileMember,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProfileMember, user.ProfileKind)
	require.NotNil(t, user.MemberID)

	var member models.Member
	require.NoError(t, db.First(&member, *user.MemberID).Error)
	assert.Equal(t, models.MemberActive, member.Status)
	assert.Equal(t, 5, member.MaxBorrowLimit)

	roles, err := authz.NewService(db).UserRoles(user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, string(authz.RoleMember), roles[0].Name)
}

func TestRegisterAuthorGetsAuthorRole(t *testing.T) {
	provider, db := newTestProvider(t)

	user, err := provider.Register(auth.RegisterInput{
		Email:     "author@example.com",
		Password:  "s3cretpassword",
		FirstName: "Ann",
		LastName:  "Writer",
		Kind:      models.ProfileAuthor,
		Bio:       "writes books",
	})
	require.NoError(t, err)
	require.NotNil(t, user.AuthorID)

	allowed, err := authz.NewService(db).Authorize(user.ID, authz.ActionView, authz.ResourceBooks)
	require.NoError(t, err)
	assert.True(t, allowed, "authors can view books")

	allowed, err = authz.NewService(db).Authorize(user.ID, authz.ActionDelete, authz.ResourceBooks)
	require.NoError(t, err)
	assert.False(t, allowed, "authors cannot delete books")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	provider, db := newTestProvider(t)

	input := auth.RegisterInput{
		Email:     "dup@example.com",
		Password:  "s3cretpassword",
		FirstName: "First",
		LastName:  "User",
		Kind:      models.ProfileMember,
	}

	_, err := provider.Register(input)
	require.NoError(t, err)

	_, err = provider.Register(input)
	require.ErrorIs(t, err, auth.ErrEmailExists)

	// The failed registration must not leave an orphaned member profile.
	var count int64
	require.NoError(t, db.Model(&models.Member{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAuthenticate(t *testing.T) {
	provider, _ := newTestProvider(t)

	_, err := provider.Register(auth.RegisterInput{
		Email:     "login@example.com",
		Password:  "s3cretpassword",
		FirstName: "Log",
		LastName:  "In",
		Kind:      models.ProfileMember,
	})
	require.NoError(t, err)

	user, err := provider.Authenticate("login@example.com", "s3cretpassword")
	require.NoError(t, err)
	assert.Equal(t, "login@example.com", user.Email)

	_, err = provider.Authenticate("login@example.com", "wrongpassword")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = provider.Authenticate("nobody@example.com", "s3cretpassword")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	provider, db := newTestProvider(t)

	user, err := provider.Register(auth.RegisterInput{
		Email:     "disabled@example.com",
		Password:  "s3cretpassword",
		FirstName: "Dis",
		LastName:  "Abled",
		Kind:      models.ProfileMember,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Update("active", false).Error)

	_, err = provider.Authenticate("disabled@example.com", "s3cretpassword")
	assert.ErrorIs(t, err, auth.ErrUserAccountDisabled)
}

func TestChangePassword(t *testing.T) {
	provider, _ := newTestProvider(t)

	user, err := provider.Register(auth.RegisterInput{
		Email:     "change@example.com",
		Password:  "oldpassword1",
		FirstName: "Ch",
		LastName:  "Ange",
		Kind:      models.ProfileMember,
	})
	require.NoError(t, err)

	err = provider.ChangePassword(user.ID, "wrongpassword", "newpassword1")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	require.NoError(t, provider.ChangePassword(user.ID, "oldpassword1", "newpassword1"))

	_, err = provider.Authenticate("change@example.com", "newpassword1")
	require.NoError(t, err)
}
