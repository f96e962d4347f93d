package login

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelfwise/shelfwise/internal/auth"
	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/db/models"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.AuthToken{},
		&models.Role{},
		&models.RolePermission{},
		&models.UserRole{},
		&models.Author{},
		&models.Member{},
		&models.Librarian{},
	))

	service := authz.NewService(db)
	require.NoError(t, service.Provision(authz.Default()))

	app := fiber.New()
	app.Use(auth.Middleware(auth.NewProvider(db)))

	cfg := &config.Config{
		Library: config.Library{DefaultBorrowLimit: 5},
	}

	loginHandler := &Service{}
	require.NoError(t, loginHandler.Init(app, cfg, db, service))

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type meResponse struct {
	User        models.User `json:"user"`
	Roles       []string    `json:"roles"`
	Permissions []string    `json:"permissions"`
	IsAdmin     bool        `json:"is_admin"`
}

func TestRegisterAndLogin(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, RegisterPath+"/member", "", fiber.Map{
		"email":      "reader@test.local",
		"password":   "s3cretpassword",
		"first_name": "Jane",
		"last_name":  "Reader",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered authResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&registered))
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, models.ProfileMember, registered.User.ProfileKind)

	resp = doJSON(t, app, http.MethodPost, Path, "", fiber.Map{
		"email":    "reader@test.local",
		"password": "s3cretpassword",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loggedIn authResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loggedIn))
	assert.NotEmpty(t, loggedIn.Token)
	assert.NotEqual(t, registered.Token, loggedIn.Token)
}

func TestLoginBadCredentials(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, Path, "", fiber.Map{
		"email":    "ghost@test.local",
		"password": "whatever1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app, _ := newTestApp(t)

	payload := fiber.Map{
		"email":      "dup@test.local",
		"password":   "s3cretpassword",
		"first_name": "A",
		"last_name":  "B",
	}

	resp := doJSON(t, app, http.MethodPost, RegisterPath+"/member", "", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, RegisterPath+"/member", "", payload)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegisterLibrarianRequiresPermission(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, RegisterPath+"/librarian", "", fiber.Map{
		"email":      "staff@test.local",
		"password":   "s3cretpassword",
		"first_name": "New",
		"last_name":  "Staff",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMeAndLogout(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, RegisterPath+"/author", "", fiber.Map{
		"email":      "writer@test.local",
		"password":   "s3cretpassword",
		"first_name": "Ann",
		"last_name":  "Writer",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered authResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&registered))

	resp = doJSON(t, app, http.MethodGet, MePath, registered.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me meResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "writer@test.local", me.User.Email)
	assert.Equal(t, []string{"Author"}, me.Roles)
	assert.Contains(t, me.Permissions, "Permissions.Books.View")
	assert.False(t, me.IsAdmin)

	resp = doJSON(t, app, http.MethodPost, LogoutPath, registered.Token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// the revoked token no longer authenticates
	resp = doJSON(t, app, http.MethodGet, MePath, registered.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMeReportsAdminRole(t *testing.T) {
	app, db := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, RegisterPath+"/member", "", fiber.Map{
		"email":      "boss@test.local",
		"password":   "s3cretpassword",
		"first_name": "Bo",
		"last_name":  "Ss",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered authResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&registered))

	require.NoError(t, authz.NewService(db).AssignRoleByName(registered.User.ID, "Admin"))

	resp = doJSON(t, app, http.MethodGet, MePath, registered.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me meResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.True(t, me.IsAdmin)
	assert.Contains(t, me.Roles, "Admin")
}

func TestChangePassword(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, RegisterPath+"/member", "", fiber.Map{
		"email":      "rotate@test.local",
		"password":   "oldpassword1",
		"first_name": "Ro",
		"last_name":  "Tate",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered authResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&registered))

	resp = doJSON(t, app, http.MethodPut, MePath+"/password", registered.Token, fiber.Map{
		"current_password": "wrongpassword",
		"new_password":     "newpassword1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPut, MePath+"/password", registered.Token, fiber.Map{
		"current_password": "oldpassword1",
		"new_password":     "newpassword1",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, Path, "", fiber.Map{
		"email":    "rotate@test.local",
		"password": "newpassword1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
