package borrowing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/db/models"
)

type fixture struct {
	app    *fiber.App
	db     *gorm.DB
	book   models.Book
	member models.Member
}

func newFixture(t *testing.T) *fixture {
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
		&models.Member{},
		&models.Book{},
		&models.Borrowing{},
	))

	service := authz.NewService(db)
	require.NoError(t, service.Provision(authz.Default()))

	librarian := &models.User{Active: true, Email: "staff@test.local", Password: "x"}
	require.NoError(t, db.Create(librarian).Error)
	require.NoError(t, service.AssignRoleByName(librarian.ID, string(authz.RoleLibrarian)))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(authz.LocalsUserKey, librarian)
		return c.Next()
	})

	cfg := &config.Config{
		Library: config.Library{BorrowDays: 14, DefaultBorrowLimit: 5},
	}

	borrowingHandler := &Service{}
	require.NoError(t, borrowingHandler.Init(app, cfg, db, service))

	f := &fixture{app: app, db: db}

	f.book = models.Book{
		Title:           "The Go Programming Language",
		ISBN:            "9780134190440",
		TotalCopies:     2,
		AvailableCopies: 2,
		CanBorrow:       true,
	}
	require.NoError(t, db.Create(&f.book).Error)

	f.member = models.Member{Status: models.MemberActive, MaxBorrowLimit: 2}
	require.NoError(t, db.Create(&f.member).Error)

	return f
}

func (f *fixture) borrow(t *testing.T, bookID, memberID uint) *http.Response {
	t.Helper()

	payload, err := json.Marshal(fiber.Map{"book_id": bookID, "member_id": memberID})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, Path, bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func TestBorrowTakesCopyOutOfCirculation(t *testing.T) {
	f := newFixture(t)

	resp := f.borrow(t, f.book.ID, f.member.ID)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var book models.Book
	require.NoError(t, f.db.First(&book, f.book.ID).Error)
	assert.Equal(t, 1, book.AvailableCopies)
}

func TestBorrowStockExhausted(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.db.Model(&models.Book{}).
		Where("id = ?", f.book.ID).
		Update("available_copies", 0).Error)

	resp := f.borrow(t, f.book.ID, f.member.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestBorrowLimitEnforced(t *testing.T) {
	f := newFixture(t)

	other := models.Book{
		Title: "Another", ISBN: "111", TotalCopies: 1, AvailableCopies: 1, CanBorrow: true,
	}
	require.NoError(t, f.db.Create(&other).Error)

	third := models.Book{
		Title: "Third", ISBN: "222", TotalCopies: 1, AvailableCopies: 1, CanBorrow: true,
	}
	require.NoError(t, f.db.Create(&third).Error)

	// member limit is 2
	require.Equal(t, http.StatusCreated, f.borrow(t, f.book.ID, f.member.ID).StatusCode)
	require.Equal(t, http.StatusCreated, f.borrow(t, other.ID, f.member.ID).StatusCode)

	resp := f.borrow(t, third.ID, f.member.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestBorrowSuspendedMember(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.db.Model(&models.Member{}).
		Where("id = ?", f.member.ID).
		Update("status", models.MemberSuspended).Error)

	resp := f.borrow(t, f.book.ID, f.member.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestReturnPutsCopyBack(t *testing.T) {
	f := newFixture(t)

	resp := f.borrow(t, f.book.ID, f.member.ID)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data models.Borrowing `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("%s/%d/return", Path, created.Data.ID), nil)
	returned, err := f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, returned.StatusCode)

	var book models.Book
	require.NoError(t, f.db.First(&book, f.book.ID).Error)
	assert.Equal(t, 2, book.AvailableCopies)

	// a second return is a conflict
	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("%s/%d/return", Path, created.Data.ID), nil)
	again, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, again.StatusCode)
}

func TestBorrowUnknownBook(t *testing.T) {
	f := newFixture(t)

	resp := f.borrow(t, 9999, f.member.ID)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func (f *fixture) openBorrowing(t *testing.T) models.Borrowing {
	t.Helper()

	resp := f.borrow(t, f.book.ID, f.member.ID)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data models.Borrowing `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	return created.Data
}

func (f *fixture) renew(t *testing.T, borrowingID uint) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("%s/%d/renew", Path, borrowingID), nil)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func TestRenewExtendsDueDate(t *testing.T) {
	f := newFixture(t)

	opened := f.openBorrowing(t)

	resp := f.renew(t, opened.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var renewed models.Borrowing
	require.NoError(t, f.db.First(&renewed, opened.ID).Error)
	assert.Equal(t, 1, renewed.RenewalCount)
	assert.WithinDuration(t, opened.DueDate.AddDate(0, 0, 14), renewed.DueDate, time.Second)
}

func TestRenewCappedAtLimit(t *testing.T) {
	f := newFixture(t)

	opened := f.openBorrowing(t)

	for i := 0; i < models.MaxRenewals; i++ {
		require.Equal(t, http.StatusOK, f.renew(t, opened.ID).StatusCode)
	}

	resp := f.renew(t, opened.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var renewed models.Borrowing
	require.NoError(t, f.db.First(&renewed, opened.ID).Error)
	assert.Equal(t, models.MaxRenewals, renewed.RenewalCount)
}

func TestRenewOverdueRejected(t *testing.T) {
	f := newFixture(t)

	opened := f.openBorrowing(t)

	require.NoError(t, f.db.Model(&models.Borrowing{}).
		Where("id = ?", opened.ID).
		Update("due_date", time.Now().AddDate(0, 0, -1)).Error)

	resp := f.renew(t, opened.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRenewReturnedConflict(t *testing.T) {
	f := newFixture(t)

	opened := f.openBorrowing(t)

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("%s/%d/return", Path, opened.ID), nil)
	returned, err := f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, returned.StatusCode)

	resp := f.renew(t, opened.ID)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.renew(t, 9999)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
