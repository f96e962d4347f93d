// Package dashboard exposes the library statistics endpoint.
package dashboard

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/db/models"
	"github.com/shelfwise/shelfwise/internal/web/handler"
)

const (
	// Path is the dashboard endpoint.
	Path = handler.APIPath + "/dashboard"
)

// Stats is the dashboard summary payload.
type Stats struct {
	Books             int64   `json:"books"`
	AvailableBooks    int64   `json:"available_books"`
	Members           int64   `json:"members"`
	ActiveMembers     int64   `json:"active_members"`
	Authors           int64   `json:"authors"`
	Categories        int64   `json:"categories"`
	OpenBorrowings    int64   `json:"open_borrowings"`
	OverdueBorrowings int64   `json:"overdue_borrowings"`
	PurchasesTotal    int64   `json:"purchases"`
	PurchasesRevenue  float64 `json:"purchases_revenue"`
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *authz.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	app.Get(Path,
		authz.RequirePermission(authService, authz.ActionView, authz.ResourceDashboard),
		s.Get,
	)

	return nil
}

// Get returns the library summary counters.
func (s *Service) Get(c *fiber.Ctx) error {
	var stats Stats

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.Books, s.db.Model(&models.Book{})},
		{&stats.AvailableBooks, s.db.Model(&models.Book{}).Where("available_copies > 0")},
		{&stats.Members, s.db.Model(&models.Member{})},
		{&stats.ActiveMembers, s.db.Model(&models.Member{}).Where("status = ?", models.MemberActive)},
		{&stats.Authors, s.db.Model(&models.Author{})},
		{&stats.Categories, s.db.Model(&models.Category{})},
		{&stats.OpenBorrowings, s.db.Model(&models.Borrowing{}).Where("status = ?", models.StatusBorrowed)},
		{&stats.OverdueBorrowings, s.db.Model(&models.Borrowing{}).
			Where("status = ? AND due_date < ?", models.StatusBorrowed, time.Now())},
		{&stats.PurchasesTotal, s.db.Model(&models.BookPurchase{})},
	}

	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			return handler.SendError(c, err)
		}
	}

	err := s.db.Model(&models.BookPurchase{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.PurchasesRevenue).Error
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": stats})
}
