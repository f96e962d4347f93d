// Package borrowing exposes the borrowing lifecycle REST surface.
package borrowing

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/db/models"
	"github.com/shelfwise/shelfwise/internal/web/handler"
)

const (
	// Path is the base path of the borrowing routes.
	Path = handler.APIPath + "/borrowings"
)

// Service is the borrowing handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the borrowing handler.
var Handler = Service{}

// Init initializes the borrowing handler and registers its routes. Opening
// and closing a borrowing are Submission on Borrowings, the capability the
// catalog grants to both librarians and members.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *authz.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath,
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceBorrowings), s.List)
		router.Get("/:id",
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceBorrowings), s.Get)
		router.Post(handler.RootPath,
			authz.RequirePermission(authService, authz.ActionSubmission, authz.ResourceBorrowings), s.Borrow)
		router.Put("/:id/renew",
			authz.RequirePermission(authService, authz.ActionSubmission, authz.ResourceBorrowings), s.Renew)
		router.Put("/:id/return",
			authz.RequirePermission(authService, authz.ActionSubmission, authz.ResourceBorrowings), s.Return)
		router.Delete("/:id",
			authz.RequirePermission(authService, authz.ActionDelete, authz.ResourceBorrowings), s.Delete)
	})

	return nil
}

// borrowInput is the payload opening a borrowing.
type borrowInput struct {
	BookID   uint   `json:"book_id" validate:"required,min=1"`
	MemberID uint   `json:"member_id" validate:"required,min=1"`
	Notes    string `json:"notes" validate:"max=500"`
}

var (
	errBookNotBorrowable = errors.New("book is not available for borrowing")
	errNoCopies          = errors.New("no copies available")
	errMemberSuspended   = errors.New("membership is suspended")
	errBorrowLimit       = errors.New("member reached the borrow limit")
	errAlreadyReturned   = errors.New("borrowing is already returned")
	errRenewalLimit      = errors.New("renewal limit reached")
	errRenewOverdue      = errors.New("overdue borrowing cannot be renewed")
)

// List returns a page of borrowings. Open rows past their due date are
// reported as overdue.
func (s *Service) List(c *fiber.Ctx) error {
	page, pageSize := handler.PageParams(c)

	tx := s.db.Model(&models.Borrowing{})

	if status := c.Query("status"); status != "" {
		if status == string(models.StatusOverdue) {
			tx = tx.Where("status = ? AND due_date < ?", models.StatusBorrowed, time.Now())
		} else {
			tx = tx.Where("status = ?", status)
		}
	}

	if memberID := c.QueryInt("member", 0); memberID > 0 {
		tx = tx.Where("member_id = ?", memberID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return handler.SendError(c, err)
	}

	var borrowings []models.Borrowing

	err := tx.Preload("Book").
		Order("borrow_date DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&borrowings).Error
	if err != nil {
		return handler.SendError(c, err)
	}

	now := time.Now()
	for i := range borrowings {
		if borrowings[i].IsOverdue(now) {
			borrowings[i].Status = models.StatusOverdue
		}
	}

	return c.JSON(fiber.Map{
		"data":       borrowings,
		"pagination": handler.NewPagination(page, pageSize, total),
	})
}

// Get returns one borrowing.
func (s *Service) Get(c *fiber.Ctx) error {
	borrowingID, err := c.ParamsInt("id")
	if err != nil || borrowingID < 1 {
		return handler.SendBadRequest(c, "invalid borrowing id")
	}

	var borrowing models.Borrowing

	err = s.db.Preload("Book").Preload("Member").First(&borrowing, borrowingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "borrowing not found"})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	if borrowing.IsOverdue(time.Now()) {
		borrowing.Status = models.StatusOverdue
	}

	return c.JSON(fiber.Map{"data": borrowing})
}

// Borrow opens a borrowing: checks stock, membership status and the borrow
// limit, then takes one copy out of circulation. The whole operation is one
// transaction so concurrent borrows cannot oversell a copy.
func (s *Service) Borrow(c *fiber.Ctx) error {
	var input borrowInput

	if err := c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	now := time.Now()
	borrowing := models.Borrowing{
		BookID:     input.BookID,
		MemberID:   input.MemberID,
		BorrowDate: now,
		DueDate:    now.AddDate(0, 0, s.cfg.Library.BorrowDays),
		Status:     models.StatusBorrowed,
		Notes:      input.Notes,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var book models.Book

		if err := tx.First(&book, input.BookID).Error; err != nil {
			return err
		}

		if !book.CanBorrow {
			return errBookNotBorrowable
		}

		if !book.Available() {
			return errNoCopies
		}

		var member models.Member

		if err := tx.First(&member, input.MemberID).Error; err != nil {
			return err
		}

		if member.Status != models.MemberActive {
			return errMemberSuspended
		}

		var open int64

		err := tx.Model(&models.Borrowing{}).
			Where("member_id = ? AND status = ?", member.ID, models.StatusBorrowed).
			Count(&open).Error
		if err != nil {
			return err
		}

		if open >= int64(member.MaxBorrowLimit) {
			return errBorrowLimit
		}

		err = tx.Model(&book).
			Update("available_copies", gorm.Expr("available_copies - 1")).Error
		if err != nil {
			return err
		}

		return tx.Create(&borrowing).Error
	})

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "book or member not found"})
	case errors.Is(err, errBookNotBorrowable),
		errors.Is(err, errNoCopies),
		errors.Is(err, errMemberSuspended),
		errors.Is(err, errBorrowLimit):
		return handler.SendUnprocessable(c, err.Error())
	case err != nil:
		return handler.SendError(c, err)
	}

	log.Info().Uint("book_id", input.BookID).Uint("member_id", input.MemberID).
		Msg("Borrowing opened")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": borrowing})
}

// Renew extends an open borrowing by another loan period. A borrowing can be
// renewed at most MaxRenewals times and never once it is overdue, so members
// cannot push a late book further out.
func (s *Service) Renew(c *fiber.Ctx) error {
	borrowingID, err := c.ParamsInt("id")
	if err != nil || borrowingID < 1 {
		return handler.SendBadRequest(c, "invalid borrowing id")
	}

	var borrowing models.Borrowing

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&borrowing, borrowingID).Error; err != nil {
			return err
		}

		if borrowing.Status == models.StatusReturned {
			return errAlreadyReturned
		}

		now := time.Now()
		if !borrowing.CanRenew(now) {
			if borrowing.IsOverdue(now) {
				return errRenewOverdue
			}

			return errRenewalLimit
		}

		borrowing.DueDate = borrowing.DueDate.AddDate(0, 0, s.cfg.Library.BorrowDays)
		borrowing.RenewalCount++

		return tx.Save(&borrowing).Error
	})

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "borrowing not found"})
	case errors.Is(err, errAlreadyReturned):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, errRenewOverdue), errors.Is(err, errRenewalLimit):
		return handler.SendUnprocessable(c, err.Error())
	case err != nil:
		return handler.SendError(c, err)
	}

	log.Info().Uint("borrowing_id", borrowing.ID).Int("renewals", borrowing.RenewalCount).
		Msg("Borrowing renewed")

	return c.JSON(fiber.Map{"data": borrowing})
}

// Return closes a borrowing and puts the copy back in circulation.
func (s *Service) Return(c *fiber.Ctx) error {
	borrowingID, err := c.ParamsInt("id")
	if err != nil || borrowingID < 1 {
		return handler.SendBadRequest(c, "invalid borrowing id")
	}

	var borrowing models.Borrowing

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&borrowing, borrowingID).Error; err != nil {
			return err
		}

		if borrowing.Status == models.StatusReturned {
			return errAlreadyReturned
		}

		now := time.Now()
		borrowing.ReturnDate = &now
		borrowing.Status = models.StatusReturned

		if err := tx.Save(&borrowing).Error; err != nil {
			return err
		}

		return tx.Model(&models.Book{}).
			Where("id = ?", borrowing.BookID).
			Update("available_copies", gorm.Expr("available_copies + 1")).Error
	})

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "borrowing not found"})
	case errors.Is(err, errAlreadyReturned):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case err != nil:
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": borrowing})
}

// Delete removes a borrowing record. Open borrowings give the copy back
// first so the stock count stays truthful.
func (s *Service) Delete(c *fiber.Ctx) error {
	borrowingID, err := c.ParamsInt("id")
	if err != nil || borrowingID < 1 {
		return handler.SendBadRequest(c, "invalid borrowing id")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var borrowing models.Borrowing

		if err := tx.First(&borrowing, borrowingID).Error; err != nil {
			return err
		}

		if borrowing.Status != models.StatusReturned {
			err := tx.Model(&models.Book{}).
				Where("id = ?", borrowing.BookID).
				Update("available_copies", gorm.Expr("available_copies + 1")).Error
			if err != nil {
				return err
			}
		}

		return tx.Delete(&borrowing).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "borrowing not found"})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
