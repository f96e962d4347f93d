// Package purchase exposes the book purchase REST surface.
package purchase

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/db/models"
	"github.com/shelfwise/shelfwise/internal/web/handler"
)

const (
	// Path is the base path of the purchase routes.
	Path = handler.APIPath + "/purchases"
)

// Service is the purchase handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the purchase handler.
var Handler = Service{}

// Init initializes the purchase handler and registers its routes. Buying is
// the members' Submission capability on Books.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *authz.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath,
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceBooks), s.List)
		router.Get("/:id",
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceBooks), s.Get)
		router.Post(handler.RootPath,
			authz.RequirePermission(authService, authz.ActionSubmission, authz.ResourceBooks), s.Purchase)
	})

	return nil
}

// purchaseInput is the payload creating a purchase.
type purchaseInput struct {
	BookID   uint `json:"book_id" validate:"required,min=1"`
	MemberID uint `json:"member_id" validate:"required,min=1"`
	Quantity int  `json:"quantity" validate:"required,min=1,max=100"`
}

var errBookNotPurchasable = errors.New("book is not for sale")

// List returns a page of purchases, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	page, pageSize := handler.PageParams(c)

	tx := s.db.Model(&models.BookPurchase{})

	if memberID := c.QueryInt("member", 0); memberID > 0 {
		tx = tx.Where("member_id = ?", memberID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return handler.SendError(c, err)
	}

	var purchases []models.BookPurchase

	err := tx.Preload("Book").
		Order("purchase_date DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&purchases).Error
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{
		"data":       purchases,
		"pagination": handler.NewPagination(page, pageSize, total),
	})
}

// Get returns one purchase.
func (s *Service) Get(c *fiber.Ctx) error {
	purchaseID, err := c.ParamsInt("id")
	if err != nil || purchaseID < 1 {
		return handler.SendBadRequest(c, "invalid purchase id")
	}

	var purchase models.BookPurchase

	err = s.db.Preload("Book").Preload("Member").First(&purchase, purchaseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "purchase not found"})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": purchase})
}

// Purchase records a member buying copies of a sellable book. The price is
// taken from the book row at purchase time and the transaction reference is
// a fresh UUID.
func (s *Service) Purchase(c *fiber.Ctx) error {
	var input purchaseInput

	if err := c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	var purchase models.BookPurchase

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var book models.Book

		if err := tx.First(&book, input.BookID).Error; err != nil {
			return err
		}

		if !book.CanPurchase {
			return errBookNotPurchasable
		}

		var member models.Member

		if err := tx.First(&member, input.MemberID).Error; err != nil {
			return err
		}

		purchase = models.BookPurchase{
			BookID:       book.ID,
			MemberID:     member.ID,
			Reference:    uuid.NewString(),
			Quantity:     input.Quantity,
			UnitPrice:    book.Price,
			TotalAmount:  book.Price * float64(input.Quantity),
			PurchaseDate: time.Now(),
		}

		return tx.Create(&purchase).Error
	})

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "book or member not found"})
	case errors.Is(err, errBookNotPurchasable):
		return handler.SendUnprocessable(c, err.Error())
	case err != nil:
		return handler.SendError(c, err)
	}

	log.Info().Str("reference", purchase.Reference).Uint("book_id", purchase.BookID).
		Msg("Purchase recorded")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": purchase})
}
