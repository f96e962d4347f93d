// Package author exposes the author profile REST surface.
package author

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/db/models"
	"github.com/shelfwise/shelfwise/internal/web/handler"
)

const (
	// Path is the base path of the author routes.
	Path = handler.APIPath + "/authors"
)

// Service is the author handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the author handler.
var Handler = Service{}

// Init initializes the author handler and registers its routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *authz.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath,
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceAuthors), s.List)
		router.Get("/:id",
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceAuthors), s.Get)
		router.Put("/:id",
			authz.RequirePermission(authService, authz.ActionUpdate, authz.ResourceAuthors), s.Update)
		router.Delete("/:id",
			authz.RequirePermission(authService, authz.ActionDelete, authz.ResourceAuthors), s.Delete)
	})

	return nil
}

// authorInput is the payload for updating an author profile.
type authorInput struct {
	Bio         string `json:"bio" validate:"max=2000"`
	Nationality string `json:"nationality" validate:"max=100"`
}

// List returns a page of author profiles with their account names.
func (s *Service) List(c *fiber.Ctx) error {
	page, pageSize := handler.PageParams(c)

	tx := s.db.Model(&models.Author{})

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		tx = tx.Where(
			"id IN (SELECT author_id FROM users WHERE author_id IS NOT NULL AND (first_name LIKE ? OR last_name LIKE ?))",
			like, like,
		)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return handler.SendError(c, err)
	}

	var authors []models.Author

	err := tx.Order("id ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&authors).Error
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{
		"data":       authors,
		"pagination": handler.NewPagination(page, pageSize, total),
	})
}

// Get returns one author with their books.
func (s *Service) Get(c *fiber.Ctx) error {
	authorID, err := c.ParamsInt("id")
	if err != nil || authorID < 1 {
		return handler.SendBadRequest(c, "invalid author id")
	}

	var author models.Author

	err = s.db.Preload("Books").First(&author, authorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "author not found"})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": author})
}

// Update rewrites an author's profile fields. Accounts are managed through
// the registration and user endpoints, not here.
func (s *Service) Update(c *fiber.Ctx) error {
	authorID, err := c.ParamsInt("id")
	if err != nil || authorID < 1 {
		return handler.SendBadRequest(c, "invalid author id")
	}

	var input authorInput

	if err = c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err = s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	var author models.Author

	err = s.db.First(&author, authorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "author not found"})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	author.Bio = input.Bio
	author.Nationality = input.Nationality

	if err = s.db.Save(&author).Error; err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": author})
}

// Delete removes an author profile. Authors still credited on books are a
// conflict; the owning user account keeps existing without the profile.
func (s *Service) Delete(c *fiber.Ctx) error {
	authorID, err := c.ParamsInt("id")
	if err != nil || authorID < 1 {
		return handler.SendBadRequest(c, "invalid author id")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var author models.Author

		if err := tx.First(&author, authorID).Error; err != nil {
			return err
		}

		if count := tx.Model(&author).Association("Books").Count(); count > 0 {
			return errAuthorHasBooks
		}

		err := tx.Model(&models.User{}).
			Where("author_id = ?", author.ID).
			Updates(map[string]any{"author_id": nil, "profile_kind": models.ProfileNone}).Error
		if err != nil {
			return err
		}

		return tx.Delete(&author).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "author not found"})
	}

	if errors.Is(err, errAuthorHasBooks) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

var errAuthorHasBooks = errors.New("author is still credited on books")
