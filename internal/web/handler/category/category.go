// Package category exposes the book category REST surface.
package category

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/db/models"
	"github.com/shelfwise/shelfwise/internal/web/handler"
)

const (
	// Path is the base path of the category routes.
	Path = handler.APIPath + "/categories"
)

// Service is the category handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the category handler.
var Handler = Service{}

// Init initializes the category handler and registers its routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *authz.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath,
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceCategories), s.List)
		router.Get("/:id",
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceCategories), s.Get)
		router.Post(handler.RootPath,
			authz.RequirePermission(authService, authz.ActionCreate, authz.ResourceCategories), s.Create)
		router.Put("/:id",
			authz.RequirePermission(authService, authz.ActionUpdate, authz.ResourceCategories), s.Update)
		router.Delete("/:id",
			authz.RequirePermission(authService, authz.ActionDelete, authz.ResourceCategories), s.Delete)
	})

	return nil
}

// categoryInput is the payload for creating or updating a category.
type categoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// List returns a page of categories.
func (s *Service) List(c *fiber.Ctx) error {
	page, pageSize := handler.PageParams(c)

	tx := s.db.Model(&models.Category{})

	if search := c.Query("search"); search != "" {
		tx = tx.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return handler.SendError(c, err)
	}

	var categories []models.Category

	err := tx.Order("name ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&categories).Error
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{
		"data":       categories,
		"pagination": handler.NewPagination(page, pageSize, total),
	})
}

// Get returns one category with its books.
func (s *Service) Get(c *fiber.Ctx) error {
	categoryID, err := c.ParamsInt("id")
	if err != nil || categoryID < 1 {
		return handler.SendBadRequest(c, "invalid category id")
	}

	var category models.Category

	err = s.db.Preload("Books").First(&category, categoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "category not found"})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": category})
}

// Create adds a category.
func (s *Service) Create(c *fiber.Ctx) error {
	var input categoryInput

	if err := c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	category := models.Category{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
	}

	var count int64
	if err := s.db.Model(&models.Category{}).Where("name = ?", category.Name).Count(&count).Error; err != nil {
		return handler.SendError(c, err)
	}

	if count > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "category with this name already exists",
		})
	}

	if err := s.db.Create(&category).Error; err != nil {
		return handler.SendError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": category})
}

// Update rewrites a category's name and description.
func (s *Service) Update(c *fiber.Ctx) error {
	categoryID, err := c.ParamsInt("id")
	if err != nil || categoryID < 1 {
		return handler.SendBadRequest(c, "invalid category id")
	}

	var input categoryInput

	if err = c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err = s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	var category models.Category

	err = s.db.First(&category, categoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "category not found"})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	category.Name = strings.TrimSpace(input.Name)
	category.Description = input.Description

	if err = s.db.Save(&category).Error; err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": category})
}

// Delete removes a category. Book links in the join table go with it.
func (s *Service) Delete(c *fiber.Ctx) error {
	categoryID, err := c.ParamsInt("id")
	if err != nil || categoryID < 1 {
		return handler.SendBadRequest(c, "invalid category id")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var category models.Category

		if err := tx.First(&category, categoryID).Error; err != nil {
			return err
		}

		if err := tx.Model(&category).Association("Books").Clear(); err != nil {
			return err
		}

		return tx.Delete(&category).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "category not found"})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
