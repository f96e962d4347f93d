// Package user exposes the account administration REST surface.
package user

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
	// Path is the base path of the user routes.
	Path = handler.APIPath + "/users"
)

// Service is the user handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	authz     *authz.Service
	validator *validator.Validate
}

// Handler is the user handler.
var Handler = Service{}

// Init initializes the user handler and registers its routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *authz.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.authz = authService
	s.validator = validator.New()

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath,
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceUsers), s.List)
		router.Get("/:id",
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceUsers), s.Get)
		router.Put("/:id",
			authz.RequirePermission(authService, authz.ActionUpdate, authz.ResourceUsers), s.Update)
		router.Get("/:id/roles",
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceUserRoles), s.Roles)
	})

	return nil
}

// userInput is the payload for updating an account.
type userInput struct {
	Active    *bool  `json:"active"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Phone     string `json:"phone" validate:"max=50"`
	Address   string `json:"address" validate:"max=255"`
}

// List returns a page of accounts.
func (s *Service) List(c *fiber.Ctx) error {
	page, pageSize := handler.PageParams(c)

	tx := s.db.Model(&models.User{})

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		tx = tx.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?", like, like, like)
	}

	if kind := c.Query("kind"); kind != "" {
		tx = tx.Where("profile_kind = ?", kind)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return handler.SendError(c, err)
	}

	var users []models.User

	err := tx.Order("email ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&users).Error
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{
		"data":       users,
		"pagination": handler.NewPagination(page, pageSize, total),
	})
}

// Get returns one account with its profile variant.
func (s *Service) Get(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID < 1 {
		return handler.SendBadRequest(c, "invalid user id")
	}

	var user models.User

	err = s.db.Preload("Author").Preload("Member").Preload("Librarian").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": user})
}

// Update rewrites an account's contact fields and active flag.
func (s *Service) Update(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID < 1 {
		return handler.SendBadRequest(c, "invalid user id")
	}

	var input userInput

	if err = c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err = s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	var user models.User

	err = s.db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	if input.Active != nil {
		user.Active = *input.Active
	}

	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}

	if input.LastName != "" {
		user.LastName = input.LastName
	}

	user.Phone = input.Phone
	user.Address = input.Address

	if err = s.db.Save(&user).Error; err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": user})
}

// Roles lists the roles an account holds.
func (s *Service) Roles(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID < 1 {
		return handler.SendBadRequest(c, "invalid user id")
	}

	roles, err := s.authz.UserRoles(uint64(userID))
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": roles})
}
