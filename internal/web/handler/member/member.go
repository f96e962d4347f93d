// Package member exposes the library member REST surface.
package member

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
	// Path is the base path of the member routes.
	Path = handler.APIPath + "/members"
)

// Service is the member handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the member handler.
var Handler = Service{}

// Init initializes the member handler and registers its routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *authz.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath,
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceMembers), s.List)
		router.Get("/:id",
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceMembers), s.Get)
		router.Put("/:id",
			authz.RequirePermission(authService, authz.ActionUpdate, authz.ResourceMembers), s.Update)
		router.Delete("/:id",
			authz.RequirePermission(authService, authz.ActionDelete, authz.ResourceMembers), s.Delete)
	})

	return nil
}

// memberInput is the payload for updating a membership.
type memberInput struct {
	Status         models.MemberStatus `json:"status" validate:"required,oneof=active suspended"`
	MaxBorrowLimit int                 `json:"max_borrow_limit" validate:"required,min=1,max=100"`
}

// List returns a page of memberships.
func (s *Service) List(c *fiber.Ctx) error {
	page, pageSize := handler.PageParams(c)

	tx := s.db.Model(&models.Member{})

	if status := c.Query("status"); status != "" {
		tx = tx.Where("status = ?", status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return handler.SendError(c, err)
	}

	var members []models.Member

	err := tx.Order("id ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&members).Error
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{
		"data":       members,
		"pagination": handler.NewPagination(page, pageSize, total),
	})
}

// Get returns one membership with its borrowings.
func (s *Service) Get(c *fiber.Ctx) error {
	memberID, err := c.ParamsInt("id")
	if err != nil || memberID < 1 {
		return handler.SendBadRequest(c, "invalid member id")
	}

	var member models.Member

	err = s.db.Preload("Borrowings").Preload("Borrowings.Book").First(&member, memberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "member not found"})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": member})
}

// Update sets a membership's status and borrow limit.
func (s *Service) Update(c *fiber.Ctx) error {
	memberID, err := c.ParamsInt("id")
	if err != nil || memberID < 1 {
		return handler.SendBadRequest(c, "invalid member id")
	}

	var input memberInput

	if err = c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err = s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	var member models.Member

	err = s.db.First(&member, memberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "member not found"})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	member.Status = input.Status
	member.MaxBorrowLimit = input.MaxBorrowLimit

	if err = s.db.Save(&member).Error; err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": member})
}

// Delete ends a membership. Members with open borrowings are a conflict.
func (s *Service) Delete(c *fiber.Ctx) error {
	memberID, err := c.ParamsInt("id")
	if err != nil || memberID < 1 {
		return handler.SendBadRequest(c, "invalid member id")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var member models.Member

		if err := tx.First(&member, memberID).Error; err != nil {
			return err
		}

		var open int64

		err := tx.Model(&models.Borrowing{}).
			Where("member_id = ? AND status IN ?", memberID,
				[]models.BorrowingStatus{models.StatusBorrowed, models.StatusOverdue}).
			Count(&open).Error
		if err != nil {
			return err
		}

		if open > 0 {
			return errMemberHasBorrowings
		}

		err = tx.Model(&models.User{}).
			Where("member_id = ?", member.ID).
			Updates(map[string]any{"member_id": nil, "profile_kind": models.ProfileNone}).Error
		if err != nil {
			return err
		}

		return tx.Delete(&member).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "member not found"})
	}

	if errors.Is(err, errMemberHasBorrowings) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

var errMemberHasBorrowings = errors.New("member has open borrowings")
