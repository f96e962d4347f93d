package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/config"
)

// Service is the interface for a web handler service. Handlers register
// their own routes and declare each route's required permission pair at
// registration time.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *authz.Service) error
}
