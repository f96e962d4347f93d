// Package login exposes the authentication endpoints: login, logout, account
// registration and the current-user profile.
package login

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/auth"
	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/db/models"
	"github.com/shelfwise/shelfwise/internal/web/handler"
)

const (
	// Path is the login endpoint.
	Path = handler.APIPath + "/login"

	// LogoutPath revokes the presented bearer token.
	LogoutPath = handler.APIPath + "/logout"

	// RegisterPath is the base path of the registration endpoints.
	RegisterPath = handler.APIPath + "/register"

	// MePath returns the authenticated user's profile.
	MePath = handler.APIPath + "/me"

	// TokenName labels tokens issued at login.
	TokenName = "auth-token"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	provider  *auth.Provider
	validator *validator.Validate
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler. Login and the member and author
// registrations are public; librarian registration is admin territory and
// gated on Users management.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *authz.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.provider = auth.NewProvider(db)
	s.provider.DefaultBorrowLimit = cfg.Library.DefaultBorrowLimit
	s.validator = validator.New()

	app.Post(Path, s.Login)
	app.Post(LogoutPath, s.Logout)

	app.Post(RegisterPath+"/member", s.registerKind(models.ProfileMember))
	app.Post(RegisterPath+"/author", s.registerKind(models.ProfileAuthor))
	app.Post(RegisterPath+"/librarian",
		authz.RequirePermission(authService, authz.ActionCreate, authz.ResourceUsers),
		s.registerKind(models.ProfileLibrarian),
	)

	app.Get(MePath, s.Me)
	app.Put(MePath+"/password", s.ChangePassword)

	return nil
}

// loginInput is the login payload.
type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(c *fiber.Ctx) error {
	var input loginInput

	if err := c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	user, err := s.provider.Authenticate(input.Email, input.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrUserAccountDisabled) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid email or password",
		})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	token, err := s.provider.IssueToken(user.ID, TokenName)
	if err != nil {
		return handler.SendError(c, err)
	}

	log.Info().Uint64("user_id", user.ID).Msg("User logged in")

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout revokes the bearer token the request was authenticated with.
func (s *Service) Logout(c *fiber.Ctx) error {
	token, ok := c.Locals(auth.LocalsTokenKey).(string)
	if !ok || token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthenticated",
		})
	}

	if err := s.provider.RevokeToken(token); err != nil && !errors.Is(err, auth.ErrInvalidToken) {
		return handler.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// registerKind builds the registration handler for one profile variant.
func (s *Service) registerKind(kind models.ProfileKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input auth.RegisterInput

		if err := c.BodyParser(&input); err != nil {
			return handler.SendBadRequest(c, "invalid request body")
		}

		input.Kind = kind

		if err := s.validator.Struct(input); err != nil {
			return handler.SendValidationError(c, err)
		}

		user, err := s.provider.Register(input)
		if errors.Is(err, auth.ErrEmailExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": err.Error(),
			})
		}

		if err != nil {
			return handler.SendError(c, err)
		}

		token, err := s.provider.IssueToken(user.ID, TokenName)
		if err != nil {
			return handler.SendError(c, err)
		}

		log.Info().Uint64("user_id", user.ID).Str("kind", string(kind)).Msg("User registered")

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"token": token,
			"user":  user,
		})
	}
}

// Me returns the authenticated user together with role and permission names
// and a flag for the reserved Admin role.
func (s *Service) Me(c *fiber.Ctx) error {
	user, ok := authz.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthenticated",
		})
	}

	service := authz.NewService(s.db)

	roles, err := service.UserRoles(user.ID)
	if err != nil {
		return handler.SendError(c, err)
	}

	permissions, err := service.UserPermissions(user.ID)
	if err != nil {
		return handler.SendError(c, err)
	}

	isAdmin, err := service.IsAdmin(user.ID)
	if err != nil {
		return handler.SendError(c, err)
	}

	roleNames := make([]string, 0, len(roles))
	for _, role := range roles {
		roleNames = append(roleNames, role.Name)
	}

	return c.JSON(fiber.Map{
		"user":        user,
		"roles":       roleNames,
		"permissions": permissions,
		"is_admin":    isAdmin,
	})
}

// passwordInput is the change-password payload.
type passwordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword rotates the authenticated user's password.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	user, ok := authz.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthenticated",
		})
	}

	var input passwordInput

	if err := c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	err := s.provider.ChangePassword(user.ID, input.CurrentPassword, input.NewPassword)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return handler.SendUnprocessable(c, "current password is incorrect")
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
