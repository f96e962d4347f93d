// Package role exposes the role management REST surface: role CRUD, per-role
// permission grants and role membership.
package role

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/web/handler"
)

const (
	// Path is the base path of the role routes.
	Path = handler.APIPath + "/roles"

	// PermissionsPath lists the permission catalog.
	PermissionsPath = handler.APIPath + "/permissions"
)

// Service is the role handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	authz     *authz.Service
	validator *validator.Validate
}

// Handler is the role handler.
var Handler = Service{}

// Init initializes the role handler and registers its routes. Every route is
// gated on a (action, Roles) permission pair; the catalog listing reuses the
// role viewing capability.
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
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceRoles), s.List)
		router.Post(handler.RootPath,
			authz.RequirePermission(authService, authz.ActionCreate, authz.ResourceRoles), s.Create)
		router.Get("/:id",
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceRoles), s.Get)
		router.Put("/:id",
			authz.RequirePermission(authService, authz.ActionUpdate, authz.ResourceRoles), s.Update)
		router.Delete("/:id",
			authz.RequirePermission(authService, authz.ActionDelete, authz.ResourceRoles), s.Delete)

		router.Post("/:id/permissions",
			authz.RequirePermission(authService, authz.ActionUpdate, authz.ResourceRoles), s.AddPermission)
		router.Put("/:id/permissions",
			authz.RequirePermission(authService, authz.ActionUpdate, authz.ResourceRoles), s.SyncPermissions)
		router.Delete("/:id/permissions/:permID",
			authz.RequirePermission(authService, authz.ActionUpdate, authz.ResourceRoles), s.RemovePermission)

		router.Get("/:id/users",
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceUserRoles), s.Users)
		router.Post("/:id/users",
			authz.RequirePermission(authService, authz.ActionUpdate, authz.ResourceUserRoles), s.AssignUsers)
		router.Delete("/:id/users",
			authz.RequirePermission(authService, authz.ActionUpdate, authz.ResourceUserRoles), s.RemoveUsers)
	})

	app.Get(PermissionsPath,
		authz.RequirePermission(authService, authz.ActionView, authz.ResourceRoles), s.Catalog)

	return nil
}

// roleInput is the payload for creating or updating a role.
type roleInput struct {
	Name        string            `json:"name" validate:"required,max=100"`
	Description string            `json:"description" validate:"max=255"`
	Permissions []permissionInput `json:"permissions" validate:"dive"`
}

// permissionInput is one (action, resource) grant in a request body.
type permissionInput struct {
	Action   string `json:"action" validate:"required,max=50"`
	Resource string `json:"resource" validate:"required,max=100"`
}

func toPermissionInputs(perms []permissionInput) []authz.PermissionInput {
	out := make([]authz.PermissionInput, 0, len(perms))
	for _, p := range perms {
		out = append(out, authz.PermissionInput{
			Action:   authz.Action(p.Action),
			Resource: authz.Resource(p.Resource),
		})
	}

	return out
}

// List returns a page of roles with their permissions.
func (s *Service) List(c *fiber.Ctx) error {
	page, pageSize := handler.PageParams(c)

	roles, total, err := s.authz.ListRoles(authz.RoleFilter{
		Search:          c.Query("search"),
		Permission:      c.Query("permission"),
		OrderBy:         c.Query("sort", "name"),
		Descending:      c.Query("order") == "desc",
		Page:            page,
		PageSize:        pageSize,
		WithPermissions: true,
	})
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{
		"data":       roles,
		"pagination": handler.NewPagination(page, pageSize, total),
	})
}

// Get returns one role by id.
func (s *Service) Get(c *fiber.Ctx) error {
	roleID, err := c.ParamsInt("id")
	if err != nil || roleID < 1 {
		return handler.SendBadRequest(c, "invalid role id")
	}

	role, err := s.authz.GetRole(uint(roleID))
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": role})
}

// Create creates a role with an optional initial permission set.
func (s *Service) Create(c *fiber.Ctx) error {
	var input roleInput

	if err := c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	role, err := s.authz.CreateRole(input.Name, input.Description, toPermissionInputs(input.Permissions))
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": role})
}

// Update renames a role and, when a permission list is present, replaces its
// grants.
func (s *Service) Update(c *fiber.Ctx) error {
	roleID, err := c.ParamsInt("id")
	if err != nil || roleID < 1 {
		return handler.SendBadRequest(c, "invalid role id")
	}

	var input roleInput

	if err = c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err = s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	var perms []authz.PermissionInput
	if input.Permissions != nil {
		perms = toPermissionInputs(input.Permissions)
	}

	role, err := s.authz.UpdateRole(uint(roleID), input.Name, input.Description, perms)
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": role})
}

// Delete removes a role. Roles with attached users are a conflict.
func (s *Service) Delete(c *fiber.Ctx) error {
	roleID, err := c.ParamsInt("id")
	if err != nil || roleID < 1 {
		return handler.SendBadRequest(c, "invalid role id")
	}

	if err = s.authz.DeleteRole(uint(roleID)); err != nil {
		return handler.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// AddPermission grants one (action, resource) pair to a role.
func (s *Service) AddPermission(c *fiber.Ctx) error {
	roleID, err := c.ParamsInt("id")
	if err != nil || roleID < 1 {
		return handler.SendBadRequest(c, "invalid role id")
	}

	var input permissionInput

	if err = c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err = s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	perm, err := s.authz.AddPermission(uint(roleID), authz.PermissionInput{
		Action:   authz.Action(input.Action),
		Resource: authz.Resource(input.Resource),
	})
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": perm})
}

// RemovePermission revokes a single granted permission from a role.
func (s *Service) RemovePermission(c *fiber.Ctx) error {
	roleID, err := c.ParamsInt("id")
	if err != nil || roleID < 1 {
		return handler.SendBadRequest(c, "invalid role id")
	}

	permID, err := c.ParamsInt("permID")
	if err != nil || permID < 1 {
		return handler.SendBadRequest(c, "invalid permission id")
	}

	if err = s.authz.RemovePermission(uint(roleID), uint(permID)); err != nil {
		return handler.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// syncInput is the payload replacing a role's whole permission set.
type syncInput struct {
	Permissions []permissionInput `json:"permissions" validate:"dive"`
}

// SyncPermissions atomically replaces the role's grants with the given list.
func (s *Service) SyncPermissions(c *fiber.Ctx) error {
	roleID, err := c.ParamsInt("id")
	if err != nil || roleID < 1 {
		return handler.SendBadRequest(c, "invalid role id")
	}

	var input syncInput

	if err = c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err = s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	role, err := s.authz.SyncPermissions(uint(roleID), toPermissionInputs(input.Permissions))
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": role})
}

// Users lists the users holding a role.
func (s *Service) Users(c *fiber.Ctx) error {
	roleID, err := c.ParamsInt("id")
	if err != nil || roleID < 1 {
		return handler.SendBadRequest(c, "invalid role id")
	}

	users, err := s.authz.RoleUsers(uint(roleID))
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": users})
}

// membershipInput is the payload for attaching or detaching users.
type membershipInput struct {
	UserIDs []uint64 `json:"user_ids" validate:"required,min=1"`
}

// AssignUsers attaches the listed users to a role. Repeats are no-ops.
func (s *Service) AssignUsers(c *fiber.Ctx) error {
	roleID, err := c.ParamsInt("id")
	if err != nil || roleID < 1 {
		return handler.SendBadRequest(c, "invalid role id")
	}

	var input membershipInput

	if err = c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err = s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	if err = s.authz.AssignUsers(uint(roleID), input.UserIDs); err != nil {
		return handler.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveUsers detaches the listed users from a role.
func (s *Service) RemoveUsers(c *fiber.Ctx) error {
	roleID, err := c.ParamsInt("id")
	if err != nil || roleID < 1 {
		return handler.SendBadRequest(c, "invalid role id")
	}

	var input membershipInput

	if err = c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err = s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	if err = s.authz.RemoveUsers(uint(roleID), input.UserIDs); err != nil {
		return handler.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Catalog lists the permission catalog entries the instance was provisioned
// from, with the derived canonical names.
func (s *Service) Catalog(c *fiber.Ctx) error {
	defs := s.catalogDefinitions()
	out := make([]fiber.Map, 0, len(defs))

	for _, def := range defs {
		out = append(out, fiber.Map{
			"name":        def.Name(),
			"description": def.Description,
			"action":      def.Action,
			"resource":    def.Resource,
		})
	}

	return c.JSON(fiber.Map{"data": out})
}

func (s *Service) catalogDefinitions() []authz.Definition {
	if s.cfg.Authorization.CatalogPath != "" {
		catalog, err := authz.LoadCatalog(s.cfg.Authorization.CatalogPath)
		if err == nil {
			return catalog.Definitions()
		}
	}

	return authz.Default().Definitions()
}
