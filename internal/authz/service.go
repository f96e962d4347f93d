package authz

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/db/models"
)

// Service provides the authorization check and the role/permission store.
type Service struct {
	db *gorm.DB
}

// NewService creates a new authorization service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Authorize reports whether the user holds at least one role granting the
// permission derived from (action, resource). Denial is the normal false
// result: no roles, no matching grant, or an uncataloged pair all resolve to
// false without error. Only an unresolvable user id is an error, which
// callers must treat as an authentication failure.
func (s *Service) Authorize(userID uint64, action Action, resource Resource) (bool, error) {
	return s.HasPermission(userID, PermissionName(action, resource))
}

// HasPermission is Authorize for a pre-derived permission name.
func (s *Service) HasPermission(userID uint64, permission string) (bool, error) {
	if err := s.checkUserExists(userID); err != nil {
		return false, err
	}

	return s.userHasPermission(userID, permission)
}

// HasAnyPermission reports whether the user holds at least one of the given
// permission names.
func (s *Service) HasAnyPermission(userID uint64, permissions []string) (bool, error) {
	if len(permissions) == 0 {
		return false, nil
	}

	if err := s.checkUserExists(userID); err != nil {
		return false, err
	}

	for _, perm := range permissions {
		has, err := s.userHasPermission(userID, perm)
		if err != nil {
			return false, err
		}

		if has {
			return true, nil
		}
	}

	return false, nil
}

// UserPermissions retrieves the union of permission names granted across all
// roles held by the user.
func (s *Service) UserPermissions(userID uint64) ([]string, error) {
	if err := s.checkUserExists(userID); err != nil {
		return nil, err
	}

	var permissions []string

	err := s.db.Table("role_permissions").
		Select("DISTINCT role_permissions.name").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ?", userID).
		Pluck("role_permissions.name", &permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}

	return permissions, nil
}

// UserRoles retrieves all roles held by the user.
func (s *Service) UserRoles(userID uint64) ([]models.Role, error) {
	if err := s.checkUserExists(userID); err != nil {
		return nil, err
	}

	var roles []models.Role

	err := s.db.Table("roles").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name ASC").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}

	return roles, nil
}

// IsAdmin reports whether the user holds the reserved Admin role by name.
// This is a convenience only: Admin carries no bypass inside Authorize, it is
// simply provisioned with every admin-flagged catalog entry.
func (s *Service) IsAdmin(userID uint64) (bool, error) {
	if err := s.checkUserExists(userID); err != nil {
		return false, err
	}

	var count int64

	err := s.db.Table("user_roles").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ? AND roles.name = ?", userID, string(RoleAdmin)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check admin role: %w", err)
	}

	return count > 0, nil
}

func (s *Service) userHasPermission(userID uint64, permission string) (bool, error) {
	var count int64

	err := s.db.Table("role_permissions").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ? AND role_permissions.name = ?", userID, permission).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}

	return count > 0, nil
}

func (s *Service) checkUserExists(userID uint64) error {
	var count int64

	err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	if count == 0 {
		return ErrUserNotFound
	}

	return nil
}

func roleByID(tx *gorm.DB, roleID uint) (*models.Role, error) {
	var role models.Role

	err := tx.First(&role, roleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}

	return &role, nil
}
