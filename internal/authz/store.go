package authz

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/db/models"
)

// PermissionInput is the payload for granting one permission to a role. Name
// is derived from (action, resource) when left empty; custom roles may grant
// pairs the catalog does not list.
type PermissionInput struct {
	Name     string   `json:"name"`
	Action   Action   `json:"action" validate:"required"`
	Resource Resource `json:"resource" validate:"required"`
}

func (p PermissionInput) permissionName() string {
	if p.Name != "" {
		return p.Name
	}

	return PermissionName(p.Action, p.Resource)
}

// RoleFilter narrows and orders role listings.
type RoleFilter struct {
	// Search matches against role name and description.
	Search string
	// Permission matches roles granting the given permission name, action or resource.
	Permission string
	// Action matches roles granting the given action.
	Action string
	// Resource matches roles granting a permission over the given resource.
	Resource string
	// OrderBy is the sort column; unknown columns fall back to name.
	OrderBy string
	// Descending reverses the sort order.
	Descending bool
	// Page is the 1-based page index.
	Page int
	// PageSize is the page length.
	PageSize int
	// WithPermissions preloads each role's granted permissions.
	WithPermissions bool
}

// orderColumns lists the sortable role columns.
var orderColumns = map[string]bool{ //nolint:gochecknoglobals
	"name":        true,
	"description": true,
	"created_at":  true,
	"updated_at":  true,
}

// ListRoles returns one page of roles matching the filter plus the total
// matching count.
func (s *Service) ListRoles(filter RoleFilter) ([]models.Role, int64, error) {
	tx := s.db.Model(&models.Role{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		tx = tx.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	if filter.Permission != "" {
		tx = tx.Where(
			"id IN (SELECT role_id FROM role_permissions WHERE name = ? OR action = ? OR resource = ?)",
			filter.Permission, filter.Permission, filter.Permission,
		)
	}

	if filter.Action != "" {
		tx = tx.Where("id IN (SELECT role_id FROM role_permissions WHERE action = ?)", filter.Action)
	}

	if filter.Resource != "" {
		tx = tx.Where("id IN (SELECT role_id FROM role_permissions WHERE resource = ?)", filter.Resource)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count roles: %w", err)
	}

	orderBy := filter.OrderBy
	if !orderColumns[orderBy] {
		orderBy = "name"
	}

	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}

	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 15
	}

	if filter.WithPermissions {
		tx = tx.Preload("Permissions")
	}

	var roles []models.Role

	err := tx.Order(orderBy + " " + direction).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&roles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query roles: %w", err)
	}

	return roles, total, nil
}

// GetRole loads one role with its granted permissions.
func (s *Service) GetRole(roleID uint) (*models.Role, error) {
	var role models.Role

	err := s.db.Preload("Permissions").First(&role, roleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}

	return &role, nil
}

// GetRoleByName loads one role by its exact name.
func (s *Service) GetRoleByName(name string) (*models.Role, error) {
	var role models.Role

	err := s.db.Where("name = ?", name).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}

	return &role, nil
}

// CreateRole creates a role with an optional initial permission set. The
// name must be unique (case-sensitive exact match); each initial permission
// follows AddPermission semantics.
func (s *Service) CreateRole(name, description string, permissions []PermissionInput) (*models.Role, error) {
	var created models.Role

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64

		if err := tx.Model(&models.Role{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check role name: %w", err)
		}

		if count > 0 {
			return ErrDuplicateRoleName
		}

		created = models.Role{Name: name, Description: description}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}

		for _, perm := range permissions {
			if _, err := addPermissionTx(tx, created.ID, perm); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(created.ID)
}

// UpdateRole renames or re-describes a role. When permissions is non-nil the
// role's grant set is replaced with SyncPermissions semantics in the same
// transaction.
func (s *Service) UpdateRole(roleID uint, name, description string, permissions []PermissionInput) (*models.Role, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		role, err := roleByID(tx, roleID)
		if err != nil {
			return err
		}

		if name != "" && name != role.Name {
			var count int64

			if err = tx.Model(&models.Role{}).
				Where("name = ? AND id != ?", name, roleID).
				Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check role name: %w", err)
			}

			if count > 0 {
				return ErrDuplicateRoleName
			}

			role.Name = name
		}

		if description != "" {
			role.Description = description
		}

		if err = tx.Save(role).Error; err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}

		if permissions != nil {
			if err = syncPermissionsTx(tx, roleID, permissions); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(roleID)
}

// DeleteRole removes a role and cascades its permission rows. A role held by
// any user cannot be deleted; the precondition is rechecked inside the same
// transaction as the delete, so a concurrent assignment cannot slip through.
func (s *Service) DeleteRole(roleID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := roleByID(tx, roleID); err != nil {
			return err
		}

		var attached int64

		err := tx.Model(&models.UserRole{}).Where("role_id = ?", roleID).Count(&attached).Error
		if err != nil {
			return fmt.Errorf("failed to count role users: %w", err)
		}

		if attached > 0 {
			return ErrRoleHasUsers
		}

		if err = tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("failed to delete role permissions: %w", err)
		}

		if err = tx.Delete(&models.Role{}, roleID).Error; err != nil {
			return fmt.Errorf("failed to delete role: %w", err)
		}

		return nil
	})
}

// AddPermission grants one (action, resource) pair to a role. Granting a
// pair the role already holds is a conflict.
func (s *Service) AddPermission(roleID uint, perm PermissionInput) (*models.RolePermission, error) {
	var granted *models.RolePermission

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := roleByID(tx, roleID); err != nil {
			return err
		}

		var err error

		granted, err = addPermissionTx(tx, roleID, perm)

		return err
	})
	if err != nil {
		return nil, err
	}

	return granted, nil
}

// RemovePermission revokes one granted permission from a role. The
// permission must belong to that role.
func (s *Service) RemovePermission(roleID, permissionID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := roleByID(tx, roleID); err != nil {
			return err
		}

		result := tx.Where("id = ? AND role_id = ?", permissionID, roleID).
			Delete(&models.RolePermission{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete permission: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			return ErrPermissionNotFound
		}

		return nil
	})
}

// SyncPermissions atomically replaces a role's entire grant set with the
// given list. This is a full replace, not a merge: a concurrent authorize
// sees either the old complete set or the new one, never a mix.
func (s *Service) SyncPermissions(roleID uint, permissions []PermissionInput) (*models.Role, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := roleByID(tx, roleID); err != nil {
			return err
		}

		return syncPermissionsTx(tx, roleID, permissions)
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(roleID)
}

// RoleHasPermission reports whether a role grants the given permission name.
func (s *Service) RoleHasPermission(roleID uint, permission string) (bool, error) {
	if _, err := roleByID(s.db, roleID); err != nil {
		return false, err
	}

	var count int64

	err := s.db.Model(&models.RolePermission{}).
		Where("role_id = ? AND name = ?", roleID, permission).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role permission: %w", err)
	}

	return count > 0, nil
}

// RoleHasPermissionByAction reports whether a role grants the (action,
// resource) pair.
func (s *Service) RoleHasPermissionByAction(roleID uint, action Action, resource Resource) (bool, error) {
	if _, err := roleByID(s.db, roleID); err != nil {
		return false, err
	}

	var count int64

	err := s.db.Model(&models.RolePermission{}).
		Where("role_id = ? AND action = ? AND resource = ?", roleID, string(action), string(resource)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role permission: %w", err)
	}

	return count > 0, nil
}

// RolePermissionNames returns the permission names granted to a role.
func (s *Service) RolePermissionNames(roleID uint) ([]string, error) {
	if _, err := roleByID(s.db, roleID); err != nil {
		return nil, err
	}

	var names []string

	err := s.db.Model(&models.RolePermission{}).
		Where("role_id = ?", roleID).
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list role permissions: %w", err)
	}

	return names, nil
}

// AssignUsers attaches the role to each listed user. Attaching an already
// held role is a no-op, not an error.
func (s *Service) AssignUsers(roleID uint, userIDs []uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := roleByID(tx, roleID); err != nil {
			return err
		}

		for _, userID := range userIDs {
			var count int64

			err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error
			if err != nil {
				return fmt.Errorf("failed to resolve user: %w", err)
			}

			if count == 0 {
				return ErrUserNotFound
			}

			link := models.UserRole{UserID: userID, RoleID: roleID}
			if err = tx.Where(&link).FirstOrCreate(&link).Error; err != nil {
				return fmt.Errorf("failed to assign role: %w", err)
			}
		}

		return nil
	})
}

// RemoveUsers detaches the role from each listed user. Detaching a role the
// user does not hold is a no-op.
func (s *Service) RemoveUsers(roleID uint, userIDs []uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := roleByID(tx, roleID); err != nil {
			return err
		}

		err := tx.Where("role_id = ? AND user_id IN ?", roleID, userIDs).
			Delete(&models.UserRole{}).Error
		if err != nil {
			return fmt.Errorf("failed to remove role assignments: %w", err)
		}

		return nil
	})
}

// RoleUsers lists the users currently holding a role.
func (s *Service) RoleUsers(roleID uint) ([]models.User, error) {
	if _, err := roleByID(s.db, roleID); err != nil {
		return nil, err
	}

	var users []models.User

	err := s.db.Table("users").
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Where("user_roles.role_id = ?", roleID).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list role users: %w", err)
	}

	return users, nil
}

// AssignRoleByName attaches a named role to a user. Used at registration and
// seeding time where roles are addressed by their reserved names.
func (s *Service) AssignRoleByName(userID uint64, roleName string) error {
	role, err := s.GetRoleByName(roleName)
	if err != nil {
		return err
	}

	return s.AssignUsers(role.ID, []uint64{userID})
}

func addPermissionTx(tx *gorm.DB, roleID uint, perm PermissionInput) (*models.RolePermission, error) {
	if perm.Action == "" || perm.Resource == "" {
		return nil, ErrInvalidDefinition
	}

	var count int64

	err := tx.Model(&models.RolePermission{}).
		Where("role_id = ? AND action = ? AND resource = ?", roleID, string(perm.Action), string(perm.Resource)).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing permission: %w", err)
	}

	if count > 0 {
		return nil, ErrDuplicatePermission
	}

	granted := models.RolePermission{
		RoleID:   roleID,
		Name:     perm.permissionName(),
		Action:   string(perm.Action),
		Resource: string(perm.Resource),
	}

	if err = tx.Create(&granted).Error; err != nil {
		return nil, fmt.Errorf("failed to grant permission: %w", err)
	}

	return &granted, nil
}

func syncPermissionsTx(tx *gorm.DB, roleID uint, permissions []PermissionInput) error {
	if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
		return fmt.Errorf("failed to clear role permissions: %w", err)
	}

	for _, perm := range permissions {
		if _, err := addPermissionTx(tx, roleID, perm); err != nil {
			return err
		}
	}

	return nil
}
