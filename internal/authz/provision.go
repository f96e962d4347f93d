package authz

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/db/models"
)

// Provision creates the default roles and synchronizes each one's grant set
// with the catalog. It is idempotent: existing roles are kept and their
// permissions replaced with the catalog's current defaults, so re-running it
// after a catalog change brings the default roles up to date without
// touching custom roles or user assignments.
func (s *Service) Provision(catalog *Catalog) error {
	descriptions := DefaultRoleDescriptions()

	for _, tag := range DefaultRoles() {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			role := models.Role{Name: string(tag)}

			err := tx.Where("name = ?", string(tag)).
				Attrs(models.Role{Description: descriptions[tag]}).
				FirstOrCreate(&role).Error
			if err != nil {
				return fmt.Errorf("failed to provision role %s: %w", tag, err)
			}

			var grants []PermissionInput

			for _, def := range catalog.ForRole(tag) {
				grants = append(grants, PermissionInput{
					Action:   def.Action,
					Resource: def.Resource,
				})
			}

			return syncPermissionsTx(tx, role.ID, grants)
		})
		if err != nil {
			return err
		}
	}

	return nil
}
