package daemon

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/db/models"
)

// defaultCategories are created on first start so the inventory is not an
// empty shell.
var defaultCategories = []string{ //nolint:gochecknoglobals
	"Fiction",
	"Non-Fiction",
	"Science",
	"History",
	"Children",
}

// Seed provisions the default roles from the permission catalog and, when
// the user table is empty, creates the initial admin account and the sample
// categories. Safe to run on every start.
func Seed(cfg *config.Config, db *gorm.DB) error {
	catalog, err := Catalog(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to load permission catalog")
	}

	if err = authz.NewService(db).Provision(catalog); err != nil {
		return errors.Wrap(err, "failed to provision roles")
	}

	var count int64
	if err = db.Model(&models.User{}).Count(&count).Error; err != nil {
		return errors.Wrap(err, "failed to count users")
	}

	if count > 0 {
		return nil
	}

	admin := models.User{
		Active:    true,
		Email:     cfg.Authorization.AdminEmail,
		Password:  models.HashPassword(cfg.Authorization.AdminPassword),
		FirstName: "Admin",
		LastName:  "User",
	}

	if err = db.Create(&admin).Error; err != nil {
		return errors.Wrap(err, "failed to create admin user")
	}

	if err = authz.NewService(db).AssignRoleByName(admin.ID, string(authz.RoleAdmin)); err != nil {
		return errors.Wrap(err, "failed to assign admin role")
	}

	for _, name := range defaultCategories {
		if err = db.Create(&models.Category{Name: name}).Error; err != nil {
			return errors.Wrap(err, "failed to create category")
		}
	}

	log.Info().Str("email", admin.Email).Msg("Seeded initial admin user and categories")

	return nil
}
