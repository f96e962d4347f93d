// Package daemon boots the application: database, migrations, RBAC
// provisioning and the web service.
package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/db/dsn"
	"github.com/shelfwise/shelfwise/internal/db/models"
	"github.com/shelfwise/shelfwise/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
	cfg        *config.Config
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// WaitShutdown blocks until the web service finished its graceful shutdown.
func (d *Daemon) WaitShutdown() {
	d.webService.WaitShutdown()
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db := OpenDB(cfg)

	if err := Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	if err := Seed(cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to seed database")
	}

	return &Daemon{
		webService: web.New(cfg, db),
		cfg:        cfg,
	}
}

// OpenDB connects gorm with the driver the config selects.
func OpenDB(cfg *config.Config) *gorm.DB {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "sqlite":
		dialector = sqlite.Open(dsn.Create(cfg))
	case "postgres":
		dialector = gormpostgres.Open(dsn.Create(cfg))
	default: // mysql
		dialector = gormmysql.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Str("engine", cfg.DB.GormEngine).Msg("failed to connect database")
	}

	return db
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.AuthToken{},
		&models.Role{},
		&models.RolePermission{},
		&models.UserRole{},
		&models.Author{},
		&models.Member{},
		&models.Librarian{},
		&models.Book{},
		&models.Category{},
		&models.Borrowing{},
		&models.BookPurchase{},
	)
}

// Catalog loads the permission catalog the config points at, falling back to
// the compiled-in defaults.
func Catalog(cfg *config.Config) (*authz.Catalog, error) {
	if cfg.Authorization.CatalogPath == "" {
		return authz.Default(), nil
	}

	return authz.LoadCatalog(cfg.Authorization.CatalogPath)
}
