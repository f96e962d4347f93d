package config

import (
	"github.com/shelfwise/shelfwise/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode       bool // enable dev mode for development
	DB            DB
	Log           logger.Log
	Title         string
	Webserver     Webserver
	Authorization Authorization
	Library       Library
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
}

// Authorization holds the RBAC provisioning settings.
type Authorization struct {
	// CatalogPath points to an operator supplied permission catalog TOML
	// file. Empty means the compiled-in catalog.
	CatalogPath string

	// AdminEmail and AdminPassword seed the initial admin account when the
	// user table is empty.
	AdminEmail    string
	AdminPassword string
}

// Library holds the lending policy settings.
type Library struct {
	// BorrowDays is the loan period applied to new borrowings.
	BorrowDays int
	// DefaultBorrowLimit caps concurrently open borrowings for new members.
	DefaultBorrowLimit int
}
