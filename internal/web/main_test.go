package web

import (
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelfwise/shelfwise/internal/config"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Webserver.DisableRecover = true

	return New(cfg, db)
}

func TestNewPanicsOnNilDeps(t *testing.T) {
	assert.Panics(t, func() { New(nil, nil) })
}

func TestCheckAliveFollowsAliveFlag(t *testing.T) {
	service := newTestService(t)

	resp, err := service.App.Test(httptest.NewRequest(fiber.MethodGet, CheckAlivePath, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// the shutdown path flips this flag on the same instance the route reads
	service.alive.Store(false)

	resp, err = service.App.Test(httptest.NewRequest(fiber.MethodGet, CheckAlivePath, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
