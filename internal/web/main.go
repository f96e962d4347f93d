// Package web assembles the fiber application: middleware chain, handler
// registration and the serve/shutdown lifecycle.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/auth"
	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/config"
	accesslog "github.com/shelfwise/shelfwise/internal/logger/adapter/fiber"
	"github.com/shelfwise/shelfwise/internal/web/handler"
	"github.com/shelfwise/shelfwise/internal/web/handler/author"
	"github.com/shelfwise/shelfwise/internal/web/handler/book"
	"github.com/shelfwise/shelfwise/internal/web/handler/borrowing"
	"github.com/shelfwise/shelfwise/internal/web/handler/category"
	"github.com/shelfwise/shelfwise/internal/web/handler/dashboard"
	"github.com/shelfwise/shelfwise/internal/web/handler/login"
	"github.com/shelfwise/shelfwise/internal/web/handler/member"
	"github.com/shelfwise/shelfwise/internal/web/handler/purchase"
	"github.com/shelfwise/shelfwise/internal/web/handler/role"
	"github.com/shelfwise/shelfwise/internal/web/handler/user"
)

const (
	// CheckAlivePath is the load balancer health endpoint.
	CheckAlivePath = "/checkalive"

	// MetricsPath serves the prometheus registry.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authService  *authz.Service
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of shelfwise.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(cors.New())

	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	// bearer token middleware resolves the user; routes enforce permissions
	provider := auth.NewProvider(db)
	provider.DefaultBorrowLimit = cfg.Library.DefaultBorrowLimit
	app.Use(auth.Middleware(provider))

	authService := authz.NewService(db)

	service := &Service{
		cfg:         cfg,
		App:         app,
		db:          db,
		authService: authService,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// init handlers (they register their own routes with permission checks)
	initHandlers(app, cfg, db, authService)

	return service
}

func initHandlers(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *authz.Service) {
	handlers := []handler.Service{
		&login.Handler,
		&role.Handler,
		&user.Handler,
		&book.Handler,
		&author.Handler,
		&member.Handler,
		&category.Handler,
		&borrowing.Handler,
		&purchase.Handler,
		&dashboard.Handler,
	}

	for _, h := range handlers {
		if err := h.Init(app, cfg, db, authService); err != nil {
			log.Fatal().Err(err).Msg("failed to init handler")
		}
	}
}
