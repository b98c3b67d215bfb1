package httpfiber

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hokireceh/mozi-wallet-faucet/pkg/config"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/logger"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/scheduler"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/version"
)

// Server exposes the observability surface: prometheus metrics, readiness and
// the scheduler status.
type Server struct {
	app *fiber.App
	cfg *config.Schema

	registry  *prometheus.Registry
	scheduler *scheduler.Scheduler
}

type Option func(*Server)

func NewServer(cfg *config.Schema, opts ...Option) *Server {
	app := fiber.New(fiber.Config{
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})
	srv := &Server{
		app: app,
		cfg: cfg,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

func WithScheduler(sched *scheduler.Scheduler) Option {
	return func(s *Server) {
		s.scheduler = sched
	}
}

func (s *Server) Run() error {
	if s.cfg.Global.Environment == "production" {
		level, err := zap.ParseAtomicLevel(s.cfg.Global.LogLevel)
		if err != nil {
			return err
		}
		zapLogger, err := logger.NewZapLogger(logger.WithLevel(level.Level()))
		if err != nil {
			return err
		}
		s.app.Use(fiberzap.New(fiberzap.Config{
			Logger: zapLogger.Logger,
		}))
	}

	if err := s.MapRoutes(); err != nil {
		logger.Fatalf("failed to map routes: %v", err)
	}

	logger.Infof("listening on %s", s.cfg.Global.MetricsAddr)
	if err := s.app.Listen(s.cfg.Global.MetricsAddr); err != nil {
		return err
	}

	return nil
}

func (s *Server) Stop() {
	logger.Infof("Stopping HTTP server...")
	if err := s.app.ShutdownWithTimeout(1 * time.Second); err != nil {
		logger.Debugf("HTTP server shutdown: %v", err)
	}
	logger.Infof("HTTP server stopped")
}

func (s *Server) MapRoutes() error {
	v1 := s.app.Group("/")
	if s.registry != nil {
		v1.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
			ErrorLog:      log.New(os.Stderr, log.Prefix(), log.Flags()),
			ErrorHandling: promhttp.ContinueOnError,
		})))
	}

	v1.Get("/readiness", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	})

	v1.Get("/status", func(c *fiber.Ctx) error {
		resp := fiber.Map{
			"version": version.GetVersion(),
		}
		if s.scheduler != nil {
			resp["scheduler"] = s.scheduler.GetInfo()
		}
		return c.Status(fiber.StatusOK).JSON(resp)
	})

	return nil
}
