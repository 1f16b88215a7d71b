// Package server exposes the testing service over HTTP and WebSocket.
// REST endpoints run actions against a shared browser session; live
// progress streams to clients over /ws/:client_id.
package server

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/aj-geddes/tinaa-playwright-msp/pkg/browser"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/config"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/insights"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/logging"
)

// defaultSessionName is the shared browser session REST requests run
// against. It is started lazily on first use.
const defaultSessionName = "default"

// Server wires the fiber app, the browser manager, and the progress
// hub together.
type Server struct {
	app      *fiber.App
	cfg      *config.Config
	manager  *browser.Manager
	insights *insights.Generator
	hub      *Hub
	log      *logging.Logger
}

// New builds the server and registers all routes.
func New(cfg *config.Config, manager *browser.Manager, gen *insights.Generator) *Server {
	s := &Server{
		cfg:      cfg,
		manager:  manager,
		insights: gen,
		hub:      NewHub(),
		log:      logging.New("server"),
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	allowedOrigins := "*"
	if len(cfg.Server.AllowedOrigins) > 0 {
		allowedOrigins = strings.Join(cfg.Server.AllowedOrigins, ",")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, HEAD, DELETE",
	}))

	app.Use(func(c *fiber.Ctx) error {
		reqID := c.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Locals("request_id", reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	})

	s.registerRoutes(app)
	s.app = app
	return s
}

func (s *Server) registerRoutes(app *fiber.App) {
	app.Get("/health", s.handleHealth)

	app.Post("/navigate", s.handleNavigate)
	app.Post("/screenshot", s.handleScreenshot)
	app.Post("/test/exploratory", s.handleExploratory)
	app.Post("/test/accessibility", s.handleAccessibility)
	app.Post("/test/responsive", s.handleResponsive)
	app.Post("/test/security", s.handleSecurity)
	app.Post("/forms/detect", s.handleDetectForms)
	app.Post("/playbook/execute", s.handleExecutePlaybook)
	app.Post("/playbook/suggestions", s.handleSuggestions)
	app.Get("/sessions", s.handleListSessions)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws/:client_id", websocket.New(s.handleWS))
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	s.log.Errorw("request error",
		"method", c.Method(),
		"path", c.Path(),
		"status", code,
		"error", err.Error(),
		"request_id", c.Locals("request_id"),
	)
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// Listen serves on the configured address until Shutdown.
func (s *Server) Listen() error {
	s.log.Infow("server listening", "address", s.cfg.Server.Address())
	return s.app.Listen(s.cfg.Server.Address())
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// session returns the shared browser session, starting it on first
// use.
func (s *Server) session() (*browser.Session, error) {
	if sess, err := s.manager.Get(defaultSessionName); err == nil {
		return sess, nil
	}

	if err := s.manager.Initialize(); err != nil {
		return nil, err
	}

	cfg := s.cfg.Browser
	return s.manager.GetOrStart(defaultSessionName, browser.Options{
		Headless: cfg.Headless,
		Viewport: &browser.Viewport{
			Width:  cfg.ViewportWidth,
			Height: cfg.ViewportHeight,
		},
		UserAgent:          cfg.UserAgent,
		Locale:             cfg.Locale,
		Timeout:            cfg.TimeoutMs,
		AllowedURLPatterns: cfg.AllowedURLPatterns,
	})
}
