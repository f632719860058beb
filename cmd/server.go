package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/konnected/identity/pkg/config"
	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/logx"
)

var startTime = time.Now()

func main() {
	// 1. Initialize Logger
	logx.SetDefaultLogger(logx.NewLoggerFromEnv())

	logx.Info("🚀 Starting Konnected Identity API Server...")

	// 2. Load Configuration
	cfg := config.Load()
	if cfg.Auth.JWT.AccessSecret == "" || cfg.Auth.JWT.RefreshSecret == "" {
		logx.Fatal("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}

	// 3. Initialize Dependency Container
	container := NewContainer(cfg)
	defer container.Cleanup()

	// 4. Create Fiber App
	app := fiber.New(fiber.Config{
		AppName:               "Konnected Identity API",
		DisableStartupMessage: true,
		ErrorHandler:          errx.FiberErrorHandler,
		IdleTimeout:           120 * time.Second,
	})

	// 5. Global Middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Tenant-Id, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${locals:requestid}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	// 6. Health Check
	app.Get("/health", healthCheckHandler(container))

	// 7. Register Routes
	api := app.Group("/api/v1")

	container.IAM.TenantHandlers.RegisterRoutes(api)
	logx.Info("✓ Onboarding routes registered")

	container.IAM.AuthHandlers.RegisterRoutes(api, container.IAM.AuthMiddleware)
	logx.Info("✓ Auth routes registered")

	container.IAM.InvitationHandlers.RegisterRoutes(api)
	logx.Info("✓ Invitation routes registered")

	adminRoutes(api, container)
	logx.Info("✓ Admin routes registered")

	// 8. 404 Handler
	app.Use(notFoundHandler)

	// 9. Background services
	container.StartBackgroundServices()

	// 10. Start Server with Graceful Shutdown
	startServer(app, cfg)
}

// adminRoutes mounts the management surface. Every route requires the
// tenant header, a valid access token for that tenant, and the admin role.
func adminRoutes(api fiber.Router, container *Container) {
	mw := container.IAM.AuthMiddleware
	admin := api.Group("/admin",
		auth.TenantResolver(),
		mw.Authenticate(),
		mw.RequireAdmin(),
	)

	container.IAM.UserHandlers.RegisterRoutes(admin)
	container.IAM.RBACHandlers.RegisterRoutes(admin)
	container.IAM.InvitationHandlers.RegisterAdminRoutes(admin)
}

// ============================================================================
// Handler Functions
// ============================================================================

func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":    "healthy",
			"service":   "konnected-identity",
			"uptime":    time.Since(startTime).String(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}

		if err := container.DB.Ping(); err != nil {
			health["db"] = "unhealthy"
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":   "Route not found",
		"code":    "NOT_FOUND",
		"path":    c.Path(),
		"method":  c.Method(),
		"message": "The requested endpoint does not exist",
	})
}

// ============================================================================
// Server Lifecycle
// ============================================================================

func startServer(app *fiber.App, cfg *config.Config) {
	go func() {
		logx.Infof("🚀 Server listening on port %s", cfg.Server.Port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", cfg.Server.Port)

		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	gracefulShutdown(app)
}

func gracefulShutdown(app *fiber.App) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
