// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/amirphl/Maskan/app/dto"
	"github.com/amirphl/Maskan/app/handlers"
	"github.com/amirphl/Maskan/app/middleware"
	"github.com/amirphl/Maskan/config"
	_ "github.com/amirphl/Maskan/docs"
	"github.com/amirphl/Maskan/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	Shutdown(ctx context.Context) error
	GetApp() *fiber.App
}

// Handlers groups the endpoint handlers the router mounts
type Handlers struct {
	Auth         handlers.AuthHandlerInterface
	TrackingLink handlers.TrackingLinkHandlerInterface
	Inquiry      handlers.InquiryHandlerInterface
	Commission   handlers.CommissionHandlerInterface
	Settings     handlers.SettingsHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app            *fiber.App
	cfg            *config.ProductionConfig
	handlers       Handlers
	authMiddleware *middleware.AuthMiddleware
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg *config.ProductionConfig, h Handlers, authMiddleware *middleware.AuthMiddleware) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Maskan API",
		ServerHeader: "Maskan",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		TrustProxy:   len(cfg.Server.TrustedProxies) > 0,
		TrustProxyConfig: fiber.TrustProxyConfig{
			Proxies: cfg.Server.TrustedProxies,
		},
		ProxyHeader: cfg.Server.ProxyHeader,
	})

	return &FiberRouter{
		app:            app,
		cfg:            cfg,
		handlers:       h,
		authMiddleware: authMiddleware,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	// Ops routes sit outside /api/v1 and its rate limits
	r.app.Get("/health", r.handlers.Auth.Health)
	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}
	r.app.Get("/swagger.json", r.serveSwaggerJSON)

	api := r.app.Group("/api/v1")
	api.Use(r.rateLimiter(r.cfg.Security.GlobalRateLimit))

	requireAuth := r.authMiddleware.Authenticate()
	public := r.rateLimiter(r.cfg.Security.PublicRateLimit)

	auth := api.Group("/auth")
	auth.Use(r.rateLimiter(r.cfg.Security.AuthRateLimit))
	auth.Post("/refresh", r.handlers.Auth.Refresh)

	links := api.Group("/tracking-links")
	links.Post("/:ref_code/click", public, r.handlers.TrackingLink.Click)
	links.Post("", requireAuth, r.handlers.TrackingLink.Create)
	links.Get("", requireAuth, r.handlers.TrackingLink.List)
	links.Delete("/:id", requireAuth, r.handlers.TrackingLink.Delete)

	inquiries := api.Group("/inquiries")
	inquiries.Post("/public", public, r.handlers.Inquiry.CreatePublic)
	inquiries.Get("", requireAuth, r.handlers.Inquiry.List)
	inquiries.Get("/:id", requireAuth, r.handlers.Inquiry.Get)
	inquiries.Patch("/:id/stage", requireAuth, r.handlers.Inquiry.Transition)

	commissions := api.Group("/commissions", requireAuth)
	commissions.Get("", r.handlers.Commission.List)
	commissions.Patch("/:id/status", r.handlers.Commission.UpdateStatus)

	// Admin checks happen in the flows against the stored user, not the token role
	admin := api.Group("/admin", requireAuth)
	admin.Get("/commissions/export", r.handlers.Commission.Export)
	admin.Get("/settings", r.handlers.Settings.Get)
	admin.Put("/settings", r.handlers.Settings.Update)

	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: uuid.NewString,
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                r.cfg.Security.HSTSMaxAge,
		ContentSecurityPolicy:     r.cfg.Security.CSPPolicy,
		ReferrerPolicy:            r.cfg.Security.ReferrerPolicy,
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     r.cfg.Security.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
			Next: func(c fiber.Ctx) bool {
				// xlsx is already zipped
				return strings.HasSuffix(c.Path(), "/export")
			},
		}))
	}

	if r.cfg.Logging.EnableAccessLog {
		r.app.Use(logger.New(logger.Config{
			Format:        `{"time":"${time}","pid":"${pid}","request_id":"${respHeader:X-Request-ID}","level":"info","method":"${method}","path":"${path}","ip":"${client_ip}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
			TimeFormat:    time.RFC3339,
			TimeZone:      "UTC",
			Stream:        log.Writer(),
			DisableColors: true,
			CustomTags: map[string]logger.LogFunc{
				"client_ip": func(output logger.Buffer, c fiber.Ctx, _ *logger.Data, _ string) (int, error) {
					return output.WriteString(loggableIP(c))
				},
			},
			Next: func(c fiber.Ctx) bool {
				return c.Path() == "/health" || c.Path() == r.cfg.Metrics.Path
			},
		}))
	}

	r.app.Use(r.securityMiddleware)
	r.app.Use(middleware.Metrics())

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				requestid.FromContext(c),
				e,
				c.Path(),
				c.Method(),
				loggableIP(c),
			)
		},
	}))
}

func (r *FiberRouter) rateLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
	})
}

// isClickPath matches POST /api/v1/tracking-links/:ref_code/click
func isClickPath(path string) bool {
	return strings.HasPrefix(path, "/api/v1/tracking-links/") && strings.HasSuffix(path, "/click")
}

// loggableIP is the caller address as written to logs. Click requests never
// record the visitor address.
func loggableIP(c fiber.Ctx) string {
	if isClickPath(c.Path()) {
		return "-"
	}
	return c.IP()
}

// securityMiddleware rejects blacklisted client addresses
func (r *FiberRouter) securityMiddleware(c fiber.Ctx) error {
	if slices.Contains(r.cfg.Security.IPBlacklist, c.IP()) {
		return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
			Success: false,
			Message: "Access denied from this IP address",
			Error: dto.ErrorDetail{
				Code: "ACCESS_DENIED",
			},
		})
	}
	return c.Next()
}

func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		return handlers.ErrorResponse(c, fiber.StatusInternalServerError, "API documentation unavailable", "DOCS_UNAVAILABLE", nil)
	}
	c.Set("Content-Type", "application/json")
	return c.SendString(doc)
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

// errorHandler renders errors that escaped the handlers
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"
	errCode := "INTERNAL_ERROR"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			message = fe.Message
			errCode = "REQUEST_ERROR"
		}
	}

	log.Printf("Error %d: %v", code, err)

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: errCode,
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

// Start listens on address until Shutdown is called
func (r *FiberRouter) Start(address string) error {
	return r.app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown drains in-flight requests
func (r *FiberRouter) Shutdown(ctx context.Context) error {
	return r.app.ShutdownWithContext(ctx)
}

// GetApp returns the underlying fiber app
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}
