// Package router provides HTTP routing, middleware configuration, and server setup for the tracker API
package router

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/Mashyrano/Pos-performance-Tracker/app/dto"
	"github.com/Mashyrano/Pos-performance-Tracker/app/handlers"
	"github.com/Mashyrano/Pos-performance-Tracker/app/middleware"
	"github.com/Mashyrano/Pos-performance-Tracker/config"
	"github.com/Mashyrano/Pos-performance-Tracker/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

var _ Router = (*FiberRouter)(nil)

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app                *fiber.App
	cfg                *config.Config
	clientHandler      handlers.ClientHandlerInterface
	transactionHandler handlers.TransactionHandlerInterface
	reportHandler      handlers.ReportHandlerInterface
	logger             logrus.FieldLogger
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg *config.Config,
	clientHandler handlers.ClientHandlerInterface,
	transactionHandler handlers.TransactionHandlerInterface,
	reportHandler handlers.ReportHandlerInterface,
	logger logrus.FieldLogger,
) *FiberRouter {
	logger = logger.WithField("module", "router")

	app := fiber.New(fiber.Config{
		AppName:      "POS Performance Tracker API",
		ServerHeader: "Pos-Performance-Tracker",
		ErrorHandler: errorHandler(logger),
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:                app,
		cfg:                cfg,
		clientHandler:      clientHandler,
		transactionHandler: transactionHandler,
		reportHandler:      reportHandler,
		logger:             logger,
	}
}

// SetupRoutes configures all application routes. Static segments are
// registered before parameterised ones sharing the same prefix.
func (r *FiberRouter) SetupRoutes() {
	r.logger.Info("Setting up routes...")

	r.setupMiddleware()

	r.app.Get("/health", r.healthCheck)
	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	clients := r.app.Group("/clients")
	clients.Get("/", r.clientHandler.ListClients)
	clients.Post("/", r.clientHandler.CreateClient)
	clients.Get("/groups", r.clientHandler.ListGroups)
	clients.Post("/upload", r.clientHandler.UploadClients)
	clients.Delete("/delete/all", r.clientHandler.DeleteAll)
	clients.Get("/group/:group", r.clientHandler.ListClientsByGroup)
	clients.Get("/get_group/:group", r.clientHandler.ListClientsByGroup)
	clients.Delete("/group/:group", r.clientHandler.DeleteGroup)
	clients.Get("/:id", r.clientHandler.GetClient)
	clients.Put("/:id", r.clientHandler.UpdateClient)
	clients.Delete("/:id", r.clientHandler.DeleteClient)

	transactions := r.app.Group("/transactions")
	transactions.Get("/", r.transactionHandler.ListTransactions)
	transactions.Post("/upload", r.transactionHandler.UploadTransactions)
	transactions.Post("/delete", r.transactionHandler.DeleteByDateRange)
	transactions.Delete("/delete/all", r.transactionHandler.DeleteAll)
	transactions.Get("/group_summary/:group", r.transactionHandler.GroupSummary)
	transactions.Get("/group/:group", r.transactionHandler.ListByGroup)
	transactions.Delete("/group/:group", r.transactionHandler.DeleteByGroup)
	transactions.Get("/:terminal_id", r.transactionHandler.ListByTerminal)

	dashboard := r.app.Group("/dashboard")
	dashboard.Get("/data", r.reportHandler.DashboardData)
	dashboard.Get("/data/:group", r.reportHandler.GroupDashboardData)

	excel := r.app.Group("/excel")
	excel.Get("/getVolume_Value/:group", r.reportHandler.ValueVolumeMatrix)
	excel.Get("/getDailySummary/:group", r.reportHandler.DailySummary)
	excel.Get("/cumulative/:group", r.reportHandler.CumulativeByTerminal)
	excel.Get("/cumulative_by_branch/:group", r.reportHandler.CumulativeByBranch)

	r.app.Use(r.notFoundHandler)

	r.logger.Info("Routes setup completed")
}

func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: generateRequestID,
	}))

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			r.logger.WithFields(logrus.Fields{
				"request_id": requestid.FromContext(c),
				"event":      "panic",
				"path":       c.Path(),
				"method":     c.Method(),
				"ip":         c.IP(),
			}).Errorf("recovered from panic: %v", e)
		},
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginResourcePolicy: "cross-origin",
		XDownloadOptions:          "noopen",
	}))

	origins := r.cfg.Server.AllowedOrigins
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-Requested-With",
			"X-Request-ID",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           utils.CORSMaxAge,
	}))

	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// xlsx payloads are already zip archives
			return strings.Contains(c.Path(), "/excel/") && c.Query("format") != "json"
		},
	}))

	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics(r.cfg.Metrics.Path))
	}

	r.app.Use(middleware.AccessLog(r.logger.WithField("component", "access_log")))
}

func (r *FiberRouter) Start(address string) error {
	r.logger.Infof("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.cfg.Deployment.Version,
			"service":   "pos-performance-tracker",
		},
	})
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

// errorHandler answers errors that escaped the handlers, including body-limit
// and method errors raised by fiber itself
func errorHandler(logger logrus.FieldLogger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "An internal server error occurred"
		errorCode := "INTERNAL_ERROR"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			if code < fiber.StatusInternalServerError {
				message = e.Message
				errorCode = "REQUEST_ERROR"
			}
		}

		requestID := requestid.FromContext(c)
		logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"status":     code,
			"path":       c.Path(),
		}).WithError(err).Error("unhandled request error")

		return c.Status(code).JSON(dto.APIResponse{
			Success: false,
			Message: message,
			Error: dto.ErrorDetail{
				Code: errorCode,
				Details: fiber.Map{
					"timestamp":  utils.UTCNow().Unix(),
					"request_id": requestID,
				},
			},
		})
	}
}

func generateRequestID() string {
	return uuid.NewString()
}
