package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/filedock/filedock/internal/api/http"
	"github.com/filedock/filedock/internal/api/middleware"
	"github.com/filedock/filedock/internal/domain/sandbox"
	"github.com/filedock/filedock/internal/domain/vault"
	"github.com/filedock/filedock/internal/infrastructure/config"
	"github.com/filedock/filedock/internal/infrastructure/logging"
	"github.com/filedock/filedock/internal/infrastructure/monitoring"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router  *gin.Engine
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// New creates a server instance from configuration.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("initializing filedock server",
		zap.String("port", cfg.Server.Port),
		zap.String("master_dir", cfg.Storage.MasterDir),
		zap.Duration("exec_timeout", cfg.Execution.Timeout),
	)

	metrics := monitoring.NewMetrics()

	roots := vault.NewManager(cfg.Storage.MasterDir)
	files := vault.NewService(logger.Named("vault"))
	executor := sandbox.New(roots, logger.Named("sandbox"), sandbox.Options{
		Timeout:        cfg.Execution.Timeout,
		Interpreter:    cfg.Execution.Interpreter,
		ArtifactSuffix: cfg.Execution.ArtifactSuffix,
	}).WithRecorder(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := api.NewHandlers(files, roots, executor, logger.Named("api"), metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// File-operation family: authenticated principal with an upstream-
	// resolved storage directory.
	fileRoutes := router.Group("/files", middleware.Principal())
	{
		fileRoutes.GET("/list", handlers.ListFiles)
		fileRoutes.POST("/create-folder", handlers.CreateFolder)
		fileRoutes.POST("/upload", handlers.Upload)
		fileRoutes.GET("/download", handlers.Download)
		fileRoutes.GET("/download-zip", handlers.DownloadZip)
		fileRoutes.POST("/delete", handlers.Delete)
		fileRoutes.POST("/rename", handlers.Rename)
		fileRoutes.POST("/move", handlers.Move)
		fileRoutes.POST("/copy", handlers.Copy)
	}

	// Execution-gateway family: trusted system callers, gated by the
	// IP allow-list on this route prefix only.
	gateway := router.Group("/mcp", middleware.IPAllowlist(middleware.AllowlistConfig{
		IPs:  cfg.Gateway.AllowedIPs,
		File: cfg.Gateway.AllowlistFile,
	}, logger.Named("gateway")))
	{
		gateway.POST("/run_python_code", handlers.RunCode)
		gateway.POST("/list_dir", handlers.ListDir)
		gateway.POST("/list_dir_recursively", handlers.ListDirRecursive)
	}

	logger.Info("server initialized successfully")

	return &Server{
		router:  router,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Close flushes buffered log entries.
func (s *Server) Close() error {
	s.logger.Info("shutting down server")
	return s.logger.Sync()
}
