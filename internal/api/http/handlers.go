package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/filedock/filedock/internal/domain/sandbox"
	"github.com/filedock/filedock/internal/domain/vault"
	"github.com/filedock/filedock/internal/infrastructure/logging"
	"github.com/filedock/filedock/internal/infrastructure/monitoring"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	vault    *vault.Service
	roots    *vault.Manager
	executor *sandbox.Executor
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// NewHandlers creates the handler set.
func NewHandlers(
	svc *vault.Service,
	roots *vault.Manager,
	executor *sandbox.Executor,
	logger *logging.Logger,
	metrics *monitoring.Metrics,
) *Handlers {
	return &Handlers{
		vault:    svc,
		roots:    roots,
		executor: executor,
		log:      logger,
		metrics:  metrics,
	}
}

// Root returns the service banner.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "filedock",
		"status":  "running",
	})
}

// Health returns service health.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
