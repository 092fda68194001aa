package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/filedock/filedock/internal/infrastructure/logging"
)

// AllowlistConfig defines the execution-gateway IP allow-list. IPs come
// from configuration; File optionally names a YAML file whose entries
// are merged in, so operators can manage the list without redeploying.
type AllowlistConfig struct {
	IPs  []string
	File string
}

// allowlistFile is the YAML shape of an allow-list file.
type allowlistFile struct {
	AllowedIPs []string `yaml:"allowed_ips"`
}

// IPAllowlist creates a middleware that rejects requests from client
// IPs not on the allow-list. Applied only to the execution-gateway
// route group; the client IP honors X-Forwarded-For via gin's ClientIP.
func IPAllowlist(cfg AllowlistConfig, logger *logging.Logger) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(cfg.IPs))
	for _, ip := range cfg.IPs {
		if ip = strings.TrimSpace(ip); ip != "" {
			allowed[ip] = struct{}{}
		}
	}

	if cfg.File != "" {
		extra, err := loadAllowlistFile(cfg.File)
		if err != nil {
			logger.Warn("failed to load allow-list file",
				zap.String("file", cfg.File),
				zap.Error(err),
			)
		}
		for _, ip := range extra {
			allowed[ip] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if _, ok := allowed[clientIP]; !ok {
			logger.Warn("gateway access denied",
				zap.String("client_ip", clientIP),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "your IP address is not authorized to access this endpoint",
			})
			return
		}
		c.Next()
	}
}

func loadAllowlistFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f allowlistFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(f.AllowedIPs))
	for _, ip := range f.AllowedIPs {
		if ip = strings.TrimSpace(ip); ip != "" {
			out = append(out, ip)
		}
	}
	return out, nil
}
