package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderStorageDir carries the principal's resolved directory
// identifier, set by the upstream authentication layer. The core never
// sees credentials, only this identifier.
const HeaderStorageDir = "X-Storage-Dir"

const storageDirKey = "storage_dir"

// Principal requires a resolved storage directory on every request in
// the file-operation family.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		dir := strings.TrimSpace(c.GetHeader(HeaderStorageDir))
		if dir == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "storage directory not resolved for request",
			})
			return
		}
		c.Set(storageDirKey, dir)
		c.Next()
	}
}

// StorageDir returns the principal's directory identifier set by
// Principal. Empty only if the middleware did not run.
func StorageDir(c *gin.Context) string {
	return c.GetString(storageDirKey)
}
