package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/filedock/filedock/internal/domain/vault"
)

// statusOf maps a failure code onto an HTTP status. Confinement
// violations are forbidden, caller input errors are bad requests, and
// anything internal is a 500.
func statusOf(code vault.Code) int {
	switch code {
	case vault.CodeAccessDenied:
		return http.StatusForbidden
	case vault.CodeNotFound, vault.CodeUserDirNotFound:
		return http.StatusNotFound
	case vault.CodeConflict:
		return http.StatusConflict
	case vault.CodeNotADirectory, vault.CodeNotAFile,
		vault.CodeMissingField, vault.CodeTypeMismatch, vault.CodeMalformedPayload:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the uniform failure envelope: success indicator, stable
// code, and a caller-safe message (never a resolved absolute path).
func fail(c *gin.Context, err error) {
	code := vault.CodeOf(err)
	c.JSON(statusOf(code), gin.H{
		"success": false,
		"code":    string(code),
		"error":   vault.MessageOf(err),
	})
}
