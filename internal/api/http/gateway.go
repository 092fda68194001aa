package http

import (
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/filedock/filedock/internal/api/middleware"
	"github.com/filedock/filedock/internal/domain/vault"
)

// gatewayPayload is a decoded execution-gateway request body. Field
// presence and types are checked once here, before any filesystem or
// process activity, so downstream components receive validated values.
type gatewayPayload map[string]interface{}

func decodeGateway(c *gin.Context) (gatewayPayload, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, vault.MalformedPayload()
	}
	var payload gatewayPayload
	if err := sonic.Unmarshal(body, &payload); err != nil || payload == nil {
		return nil, vault.MalformedPayload()
	}
	return payload, nil
}

// requireString extracts a required string field: absent fields and
// wrong types are distinct caller errors naming the field.
func (p gatewayPayload) requireString(field string) (string, error) {
	raw, ok := p[field]
	if !ok {
		return "", vault.MissingField(field)
	}
	s, ok := raw.(string)
	if !ok {
		return "", vault.TypeMismatch(field, "string")
	}
	return s, nil
}

// optionalString extracts an optional string field, defaulting to "".
func (p gatewayPayload) optionalString(field string) (string, error) {
	raw, ok := p[field]
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", vault.TypeMismatch(field, "string")
	}
	return s, nil
}

// RunCode handles POST /mcp/run_python_code: executes caller-supplied
// source inside the named user directory and reports the captured
// outcome. The "source" field is accepted as an alias of "python_code".
func (h *Handlers) RunCode(c *gin.Context) {
	payload, err := decodeGateway(c)
	if err != nil {
		fail(c, err)
		return
	}
	userDir, err := payload.requireString("user_dir")
	if err != nil {
		fail(c, err)
		return
	}
	source, err := payload.requireString("python_code")
	if err != nil {
		if vault.CodeOf(err) == vault.CodeTypeMismatch {
			fail(c, err)
			return
		}
		if source, err = payload.requireString("source"); err != nil {
			fail(c, vault.MissingField("python_code"))
			return
		}
	}

	h.log.Info("gateway execution requested",
		zap.String("user_dir", userDir),
		zap.String("request_id", middleware.RequestIDFrom(c)),
	)
	result, err := h.executor.Execute(c.Request.Context(), userDir, source)
	if err != nil {
		// Terminal: the named storage root does not exist.
		c.JSON(statusOf(vault.CodeOf(err)), result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListDir handles POST /mcp/list_dir.
func (h *Handlers) ListDir(c *gin.Context) {
	h.gatewayList(c, false)
}

// ListDirRecursive handles POST /mcp/list_dir_recursively.
func (h *Handlers) ListDirRecursive(c *gin.Context) {
	h.gatewayList(c, true)
}

func (h *Handlers) gatewayList(c *gin.Context, recursive bool) {
	payload, err := decodeGateway(c)
	if err != nil {
		fail(c, err)
		return
	}
	userDir, err := payload.requireString("user_dir")
	if err != nil {
		fail(c, err)
		return
	}
	dirName, err := payload.optionalString("dir_name")
	if err != nil {
		fail(c, err)
		return
	}
	pattern, err := payload.optionalString("pattern")
	if err != nil {
		fail(c, err)
		return
	}

	root, err := h.roots.ExistingRoot(userDir)
	if err != nil {
		fail(c, err)
		return
	}

	items, err := h.vault.List(root, dirName, vault.ListOptions{
		Recursive: recursive,
		Pattern:   pattern,
	})
	if err != nil {
		h.log.Warn("gateway listing failed",
			zap.String("user_dir", userDir),
			zap.String("dir_name", dirName),
			zap.Error(err),
		)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"items":   items,
		"path":    gatewayPath(userDir, dirName),
	})
}

// gatewayPath echoes the listed location relative to the master
// directory, matching the wire shape callers expect.
func gatewayPath(userDir, dirName string) string {
	if dirName == "" {
		return userDir
	}
	return userDir + "/" + dirName
}
