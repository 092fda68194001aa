package http

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/filedock/filedock/internal/api/middleware"
	"github.com/filedock/filedock/internal/domain/vault"
)

// root resolves the request principal's storage root, creating it
// lazily on first access. Reports false after writing the failure.
func (h *Handlers) root(c *gin.Context) (string, bool) {
	dir := middleware.StorageDir(c)
	root, err := h.roots.Root(dir)
	if err != nil {
		h.log.Error("failed to resolve storage root", zap.String("dir", dir), zap.Error(err))
		fail(c, err)
		return "", false
	}
	return root, true
}

// finish records the operation outcome and writes the failure response
// when err is non-nil. Reports whether the operation succeeded.
func (h *Handlers) finish(c *gin.Context, op string, err error) bool {
	if err != nil {
		h.metrics.RecordFileOp(op, string(vault.CodeOf(err)))
		h.log.Warn("file operation failed",
			zap.String("operation", op),
			zap.String("request_id", middleware.RequestIDFrom(c)),
			zap.Error(err),
		)
		fail(c, err)
		return false
	}
	h.metrics.RecordFileOp(op, "ok")
	return true
}

// ListFiles handles GET /files/list.
func (h *Handlers) ListFiles(c *gin.Context) {
	root, ok := h.root(c)
	if !ok {
		return
	}
	relative := c.Query("path")

	items, err := h.vault.List(root, relative, vault.ListOptions{})
	if !h.finish(c, "list", err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"path":        relative,
		"items":       items,
		"total_items": len(items),
	})
}

// CreateFolder handles POST /files/create-folder.
func (h *Handlers) CreateFolder(c *gin.Context) {
	root, ok := h.root(c)
	if !ok {
		return
	}

	var req struct {
		ParentPath string `json:"parent_path"`
		FolderName string `json:"folder_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, vault.MalformedPayload())
		return
	}
	if strings.TrimSpace(req.FolderName) == "" {
		fail(c, vault.MissingField("folder_name"))
		return
	}

	path, err := h.vault.CreateFolder(root, req.ParentPath, req.FolderName)
	if !h.finish(c, "create_folder", err) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"message":     "folder created successfully",
		"folder_path": path,
	})
}

// Upload handles POST /files/upload (multipart).
func (h *Handlers) Upload(c *gin.Context) {
	root, ok := h.root(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		fail(c, vault.MalformedPayload())
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		fail(c, vault.MissingField("files"))
		return
	}

	relative := c.PostForm("path")
	incoming := make([]vault.Incoming, len(headers))
	for i, fh := range headers {
		fh := fh
		incoming[i] = vault.Incoming{
			Name: fh.Filename,
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		}
	}

	stored, err := h.vault.Upload(root, relative, incoming)
	if !h.finish(c, "upload", err) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": fmt.Sprintf("successfully uploaded %d files", len(stored)),
		"files":   stored,
	})
}

// Download handles GET /files/download.
func (h *Handlers) Download(c *gin.Context) {
	root, ok := h.root(c)
	if !ok {
		return
	}
	relative := c.Query("path")
	if relative == "" {
		fail(c, vault.MissingField("path"))
		return
	}

	dl, err := h.vault.OpenDownload(root, relative)
	if !h.finish(c, "download", err) {
		return
	}
	defer dl.Reader.Close()

	c.DataFromReader(http.StatusOK, dl.Size, dl.ContentType, dl.Reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", dl.Name),
	})
}

// DownloadZip handles GET /files/download-zip.
func (h *Handlers) DownloadZip(c *gin.Context) {
	root, ok := h.root(c)
	if !ok {
		return
	}
	relative := c.Query("path")
	if relative == "" {
		fail(c, vault.MissingField("path"))
		return
	}

	dl, err := h.vault.OpenArchive(root, relative)
	if !h.finish(c, "download_zip", err) {
		return
	}
	defer dl.Reader.Close()

	c.DataFromReader(http.StatusOK, dl.Size, dl.ContentType, dl.Reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", dl.Name),
	})
}

// Delete handles POST /files/delete.
func (h *Handlers) Delete(c *gin.Context) {
	root, ok := h.root(c)
	if !ok {
		return
	}

	var req struct {
		Path string `json:"path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, vault.MalformedPayload())
		return
	}
	if req.Path == "" {
		fail(c, vault.MissingField("path"))
		return
	}

	if !h.finish(c, "delete", h.vault.Delete(root, req.Path)) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "item deleted successfully",
	})
}

// Rename handles POST /files/rename.
func (h *Handlers) Rename(c *gin.Context) {
	root, ok := h.root(c)
	if !ok {
		return
	}

	var req struct {
		OldPath string `json:"old_path"`
		NewName string `json:"new_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, vault.MalformedPayload())
		return
	}
	if req.OldPath == "" {
		fail(c, vault.MissingField("old_path"))
		return
	}
	if strings.TrimSpace(req.NewName) == "" {
		fail(c, vault.MissingField("new_name"))
		return
	}

	path, err := h.vault.Rename(root, req.OldPath, req.NewName)
	if !h.finish(c, "rename", err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "item renamed successfully",
		"new_path": path,
	})
}

// Move handles POST /files/move.
func (h *Handlers) Move(c *gin.Context) {
	h.transfer(c, "move", "item moved successfully", h.vault.Move)
}

// Copy handles POST /files/copy.
func (h *Handlers) Copy(c *gin.Context) {
	h.transfer(c, "copy", "item copied successfully", h.vault.Copy)
}

// transfer implements the shared move/copy request handling. dest_path
// must be present; the empty string means the storage root.
func (h *Handlers) transfer(c *gin.Context, op, okMessage string, do func(root, src, dest string) (string, error)) {
	root, ok := h.root(c)
	if !ok {
		return
	}

	var req struct {
		SourcePath *string `json:"source_path"`
		DestPath   *string `json:"dest_path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, vault.MalformedPayload())
		return
	}
	if req.SourcePath == nil || *req.SourcePath == "" {
		fail(c, vault.MissingField("source_path"))
		return
	}
	if req.DestPath == nil {
		fail(c, vault.MissingField("dest_path"))
		return
	}

	path, err := do(root, *req.SourcePath, *req.DestPath)
	if !h.finish(c, op, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  okMessage,
		"new_path": path,
	})
}
