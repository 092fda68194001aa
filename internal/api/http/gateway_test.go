package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedock/filedock/internal/api/middleware"
	"github.com/filedock/filedock/internal/domain/sandbox"
	"github.com/filedock/filedock/internal/domain/vault"
	"github.com/filedock/filedock/internal/infrastructure/logging"
	"github.com/filedock/filedock/internal/infrastructure/monitoring"
)

// newTestRouter wires a real handler stack over a throwaway master
// directory, with sh standing in for the Python interpreter.
func newTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	master := t.TempDir()
	log := logging.NewNop()
	roots := vault.NewManager(master)
	svc := vault.NewService(log)
	executor := sandbox.New(roots, log, sandbox.Options{
		Timeout:        2 * time.Second,
		Interpreter:    "sh",
		ArtifactSuffix: ".sh",
	})
	h := NewHandlers(svc, roots, executor, log, monitoring.NewMetrics())

	r := gin.New()
	files := r.Group("/files")
	files.Use(middleware.Principal())
	{
		files.GET("/list", h.ListFiles)
		files.POST("/create-folder", h.CreateFolder)
		files.POST("/upload", h.Upload)
		files.GET("/download", h.Download)
		files.GET("/download-zip", h.DownloadZip)
		files.POST("/delete", h.Delete)
		files.POST("/rename", h.Rename)
		files.POST("/move", h.Move)
		files.POST("/copy", h.Copy)
	}
	mcp := r.Group("/mcp")
	{
		mcp.POST("/run_python_code", h.RunCode)
		mcp.POST("/list_dir", h.ListDir)
		mcp.POST("/list_dir_recursively", h.ListDirRecursive)
	}
	return r, master
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRunCodeValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	t.Run("malformed payload", func(t *testing.T) {
		w := postJSON(t, r, "/mcp/run_python_code", "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "malformed_payload", body["code"])
		assert.Equal(t, "invalid JSON payload", body["error"])
	})

	t.Run("missing user_dir", func(t *testing.T) {
		w := postJSON(t, r, "/mcp/run_python_code", `{"python_code": "echo hi"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "missing_field", body["code"])
		assert.Equal(t, "missing required field: user_dir", body["error"])
	})

	t.Run("user_dir wrong type", func(t *testing.T) {
		w := postJSON(t, r, "/mcp/run_python_code", `{"user_dir": 42, "python_code": "echo hi"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "type_mismatch", body["code"])
		assert.Equal(t, "user_dir must be a string", body["error"])
	})

	t.Run("missing python_code", func(t *testing.T) {
		w := postJSON(t, r, "/mcp/run_python_code", `{"user_dir": "alice"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "missing_field", body["code"])
		assert.Equal(t, "missing required field: python_code", body["error"])
	})

	t.Run("python_code wrong type is not masked by alias", func(t *testing.T) {
		w := postJSON(t, r, "/mcp/run_python_code", `{"user_dir": "alice", "python_code": 1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "type_mismatch", body["code"])
	})
}

func TestRunCodeSourceAlias(t *testing.T) {
	r, master := newTestRouter(t)
	require.NoError(t, os.Mkdir(filepath.Join(master, "alice"), 0o755))

	w := postJSON(t, r, "/mcp/run_python_code", `{"user_dir": "alice", "source": "echo aliased"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "aliased\n", body["output"])
}

func TestRunCodeUnknownUserDir(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(t, r, "/mcp/run_python_code", `{"user_dir": "ghost", "python_code": "echo hi"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "does not exist")
}

func TestRunCodeReportsExitCode(t *testing.T) {
	r, master := newTestRouter(t)
	require.NoError(t, os.Mkdir(filepath.Join(master, "alice"), 0o755))

	w := postJSON(t, r, "/mcp/run_python_code", `{"user_dir": "alice", "python_code": "echo oops 1>&2; exit 7"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "oops\n", body["error_output"])
	assert.Equal(t, float64(7), body["return_code"])
}

func TestGatewayListDir(t *testing.T) {
	r, master := newTestRouter(t)
	require.NoError(t, os.MkdirAll(filepath.Join(master, "alice", "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(master, "alice", "hello.txt"), []byte("hi"), 0o644))

	w := postJSON(t, r, "/mcp/list_dir", `{"user_dir": "alice"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "alice", body["path"])

	items := body["items"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "docs", first["name"])
	assert.Equal(t, true, first["is_dir"])
}

func TestGatewayListDirSubdirectory(t *testing.T) {
	r, master := newTestRouter(t)
	require.NoError(t, os.MkdirAll(filepath.Join(master, "alice", "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(master, "alice", "docs", "a.txt"), []byte("a"), 0o644))

	w := postJSON(t, r, "/mcp/list_dir", `{"user_dir": "alice", "dir_name": "docs"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "alice/docs", body["path"])
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
}

func TestGatewayListDirValidation(t *testing.T) {
	r, master := newTestRouter(t)
	require.NoError(t, os.Mkdir(filepath.Join(master, "alice"), 0o755))

	w := postJSON(t, r, "/mcp/list_dir", `{"dir_name": "docs"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_field", decodeBody(t, w)["code"])

	w = postJSON(t, r, "/mcp/list_dir", `{"user_dir": "alice", "dir_name": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "type_mismatch", decodeBody(t, w)["code"])

	w = postJSON(t, r, "/mcp/list_dir", `{"user_dir": "ghost"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user_dir_not_found", decodeBody(t, w)["code"])

	w = postJSON(t, r, "/mcp/list_dir", `{"user_dir": "alice", "dir_name": "../bob"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "access_denied", decodeBody(t, w)["code"])
}

func TestGatewayListDirRecursively(t *testing.T) {
	r, master := newTestRouter(t)
	require.NoError(t, os.MkdirAll(filepath.Join(master, "alice", "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(master, "alice", "a", "b", "deep.txt"), []byte("d"), 0o644))

	w := postJSON(t, r, "/mcp/list_dir_recursively", `{"user_dir": "alice"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)

	items := body["items"].([]interface{})
	require.Len(t, items, 3)
	last := items[2].(map[string]interface{})
	assert.Equal(t, "a/b/deep.txt", last["path"])
	assert.Equal(t, float64(3), last["depth"])
}

func TestGatewayListDirRecursivelyPattern(t *testing.T) {
	r, master := newTestRouter(t)
	require.NoError(t, os.MkdirAll(filepath.Join(master, "alice", "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(master, "alice", "keep.txt"), []byte("k"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(master, "alice", "sub", "skip.png"), []byte("s"), 0o644))

	w := postJSON(t, r, "/mcp/list_dir_recursively", `{"user_dir": "alice", "pattern": "**/*.txt"}`)
	require.Equal(t, http.StatusOK, w.Code)
	items := decodeBody(t, w)["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "keep.txt", items[0].(map[string]interface{})["path"])
}
