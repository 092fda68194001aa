package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedock/filedock/internal/domain/vault"
	"github.com/filedock/filedock/internal/infrastructure/logging"
)

// Tests use sh as the interpreter so they run anywhere a POSIX shell
// does; the executor itself is interpreter-agnostic.
func newTestExecutor(t *testing.T, timeout time.Duration) (*Executor, string) {
	t.Helper()
	master := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(master, "alice"), 0o755))

	exec := New(vault.NewManager(master), logging.NewNop(), Options{
		Timeout:        timeout,
		Interpreter:    "sh",
		ArtifactSuffix: ".sh",
	})
	return exec, filepath.Join(master, "alice")
}

func artifactCount(t *testing.T, root string) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(root, "exec-*"))
	require.NoError(t, err)
	return len(matches)
}

func TestExecuteSuccess(t *testing.T) {
	exec, root := newTestExecutor(t, 5*time.Second)

	res, err := exec.Execute(context.Background(), "alice", "echo hello")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "hello\n", res.Output)
	assert.Empty(t, res.ErrorOutput)
	require.NotNil(t, res.ReturnCode)
	assert.Equal(t, 0, *res.ReturnCode)
	assert.Empty(t, res.Error)
	assert.Zero(t, artifactCount(t, root))
}

func TestExecuteRunsInStorageRoot(t *testing.T) {
	exec, root := newTestExecutor(t, 5*time.Second)

	res, err := exec.Execute(context.Background(), "alice", "pwd; echo made > created.txt")
	require.NoError(t, err)
	require.True(t, res.Success)

	resolved, rerr := filepath.EvalSymlinks(root)
	require.NoError(t, rerr)
	assert.Equal(t, resolved, strings.TrimSpace(res.Output))

	data, err := os.ReadFile(filepath.Join(root, "created.txt"))
	require.NoError(t, err)
	assert.Equal(t, "made\n", string(data))
}

func TestExecuteNonZeroExit(t *testing.T) {
	exec, root := newTestExecutor(t, 5*time.Second)

	res, err := exec.Execute(context.Background(), "alice", "echo out; echo err 1>&2; exit 3")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, "out\n", res.Output)
	assert.Equal(t, "err\n", res.ErrorOutput)
	require.NotNil(t, res.ReturnCode)
	assert.Equal(t, 3, *res.ReturnCode)
	assert.Zero(t, artifactCount(t, root))
}

func TestExecuteTimeout(t *testing.T) {
	exec, root := newTestExecutor(t, 300*time.Millisecond)

	res, err := exec.Execute(context.Background(), "alice", "echo early; sleep 10")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Empty(t, res.Output)
	assert.Equal(t, "execution timeout", res.ErrorOutput)
	assert.Contains(t, res.Error, "timed out")
	assert.Nil(t, res.ReturnCode)
	assert.Zero(t, artifactCount(t, root))
}

func TestExecuteSpawnFailure(t *testing.T) {
	master := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(master, "alice"), 0o755))
	exec := New(vault.NewManager(master), logging.NewNop(), Options{
		Timeout:        time.Second,
		Interpreter:    filepath.Join(master, "no-such-interpreter"),
		ArtifactSuffix: ".sh",
	})

	res, err := exec.Execute(context.Background(), "alice", "echo unreachable")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, "failed to run script", res.Error)
	assert.Nil(t, res.ReturnCode)
	// The OS spawn error names resolved paths; callers get a fixed
	// message instead.
	assert.Equal(t, "failed to start script process", res.ErrorOutput)
	assert.NotContains(t, res.ErrorOutput, master)
	assert.Zero(t, artifactCount(t, filepath.Join(master, "alice")))
}

func TestExecuteUnknownUserDir(t *testing.T) {
	exec, _ := newTestExecutor(t, time.Second)

	res, err := exec.Execute(context.Background(), "ghost", "echo hi")
	require.Error(t, err)
	assert.Equal(t, vault.CodeUserDirNotFound, vault.CodeOf(err))
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "does not exist")
}

func TestExecuteRecordsOutcomes(t *testing.T) {
	exec, _ := newTestExecutor(t, time.Second)
	rec := &captureRecorder{}
	exec.WithRecorder(rec)

	_, err := exec.Execute(context.Background(), "alice", "true")
	require.NoError(t, err)
	require.Len(t, rec.outcomes, 1)
	assert.Equal(t, OutcomeCompleted, rec.outcomes[0])
}

type captureRecorder struct {
	outcomes []string
}

func (c *captureRecorder) RecordExecution(outcome string, _ time.Duration) {
	c.outcomes = append(c.outcomes, outcome)
}
