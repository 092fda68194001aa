package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/filedock/filedock/internal/domain/vault"
	"github.com/filedock/filedock/internal/infrastructure/logging"
	"github.com/filedock/filedock/internal/shared/id"
)

// Options configures an Executor.
type Options struct {
	// Timeout is the hard wall-clock bound per execution.
	Timeout time.Duration
	// Interpreter runs the artifact (e.g. "python3").
	Interpreter string
	// ArtifactSuffix is appended to artifact file names (e.g. ".py").
	ArtifactSuffix string
}

// Executor runs caller-supplied source text as an isolated child
// process inside a named principal's storage root. Each execution
// writes one transient artifact file, spawns the interpreter with the
// root as working directory, captures stdout/stderr, and removes the
// artifact on every exit path.
//
// Executions for different roots proceed concurrently; the executor
// holds no state between calls.
type Executor struct {
	roots   *vault.Manager
	log     *logging.Logger
	metrics Recorder
	opts    Options
}

// Recorder receives execution outcomes. Satisfied by
// monitoring.Metrics; a nil-safe no-op is used when absent.
type Recorder interface {
	RecordExecution(outcome string, duration time.Duration)
}

// New creates an executor over the given root manager.
func New(roots *vault.Manager, logger *logging.Logger, opts Options) *Executor {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Interpreter == "" {
		opts.Interpreter = "python3"
	}
	if opts.ArtifactSuffix == "" {
		opts.ArtifactSuffix = ".py"
	}
	return &Executor{roots: roots, log: logger, opts: opts}
}

// WithRecorder attaches an outcome recorder.
func (e *Executor) WithRecorder(r Recorder) *Executor {
	e.metrics = r
	return e
}

// Execute runs source inside the storage root named by userDir and
// returns a Result on every path; the error return is reserved for the
// terminal user-directory-not-found condition so callers can map it to
// a distinct status.
func (e *Executor) Execute(ctx context.Context, userDir, source string) (Result, error) {
	execID := id.NewExecutionID()
	log := e.log.With(zap.String("execution_id", string(execID)), zap.String("user_dir", userDir))

	root, err := e.roots.ExistingRoot(userDir)
	if err != nil {
		log.Warn("storage root missing for execution")
		return Result{
			Success: false,
			Error:   vault.MessageOf(err),
		}, err
	}

	artifact := filepath.Join(root, "exec-"+uuid.NewString()+e.opts.ArtifactSuffix)
	if err := os.WriteFile(artifact, []byte(source), 0o600); err != nil {
		log.Error("failed to write execution artifact", zap.Error(err))
		return Result{
			Success: false,
			Error:   "failed to prepare script for execution",
		}, nil
	}
	// Cleanup is unconditional: success, failure, timeout and spawn
	// failure all pass through here. A failed removal is logged and
	// otherwise ignored.
	defer func() {
		if err := os.Remove(artifact); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("failed to remove execution artifact", zap.Error(err))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, e.opts.Interpreter, artifact)
	cmd.Dir = root
	cmd.Env = os.Environ()
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Bound the post-kill wait so an orphaned grandchild holding the
	// output pipes cannot stall the request past the deadline.
	cmd.WaitDelay = time.Second

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		log.Warn("script execution timed out", zap.Duration("timeout", e.opts.Timeout))
		e.record(OutcomeTimedOut, elapsed)
		return Result{
			Success:     false,
			Output:      "",
			ErrorOutput: "execution timeout",
			Error:       fmt.Sprintf("script execution timed out (%s)", e.opts.Timeout),
		}, nil

	case runErr == nil:
		log.Info("script completed", zap.Duration("elapsed", elapsed))
		e.record(OutcomeCompleted, elapsed)
		code := 0
		return Result{
			Success:     true,
			Output:      stdout.String(),
			ErrorOutput: stderr.String(),
			ReturnCode:  &code,
		}, nil

	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			code := exitErr.ExitCode()
			log.Info("script exited non-zero",
				zap.Int("return_code", code),
				zap.Duration("elapsed", elapsed),
			)
			e.record(OutcomeCompleted, elapsed)
			return Result{
				Success:     false,
				Output:      stdout.String(),
				ErrorOutput: stderr.String(),
				ReturnCode:  &code,
			}, nil
		}

		// Process never started: interpreter missing, permissions, etc.
		// The OS error names resolved paths, so it goes to the logs
		// only.
		log.Error("failed to spawn script process", zap.Error(runErr))
		e.record(OutcomeSpawnFailed, elapsed)
		return Result{
			Success:     false,
			Output:      "",
			ErrorOutput: "failed to start script process",
			Error:       "failed to run script",
		}, nil
	}
}

func (e *Executor) record(outcome string, d time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordExecution(outcome, d)
	}
}
