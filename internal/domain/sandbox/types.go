package sandbox

// Result is the outcome of one script execution, returned once per
// request and never persisted. Success is true iff the child process
// exited with status zero; ReturnCode is absent on internal failure
// (timeout, spawn failure). A non-zero exit is a faithful report of the
// script's own outcome, not a sandbox failure.
type Result struct {
	Success     bool   `json:"success"`
	Output      string `json:"output"`
	ErrorOutput string `json:"error_output"`
	ReturnCode  *int   `json:"return_code,omitempty"`
	Error       string `json:"error,omitempty"`
}

// outcome labels for metrics and logs.
const (
	OutcomeCompleted   = "completed"
	OutcomeTimedOut    = "timeout"
	OutcomeSpawnFailed = "spawn_failed"
)
