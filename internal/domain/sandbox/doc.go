// Package sandbox executes caller-supplied source text as isolated,
// time-bounded child processes inside a principal's storage root.
//
// Each execution moves through a small state machine:
//
//	Created -> Running -> {Completed | TimedOut | SpawnFailed} -> CleanedUp
//
// The transient script artifact is removed on every exit path. Process
// isolation is at the OS-process level with a wall-clock timeout;
// stronger isolation (seccomp, containers) is a deployment concern.
package sandbox
