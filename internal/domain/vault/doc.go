// Package vault implements confined per-principal file storage.
//
// Every principal owns one storage root under a shared master
// directory, and every operation resolves its caller-supplied relative
// paths through Confine before touching the filesystem. Confine is the
// sole trust boundary: traversal segments, absolute-path overrides and
// drive/UNC prefixes are rejected there, and mutating operations
// additionally re-verify the symlink-resolved target with VerifyReal.
//
// Operations are stateless between calls. Concurrent requests against
// different roots never interfere; same-path races inside one root are
// an accepted limitation (confinement is enforced per call, cross-call
// atomicity is not promised).
//
// Failures are reported as *Error values with stable Codes so callers
// can branch without matching message text. Messages never contain
// resolved absolute paths.
package vault
