package vault

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// drivePrefix matches Windows drive-letter prefixes ("C:", "c:/...") so
// they are rejected even when the server runs on a platform where
// filepath.IsAbs would not flag them.
var drivePrefix = regexp.MustCompile(`^[A-Za-z]:`)

// Confine resolves a caller-supplied relative path against root and
// returns the absolute target, or AccessDenied if the result would land
// outside root. This is the single trust boundary: every filesystem
// touch in this package goes through it first.
//
// The empty relative path resolves to root itself. Absolute paths,
// drive-letter and UNC-style prefixes are rejected outright rather than
// reinterpreted under root.
func Confine(root, relative string) (string, error) {
	if filepath.IsAbs(relative) || strings.HasPrefix(relative, `\\`) || drivePrefix.MatchString(relative) {
		return "", AccessDenied()
	}

	cleanRoot := filepath.Clean(root)
	target := filepath.Join(cleanRoot, relative)
	if !contains(cleanRoot, target) {
		return "", AccessDenied()
	}
	return target, nil
}

// contains reports whether candidate equals root or is a descendant of
// it. The comparison is segment-aware: /data/user10 is not inside
// /data/user1 even though one is a string prefix of the other.
func contains(root, candidate string) bool {
	if candidate == root {
		return true
	}
	return strings.HasPrefix(candidate, root+string(os.PathSeparator))
}

// VerifyReal re-checks containment after following symlinks, immediately
// before mutating I/O. A syntactically confined path can still point
// outside root through a symlink planted inside the tree; such a target
// is treated exactly like a rejected path.
//
// For paths that do not exist yet (upload targets, new folders) the
// deepest existing ancestor is resolved instead, so a symlinked parent
// cannot smuggle the new entry out of root.
func VerifyReal(root, abs string) error {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return OperationFailed("storage root unavailable", err)
	}

	real, err := resolveExisting(abs)
	if err != nil {
		return OperationFailed("failed to resolve path", err)
	}

	if !contains(filepath.Clean(realRoot), real) {
		return AccessDenied()
	}
	return nil
}

// resolveExisting resolves symlinks for abs, walking up to the nearest
// existing ancestor when the leaf does not exist, and rejoining the
// unresolved suffix afterwards.
func resolveExisting(abs string) (string, error) {
	var suffix []string
	current := abs
	for {
		real, err := filepath.EvalSymlinks(current)
		if err == nil {
			if len(suffix) == 0 {
				return real, nil
			}
			parts := append([]string{real}, suffix...)
			return filepath.Join(parts...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", err
		}
		suffix = append([]string{filepath.Base(current)}, suffix...)
		current = parent
	}
}

// relativeTo converts abs back into a root-relative, slash-separated
// path for responses. abs must already be confined under root.
func relativeTo(root, abs string) string {
	rel, err := filepath.Rel(filepath.Clean(root), abs)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}
