package vault

import (
	"os"
	"path/filepath"
	"strings"
)

// Manager maps principal directory identifiers onto storage roots under
// a single master directory. One root per principal; the identifier
// never changes once assigned upstream.
type Manager struct {
	master string
}

// NewManager creates a root manager for the given master directory.
func NewManager(masterDir string) *Manager {
	return &Manager{master: filepath.Clean(masterDir)}
}

// Master returns the master storage directory.
func (m *Manager) Master() string { return m.master }

// Root returns the principal's storage root, creating it lazily on
// first access. The identifier itself is confined under the master
// directory so a crafted value cannot name an arbitrary location.
func (m *Manager) Root(dirName string) (string, error) {
	abs, err := m.confineDirName(dirName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", OperationFailed("failed to prepare storage directory", err)
	}
	return abs, nil
}

// ExistingRoot returns the principal's storage root only if it already
// exists. Used by the execution gateway, where an unknown directory is
// a terminal condition rather than a reason to create one.
func (m *Manager) ExistingRoot(dirName string) (string, error) {
	abs, err := m.confineDirName(dirName)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", UserDirNotFound(dirName)
	}
	return abs, nil
}

func (m *Manager) confineDirName(dirName string) (string, error) {
	trimmed := strings.TrimSpace(dirName)
	if trimmed == "" {
		return "", AccessDenied()
	}
	abs, err := Confine(m.master, trimmed)
	if err != nil {
		return "", err
	}
	// The identifier must name a direct child, not the master itself.
	if abs == m.master {
		return "", AccessDenied()
	}
	return abs, nil
}
