package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedock/filedock/internal/infrastructure/logging"
)

func newTestService() *Service {
	return NewService(logging.NewNop())
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestListEmptyDirectory(t *testing.T) {
	root := t.TempDir()
	svc := newTestService()

	entries, err := svc.List(root, "", ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListOrdersDirectoriesFirst(t *testing.T) {
	root := t.TempDir()
	svc := newTestService()

	writeTestFile(t, filepath.Join(root, "Zeta.txt"), "z")
	writeTestFile(t, filepath.Join(root, "alpha.txt"), "a")
	require.NoError(t, os.Mkdir(filepath.Join(root, "beta"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "Alpha"), 0o755))

	entries, err := svc.List(root, "", ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 4)

	names := []string{entries[0].Name, entries[1].Name, entries[2].Name, entries[3].Name}
	assert.Equal(t, []string{"Alpha", "beta", "alpha.txt", "Zeta.txt"}, names)

	assert.True(t, entries[0].IsDir)
	assert.Nil(t, entries[0].Size)
	assert.True(t, entries[2].IsFile)
	require.NotNil(t, entries[2].Size)
	assert.Equal(t, int64(1), *entries[2].Size)
}

func TestListSubdirectoryPaths(t *testing.T) {
	root := t.TempDir()
	svc := newTestService()
	writeTestFile(t, filepath.Join(root, "docs", "readme.md"), "hi")

	entries, err := svc.List(root, "docs", ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "readme.md", entries[0].Name)
	assert.Equal(t, "docs/readme.md", entries[0].Path)
}

func TestListMissingDirectory(t *testing.T) {
	root := t.TempDir()
	svc := newTestService()

	_, err := svc.List(root, "nope", ListOptions{})
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestListFileIsNotADirectory(t *testing.T) {
	root := t.TempDir()
	svc := newTestService()
	writeTestFile(t, filepath.Join(root, "file.txt"), "x")

	_, err := svc.List(root, "file.txt", ListOptions{})
	require.Error(t, err)
	assert.Equal(t, CodeNotADirectory, CodeOf(err))
}

func TestListRecursiveDepthAndOrder(t *testing.T) {
	root := t.TempDir()
	svc := newTestService()
	writeTestFile(t, filepath.Join(root, "a", "b", "deep.txt"), "d")
	writeTestFile(t, filepath.Join(root, "top.txt"), "t")

	entries, err := svc.List(root, "", ListOptions{Recursive: true})
	require.NoError(t, err)
	require.Len(t, entries, 4)

	byPath := map[string]Entry{}
	for _, e := range entries {
		byPath[e.Path] = e
	}
	assert.Equal(t, 1, byPath["a"].Depth)
	assert.Equal(t, 2, byPath["a/b"].Depth)
	assert.Equal(t, 3, byPath["a/b/deep.txt"].Depth)
	assert.Equal(t, 1, byPath["top.txt"].Depth)

	// Sorted by relative path.
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Path, entries[i].Path)
	}
}

func TestListRecursivePattern(t *testing.T) {
	root := t.TempDir()
	svc := newTestService()
	writeTestFile(t, filepath.Join(root, "notes.txt"), "n")
	writeTestFile(t, filepath.Join(root, "sub", "more.txt"), "m")
	writeTestFile(t, filepath.Join(root, "sub", "image.png"), "p")

	entries, err := svc.List(root, "", ListOptions{Recursive: true, Pattern: "**/*.txt"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "notes.txt", entries[0].Path)
	assert.Equal(t, "sub/more.txt", entries[1].Path)
}

func TestListRecursiveScopedToSubdirectory(t *testing.T) {
	root := t.TempDir()
	svc := newTestService()
	writeTestFile(t, filepath.Join(root, "outer.txt"), "o")
	writeTestFile(t, filepath.Join(root, "inner", "child.txt"), "c")

	entries, err := svc.List(root, "inner", ListOptions{Recursive: true})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "inner/child.txt", entries[0].Path)
	assert.Equal(t, 1, entries[0].Depth)
}
