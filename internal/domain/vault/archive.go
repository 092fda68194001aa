package vault

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"
)

// OpenArchive compresses the directory at relative into a zip archive
// and returns it as a download named "<dirname>.zip". The archive is
// built in a temporary file outside the storage tree and deleted when
// the returned stream is closed, so it is never held resident and
// never visible inside any root.
//
// Archive-internal paths are relative to the archived directory; empty
// directories are omitted, matching the flat file walk.
func (s *Service) OpenArchive(root, relative string) (*Download, error) {
	abs, err := Confine(root, relative)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, NotFound("folder")
	}
	if !info.IsDir() {
		return nil, NotADirectory()
	}
	if err := VerifyReal(root, abs); err != nil {
		return nil, err
	}

	files, err := collectFiles(abs)
	if err != nil {
		return nil, OperationFailed("failed to enumerate folder", err)
	}

	tmp, err := os.CreateTemp("", "filedock-archive-*.zip")
	if err != nil {
		return nil, OperationFailed("failed to create archive", err)
	}
	if err := writeZip(tmp, abs, files); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}

	size, err := tmp.Seek(0, io.SeekEnd)
	if err == nil {
		_, err = tmp.Seek(0, io.SeekStart)
	}
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, OperationFailed("failed to finalize archive", err)
	}

	s.log.Info("folder archived",
		zap.String("path", relative),
		zap.Int("files", len(files)),
	)
	return &Download{
		Reader:      &tempFileStream{File: tmp},
		Name:        filepath.Base(abs) + ".zip",
		Size:        size,
		ContentType: "application/zip",
	}, nil
}

// collectFiles walks the subtree and returns the relative paths of all
// regular files, sorted for deterministic archive layout.
func collectFiles(dir string) ([]string, error) {
	var (
		mu    sync.Mutex
		files []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		mu.Lock()
		files = append(files, rel)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func writeZip(w io.Writer, dir string, files []string) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	for _, rel := range files {
		src, err := os.Open(filepath.Join(dir, rel))
		if err != nil {
			zw.Close()
			return OperationFailed("failed to read file for archive", err)
		}
		entry, err := zw.Create(filepath.ToSlash(rel))
		if err == nil {
			_, err = io.Copy(entry, src)
		}
		src.Close()
		if err != nil {
			zw.Close()
			return OperationFailed("failed to write archive entry", err)
		}
	}

	if err := zw.Close(); err != nil {
		return OperationFailed("failed to finalize archive", err)
	}
	return nil
}

// tempFileStream removes the backing temporary file once the stream is
// closed.
type tempFileStream struct {
	*os.File
}

func (t *tempFileStream) Close() error {
	err := t.File.Close()
	os.Remove(t.File.Name())
	return err
}
