package vault

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Incoming is one file in an upload batch. Open returns the payload
// stream; the engine streams it to disk without buffering the whole
// file.
type Incoming struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Stored describes one successfully written upload.
type Stored struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Path string `json:"path"`
}

// Download is an open byte stream plus the metadata a caller needs to
// serve it. The caller owns Reader and must close it.
type Download struct {
	Reader      io.ReadCloser
	Name        string
	Size        int64
	ContentType string
}

// Upload writes a batch of files into the directory at relative,
// creating it if absent. The batch is atomic with respect to
// collisions: every target is checked before the first byte is
// written, and any individual collision aborts the whole batch.
func (s *Service) Upload(root, relative string, files []Incoming) ([]Stored, error) {
	dirAbs, err := Confine(root, relative)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(dirAbs); err == nil {
		if !info.IsDir() {
			return nil, NotADirectory()
		}
	} else if errors.Is(err, syscall.ENOTDIR) {
		// A file sits somewhere on the target path.
		return nil, NotADirectory()
	}
	if err := VerifyReal(root, dirAbs); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dirAbs, 0o755); err != nil {
		return nil, OperationFailed("failed to prepare upload directory", err)
	}

	// Pre-flight: confine and collision-check every target before any
	// write, so a conflict never leaves a partial batch behind.
	targets := make([]string, len(files))
	for i, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			return nil, MissingField("filename")
		}
		abs, err := Confine(root, filepath.Join(relative, f.Name))
		if err != nil {
			return nil, err
		}
		if filepath.Dir(abs) != dirAbs {
			return nil, AccessDenied()
		}
		if _, err := os.Lstat(abs); err == nil {
			return nil, Conflict(fmt.Sprintf("file %s already exists", f.Name))
		}
		targets[i] = abs
	}

	written := make([]string, 0, len(files))
	cleanup := func() {
		for _, p := range written {
			os.Remove(p)
		}
	}

	stored := make([]Stored, 0, len(files))
	for i, f := range files {
		size, err := s.writeFile(targets[i], f)
		if err != nil {
			cleanup()
			return nil, err
		}
		written = append(written, targets[i])
		stored = append(stored, Stored{
			Name: f.Name,
			Size: size,
			Path: relativeTo(root, targets[i]),
		})
	}

	s.log.Info("files uploaded",
		zap.Int("count", len(stored)),
		zap.String("dir", relative),
	)
	return stored, nil
}

func (s *Service) writeFile(abs string, f Incoming) (int64, error) {
	src, err := f.Open()
	if err != nil {
		return 0, OperationFailed(fmt.Sprintf("failed to read upload %s", f.Name), err)
	}
	defer src.Close()

	dst, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, OperationFailed(fmt.Sprintf("failed to create %s", f.Name), err)
	}
	n, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		os.Remove(abs)
		return 0, OperationFailed(fmt.Sprintf("failed to write %s", f.Name), err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(abs)
		return 0, OperationFailed(fmt.Sprintf("failed to finalize %s", f.Name), err)
	}
	return n, nil
}

// OpenDownload opens the file at relative for streaming to the caller,
// with a detected content type and the bare file name as the suggested
// download name.
func (s *Service) OpenDownload(root, relative string) (*Download, error) {
	abs, err := Confine(root, relative)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, NotFound("file")
	}
	if info.IsDir() {
		return nil, NotAFile()
	}
	if err := VerifyReal(root, abs); err != nil {
		return nil, err
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(abs); err == nil {
		contentType = mt.String()
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, OperationFailed("failed to open file", err)
	}

	s.log.Info("file downloaded", zap.String("path", relative))
	return &Download{
		Reader:      f,
		Name:        filepath.Base(abs),
		Size:        info.Size(),
		ContentType: contentType,
	}, nil
}
