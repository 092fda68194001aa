package vault

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/filedock/filedock/internal/infrastructure/logging"
)

// Service implements the file and folder operation engine. Every
// operation confines its paths before touching the filesystem and
// re-verifies the real (symlink-resolved) target before mutating.
// Stateless between calls: concurrent requests for different roots
// never interfere, and same-path races are the caller's concern.
type Service struct {
	log *logging.Logger
}

// NewService creates the operation engine with an injected logger.
func NewService(logger *logging.Logger) *Service {
	return &Service{log: logger}
}

// CreateFolder creates exactly one new directory named folderName under
// parentRel. The parent must already exist and be a directory. Returns
// the new root-relative path.
func (s *Service) CreateFolder(root, parentRel, folderName string) (string, error) {
	parentAbs, err := Confine(root, parentRel)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(parentAbs)
	if err != nil {
		return "", NotFound("parent directory")
	}
	if !info.IsDir() {
		return "", NotADirectory()
	}

	// The name is caller data too: re-confine the combined path so a
	// crafted name with traversal segments cannot escape.
	folderAbs, err := Confine(root, filepath.Join(parentRel, folderName))
	if err != nil {
		return "", err
	}
	if filepath.Dir(folderAbs) != parentAbs {
		return "", AccessDenied()
	}
	if _, err := os.Stat(folderAbs); err == nil {
		return "", Conflict("folder already exists")
	}
	if err := VerifyReal(root, parentAbs); err != nil {
		return "", err
	}

	if err := os.Mkdir(folderAbs, 0o755); err != nil {
		return "", OperationFailed("failed to create folder", err)
	}
	s.log.Info("folder created", zap.String("path", relativeTo(root, folderAbs)))
	return relativeTo(root, folderAbs), nil
}

// Delete removes the item at relative. Directories are removed
// recursively, files individually. Irreversible.
func (s *Service) Delete(root, relative string) error {
	abs, err := Confine(root, relative)
	if err != nil {
		return err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return NotFound("item")
	}
	if err := VerifyReal(root, filepath.Dir(abs)); err != nil {
		return err
	}

	if info.IsDir() {
		if err := os.RemoveAll(abs); err != nil {
			return OperationFailed("failed to delete directory", err)
		}
		s.log.Info("directory deleted", zap.String("path", relative))
		return nil
	}
	if err := os.Remove(abs); err != nil {
		return OperationFailed("failed to delete file", err)
	}
	s.log.Info("file deleted", zap.String("path", relative))
	return nil
}

// Rename gives the item at oldRel a new bare name inside its current
// parent. Returns the new root-relative path.
func (s *Service) Rename(root, oldRel, newName string) (string, error) {
	if newName != filepath.Base(filepath.Clean(newName)) || newName == "." || newName == ".." {
		return "", AccessDenied()
	}

	oldAbs, err := Confine(root, oldRel)
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(oldAbs); err != nil {
		return "", NotFound("item")
	}

	newAbs, err := Confine(root, filepath.Join(filepath.Dir(oldRel), newName))
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(newAbs); err == nil {
		return "", Conflict("item with new name already exists")
	}
	if err := VerifyReal(root, filepath.Dir(oldAbs)); err != nil {
		return "", err
	}

	if err := os.Rename(oldAbs, newAbs); err != nil {
		return "", OperationFailed("failed to rename item", err)
	}
	s.log.Info("item renamed",
		zap.String("from", oldRel),
		zap.String("to", relativeTo(root, newAbs)),
	)
	return relativeTo(root, newAbs), nil
}

// Move relocates the item at sourceRel into the directory at destRel.
// destRel empty means the storage root. A single rename where possible,
// copy+delete only across filesystem boundaries.
func (s *Service) Move(root, sourceRel, destRel string) (string, error) {
	srcAbs, destAbs, finalAbs, err := s.resolveTransfer(root, sourceRel, destRel)
	if err != nil {
		return "", err
	}
	if err := VerifyReal(root, filepath.Dir(srcAbs)); err != nil {
		return "", err
	}
	if err := VerifyReal(root, destAbs); err != nil {
		return "", err
	}

	if err := os.Rename(srcAbs, finalAbs); err != nil {
		if !crossDevice(err) {
			return "", OperationFailed("failed to move item", err)
		}
		if err := copyItem(srcAbs, finalAbs); err != nil {
			return "", err
		}
		if err := os.RemoveAll(srcAbs); err != nil {
			return "", OperationFailed("failed to remove source after move", err)
		}
	}
	s.log.Info("item moved",
		zap.String("from", sourceRel),
		zap.String("to", relativeTo(root, finalAbs)),
	)
	return relativeTo(root, finalAbs), nil
}

// Copy duplicates the item at sourceRel into the directory at destRel.
// Recursive for directories, byte-for-byte with preserved mode and
// timestamps for files.
func (s *Service) Copy(root, sourceRel, destRel string) (string, error) {
	srcAbs, destAbs, finalAbs, err := s.resolveTransfer(root, sourceRel, destRel)
	if err != nil {
		return "", err
	}
	if err := VerifyReal(root, srcAbs); err != nil {
		return "", err
	}
	if err := VerifyReal(root, destAbs); err != nil {
		return "", err
	}

	if err := copyItem(srcAbs, finalAbs); err != nil {
		return "", err
	}
	s.log.Info("item copied",
		zap.String("from", sourceRel),
		zap.String("to", relativeTo(root, finalAbs)),
	)
	return relativeTo(root, finalAbs), nil
}

// resolveTransfer applies the shared move/copy preconditions: source
// exists, destination exists and is a directory, destination-plus-
// basename is free.
func (s *Service) resolveTransfer(root, sourceRel, destRel string) (srcAbs, destAbs, finalAbs string, err error) {
	srcAbs, err = Confine(root, sourceRel)
	if err != nil {
		return "", "", "", err
	}
	destAbs, err = Confine(root, destRel)
	if err != nil {
		return "", "", "", err
	}

	if _, err := os.Lstat(srcAbs); err != nil {
		return "", "", "", NotFound("source item")
	}
	info, err := os.Stat(destAbs)
	if err != nil {
		return "", "", "", NotFound("destination directory")
	}
	if !info.IsDir() {
		return "", "", "", NotADirectory()
	}
	// A destination inside the source would make the copy rediscover
	// its own output at every level and never terminate.
	if contains(srcAbs, destAbs) {
		return "", "", "", Conflict("cannot move or copy an item into itself")
	}

	finalAbs = filepath.Join(destAbs, filepath.Base(srcAbs))
	if finalAbs == srcAbs {
		return "", "", "", Conflict("source and destination are the same")
	}
	if _, err := os.Lstat(finalAbs); err == nil {
		return "", "", "", Conflict("item with same name already exists in destination")
	}
	return srcAbs, destAbs, finalAbs, nil
}

func crossDevice(err error) bool {
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	return errors.Is(linkErr.Err, syscall.EXDEV)
}

func copyItem(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return OperationFailed("failed to read source item", err)
	}
	if info.IsDir() {
		return copyDir(src, dst)
	}
	return copyFile(src, dst, info)
}

func copyDir(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return OperationFailed("failed to read source directory", err)
	}
	if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return OperationFailed("failed to create destination directory", err)
	}

	dirents, err := os.ReadDir(src)
	if err != nil {
		return OperationFailed("failed to read source directory", err)
	}
	for _, d := range dirents {
		srcChild := filepath.Join(src, d.Name())
		dstChild := filepath.Join(dst, d.Name())
		if d.IsDir() {
			if err := copyDir(srcChild, dstChild); err != nil {
				return err
			}
			continue
		}
		childInfo, err := d.Info()
		if err != nil {
			return OperationFailed("failed to read source item", err)
		}
		if err := copyFile(srcChild, dstChild, childInfo); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return OperationFailed("failed to open source file", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return OperationFailed("failed to create destination file", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return OperationFailed("failed to copy file contents", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return OperationFailed("failed to finalize destination file", err)
	}

	// Preserve timestamps where feasible; failure is not fatal.
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}
