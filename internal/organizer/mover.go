package organizer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// FileEntry is a file found in the source directory.
type FileEntry struct {
	Path string
	Name string
	Stem string
	Ext  string
}

func NewFileEntry(path string) FileEntry {
	name := filepath.Base(path)
	stem, ext := SplitName(name)
	return FileEntry{Path: path, Name: name, Stem: stem, Ext: ext}
}

// SplitName splits a file name at its last dot. Dotfiles such as ".bashrc"
// and names ending in a dot have no extension.
func SplitName(name string) (stem, ext string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return name, ""
	}
	return name[:i], name[i:]
}

// EnsureFolder creates path and any missing parents. It is a no-op when
// path is already a directory.
func EnsureFolder(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return nil
}

// Move moves src into destDir and returns the final path. When the name is
// taken, stem_1.ext, stem_2.ext, ... are tried until one is free.
func Move(src, destDir string) (string, error) {
	target, err := freePath(destDir, filepath.Base(src))
	if err != nil {
		return "", err
	}

	if err := os.Rename(src, target); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return "", fmt.Errorf("failed to move %s: %w", src, err)
		}
		if err := moveAcrossDevices(src, target); err != nil {
			return "", fmt.Errorf("failed to move %s: %w", src, err)
		}
	}

	return target, nil
}

func freePath(destDir, name string) (string, error) {
	candidate := filepath.Join(destDir, name)
	stem, ext := SplitName(name)

	for n := 1; ; n++ {
		exists, err := pathExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check %s: %w", path, err)
}

// moveAcrossDevices copies src to dst and removes src once the copy is
// complete.
func moveAcrossDevices(src, dst string) error {
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}

	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}

	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}
