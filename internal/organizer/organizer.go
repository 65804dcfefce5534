package organizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yowainwright/deskcare/internal/core"
)

// ErrSourceNotFound is returned when the directory to organize is missing.
var ErrSourceNotFound = errors.New("source directory not found")

type Organizer struct {
	table  *Table
	logger *slog.Logger

	// DryRun classifies and counts files without touching the filesystem.
	DryRun bool
}

// New returns an Organizer using table. Nil arguments select the default
// table and a discard logger.
func New(table *Table, logger *slog.Logger) *Organizer {
	if table == nil {
		table = DefaultTable()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Organizer{table: table, logger: logger}
}

func (o *Organizer) Table() *Table {
	return o.table
}

// Run moves every regular file directly inside sourceDir into its category
// folder under sourceDir. A file that fails to move is recorded in the
// result and skipped.
func (o *Organizer) Run(ctx context.Context, sourceDir string) (*core.OrganizeResult, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceDir)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", sourceDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceNotFound, sourceDir)
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sourceDir, err)
	}

	result := core.NewOrganizeResult()
	result.DryRun = o.DryRun

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		path := filepath.Join(sourceDir, entry.Name())
		if !isRegularFile(path, entry) {
			continue
		}

		move, err := o.organizeFile(sourceDir, NewFileEntry(path))
		if err != nil {
			o.logger.Warn("skipping file", "file", entry.Name(), "error", err)
			result.Fail(entry.Name(), err)
			continue
		}

		o.logger.Debug("organized file", "file", entry.Name(), "to", move.To, "category", move.Category)
		result.Record(move)
	}

	return result, nil
}

func (o *Organizer) organizeFile(sourceDir string, file FileEntry) (core.Move, error) {
	class := o.table.Classify(file.Ext)

	target := filepath.Join(sourceDir, class.Category)
	if class.Subcategory != "" {
		target = filepath.Join(target, class.Subcategory)
	}

	move := core.Move{
		From:        file.Path,
		Category:    class.Category,
		Subcategory: class.Subcategory,
	}

	if o.DryRun {
		to, err := freePath(target, file.Name)
		if err != nil {
			return move, err
		}
		move.To = to
		return move, nil
	}

	if err := EnsureFolder(target); err != nil {
		return move, err
	}

	to, err := Move(file.Path, target)
	if err != nil {
		return move, err
	}
	move.To = to
	return move, nil
}

// isRegularFile follows symlinks so that a link to a file is organized and
// a link to a directory is not.
func isRegularFile(path string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
