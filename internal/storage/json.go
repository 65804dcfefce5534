package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/yowainwright/deskcare/internal/core"
)

// JSONHistory keeps the whole log in memory and rewrites the file as a
// JSON array on every change.
type JSONHistory struct {
	filepath  string
	retention time.Duration
	entries   []core.HistoryEntry
	logger    *slog.Logger
	now       func() time.Time
}

type HistoryOption func(*JSONHistory)

func WithClock(now func() time.Time) HistoryOption {
	return func(j *JSONHistory) { j.now = now }
}

func WithLogger(l *slog.Logger) HistoryOption {
	return func(j *JSONHistory) {
		if l != nil {
			j.logger = l
		}
	}
}

func NewJSONHistory(path string, retention time.Duration, opts ...HistoryOption) *JSONHistory {
	if retention <= 0 {
		retention = time.Duration(core.DefaultRetentionDays) * 24 * time.Hour
	}
	j := &JSONHistory{
		filepath:  path,
		retention: retention,
		entries:   []core.HistoryEntry{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// OpenJSONHistory builds a store from config and loads it.
func OpenJSONHistory(config *core.Config, logger *slog.Logger) *JSONHistory {
	j := NewJSONHistory(config.HistoryFile, config.Retention(), WithLogger(logger))
	j.Load()
	return j
}

func (j *JSONHistory) Path() string {
	return j.filepath
}

// Retention is the effective window, after the default for non-positive values.
func (j *JSONHistory) Retention() time.Duration {
	return j.retention
}

// Load replaces the in-memory log with the file contents. A missing or
// unreadable file yields an empty log.
func (j *JSONHistory) Load() []core.HistoryEntry {
	j.entries = []core.HistoryEntry{}

	data, err := os.ReadFile(j.filepath)
	if err != nil {
		if !os.IsNotExist(err) {
			j.logger.Warn("failed to read history, starting empty", "path", j.filepath, "error", err)
		}
		return j.Entries()
	}

	entries, err := decodeEntries(data)
	if err != nil {
		j.logger.Warn("history file is corrupt, starting empty", "path", j.filepath, "error", err)
		return j.Entries()
	}

	j.entries = entries
	sortEntries(j.entries)
	return j.Entries()
}

func (j *JSONHistory) Append(entry core.HistoryEntry) error {
	j.entries = append(j.entries, entry)
	j.prune(j.now().Add(-j.retention))
	return j.save()
}

// Close is a no-op. Every mutation is written through.
func (j *JSONHistory) Close() error {
	return nil
}

func (j *JSONHistory) Entries() []core.HistoryEntry {
	out := make([]core.HistoryEntry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Latest returns up to n of the newest entries, oldest first. n <= 0
// returns everything.
func (j *JSONHistory) Latest(n int) []core.HistoryEntry {
	entries := j.Entries()
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[len(entries)-n:]
}

// Prune drops entries outside the retention window and returns how many
// were removed.
func (j *JSONHistory) Prune() (int, error) {
	count := len(j.entries)
	if err := j.Cleanup(j.now().Add(-j.retention)); err != nil {
		return 0, err
	}
	return count - len(j.entries), nil
}

func (j *JSONHistory) Cleanup(before time.Time) error {
	j.prune(before)
	return j.save()
}

func (j *JSONHistory) Backup() (string, error) {
	backupPath := fmt.Sprintf("%s.backup.%s", j.filepath, j.now().Format("20060102_150405"))

	data, err := json.MarshalIndent(j.entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal backup data: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(backupPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create history directory: %w", err)
	}

	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}

	return backupPath, nil
}

// Restore replaces the log with the contents of path. Entries outside the
// retention window are dropped before writing.
func (j *JSONHistory) Restore(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read restore file: %w", err)
	}

	entries, err := decodeEntries(data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal restore data: %w", err)
	}

	j.entries = entries
	j.prune(j.now().Add(-j.retention))
	return j.save()
}

// prune keeps entries strictly newer than cutoff, sorted ascending.
func (j *JSONHistory) prune(cutoff time.Time) {
	kept := make([]core.HistoryEntry, 0, len(j.entries))
	for _, e := range j.entries {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	sortEntries(kept)
	j.entries = kept
}

func (j *JSONHistory) save() error {
	if err := os.MkdirAll(filepath.Dir(j.filepath), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(j.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tempFile := j.filepath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	if err := os.Rename(tempFile, j.filepath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func decodeEntries(data []byte) ([]core.HistoryEntry, error) {
	var entries []core.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []core.HistoryEntry{}
	}
	return entries, nil
}

func sortEntries(entries []core.HistoryEntry) {
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Timestamp.Before(entries[b].Timestamp)
	})
}

var _ HistoryStore = (*JSONHistory)(nil)
