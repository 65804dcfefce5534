package storage

import (
	"time"

	"github.com/yowainwright/deskcare/internal/core"
)

// HistoryStore is an append-only log of health readings with a rolling
// retention window. Implementations assume a single writer.
type HistoryStore interface {
	Load() []core.HistoryEntry
	Append(entry core.HistoryEntry) error
	Close() error

	Entries() []core.HistoryEntry
	Latest(n int) []core.HistoryEntry

	Backup() (string, error)
	Restore(path string) error
	Cleanup(before time.Time) error
}
