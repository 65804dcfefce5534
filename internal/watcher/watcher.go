// Package watcher runs the collect, evaluate, notify and record cycle,
// either once or repeatedly on a fixed interval.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/yowainwright/deskcare/internal/core"
	"github.com/yowainwright/deskcare/internal/health"
	"github.com/yowainwright/deskcare/internal/notify"
	"github.com/yowainwright/deskcare/internal/storage"
)

var ErrAlreadyRunning = errors.New("watcher already running")

// Collector is satisfied by *metrics.Collector.
type Collector interface {
	Collect(ctx context.Context) core.MetricSnapshot
}

type Report struct {
	Snapshot   core.MetricSnapshot `json:"snapshot"`
	Evaluation health.Evaluation   `json:"evaluation"`
	Recorded   bool                `json:"recorded"`
}

type Watcher struct {
	collector     Collector
	evaluator     *health.Evaluator
	store         storage.HistoryStore
	notifier      notify.Notifier
	notifications bool
	logger        *slog.Logger
	pidFile       string
}

type Option func(*Watcher)

// WithStore enables history recording. Without it cycles are not persisted.
func WithStore(s storage.HistoryStore) Option {
	return func(w *Watcher) { w.store = s }
}

func WithNotifier(n notify.Notifier) Option {
	return func(w *Watcher) { w.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithPIDFile makes Run refuse to start while another live process holds
// the file.
func WithPIDFile(path string) Option {
	return func(w *Watcher) { w.pidFile = path }
}

func New(config *core.Config, collector Collector, opts ...Option) *Watcher {
	w := &Watcher{
		collector:     collector,
		evaluator:     health.NewEvaluator(config.Thresholds),
		notifier:      notify.Nop{},
		notifications: config.NotificationsEnabled,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Cycle takes one reading. It blocks for the collector's sample window.
// Notification and history failures are logged, never returned.
func (w *Watcher) Cycle(ctx context.Context) Report {
	snap := w.collector.Collect(ctx)
	eval := w.evaluator.EvaluateSnapshot(snap)

	w.logger.Debug("health evaluated", "severity", eval.Severity.String(), "label", eval.Label)

	notify.Dispatch(w.notifier, w.notifications, w.logger, notify.DefaultTitle, notify.HealthMessage(snap, eval))

	report := Report{Snapshot: snap, Evaluation: eval}
	if w.store == nil {
		return report
	}

	if err := w.store.Append(core.NewHistoryEntry(snap)); err != nil {
		w.logger.Warn("failed to record history", "error", err)
		return report
	}
	report.Recorded = true
	return report
}

// Run executes a cycle immediately, then one per interval tick until ctx is
// cancelled. Cycles run back to back on one goroutine, so a slow cycle
// delays the next one instead of overlapping it.
func (w *Watcher) Run(ctx context.Context, interval time.Duration, fn func(Report)) error {
	if interval <= 0 {
		return fmt.Errorf("invalid refresh interval: %v", interval)
	}

	if w.pidFile != "" {
		if IsRunning(w.pidFile) {
			return fmt.Errorf("%w: pid file %s", ErrAlreadyRunning, w.pidFile)
		}
		if err := writePIDFile(w.pidFile); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() {
			if err := os.Remove(w.pidFile); err != nil && !os.IsNotExist(err) {
				w.logger.Warn("failed to remove PID file", "path", w.pidFile, "error", err)
			}
		}()
	}

	w.logger.Info("watching system health", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for ctx.Err() == nil {
		report := w.Cycle(ctx)
		if ctx.Err() == nil && fn != nil {
			fn(report)
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}

	w.logger.Info("watcher stopped")
	return nil
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// IsRunning reports whether the process recorded in pidFile is alive.
func IsRunning(pidFile string) bool {
	pidBytes, err := os.ReadFile(pidFile)
	if err != nil {
		return false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(pidBytes)))
	if err != nil || pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
