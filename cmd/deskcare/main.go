package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/yowainwright/deskcare/internal/core"
	"github.com/yowainwright/deskcare/internal/metrics"
	"github.com/yowainwright/deskcare/internal/notify"
	"github.com/yowainwright/deskcare/internal/organizer"
	"github.com/yowainwright/deskcare/internal/storage"
	"github.com/yowainwright/deskcare/internal/watcher"
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))
)

var configPath string

func main() {
	// DOWNLOAD_PATH and friends may come from a local .env file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, errorStyle.Render("failed to load .env: "+err.Error()))
	}

	rootCmd := &cobra.Command{
		Use:   "deskcare",
		Short: "Desktop housekeeping: organize downloads and watch system health",
		Long:  `deskcare sorts a downloads folder into category subfolders and takes health snapshots of the local machine, keeping a rolling JSON history.`,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.config/deskcare/config.json)")

	// Organizer
	var (
		organizeDryRun bool
		organizeFormat string
	)

	organizeCmd := &cobra.Command{
		Use:   "organize [dir]",
		Short: "Sort files into category folders",
		Args:  cobra.MaximumNArgs(1),
		RunE:  organize,
	}
	organizeCmd.Flags().BoolVarP(&organizeDryRun, "dry-run", "n", false, "Show what would be moved without moving anything")
	organizeCmd.Flags().StringVarP(&organizeFormat, "format", "f", "table", "Output format (table, json)")

	// Health
	var (
		healthFormat   string
		healthNoRecord bool
	)

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Take one health snapshot",
		RunE:  healthSnapshot,
	}
	healthCmd.Flags().StringVarP(&healthFormat, "format", "f", "table", "Output format (table, json)")
	healthCmd.Flags().BoolVar(&healthNoRecord, "no-record", false, "Do not append the snapshot to history")

	var (
		watchInterval time.Duration
		watchFormat   string
	)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Take health snapshots on the refresh interval",
		RunE:  watch,
	}
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 0, "Refresh interval (default from refresh_interval_ms)")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "table", "Output format (table, json)")

	// History
	var (
		historyLast    int
		historySince   string
		historyFormat  string
		historySummary bool
	)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded health snapshots",
		RunE:  showHistory,
	}
	historyCmd.Flags().IntVarP(&historyLast, "last", "n", 10, "Show the last N entries (0 for all)")
	historyCmd.Flags().StringVarP(&historySince, "since", "s", "", "Only entries newer than duration (e.g., 24h, 7d)")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "table", "Output format (table, json, csv)")
	historyCmd.Flags().BoolVar(&historySummary, "summary", false, "Show averages and peaks instead of entries")

	// Config command
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	configGetCmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Get configuration value",
		RunE:  getConfig,
	}

	configSetCmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set configuration value",
		RunE:  setConfig,
	}

	configListCmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration",
		RunE:  listConfig,
	}

	configCmd.AddCommand(configGetCmd, configSetCmd, configListCmd)

	// Maintenance commands
	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Drop history entries outside the retention window",
		RunE:  cleanup,
	}

	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Create manual history backup",
		RunE:  backup,
	}

	restoreCmd := &cobra.Command{
		Use:   "restore [file]",
		Short: "Replace history with a backup file",
		Args:  cobra.ExactArgs(1),
		RunE:  restore,
	}

	rootCmd.AddCommand(
		organizeCmd,
		healthCmd,
		watchCmd,
		historyCmd,
		configCmd,
		cleanupCmd,
		backupCmd,
		restoreCmd,
	)

	// Execute with Fang styling
	ctx := context.Background()
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion(core.Version),
		fang.WithColorSchemeFunc(fang.DefaultColorScheme),
	); err != nil {
		os.Exit(1)
	}
}

// loadConfig falls back to defaults on a corrupt file so commands keep
// working. The returned logger honours log_level.
func loadConfig() (*core.Config, *slog.Logger, error) {
	config, err := core.LoadConfig(configPath)
	if err != nil && !errors.Is(err, core.ErrCorruptConfig) {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(config.LogLevel)
	if err != nil {
		logger.Warn("using default configuration", "error", err)
	}

	return config, logger, nil
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func organize(cmd *cobra.Command, args []string) error {
	config, logger, err := loadConfig()
	if err != nil {
		return err
	}

	sourceDir := config.Organizer.SourceDir
	if len(args) == 1 {
		sourceDir = args[0]
	}

	org := organizer.New(organizer.DefaultTable(), logger)
	org.DryRun, _ = cmd.Flags().GetBool("dry-run")

	result, err := org.Run(cmd.Context(), sourceDir)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	return renderOrganize(cmd.OutOrStdout(), result, org.Table().Categories(), format)
}

func newWatcher(config *core.Config, logger *slog.Logger, record bool, extra ...watcher.Option) (*watcher.Watcher, *storage.JSONHistory) {
	collector := metrics.NewCollectorFromConfig(config, logger)
	opts := []watcher.Option{
		watcher.WithLogger(logger),
		watcher.WithNotifier(notify.NewDesktop("deskcare")),
	}
	opts = append(opts, extra...)

	var history *storage.JSONHistory
	if record {
		if err := config.EnsureDirectories(); err != nil {
			logger.Warn("history directory unavailable", "error", err)
		}
		history = storage.OpenJSONHistory(config, logger)
		opts = append(opts, watcher.WithStore(history))
	}

	return watcher.New(config, collector, opts...), history
}

func healthSnapshot(cmd *cobra.Command, args []string) error {
	config, logger, err := loadConfig()
	if err != nil {
		return err
	}

	noRecord, _ := cmd.Flags().GetBool("no-record")
	w, history := newWatcher(config, logger, !noRecord)
	if history != nil {
		defer history.Close()
	}

	report := w.Cycle(cmd.Context())

	format, _ := cmd.Flags().GetString("format")
	return renderReport(cmd.OutOrStdout(), report, format)
}

func watch(cmd *cobra.Command, args []string) error {
	config, logger, err := loadConfig()
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()

	if !config.AutoRefresh {
		fmt.Fprintln(out, subtitleStyle.Render("auto_refresh is off, taking a single snapshot"))
		return healthSnapshot(cmd, args)
	}

	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = config.RefreshInterval()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, history := newWatcher(config, logger, true, watcher.WithPIDFile(config.PIDFile()))
	defer history.Close()

	var renderErr error
	err = w.Run(ctx, interval, func(r watcher.Report) {
		if err := renderReport(out, r, format); err != nil && renderErr == nil {
			renderErr = err
		}
	})
	if err != nil {
		return err
	}
	return renderErr
}

func showHistory(cmd *cobra.Command, args []string) error {
	config, logger, err := loadConfig()
	if err != nil {
		return err
	}

	history := storage.OpenJSONHistory(config, logger)
	defer history.Close()

	entries := history.Entries()

	if sinceStr, _ := cmd.Flags().GetString("since"); sinceStr != "" {
		duration, err := parseDuration(sinceStr)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		entries = since(entries, time.Now().Add(-duration))
	}

	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()

	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		return renderSummary(out, storage.Summarize(entries), format)
	}

	last, _ := cmd.Flags().GetInt("last")
	return renderHistory(out, tail(entries, last), format)
}

func getConfig(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("config key required")
	}

	config, _, err := loadConfig()
	if err != nil {
		return err
	}

	value, err := config.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func setConfig(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("config key and value required")
	}

	config, _, err := loadConfig()
	if err != nil {
		return err
	}

	if err := config.Set(args[0], args[1]); err != nil {
		return err
	}

	if err := config.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Configuration updated"))
	return nil
}

func listConfig(cmd *cobra.Command, args []string) error {
	config, _, err := loadConfig()
	if err != nil {
		return err
	}

	values := make(map[string]string, len(core.ConfigKeys))
	for _, key := range core.ConfigKeys {
		values[key], _ = config.Get(key)
	}

	fmt.Fprintln(cmd.OutOrStdout(), subtitleStyle.Render(config.Path()))
	return renderConfig(cmd.OutOrStdout(), core.ConfigKeys, values)
}

func cleanup(cmd *cobra.Command, args []string) error {
	config, logger, err := loadConfig()
	if err != nil {
		return err
	}

	history := storage.OpenJSONHistory(config, logger)
	defer history.Close()

	removed, err := history.Prune()
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Cleanup completed, %d entries removed", removed)))
	return nil
}

func backup(cmd *cobra.Command, args []string) error {
	config, logger, err := loadConfig()
	if err != nil {
		return err
	}

	history := storage.OpenJSONHistory(config, logger)
	defer history.Close()

	path, err := history.Backup()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Backup created"))
	fmt.Fprintln(cmd.OutOrStdout(), subtitleStyle.Render("  "+path))
	return nil
}

func restore(cmd *cobra.Command, args []string) error {
	config, logger, err := loadConfig()
	if err != nil {
		return err
	}

	history := storage.NewJSONHistory(config.HistoryFile, config.Retention(), storage.WithLogger(logger))
	if err := history.Restore(args[0]); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Restored %d entries", len(history.Entries()))))
	return nil
}

func since(entries []core.HistoryEntry, cutoff time.Time) []core.HistoryEntry {
	var kept []core.HistoryEntry
	for _, e := range entries {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept
}

func tail(entries []core.HistoryEntry, n int) []core.HistoryEntry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[len(entries)-n:]
}

func parseDuration(s string) (time.Duration, error) {
	// Support formats like "24h", "7d", "2w"
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	if strings.HasSuffix(s, "w") {
		weeks, err := strconv.Atoi(strings.TrimSuffix(s, "w"))
		if err != nil {
			return 0, err
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}
