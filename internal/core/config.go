package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrCorruptConfig is returned alongside a default config when the config
// file exists but cannot be parsed.
var ErrCorruptConfig = errors.New("corrupt config")

type Config struct {
	Thresholds           Thresholds      `json:"thresholds"`
	NotificationsEnabled bool            `json:"notifications_enabled"`
	AutoRefresh          bool            `json:"auto_refresh"`
	RefreshIntervalMS    int             `json:"refresh_interval_ms"`
	HistoryFile          string          `json:"history_file"`
	RetentionDays        int             `json:"retention_days"`
	LogLevel             string          `json:"log_level"`
	Organizer            OrganizerConfig `json:"organizer"`
	Network              NetworkConfig   `json:"network"`

	path  string
	extra map[string]json.RawMessage
}

type Thresholds struct {
	CPUWarning  float64 `json:"cpu_warning"`
	RAMWarning  float64 `json:"ram_warning"`
	DiskWarning float64 `json:"disk_warning"`
	BatteryLow  float64 `json:"battery_low"`
}

type OrganizerConfig struct {
	SourceDir string `json:"source_dir"`
}

type NetworkConfig struct {
	ProbeAddress   string `json:"probe_address"`
	ProbeTimeoutMS int    `json:"probe_timeout_ms"`
	SlowLatencyMS  int    `json:"slow_latency_ms"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUWarning:  DefaultCPUWarning,
		RAMWarning:  DefaultRAMWarning,
		DiskWarning: DefaultDiskWarning,
		BatteryLow:  DefaultBatteryLow,
	}
}

func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "deskcare")

	return &Config{
		Thresholds:           DefaultThresholds(),
		NotificationsEnabled: true,
		AutoRefresh:          true,
		RefreshIntervalMS:    DefaultRefreshIntervalMS,
		HistoryFile:          filepath.Join(dataDir, "history.json"),
		RetentionDays:        DefaultRetentionDays,
		LogLevel:             DefaultLogLevel,
		Organizer: OrganizerConfig{
			SourceDir: DefaultSourceDir(),
		},
		Network: NetworkConfig{
			ProbeAddress:   DefaultProbeAddress,
			ProbeTimeoutMS: DefaultProbeTimeoutMS,
			SlowLatencyMS:  DefaultSlowLatencyMS,
		},
		path: DefaultConfigPath(),
	}
}

// DefaultSourceDir honors DOWNLOAD_PATH before falling back to ~/Downloads.
func DefaultSourceDir() string {
	if dir := os.Getenv(DownloadPathEnv); dir != "" {
		return dir
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, "Downloads")
}

func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "deskcare", "config.json")
}

// LoadConfig reads the config at path over the defaults. Keys present in the
// file win and missing keys keep their default. A corrupt file yields the
// defaults together with an error wrapping ErrCorruptConfig.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		fallback := DefaultConfig()
		fallback.path = path
		return fallback, fmt.Errorf("%w: %s: %v", ErrCorruptConfig, path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		known := knownKeys()
		for key, value := range raw {
			if _, ok := known[key]; ok {
				continue
			}
			if cfg.extra == nil {
				cfg.extra = make(map[string]json.RawMessage)
			}
			cfg.extra[key] = value
		}
	}

	return cfg, nil
}

func knownKeys() map[string]struct{} {
	data, _ := json.Marshal(Config{})
	var fields map[string]json.RawMessage
	_ = json.Unmarshal(data, &fields)

	keys := make(map[string]struct{}, len(fields))
	for k := range fields {
		keys[k] = struct{}{}
	}
	return keys
}

func (c *Config) Path() string {
	return c.path
}

// Save writes the config back to the path it was loaded from.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = DefaultConfigPath()
	}
	return c.SaveTo(path)
}

func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.encode()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	c.path = path
	return nil
}

// encode keeps unknown top-level keys from the last load.
func (c *Config) encode() ([]byte, error) {
	if len(c.extra) == 0 {
		return json.MarshalIndent(c, "", "  ")
	}

	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range c.extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}

	return json.MarshalIndent(merged, "", "  ")
}

func (c *Config) EnsureDirectories() error {
	if c.HistoryFile == "" {
		return nil
	}
	dir := filepath.Dir(c.HistoryFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// PIDFile sits next to the history file so one watcher guards one log.
func (c *Config) PIDFile() string {
	return filepath.Join(filepath.Dir(c.HistoryFile), "watch.pid")
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Network.ProbeTimeoutMS) * time.Millisecond
}

func (c *Config) SlowLatency() time.Duration {
	return time.Duration(c.Network.SlowLatencyMS) * time.Millisecond
}

// ConfigKeys lists the dotted keys accepted by Get and Set.
var ConfigKeys = []string{
	"thresholds.cpu_warning",
	"thresholds.ram_warning",
	"thresholds.disk_warning",
	"thresholds.battery_low",
	"notifications_enabled",
	"auto_refresh",
	"refresh_interval_ms",
	"history_file",
	"retention_days",
	"log_level",
	"organizer.source_dir",
	"network.probe_address",
	"network.probe_timeout_ms",
	"network.slow_latency_ms",
}

func (c *Config) Get(key string) (string, error) {
	switch key {
	case "thresholds.cpu_warning":
		return formatFloat(c.Thresholds.CPUWarning), nil
	case "thresholds.ram_warning":
		return formatFloat(c.Thresholds.RAMWarning), nil
	case "thresholds.disk_warning":
		return formatFloat(c.Thresholds.DiskWarning), nil
	case "thresholds.battery_low":
		return formatFloat(c.Thresholds.BatteryLow), nil
	case "notifications_enabled":
		return strconv.FormatBool(c.NotificationsEnabled), nil
	case "auto_refresh":
		return strconv.FormatBool(c.AutoRefresh), nil
	case "refresh_interval_ms":
		return strconv.Itoa(c.RefreshIntervalMS), nil
	case "history_file":
		return c.HistoryFile, nil
	case "retention_days":
		return strconv.Itoa(c.RetentionDays), nil
	case "log_level":
		return c.LogLevel, nil
	case "organizer.source_dir":
		return c.Organizer.SourceDir, nil
	case "network.probe_address":
		return c.Network.ProbeAddress, nil
	case "network.probe_timeout_ms":
		return strconv.Itoa(c.Network.ProbeTimeoutMS), nil
	case "network.slow_latency_ms":
		return strconv.Itoa(c.Network.SlowLatencyMS), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Set parses value for key. Ranges are not validated.
func (c *Config) Set(key, value string) error {
	switch key {
	case "thresholds.cpu_warning":
		return setFloat(&c.Thresholds.CPUWarning, key, value)
	case "thresholds.ram_warning":
		return setFloat(&c.Thresholds.RAMWarning, key, value)
	case "thresholds.disk_warning":
		return setFloat(&c.Thresholds.DiskWarning, key, value)
	case "thresholds.battery_low":
		return setFloat(&c.Thresholds.BatteryLow, key, value)
	case "notifications_enabled":
		return setBool(&c.NotificationsEnabled, key, value)
	case "auto_refresh":
		return setBool(&c.AutoRefresh, key, value)
	case "refresh_interval_ms":
		return setInt(&c.RefreshIntervalMS, key, value)
	case "history_file":
		c.HistoryFile = value
	case "retention_days":
		return setInt(&c.RetentionDays, key, value)
	case "log_level":
		c.LogLevel = value
	case "organizer.source_dir":
		c.Organizer.SourceDir = value
	case "network.probe_address":
		c.Network.ProbeAddress = value
	case "network.probe_timeout_ms":
		return setInt(&c.Network.ProbeTimeoutMS, key, value)
	case "network.slow_latency_ms":
		return setInt(&c.Network.SlowLatencyMS, key, value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func setFloat(dst *float64, key, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s value: %w", key, err)
	}
	*dst = v
	return nil
}

func setInt(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s value: %w", key, err)
	}
	*dst = v
	return nil
}

func setBool(dst *bool, key, value string) error {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid %s value: %w", key, err)
	}
	*dst = v
	return nil
}
