package core

import "time"

const (
	Version = "0.1.0"

	DefaultCPUWarning  = 80.0
	DefaultRAMWarning  = 85.0
	DefaultDiskWarning = 90.0
	DefaultBatteryLow  = 20.0

	DefaultRefreshIntervalMS = 5000
	DefaultRetentionDays     = 30
	DefaultLogLevel          = "info"

	DefaultProbeAddress   = "8.8.8.8:53"
	DefaultProbeTimeoutMS = 2000
	DefaultSlowLatencyMS  = 100

	// DefaultSampleWindow is the blocking window used to measure CPU load
	// and network transfer rates.
	DefaultSampleWindow = time.Second

	DownloadPathEnv = "DOWNLOAD_PATH"
)

// BatteryStatus describes the power source reported for a snapshot.
type BatteryStatus string

const (
	BatteryCharging    BatteryStatus = "charging"
	BatteryUnplugged   BatteryStatus = "unplugged"
	BatteryDesktop     BatteryStatus = "desktop"
	BatteryUnknown     BatteryStatus = "unknown"
	BatteryUnavailable BatteryStatus = "unavailable"
)

// ConnectionQuality is the classification of the latency probe.
type ConnectionQuality string

const (
	QualityGood         ConnectionQuality = "good"
	QualitySlow         ConnectionQuality = "slow"
	QualityNoConnection ConnectionQuality = "no connection"
	QualityUnavailable  ConnectionQuality = "unavailable"
)
