// Package metrics takes point-in-time snapshots of CPU, memory, disk,
// battery, temperature and network state.
//
// A single Collect call blocks for at least one sample window: CPU load and
// network throughput are both measured over that window. With the default
// one second window and a two second probe timeout a call returns within
// about three seconds.
package metrics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/yowainwright/deskcare/internal/core"
)

type Collector struct {
	source       Source
	prober       Prober
	logger       *slog.Logger
	window       time.Duration
	probeAddress string
	probeTimeout time.Duration
	slowLatency  time.Duration
	diskPath     string
	now          func() time.Time
}

type Option func(*Collector)

func WithSource(s Source) Option {
	return func(c *Collector) { c.source = s }
}

func WithProber(p Prober) Option {
	return func(c *Collector) { c.prober = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithSampleWindow(d time.Duration) Option {
	return func(c *Collector) { c.window = d }
}

func WithProbe(address string, timeout time.Duration) Option {
	return func(c *Collector) {
		c.probeAddress = address
		c.probeTimeout = timeout
	}
}

func WithSlowLatency(d time.Duration) Option {
	return func(c *Collector) { c.slowLatency = d }
}

func WithDiskPath(path string) Option {
	return func(c *Collector) { c.diskPath = path }
}

func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		source:       SystemSource{},
		prober:       TCPProber{},
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		window:       core.DefaultSampleWindow,
		probeAddress: core.DefaultProbeAddress,
		probeTimeout: time.Duration(core.DefaultProbeTimeoutMS) * time.Millisecond,
		slowLatency:  time.Duration(core.DefaultSlowLatencyMS) * time.Millisecond,
		diskPath:     DiskTarget(runtime.GOOS, os.Getenv),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCollectorFromConfig applies the network settings from cfg on top of
// any extra options.
func NewCollectorFromConfig(cfg *core.Config, logger *slog.Logger, opts ...Option) *Collector {
	base := []Option{
		WithLogger(logger),
		WithProbe(cfg.Network.ProbeAddress, cfg.ProbeTimeout()),
		WithSlowLatency(cfg.SlowLatency()),
	}
	return NewCollector(append(base, opts...)...)
}

// DiskTarget returns the volume whose usage is reported.
func DiskTarget(goos string, getenv func(string) string) string {
	if goos != "windows" {
		return "/"
	}
	drive := getenv("SystemDrive")
	if drive == "" {
		drive = "C:"
	}
	return strings.TrimRight(drive, `\`) + `\`
}

// Collect never fails. Anything that cannot be read is marked unavailable.
func (c *Collector) Collect(ctx context.Context) (snap core.MetricSnapshot) {
	ts := c.now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("metrics collection aborted", "panic", fmt.Sprint(r))
			snap = core.UnavailableSnapshot(ts)
		}
	}()

	snap.Timestamp = ts

	before, beforeErr := c.source.NetCounters(ctx)
	windowStart := time.Now()

	snap.CPU = c.readCPU(ctx)
	c.waitWindow(ctx, windowStart)

	after, afterErr := c.source.NetCounters(ctx)
	elapsed := time.Since(windowStart)

	snap.RAM = c.readPercent("ram", func() (float64, error) { return c.source.MemoryPercent(ctx) })
	snap.Disk = c.readPercent("disk", func() (float64, error) { return c.source.DiskPercent(ctx, c.diskPath) })
	snap.Battery = c.readBattery()
	snap.Temperatures = c.readTemperatures(ctx)

	snap.Network = c.readThroughput(before, after, firstErr(beforeErr, afterErr), elapsed)
	c.readLatency(ctx, &snap.Network)

	return snap
}

func (c *Collector) readCPU(ctx context.Context) core.Metric {
	return c.readPercent("cpu", func() (float64, error) { return c.source.CPUPercent(ctx, c.window) })
}

func (c *Collector) readPercent(name string, read func() (float64, error)) core.Metric {
	v, err := read()
	if err != nil {
		c.logger.Debug("metric unavailable", "metric", name, "error", err)
		return core.Metric{}
	}
	return core.Metric{Value: round1(v), Available: true}
}

// waitWindow sleeps out whatever is left of the sample window.
func (c *Collector) waitWindow(ctx context.Context, start time.Time) {
	remaining := c.window - time.Since(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (c *Collector) readBattery() core.BatteryReading {
	infos, err := c.source.Batteries()
	if err != nil {
		c.logger.Debug("battery unavailable", "error", err)
		return core.BatteryReading{Status: core.BatteryUnavailable}
	}

	if len(infos) == 0 {
		return core.BatteryReading{Status: core.BatteryDesktop, Available: true}
	}

	var current, full float64
	status := infos[0].Status
	for _, info := range infos {
		current += info.Current
		full += info.Full
		if info.Status == core.BatteryCharging {
			status = core.BatteryCharging
		}
	}

	if full <= 0 {
		return core.BatteryReading{Status: core.BatteryUnknown}
	}

	percent := math.Min(current/full*100, 100)
	return core.BatteryReading{Percent: round1(percent), Status: status, Available: true}
}

// readTemperatures averages readings per sensor group, where the group is
// the sensor key up to its first underscore.
func (c *Collector) readTemperatures(ctx context.Context) map[string]float64 {
	temps := make(map[string]float64)

	readings, err := c.source.Temperatures(ctx)
	if err != nil {
		c.logger.Debug("temperatures unavailable", "error", err)
		return temps
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range readings {
		group := SensorGroup(r.Key)
		sums[group] += r.Celsius
		counts[group]++
	}

	for group, sum := range sums {
		temps[group] = round1(sum / float64(counts[group]))
	}
	return temps
}

func SensorGroup(key string) string {
	if i := strings.Index(key, "_"); i > 0 {
		return key[:i]
	}
	return key
}

// SortedSensors returns sensor groups in a stable order for rendering.
func SortedSensors(temps map[string]float64) []string {
	names := make([]string, 0, len(temps))
	for name := range temps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Collector) readThroughput(before, after NetCounters, err error, elapsed time.Duration) core.NetworkStats {
	if err != nil {
		c.logger.Debug("network counters unavailable", "error", err)
		return core.NetworkStats{}
	}

	stats := core.NetworkStats{
		BytesSent: after.BytesSent,
		BytesRecv: after.BytesRecv,
		Available: true,
	}

	secs := elapsed.Seconds()
	if secs <= 0 {
		return stats
	}
	stats.UploadRate = rate(before.BytesSent, after.BytesSent, secs)
	stats.DownloadRate = rate(before.BytesRecv, after.BytesRecv, secs)
	return stats
}

func (c *Collector) readLatency(ctx context.Context, stats *core.NetworkStats) {
	latency, err := c.prober.Probe(ctx, c.probeAddress, c.probeTimeout)
	if err != nil {
		c.logger.Debug("latency probe failed", "address", c.probeAddress, "error", err)
		stats.Quality = core.QualityNoConnection
		return
	}

	stats.LatencyMS = latency.Round(time.Millisecond).Milliseconds()
	stats.LatencyAvailable = true
	stats.Quality = Quality(time.Duration(stats.LatencyMS)*time.Millisecond, c.slowLatency)
}

// Quality grades a measured round trip.
func Quality(latency, slow time.Duration) core.ConnectionQuality {
	if latency < slow {
		return core.QualityGood
	}
	return core.QualitySlow
}

// rate is zero when a counter moved backwards, as after an interface reset.
func rate(before, after uint64, secs float64) float64 {
	if after < before {
		return 0
	}
	return float64(after-before) / secs
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
