package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/yowainwright/deskcare/internal/core"
)

// Source is the set of OS queries a Collector depends on.
type Source interface {
	// CPUPercent blocks for interval and returns the overall CPU load.
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
	DiskPercent(ctx context.Context, path string) (float64, error)
	NetCounters(ctx context.Context) (NetCounters, error)
	Temperatures(ctx context.Context) ([]SensorReading, error)
	// Batteries returns an empty slice on machines without a battery.
	Batteries() ([]BatteryInfo, error)
}

// NetCounters are cumulative byte counters summed over all interfaces.
type NetCounters struct {
	BytesSent uint64
	BytesRecv uint64
}

type SensorReading struct {
	Key     string
	Celsius float64
}

type BatteryInfo struct {
	Current float64
	Full    float64
	Status  core.BatteryStatus
}

var errNoData = errors.New("no data reported")

// SystemSource reads the local machine through gopsutil and
// distatus/battery.
type SystemSource struct{}

func (SystemSource) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, errNoData
	}
	return percents[0], nil
}

func (SystemSource) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

func (SystemSource) DiskPercent(ctx context.Context, path string) (float64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, err
	}
	return usage.UsedPercent, nil
}

func (SystemSource) NetCounters(ctx context.Context) (NetCounters, error) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return NetCounters{}, err
	}
	if len(counters) == 0 {
		return NetCounters{}, errNoData
	}
	return NetCounters{BytesSent: counters[0].BytesSent, BytesRecv: counters[0].BytesRecv}, nil
}

// Temperatures tolerates partial sensor warnings as long as some readings
// came back.
func (SystemSource) Temperatures(ctx context.Context) ([]SensorReading, error) {
	stats, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(stats) == 0 {
		return nil, err
	}

	readings := make([]SensorReading, 0, len(stats))
	for _, s := range stats {
		readings = append(readings, SensorReading{Key: s.SensorKey, Celsius: s.Temperature})
	}
	return readings, nil
}

func (SystemSource) Batteries() ([]BatteryInfo, error) {
	batteries, err := battery.GetAll()
	if err != nil && len(batteries) == 0 {
		return nil, err
	}

	infos := make([]BatteryInfo, 0, len(batteries))
	for _, b := range batteries {
		if b == nil {
			continue
		}
		infos = append(infos, BatteryInfo{
			Current: b.Current,
			Full:    b.Full,
			Status:  batteryStatus(b.State.Raw),
		})
	}

	if len(infos) == 0 && err != nil {
		return nil, err
	}
	return infos, nil
}

// batteryStatus treats a full or idle battery as plugged in.
func batteryStatus(state battery.AgnosticState) core.BatteryStatus {
	switch state {
	case battery.Charging, battery.Full, battery.Idle:
		return core.BatteryCharging
	case battery.Discharging, battery.Empty:
		return core.BatteryUnplugged
	default:
		return core.BatteryUnknown
	}
}

var _ Source = SystemSource{}
