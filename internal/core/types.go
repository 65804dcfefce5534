package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metric is a single percentage reading. Available is false when the OS
// query failed, which keeps "read as zero" distinct from "not read".
type Metric struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
}

type BatteryReading struct {
	Percent   float64       `json:"percent"`
	Status    BatteryStatus `json:"status"`
	Available bool          `json:"available"`
}

type NetworkStats struct {
	BytesSent        uint64            `json:"bytes_sent"`
	BytesRecv        uint64            `json:"bytes_recv"`
	UploadRate       float64           `json:"upload_rate"`
	DownloadRate     float64           `json:"download_rate"`
	LatencyMS        int64             `json:"latency_ms"`
	LatencyAvailable bool              `json:"latency_available"`
	Quality          ConnectionQuality `json:"connection_quality"`
	Available        bool              `json:"available"`
}

// MetricSnapshot is one point-in-time capture of all monitored metrics.
type MetricSnapshot struct {
	Timestamp    time.Time          `json:"timestamp"`
	CPU          Metric             `json:"cpu"`
	RAM          Metric             `json:"ram"`
	Disk         Metric             `json:"disk"`
	Battery      BatteryReading     `json:"battery"`
	Temperatures map[string]float64 `json:"temperatures"`
	Network      NetworkStats       `json:"network"`
}

// UnavailableSnapshot is returned when collection fails outright.
func UnavailableSnapshot(ts time.Time) MetricSnapshot {
	return MetricSnapshot{
		Timestamp:    ts,
		Battery:      BatteryReading{Status: BatteryUnavailable},
		Temperatures: map[string]float64{},
		Network:      NetworkStats{Quality: QualityUnavailable},
	}
}

// HistoryEntry is the persisted form of a snapshot.
type HistoryEntry struct {
	Timestamp     time.Time     `json:"timestamp"`
	CPU           float64       `json:"cpu"`
	RAM           float64       `json:"ram"`
	Disk          float64       `json:"disk"`
	Battery       float64       `json:"battery"`
	BatteryStatus BatteryStatus `json:"battery_status"`
}

func NewHistoryEntry(s MetricSnapshot) HistoryEntry {
	return HistoryEntry{
		Timestamp:     s.Timestamp,
		CPU:           s.CPU.Value,
		RAM:           s.RAM.Value,
		Disk:          s.Disk.Value,
		Battery:       s.Battery.Percent,
		BatteryStatus: s.Battery.Status,
	}
}

// timestampLayouts are tried in order. The last one is the zoneless local
// form written by older history files.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func ParseTimestamp(s string) (time.Time, error) {
	for i, layout := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if i == len(timestampLayouts)-1 {
			t, err = time.ParseInLocation(layout, s, time.Local)
		} else {
			t, err = time.Parse(layout, s)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	type alias HistoryEntry
	var raw struct {
		alias
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, err := ParseTimestamp(raw.Timestamp)
	if err != nil {
		return err
	}

	*e = HistoryEntry(raw.alias)
	e.Timestamp = ts
	return nil
}

type Move struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
}

type Failure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// OrganizeResult counts files moved per category. Subcategories are not
// counted separately.
type OrganizeResult struct {
	Counts   map[string]int `json:"counts"`
	Total    int            `json:"total"`
	Moves    []Move         `json:"moves,omitempty"`
	Failures []Failure      `json:"failures,omitempty"`
	DryRun   bool           `json:"dry_run,omitempty"`
}

func NewOrganizeResult() *OrganizeResult {
	return &OrganizeResult{Counts: make(map[string]int)}
}

func (r *OrganizeResult) Record(m Move) {
	r.Counts[m.Category]++
	r.Total++
	r.Moves = append(r.Moves, m)
}

func (r *OrganizeResult) Fail(name string, err error) {
	r.Failures = append(r.Failures, Failure{Name: name, Error: err.Error()})
}
