package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/yowainwright/deskcare/internal/core"
	"github.com/yowainwright/deskcare/internal/health"
	"github.com/yowainwright/deskcare/internal/storage"
	"github.com/yowainwright/deskcare/internal/watcher"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"24h", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
		{"90m", 90 * time.Minute},
	}

	for _, tt := range tests {
		got, err := parseDuration(tt.input)
		if err != nil {
			t.Errorf("parseDuration(%q) failed: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if _, err := parseDuration("xd"); err == nil {
		t.Error("Expected error for invalid day count")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range tests {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func historyFixture() []core.HistoryEntry {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var entries []core.HistoryEntry
	for i := 0; i < 5; i++ {
		entries = append(entries, core.HistoryEntry{
			Timestamp:     base.Add(time.Duration(i) * time.Hour),
			CPU:           float64(10 * i),
			RAM:           50,
			Disk:          60,
			Battery:       80,
			BatteryStatus: core.BatteryCharging,
		})
	}
	return entries
}

func TestTailAndSince(t *testing.T) {
	entries := historyFixture()

	if got := tail(entries, 2); len(got) != 2 || got[1].CPU != 40 {
		t.Errorf("Unexpected tail: %+v", got)
	}
	if got := tail(entries, 0); len(got) != 5 {
		t.Errorf("Expected all entries for n=0, got %d", len(got))
	}

	cutoff := entries[2].Timestamp
	if got := since(entries, cutoff); len(got) != 2 {
		t.Errorf("Expected 2 entries after cutoff, got %d", len(got))
	}
}

func TestRenderOrganize(t *testing.T) {
	result := core.NewOrganizeResult()
	result.Record(core.Move{From: "a.pdf", To: "DOCUMENTS/PDF/a.pdf", Category: "DOCUMENTS", Subcategory: "PDF"})
	result.Record(core.Move{From: "b.zip", To: "ARCHIVES/b.zip", Category: "ARCHIVES"})

	var buf bytes.Buffer
	if err := renderOrganize(&buf, result, []string{"DOCUMENTS", "IMAGES", "ARCHIVES", "OTHERS"}, "table"); err != nil {
		t.Fatalf("renderOrganize failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Total files organized: 2") {
		t.Errorf("Missing total in output:\n%s", out)
	}
	if strings.Contains(out, "IMAGES") {
		t.Errorf("Empty categories should be omitted:\n%s", out)
	}
	if strings.Index(out, "DOCUMENTS") > strings.Index(out, "ARCHIVES") {
		t.Errorf("Categories should follow table order:\n%s", out)
	}
}

func TestRenderOrganizeJSON(t *testing.T) {
	result := core.NewOrganizeResult()
	result.Record(core.Move{From: "x", To: "OTHERS/x", Category: "OTHERS"})

	var buf bytes.Buffer
	if err := renderOrganize(&buf, result, nil, "json"); err != nil {
		t.Fatalf("renderOrganize failed: %v", err)
	}

	var decoded core.OrganizeResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not JSON: %v", err)
	}
	if decoded.Total != 1 || decoded.Counts["OTHERS"] != 1 {
		t.Errorf("Unexpected decoded result: %+v", decoded)
	}
}

func sampleReport() watcher.Report {
	snap := core.MetricSnapshot{
		Timestamp:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		CPU:          core.Metric{Value: 95, Available: true},
		RAM:          core.Metric{Value: 91, Available: true},
		Disk:         core.Metric{},
		Battery:      core.BatteryReading{Status: core.BatteryDesktop, Available: true},
		Temperatures: map[string]float64{"coretemp": 51.5},
		Network: core.NetworkStats{
			UploadRate:       2048,
			DownloadRate:     3 << 20,
			Available:        true,
			LatencyMS:        12,
			LatencyAvailable: true,
			Quality:          core.QualityGood,
		},
	}
	eval := health.NewEvaluator(core.DefaultThresholds()).EvaluateSnapshot(snap)
	return watcher.Report{Snapshot: snap, Evaluation: eval}
}

func TestRenderReport(t *testing.T) {
	var buf bytes.Buffer
	if err := renderReport(&buf, sampleReport(), "table"); err != nil {
		t.Fatalf("renderReport failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"95.0%", "N/A", "desktop (no battery)", "51.5°C", "2.0 KB/s", "3.0 MB/s", "12 ms (good)", "2 issues detected", "High RAM usage"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestRenderReportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := renderReport(&buf, sampleReport(), "json"); err != nil {
		t.Fatalf("renderReport failed: %v", err)
	}

	if !strings.Contains(buf.String(), `"severity": "critical"`) {
		t.Errorf("Expected critical severity in JSON:\n%s", buf.String())
	}
}

func TestFormatRate(t *testing.T) {
	tests := map[float64]string{
		0:           "0 B/s",
		512:         "512 B/s",
		1536:        "1.5 KB/s",
		5 * 1 << 20: "5.0 MB/s",
	}
	for input, want := range tests {
		if got := formatRate(input); got != want {
			t.Errorf("formatRate(%v) = %q, want %q", input, got, want)
		}
	}
}

func TestRenderHistoryCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := renderHistory(&buf, historyFixture(), "csv"); err != nil {
		t.Fatalf("renderHistory failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("Expected header plus 5 rows, got %d lines", len(lines))
	}
	if lines[0] != "timestamp,cpu,ram,disk,battery,battery_status" {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if lines[1] != "2024-03-01T10:00:00Z,0.0,50.0,60.0,80.0,charging" {
		t.Errorf("Unexpected first row: %s", lines[1])
	}
}

func TestRenderHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderHistory(&buf, nil, "table")
	if !strings.Contains(buf.String(), "No history recorded") {
		t.Errorf("Expected empty notice, got %q", buf.String())
	}

	buf.Reset()
	renderHistory(&buf, nil, "json")
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("Expected empty JSON array, got %q", buf.String())
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := renderSummary(&buf, storage.Summarize(historyFixture()), "table"); err != nil {
		t.Fatalf("renderSummary failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "5 samples") {
		t.Errorf("Expected sample count:\n%s", out)
	}
	if !strings.Contains(out, "avg  20.0%  max  40.0%") {
		t.Errorf("Expected cpu stats:\n%s", out)
	}
}

func TestRenderConfig(t *testing.T) {
	cfg := core.DefaultConfig()
	values := map[string]string{}
	for _, key := range core.ConfigKeys {
		values[key], _ = cfg.Get(key)
	}

	var buf bytes.Buffer
	renderConfig(&buf, core.ConfigKeys, values)

	if !strings.Contains(buf.String(), "= 80") {
		t.Errorf("Expected default cpu warning in output:\n%s", buf.String())
	}
	if got := strings.Count(buf.String(), "\n"); got != len(core.ConfigKeys) {
		t.Errorf("Expected %d lines, got %d", len(core.ConfigKeys), got)
	}
}

func TestCleanupKeepsRetentionWindow(t *testing.T) {
	dir := t.TempDir()
	cfg := core.DefaultConfig()
	cfg.RetentionDays = 0
	cfg.HistoryFile = filepath.Join(dir, "history.json")

	path := filepath.Join(dir, "config.json")
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	prev := configPath
	configPath = path
	t.Cleanup(func() { configPath = prev })

	history := storage.NewJSONHistory(cfg.HistoryFile, cfg.Retention())
	recent := historyFixture()[0]
	recent.Timestamp = time.Now().Add(-time.Hour)
	if err := history.Append(recent); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	if err := cleanup(cmd, nil); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	if !strings.Contains(buf.String(), "0 entries removed") {
		t.Errorf("Expected nothing removed, got %q", buf.String())
	}
	if got := storage.NewJSONHistory(cfg.HistoryFile, cfg.Retention()).Load(); len(got) != 1 {
		t.Errorf("Expected the recent entry to survive cleanup, got %d entries", len(got))
	}
}
