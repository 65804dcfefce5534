package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/yowainwright/deskcare/internal/core"
	"github.com/yowainwright/deskcare/internal/health"
	"github.com/yowainwright/deskcare/internal/metrics"
	"github.com/yowainwright/deskcare/internal/watcher"
	"github.com/yowainwright/deskcare/pkg/models"
)

var labelStyle = lipgloss.NewStyle().Width(14).Foreground(lipgloss.Color("241"))

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderOrganize(w io.Writer, result *core.OrganizeResult, categories []string, format string) error {
	if format == "json" {
		return encodeJSON(w, result)
	}

	title := "Organization Complete"
	if result.DryRun {
		title = "Dry Run"
	}
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w)

	if result.Total == 0 && len(result.Failures) == 0 {
		fmt.Fprintln(w, infoStyle.Render("No files to organize"))
		return nil
	}

	for _, category := range categories {
		if count := result.Counts[category]; count > 0 {
			fmt.Fprintf(w, "%s %d\n", labelStyle.Render(category+":"), count)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("Total files organized: %d", result.Total)))

	if len(result.Failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("%d files could not be moved:", len(result.Failures))))
		for _, f := range result.Failures {
			fmt.Fprintf(w, "  %s %s\n", f.Name, subtitleStyle.Render(f.Error))
		}
	}

	return nil
}

func severityStyle(s health.Severity) lipgloss.Style {
	switch s {
	case health.SeverityOK:
		return successStyle
	case health.SeverityWarning:
		return warningStyle
	default:
		return errorStyle
	}
}

func metricText(m core.Metric) string {
	if !m.Available {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", m.Value)
}

func batteryText(b core.BatteryReading) string {
	switch {
	case !b.Available:
		return "N/A"
	case b.Status == core.BatteryDesktop:
		return "desktop (no battery)"
	default:
		return fmt.Sprintf("%.0f%% (%s)", b.Percent, b.Status)
	}
}

func formatRate(bytesPerSec float64) string {
	switch {
	case bytesPerSec >= 1<<20:
		return fmt.Sprintf("%.1f MB/s", bytesPerSec/(1<<20))
	case bytesPerSec >= 1<<10:
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/(1<<10))
	default:
		return fmt.Sprintf("%.0f B/s", bytesPerSec)
	}
}

func networkText(n core.NetworkStats) (throughput, latency string) {
	throughput = "N/A"
	if n.Available {
		throughput = fmt.Sprintf("↑ %s  ↓ %s", formatRate(n.UploadRate), formatRate(n.DownloadRate))
	}

	latency = string(n.Quality)
	if n.LatencyAvailable {
		latency = fmt.Sprintf("%d ms (%s)", n.LatencyMS, n.Quality)
	}
	return throughput, latency
}

func renderReport(w io.Writer, report watcher.Report, format string) error {
	if format == "json" {
		return encodeJSON(w, report)
	}

	snap := report.Snapshot
	eval := report.Evaluation

	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("System Health"), subtitleStyle.Render(snap.Timestamp.Format("2006-01-02 15:04:05")))
	fmt.Fprintln(w)

	row := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label), value)
	}

	row("CPU:", metricText(snap.CPU))
	row("RAM:", metricText(snap.RAM))
	row("Disk:", metricText(snap.Disk))
	row("Battery:", batteryText(snap.Battery))

	for _, sensor := range metrics.SortedSensors(snap.Temperatures) {
		row(sensor+":", fmt.Sprintf("%.1f°C", snap.Temperatures[sensor]))
	}

	throughput, latency := networkText(snap.Network)
	row("Network:", throughput)
	row("Latency:", latency)

	fmt.Fprintln(w)
	fmt.Fprintln(w, severityStyle(eval.Severity).Render(eval.Label))
	if len(eval.Issues) > 1 {
		for _, issue := range eval.Issues {
			fmt.Fprintf(w, "  • %s\n", issue)
		}
	}

	return nil
}

func renderHistory(w io.Writer, entries []core.HistoryEntry, format string) error {
	switch format {
	case "json":
		if entries == nil {
			entries = []core.HistoryEntry{}
		}
		return encodeJSON(w, entries)

	case "csv":
		cw := csv.NewWriter(w)
		cw.Write([]string{"timestamp", "cpu", "ram", "disk", "battery", "battery_status"})
		for _, e := range entries {
			cw.Write([]string{
				e.Timestamp.Format(time.RFC3339),
				strconv.FormatFloat(e.CPU, 'f', 1, 64),
				strconv.FormatFloat(e.RAM, 'f', 1, 64),
				strconv.FormatFloat(e.Disk, 'f', 1, 64),
				strconv.FormatFloat(e.Battery, 'f', 1, 64),
				string(e.BatteryStatus),
			})
		}
		cw.Flush()
		return cw.Error()

	default: // table
		if len(entries) == 0 {
			fmt.Fprintln(w, infoStyle.Render("No history recorded"))
			return nil
		}

		fmt.Fprintln(w, titleStyle.Render("Health History"))
		fmt.Fprintln(w)
		fmt.Fprintln(w, subtitleStyle.Render(fmt.Sprintf("%-19s  %6s  %6s  %6s  %s", "Time", "CPU", "RAM", "Disk", "Battery")))

		for _, e := range entries {
			fmt.Fprintf(w, "%-19s  %5.1f%%  %5.1f%%  %5.1f%%  %.0f%% (%s)\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.CPU, e.RAM, e.Disk, e.Battery, e.BatteryStatus,
			)
		}
	}

	return nil
}

func renderSummary(w io.Writer, s models.HistorySummary, format string) error {
	if format == "json" {
		return encodeJSON(w, s)
	}

	if s.Count == 0 {
		fmt.Fprintln(w, infoStyle.Render("No history recorded"))
		return nil
	}

	fmt.Fprintln(w, titleStyle.Render("History Summary"))
	fmt.Fprintln(w, subtitleStyle.Render(fmt.Sprintf("%d samples, %s to %s",
		s.Count,
		s.First.Local().Format("2006-01-02 15:04"),
		s.Last.Local().Format("2006-01-02 15:04"),
	)))
	fmt.Fprintln(w)

	stat := func(label string, m models.MetricStats) {
		fmt.Fprintf(w, "%s avg %5.1f%%  max %5.1f%%\n", labelStyle.Render(label), m.Avg, m.Max)
	}
	stat("CPU:", s.CPU)
	stat("RAM:", s.RAM)
	stat("Disk:", s.Disk)

	if len(s.Days) > 1 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, subtitleStyle.Render("Daily averages:"))
		for _, d := range s.Days {
			fmt.Fprintf(w, "  %s  cpu %5.1f%%  ram %5.1f%%  disk %5.1f%%  (%d samples)\n",
				d.Date, d.AvgCPU, d.AvgRAM, d.AvgDisk, d.Samples)
		}
	}

	return nil
}

func renderConfig(w io.Writer, keys []string, values map[string]string) error {
	for _, key := range keys {
		fmt.Fprintf(w, "%s = %s\n", infoStyle.Render(key), values[key])
	}
	return nil
}
