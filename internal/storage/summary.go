package storage

import (
	"math"

	"github.com/yowainwright/deskcare/internal/core"
	"github.com/yowainwright/deskcare/pkg/models"
)

// Summarize computes averages and peaks over entries, which must be sorted
// ascending. Days are listed oldest first, keyed by local date.
func Summarize(entries []core.HistoryEntry) models.HistorySummary {
	summary := models.HistorySummary{Count: len(entries)}
	if len(entries) == 0 {
		return summary
	}

	summary.First = entries[0].Timestamp
	summary.Last = entries[len(entries)-1].Timestamp

	var cpu, ram, disk float64
	var day *models.DailyStats
	for _, e := range entries {
		cpu += e.CPU
		ram += e.RAM
		disk += e.Disk
		summary.CPU.Max = math.Max(summary.CPU.Max, e.CPU)
		summary.RAM.Max = math.Max(summary.RAM.Max, e.RAM)
		summary.Disk.Max = math.Max(summary.Disk.Max, e.Disk)

		date := e.Timestamp.Local().Format("2006-01-02")
		if day == nil || day.Date != date {
			if day != nil {
				summary.Days = append(summary.Days, finishDay(*day))
			}
			day = &models.DailyStats{Date: date}
		}
		day.Samples++
		day.AvgCPU += e.CPU
		day.AvgRAM += e.RAM
		day.AvgDisk += e.Disk
	}
	summary.Days = append(summary.Days, finishDay(*day))

	n := float64(len(entries))
	summary.CPU.Avg = round1(cpu / n)
	summary.RAM.Avg = round1(ram / n)
	summary.Disk.Avg = round1(disk / n)

	return summary
}

// finishDay turns the running sums into averages.
func finishDay(d models.DailyStats) models.DailyStats {
	n := float64(d.Samples)
	d.AvgCPU = round1(d.AvgCPU / n)
	d.AvgRAM = round1(d.AvgRAM / n)
	d.AvgDisk = round1(d.AvgDisk / n)
	return d
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
