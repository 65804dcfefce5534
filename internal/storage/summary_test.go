package storage

import (
	"testing"
	"time"

	"github.com/yowainwright/deskcare/internal/core"
)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)

	if s.Count != 0 || !s.First.IsZero() || len(s.Days) != 0 {
		t.Errorf("Expected zero summary, got %+v", s)
	}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	entries := []core.HistoryEntry{
		{Timestamp: base, CPU: 10, RAM: 40, Disk: 70},
		{Timestamp: base.Add(time.Hour), CPU: 30, RAM: 60, Disk: 70},
		{Timestamp: base.Add(24 * time.Hour), CPU: 50, RAM: 50, Disk: 71},
	}

	s := Summarize(entries)

	if s.Count != 3 {
		t.Errorf("Expected count 3, got %d", s.Count)
	}
	if !s.First.Equal(base) || !s.Last.Equal(base.Add(24*time.Hour)) {
		t.Errorf("Unexpected range %v..%v", s.First, s.Last)
	}
	if s.CPU.Avg != 30 || s.CPU.Max != 50 {
		t.Errorf("Unexpected cpu stats %+v", s.CPU)
	}
	if s.RAM.Avg != 50 || s.RAM.Max != 60 {
		t.Errorf("Unexpected ram stats %+v", s.RAM)
	}
	if s.Disk.Avg != 70.3 || s.Disk.Max != 71 {
		t.Errorf("Unexpected disk stats %+v", s.Disk)
	}

	if len(s.Days) != 2 {
		t.Fatalf("Expected 2 days, got %d", len(s.Days))
	}
	if s.Days[0].Date != "2024-03-01" || s.Days[0].Samples != 2 || s.Days[0].AvgCPU != 20 {
		t.Errorf("Unexpected first day %+v", s.Days[0])
	}
	if s.Days[1].Samples != 1 || s.Days[1].AvgCPU != 50 {
		t.Errorf("Unexpected second day %+v", s.Days[1])
	}
}
