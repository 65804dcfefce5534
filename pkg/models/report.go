package models

import (
	"time"
)

type MetricStats struct {
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
}

type HistorySummary struct {
	Count int          `json:"count"`
	First time.Time    `json:"first,omitempty"`
	Last  time.Time    `json:"last,omitempty"`
	CPU   MetricStats  `json:"cpu"`
	RAM   MetricStats  `json:"ram"`
	Disk  MetricStats  `json:"disk"`
	Days  []DailyStats `json:"days,omitempty"`
}

type DailyStats struct {
	Date    string  `json:"date"`
	Samples int     `json:"samples"`
	AvgCPU  float64 `json:"avg_cpu"`
	AvgRAM  float64 `json:"avg_ram"`
	AvgDisk float64 `json:"avg_disk"`
}
