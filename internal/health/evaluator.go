// Package health turns a metric reading into a one-line verdict.
package health

import (
	"encoding/json"
	"fmt"

	"github.com/yowainwright/deskcare/internal/core"
)

type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityCritical
)

const HealthyLabel = "All systems healthy"

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "ok":
		*s = SeverityOK
	case "warning":
		*s = SeverityWarning
	case "critical":
		*s = SeverityCritical
	default:
		return fmt.Errorf("unknown severity %q", name)
	}
	return nil
}

type Evaluation struct {
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
	Issues   []string `json:"issues"`
}

func (e Evaluation) Healthy() bool {
	return e.Severity == SeverityOK
}

type Evaluator struct {
	Thresholds core.Thresholds
}

func NewEvaluator(t core.Thresholds) *Evaluator {
	return &Evaluator{Thresholds: t}
}

// Evaluate checks each metric against its threshold. A battery reading of
// zero means no battery and never counts as low.
func (e *Evaluator) Evaluate(cpu, ram, disk, battery float64) Evaluation {
	var issues []string

	if cpu > e.Thresholds.CPUWarning {
		issues = append(issues, fmt.Sprintf("High CPU usage: %.1f%%", cpu))
	}
	if ram > e.Thresholds.RAMWarning {
		issues = append(issues, fmt.Sprintf("High RAM usage: %.1f%%", ram))
	}
	if disk > e.Thresholds.DiskWarning {
		issues = append(issues, fmt.Sprintf("Low disk space: %.1f%% used", disk))
	}
	if battery > 0 && battery < e.Thresholds.BatteryLow {
		issues = append(issues, fmt.Sprintf("Low battery: %.1f%%", battery))
	}

	return verdict(issues)
}

// EvaluateSnapshot ignores metrics that could not be read.
func (e *Evaluator) EvaluateSnapshot(s core.MetricSnapshot) Evaluation {
	value := func(m core.Metric) float64 {
		if !m.Available {
			return 0
		}
		return m.Value
	}

	battery := 0.0
	if s.Battery.Available {
		battery = s.Battery.Percent
	}

	return e.Evaluate(value(s.CPU), value(s.RAM), value(s.Disk), battery)
}

func verdict(issues []string) Evaluation {
	switch len(issues) {
	case 0:
		return Evaluation{Label: HealthyLabel, Severity: SeverityOK, Issues: []string{}}
	case 1:
		return Evaluation{Label: issues[0], Severity: SeverityWarning, Issues: issues}
	default:
		return Evaluation{
			Label:    fmt.Sprintf("%d issues detected", len(issues)),
			Severity: SeverityCritical,
			Issues:   issues,
		}
	}
}
