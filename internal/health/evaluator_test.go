package health

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/yowainwright/deskcare/internal/core"
)

func TestEvaluate(t *testing.T) {
	e := NewEvaluator(core.DefaultThresholds())

	tests := []struct {
		name                 string
		cpu, ram, disk, batt float64
		wantSeverity         Severity
		wantIssues           int
		wantLabel            string
	}{
		{"healthy", 50, 50, 50, 80, SeverityOK, 0, HealthyLabel},
		{"high cpu", 95, 50, 50, 80, SeverityWarning, 1, "High CPU usage: 95.0%"},
		{"three issues", 95, 95, 50, 10, SeverityCritical, 3, "3 issues detected"},
		{"all thresholds exactly", 80, 85, 90, 20, SeverityOK, 0, HealthyLabel},
		{"no battery", 10, 10, 10, 0, SeverityOK, 0, HealthyLabel},
		{"low disk", 10, 10, 91, 50, SeverityWarning, 1, "Low disk space: 91.0% used"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(tt.cpu, tt.ram, tt.disk, tt.batt)

			if got.Severity != tt.wantSeverity {
				t.Errorf("Expected severity %s, got %s", tt.wantSeverity, got.Severity)
			}
			if len(got.Issues) != tt.wantIssues {
				t.Errorf("Expected %d issues, got %v", tt.wantIssues, got.Issues)
			}
			if got.Label != tt.wantLabel {
				t.Errorf("Expected label %q, got %q", tt.wantLabel, got.Label)
			}
		})
	}
}

func TestEvaluateCustomThresholds(t *testing.T) {
	e := NewEvaluator(core.Thresholds{CPUWarning: 10, RAMWarning: 100, DiskWarning: 100, BatteryLow: 50})

	got := e.Evaluate(11, 50, 50, 49)
	if got.Severity != SeverityCritical || len(got.Issues) != 2 {
		t.Fatalf("Expected 2 issues, got %+v", got)
	}
	if !strings.HasPrefix(got.Issues[0], "High CPU") || !strings.HasPrefix(got.Issues[1], "Low battery") {
		t.Errorf("Issues out of order: %v", got.Issues)
	}
}

func TestEvaluateSnapshotSkipsUnavailable(t *testing.T) {
	e := NewEvaluator(core.DefaultThresholds())

	snap := core.UnavailableSnapshot(time.Now())
	snap.CPU = core.Metric{Value: 99, Available: false}
	snap.RAM = core.Metric{Value: 99, Available: true}
	snap.Battery = core.BatteryReading{Percent: 5, Status: core.BatteryUnavailable}

	got := e.EvaluateSnapshot(snap)
	if got.Severity != SeverityWarning || got.Label != "High RAM usage: 99.0%" {
		t.Errorf("Expected only the RAM issue, got %+v", got)
	}
}

func TestSeverityJSON(t *testing.T) {
	data, err := json.Marshal(Evaluation{Label: HealthyLabel, Severity: SeverityCritical, Issues: []string{}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"severity":"critical"`) {
		t.Errorf("Expected severity as a string, got %s", data)
	}

	var back Evaluation
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Severity != SeverityCritical {
		t.Errorf("Expected critical, got %s", back.Severity)
	}

	var s Severity
	if err := json.Unmarshal([]byte(`"fatal"`), &s); err == nil {
		t.Error("Expected error for unknown severity")
	}
}

func TestHealthy(t *testing.T) {
	if !verdict(nil).Healthy() {
		t.Error("No issues should be healthy")
	}
	if verdict([]string{"x"}).Healthy() {
		t.Error("One issue should not be healthy")
	}
}
