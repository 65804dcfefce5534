package notify

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/yowainwright/deskcare/internal/core"
	"github.com/yowainwright/deskcare/internal/health"
)

type recordingNotifier struct {
	calls   int
	title   string
	message string
	timeout time.Duration
	err     error
}

func (r *recordingNotifier) Notify(title, message string, timeout time.Duration) error {
	r.calls++
	r.title = title
	r.message = message
	r.timeout = timeout
	return r.err
}

func sampleSnapshot() core.MetricSnapshot {
	return core.MetricSnapshot{
		Timestamp: time.Now(),
		CPU:       core.Metric{Value: 95, Available: true},
		RAM:       core.Metric{Value: 40.2, Available: true},
		Battery:   core.BatteryReading{Percent: 64, Status: core.BatteryCharging, Available: true},
	}
}

func TestHealthMessage(t *testing.T) {
	eval := health.Evaluation{Label: "High CPU usage: 95.0%", Severity: health.SeverityWarning}

	msg := HealthMessage(sampleSnapshot(), eval)

	for _, want := range []string{"CPU: 95.0%", "RAM: 40.2%", "Disk: N/A", "Battery: 64% (charging)", "Status: High CPU usage: 95.0%"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected message to contain %q, got:\n%s", want, msg)
		}
	}
}

func TestHealthMessageDesktop(t *testing.T) {
	snap := sampleSnapshot()
	snap.Battery = core.BatteryReading{Status: core.BatteryDesktop, Available: true}

	msg := HealthMessage(snap, health.Evaluation{Label: health.HealthyLabel})
	if strings.Contains(msg, "Battery") {
		t.Errorf("Desktop machines should not report a battery line, got:\n%s", msg)
	}
}

func TestDispatch(t *testing.T) {
	n := &recordingNotifier{}

	Dispatch(n, true, nil, DefaultTitle, "hello")

	if n.calls != 1 || n.title != DefaultTitle || n.message != "hello" {
		t.Errorf("Unexpected notification: %+v", n)
	}
	if n.timeout != DefaultTimeout {
		t.Errorf("Expected timeout %v, got %v", DefaultTimeout, n.timeout)
	}
}

func TestDispatchDisabled(t *testing.T) {
	n := &recordingNotifier{}

	Dispatch(n, false, nil, DefaultTitle, "hello")

	if n.calls != 0 {
		t.Error("Disabled notifications must not be sent")
	}
}

func TestDispatchIgnoresErrors(t *testing.T) {
	n := &recordingNotifier{err: errors.New("no notification daemon")}

	// Must not panic with or without a logger.
	Dispatch(n, true, nil, DefaultTitle, "hello")
	Dispatch(nil, true, nil, DefaultTitle, "hello")

	if n.calls != 1 {
		t.Errorf("Expected one attempt, got %d", n.calls)
	}
}

func TestNop(t *testing.T) {
	if err := (Nop{}).Notify("a", "b", time.Second); err != nil {
		t.Errorf("Nop should never fail, got %v", err)
	}
}

func TestNewDesktopRegistersAppName(t *testing.T) {
	prev := beeep.AppName
	t.Cleanup(func() { beeep.AppName = prev })

	d := NewDesktop("deskcare-test")
	if beeep.AppName != "deskcare-test" || d.AppName != "deskcare-test" {
		t.Errorf("Expected app name registered, got beeep=%q desktop=%q", beeep.AppName, d.AppName)
	}

	if d := NewDesktop(""); d.AppName != "deskcare-test" {
		t.Errorf("Empty name should keep the current app name, got %q", d.AppName)
	}
}
