// Package notify delivers health summaries as desktop notifications.
package notify

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/yowainwright/deskcare/internal/core"
	"github.com/yowainwright/deskcare/internal/health"
)

const (
	DefaultTitle   = "System Health"
	DefaultTimeout = 10 * time.Second
)

type Notifier interface {
	Notify(title, message string, timeout time.Duration) error
}

// Desktop posts through the platform notification service. The timeout is
// advisory: the OS decides how long the banner stays up.
type Desktop struct {
	AppName string
}

// NewDesktop registers appName with beeep once. An empty name keeps
// beeep's default.
func NewDesktop(appName string) *Desktop {
	if appName != "" {
		beeep.AppName = appName
	}
	return &Desktop{AppName: beeep.AppName}
}

func (d *Desktop) Notify(title, message string, timeout time.Duration) error {
	if err := beeep.Notify(title, message, ""); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

type Nop struct{}

func (Nop) Notify(string, string, time.Duration) error { return nil }

// HealthMessage formats the notification body for a reading.
func HealthMessage(s core.MetricSnapshot, e health.Evaluation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CPU: %s | RAM: %s | Disk: %s\n",
		formatMetric(s.CPU), formatMetric(s.RAM), formatMetric(s.Disk))

	if s.Battery.Available && s.Battery.Status != core.BatteryDesktop {
		fmt.Fprintf(&b, "Battery: %.0f%% (%s)\n", s.Battery.Percent, s.Battery.Status)
	}

	b.WriteString("Status: ")
	b.WriteString(e.Label)
	return b.String()
}

func formatMetric(m core.Metric) string {
	if !m.Available {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", m.Value)
}

// Dispatch sends the notification when enabled. Delivery failures are
// logged and otherwise ignored.
func Dispatch(n Notifier, enabled bool, logger *slog.Logger, title, message string) {
	if !enabled || n == nil {
		return
	}
	if err := n.Notify(title, message, DefaultTimeout); err != nil && logger != nil {
		logger.Debug("notification not delivered", "error", err)
	}
}
