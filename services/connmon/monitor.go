// Package connmon tracks connectivity and backend health as one combined
// state, raising a notification only when something actually changes.
package connmon

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"nova/utils/logging"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is ephemeral UI feedback; nothing is persisted.
type Notification struct {
	Message  string
	Severity Severity
	Duration time.Duration
}

// Notifier receives fire-and-forget state-change notifications.
type Notifier func(Notification)

// DisplayDuration is how long a client should keep a notification visible.
const DisplayDuration = 3 * time.Second

type State struct {
	Online  bool
	Healthy bool
}

// Monitor is process-wide shared state: one instance observes every network
// outcome regardless of which session produced it.
type Monitor struct {
	mu      sync.Mutex
	online  bool
	healthy bool
	notify  Notifier
}

func NewMonitor(notify Notifier) *Monitor {
	if notify == nil {
		notify = func(n Notification) {
			logging.AppLogger.Info("connection notification",
				zap.String("message", n.Message),
				zap.String("severity", string(n.Severity)))
		}
	}
	return &Monitor{online: true, healthy: true, notify: notify}
}

// SetOnline records a connectivity signal. Unlike the health transitions
// this is edge-triggered on the signal itself: every call notifies, even
// when the flag does not change.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	m.online = online
	m.mu.Unlock()

	if online {
		m.notify(Notification{
			Message:  "Conexión restaurada",
			Severity: SeveritySuccess,
			Duration: DisplayDuration,
		})
	} else {
		m.notify(Notification{
			Message:  "Sin conexión a internet",
			Severity: SeverityError,
			Duration: DisplayDuration,
		})
	}
}

// MarkHealthy records a healthy backend probe. No-op unless the stored flag
// flips, which keeps repeated confirmations from renotifying.
func (m *Monitor) MarkHealthy() {
	m.mu.Lock()
	changed := !m.healthy
	m.healthy = true
	m.mu.Unlock()

	if changed {
		m.notify(Notification{
			Message:  "Servidor conectado",
			Severity: SeveritySuccess,
			Duration: DisplayDuration,
		})
	}
}

// MarkUnhealthy records a failed backend probe; same dedup rule as
// MarkHealthy.
func (m *Monitor) MarkUnhealthy() {
	m.mu.Lock()
	changed := m.healthy
	m.healthy = false
	m.mu.Unlock()

	if changed {
		m.notify(Notification{
			Message:  "Problemas de conexión con el servidor",
			Severity: SeverityWarning,
			Duration: DisplayDuration,
		})
	}
}

// State returns the combined snapshot.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{Online: m.online, Healthy: m.healthy}
}
