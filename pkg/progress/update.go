// Package progress turns long-running browser operations into an ordered
// stream of typed, percent-annotated updates. A Tracker accumulates the
// updates for one logical operation and forwards each one to an optional
// Sink; the transport layer drains the sink and pushes the updates to
// clients.
package progress

import (
	"encoding/json"
	"time"
)

// Level indicates the severity of a progress update.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
	LevelDebug   Level = "debug"
)

// Update is a single progress report. It is immutable once created and
// is retained in the tracker's log for the tracker's lifetime.
type Update struct {
	Message   string
	Level     Level
	Timestamp time.Time
	// Progress is a percentage in [0, 100], or nil when the update
	// carries no overall completion estimate.
	Progress *float64
	Metadata map[string]any
}

// NewUpdate creates an update stamped with the current time.
func NewUpdate(message string, level Level, pct *float64, metadata map[string]any) Update {
	return Update{
		Message:   message,
		Level:     level,
		Timestamp: time.Now(),
		Progress:  pct,
		Metadata:  metadata,
	}
}

// Percent wraps a percentage value for the Progress field.
func Percent(v float64) *float64 {
	return &v
}

// updateWire is the serialized shape pushed to transports. progress and
// metadata are omitted entirely when absent, not sent as null.
type updateWire struct {
	Message   string         `json:"message"`
	Level     Level          `json:"level"`
	Timestamp string         `json:"timestamp"`
	Progress  *float64       `json:"progress,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// MarshalJSON serializes the update, omitting progress and metadata when
// they were not supplied.
func (u Update) MarshalJSON() ([]byte, error) {
	wire := updateWire{
		Message:   u.Message,
		Level:     u.Level,
		Timestamp: u.Timestamp.Format(time.RFC3339Nano),
		Progress:  u.Progress,
	}
	if len(u.Metadata) > 0 {
		wire.Metadata = u.Metadata
	}
	return json.Marshal(wire)
}

// ToMap returns the update in its serialized map shape.
func (u Update) ToMap() map[string]any {
	result := map[string]any{
		"message":   u.Message,
		"level":     string(u.Level),
		"timestamp": u.Timestamp.Format(time.RFC3339Nano),
	}
	if u.Progress != nil {
		result["progress"] = *u.Progress
	}
	if len(u.Metadata) > 0 {
		result["metadata"] = u.Metadata
	}
	return result
}
