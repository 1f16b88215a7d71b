package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/aj-geddes/tinaa-playwright-msp/pkg/logging"
)

// Tracker accumulates progress updates for one logical operation (one
// playbook run, one test request). Trackers are cheap: create one per
// operation and discard it afterwards; never share a tracker across
// unrelated operations.
type Tracker struct {
	mu              sync.Mutex
	sink            Sink
	updates         []Update
	startTime       time.Time
	currentPhase    string
	phasesCompleted int
	totalPhases     int
	log             *logging.Logger
}

// NewTracker creates a tracker. sink may be nil when no transport is
// attached; updates are still logged and retained.
func NewTracker(sink Sink) *Tracker {
	return &Tracker{
		sink:      sink,
		startTime: time.Now(),
		log:       logging.New("progress"),
	}
}

// Update records a progress update, forwards it to the sink, and writes
// a log line. The only error path is a failing sink, which propagates
// to the caller.
func (t *Tracker) Update(message string, level Level, pct *float64, metadata map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emit(message, level, pct, metadata)
}

// emit must be called with the mutex held so the log order and the sink
// delivery order match the call order exactly.
func (t *Tracker) emit(message string, level Level, pct *float64, metadata map[string]any) error {
	update := NewUpdate(message, level, pct, metadata)
	t.updates = append(t.updates, update)

	t.logLine(update)

	if t.sink != nil {
		if err := t.sink.Publish(update); err != nil {
			return fmt.Errorf("progress sink failed: %w", err)
		}
	}
	return nil
}

func (t *Tracker) logLine(u Update) {
	line := u.Message
	if u.Progress != nil {
		line = fmt.Sprintf("%s (%.0f%%)", line, *u.Progress)
	}
	switch u.Level {
	case LevelWarning:
		t.log.Warnf("%s", line)
	case LevelError:
		t.log.Errorf("%s", line)
	case LevelDebug:
		t.log.Debugf("%s", line)
	default:
		t.log.Infof("%s", line)
	}
}

// Info reports an informational update with an optional percentage.
func (t *Tracker) Info(message string, pct *float64, metadata map[string]any) error {
	return t.Update(message, LevelInfo, pct, metadata)
}

// Warning reports a warning.
func (t *Tracker) Warning(message string, metadata map[string]any) error {
	return t.Update(message, LevelWarning, nil, metadata)
}

// Error reports an error.
func (t *Tracker) Error(message string, metadata map[string]any) error {
	return t.Update(message, LevelError, nil, metadata)
}

// Success reports a success.
func (t *Tracker) Success(message string, metadata map[string]any) error {
	return t.Update(message, LevelSuccess, nil, metadata)
}

// successWithPct is used by milestone trackers whose completion events
// carry a fixed percentage.
func (t *Tracker) successWithPct(message string, pct *float64, metadata map[string]any) error {
	return t.Update(message, LevelSuccess, pct, metadata)
}

// StartPhase begins a new coarse-grained phase. A non-zero totalPhases
// resets the phase denominator; the emitted update carries the phase
// name and counters as metadata plus the current overall percentage
// when the denominator is known.
func (t *Tracker) StartPhase(name string, totalPhases int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.currentPhase = name
	if totalPhases > 0 {
		t.totalPhases = totalPhases
	}

	return t.emit(
		fmt.Sprintf("Starting phase: %s", name),
		LevelInfo,
		t.phaseProgress(),
		map[string]any{
			"phase":            name,
			"phases_completed": t.phasesCompleted,
			"total_phases":     t.totalPhases,
		},
	)
}

// CompletePhase marks a phase as finished, advancing the phase counter.
func (t *Tracker) CompletePhase(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.phasesCompleted++

	return t.emit(
		fmt.Sprintf("Completed phase: %s", name),
		LevelSuccess,
		t.phaseProgress(),
		map[string]any{
			"phase":            name,
			"phases_completed": t.phasesCompleted,
			"total_phases":     t.totalPhases,
		},
	)
}

// phaseProgress computes the phase-based percentage; nil when the total
// is unknown. Callers must hold the mutex.
func (t *Tracker) phaseProgress() *float64 {
	if t.totalPhases <= 0 {
		return nil
	}
	return Percent(float64(t.phasesCompleted) / float64(t.totalPhases) * 100)
}

// ElapsedTime returns the time since the tracker was created.
func (t *Tracker) ElapsedTime() time.Duration {
	return time.Since(t.startTime)
}

// Updates returns a copy of the update log in emit order.
func (t *Tracker) Updates() []Update {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Update, len(t.updates))
	copy(out, t.updates)
	return out
}

// PhasesCompleted returns the number of completed phases.
func (t *Tracker) PhasesCompleted() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phasesCompleted
}

// CurrentPhase returns the name of the phase most recently started.
func (t *Tracker) CurrentPhase() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentPhase
}

// Summary reports the tracker's full state for inclusion in results.
type Summary struct {
	TotalUpdates    int      `json:"total_updates"`
	ElapsedTime     float64  `json:"elapsed_time"`
	PhasesCompleted int      `json:"phases_completed"`
	TotalPhases     int      `json:"total_phases"`
	CurrentPhase    string   `json:"current_phase,omitempty"`
	Updates         []Update `json:"updates"`
}

// Summary returns the serializable summary of all activity so far. This
// is the only state the tracker exposes for reporting.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	updates := make([]Update, len(t.updates))
	copy(updates, t.updates)

	return Summary{
		TotalUpdates:    len(updates),
		ElapsedTime:     time.Since(t.startTime).Seconds(),
		PhasesCompleted: t.phasesCompleted,
		TotalPhases:     t.totalPhases,
		CurrentPhase:    t.currentPhase,
		Updates:         updates,
	}
}
