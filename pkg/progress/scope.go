package progress

import "fmt"

// Scope reports progress around one named operation: a start update on
// creation, step updates while running, then a success or error update
// when the operation ends. The Go rendition of a context manager: call
// Begin, then defer-or-call End with the operation's error.
type Scope struct {
	tracker     *Tracker
	operation   string
	totalSteps  int
	currentStep int
}

// Begin opens a scope for the named operation and emits its start
// update. totalSteps of zero means step percentages are not computed.
func (t *Tracker) Begin(operation string, totalSteps int) (*Scope, error) {
	scope := &Scope{
		tracker:    t,
		operation:  operation,
		totalSteps: totalSteps,
	}
	if err := t.Info(fmt.Sprintf("Starting %s", operation), nil, nil); err != nil {
		return nil, err
	}
	return scope, nil
}

// Step advances the scope by increment and reports the step message
// with the computed percentage and step counters as metadata.
func (s *Scope) Step(message string, increment int) error {
	s.currentStep += increment

	var pct *float64
	if s.totalSteps > 0 {
		pct = Percent(float64(s.currentStep) / float64(s.totalSteps) * 100)
	}

	return s.tracker.Info(message, pct, map[string]any{
		"step":        s.currentStep,
		"total_steps": s.totalSteps,
	})
}

// End closes the scope. With a nil error it emits the success update;
// otherwise it emits an error update carrying the error text and
// returns the same error so callers can pass failures straight
// through. Side effects of a failed operation may be incomplete.
func (s *Scope) End(err error) error {
	if err != nil {
		reportErr := s.tracker.Error(
			fmt.Sprintf("Error in %s: %v", s.operation, err),
			map[string]any{"exception": err.Error()},
		)
		if reportErr != nil {
			return fmt.Errorf("%w (progress reporting also failed: %v)", err, reportErr)
		}
		return err
	}
	return s.tracker.Success(fmt.Sprintf("Completed %s", s.operation), nil)
}
