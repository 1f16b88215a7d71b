package progress

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectSink records every published update in order.
func collectSink(collected *[]Update) Sink {
	return SinkFunc(func(u Update) error {
		*collected = append(*collected, u)
		return nil
	})
}

func TestTracker_UpdatesPreserveOrder(t *testing.T) {
	var received []Update
	tracker := NewTracker(collectSink(&received))

	require.NoError(t, tracker.Info("first", nil, nil))
	require.NoError(t, tracker.Warning("second", nil))
	require.NoError(t, tracker.Error("third", nil))
	require.NoError(t, tracker.Success("fourth", nil))

	messages := func(updates []Update) []string {
		out := make([]string, len(updates))
		for i, u := range updates {
			out[i] = u.Message
		}
		return out
	}

	want := []string{"first", "second", "third", "fourth"}
	assert.Equal(t, want, messages(received))
	assert.Equal(t, want, messages(tracker.Updates()))

	levels := []Level{LevelInfo, LevelWarning, LevelError, LevelSuccess}
	for i, u := range tracker.Updates() {
		assert.Equal(t, levels[i], u.Level)
	}
}

func TestTracker_SinkErrorPropagates(t *testing.T) {
	sinkErr := errors.New("connection closed")
	tracker := NewTracker(SinkFunc(func(Update) error { return sinkErr }))

	err := tracker.Info("doomed", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, sinkErr)

	// The update is still retained in the log.
	assert.Len(t, tracker.Updates(), 1)
}

func TestTracker_NilSink(t *testing.T) {
	tracker := NewTracker(nil)

	require.NoError(t, tracker.Info("no transport attached", nil, nil))
	assert.Len(t, tracker.Updates(), 1)
}

func TestTracker_PhaseProgress(t *testing.T) {
	tracker := NewTracker(nil)

	require.NoError(t, tracker.StartPhase("one", 4))
	assert.Equal(t, "one", tracker.CurrentPhase())

	updates := tracker.Updates()
	require.Len(t, updates, 1)
	require.NotNil(t, updates[0].Progress)
	assert.Equal(t, 0.0, *updates[0].Progress)

	require.NoError(t, tracker.CompletePhase("one"))
	require.NoError(t, tracker.StartPhase("two", 0))
	require.NoError(t, tracker.CompletePhase("two"))

	updates = tracker.Updates()
	require.Len(t, updates, 4)

	// complete one: 1/4, start two keeps denominator: 1/4, complete two: 2/4.
	require.NotNil(t, updates[1].Progress)
	assert.Equal(t, 25.0, *updates[1].Progress)
	require.NotNil(t, updates[2].Progress)
	assert.Equal(t, 25.0, *updates[2].Progress)
	require.NotNil(t, updates[3].Progress)
	assert.Equal(t, 50.0, *updates[3].Progress)

	assert.Equal(t, 2, tracker.PhasesCompleted())
}

func TestTracker_PhaseProgressAbsentWithoutTotal(t *testing.T) {
	tracker := NewTracker(nil)

	require.NoError(t, tracker.StartPhase("untracked", 0))
	require.NoError(t, tracker.CompletePhase("untracked"))

	for _, u := range tracker.Updates() {
		assert.Nil(t, u.Progress)
	}
}

func TestTracker_PhasesCompletedOnlyIncreases(t *testing.T) {
	tracker := NewTracker(nil)
	require.NoError(t, tracker.StartPhase("p", 2))

	previous := 0
	for i := 0; i < 5; i++ {
		require.NoError(t, tracker.CompletePhase("p"))
		current := tracker.PhasesCompleted()
		assert.Greater(t, current, previous)
		previous = current
	}
}

func TestTracker_Summary(t *testing.T) {
	tracker := NewTracker(nil)

	require.NoError(t, tracker.StartPhase("checks", 2))
	require.NoError(t, tracker.Info("working", Percent(10), nil))
	require.NoError(t, tracker.CompletePhase("checks"))

	summary := tracker.Summary()
	assert.Equal(t, 3, summary.TotalUpdates)
	assert.Len(t, summary.Updates, 3)
	assert.Equal(t, 1, summary.PhasesCompleted)
	assert.Equal(t, 2, summary.TotalPhases)
	assert.Equal(t, "checks", summary.CurrentPhase)
	assert.GreaterOrEqual(t, summary.ElapsedTime, 0.0)
}

func TestTracker_MetadataCarried(t *testing.T) {
	tracker := NewTracker(nil)

	require.NoError(t, tracker.Info("with metadata", nil, map[string]any{
		"url": "https://example.com",
	}))

	updates := tracker.Updates()
	require.Len(t, updates, 1)
	assert.Equal(t, "https://example.com", updates[0].Metadata["url"])
}
