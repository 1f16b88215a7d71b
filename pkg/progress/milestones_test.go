package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExploratoryTracker_MilestonesMonotonic(t *testing.T) {
	tracker := Exploratory(NewTracker(nil))

	require.NoError(t, tracker.NavigationStarted("https://example.com"))
	require.NoError(t, tracker.PageLoaded())
	require.NoError(t, tracker.AnalyzingStructure())
	require.NoError(t, tracker.TestingInteractions(3))
	for i := 1; i <= 3; i++ {
		require.NoError(t, tracker.ElementTested("button", i, 3))
	}
	require.NoError(t, tracker.GeneratingReport())
	require.NoError(t, tracker.Completed(2))

	previous := 0.0
	for _, u := range tracker.Updates() {
		require.NotNil(t, u.Progress, "milestone %q must carry a percentage", u.Message)
		assert.GreaterOrEqual(t, *u.Progress, previous, "milestone %q", u.Message)
		previous = *u.Progress
	}
	assert.Equal(t, 100.0, previous)

	final := tracker.Updates()[len(tracker.Updates())-1]
	assert.Equal(t, LevelSuccess, final.Level)
	assert.Equal(t, 2, final.Metadata["findings_count"])
}

func TestExploratoryTracker_ElementRange(t *testing.T) {
	tracker := Exploratory(NewTracker(nil))

	require.NoError(t, tracker.ElementTested("link", 1, 4))
	require.NoError(t, tracker.ElementTested("link", 4, 4))

	updates := tracker.Updates()
	assert.Equal(t, 50.0, *updates[0].Progress)
	assert.Equal(t, 80.0, *updates[1].Progress)
}

func TestAccessibilityTracker_MilestonesMonotonic(t *testing.T) {
	tracker := Accessibility(NewTracker(nil))

	require.NoError(t, tracker.CheckingWCAGCompliance("2.1 AA"))
	require.NoError(t, tracker.TestingKeyboardNavigation())
	require.NoError(t, tracker.CheckingAriaLabels())
	require.NoError(t, tracker.TestingColorContrast())
	require.NoError(t, tracker.Completed(0))

	previous := 0.0
	for _, u := range tracker.Updates() {
		require.NotNil(t, u.Progress)
		assert.GreaterOrEqual(t, *u.Progress, previous)
		previous = *u.Progress
	}
	assert.Equal(t, 100.0, previous)
}

func TestAccessibilityTracker_IssueFound(t *testing.T) {
	tracker := Accessibility(NewTracker(nil))

	require.NoError(t, tracker.IssueFound("missing_alt_text", "medium"))

	updates := tracker.Updates()
	require.Len(t, updates, 1)
	assert.Equal(t, LevelWarning, updates[0].Level)
	assert.Nil(t, updates[0].Progress)
	assert.Equal(t, "medium", updates[0].Metadata["severity"])
	assert.Equal(t, "missing_alt_text", updates[0].Metadata["issue_type"])
}

func TestChannelSink_DeliversInOrder(t *testing.T) {
	ch := make(chan Update, 8)
	tracker := NewTracker(NewChannelSink(ch))

	require.NoError(t, tracker.Info("one", nil, nil))
	require.NoError(t, tracker.Info("two", nil, nil))
	require.NoError(t, tracker.Info("three", nil, nil))
	close(ch)

	var got []string
	for u := range ch {
		got = append(got, u.Message)
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
}
