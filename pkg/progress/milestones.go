package progress

import "fmt"

// Milestone trackers layer a fixed vocabulary of named events over the
// base tracker. Each event reports a hand-tuned percentage for a known
// milestone of that test type; percentages are monotonically
// non-decreasing in the order the test type defines. Adding a new test
// type means adding a new vocabulary, not changing the base tracker.

// ExploratoryTracker is the milestone vocabulary for exploratory tests.
type ExploratoryTracker struct {
	*Tracker
}

// Exploratory wraps a tracker with the exploratory-test vocabulary.
func Exploratory(t *Tracker) *ExploratoryTracker {
	return &ExploratoryTracker{Tracker: t}
}

func (t *ExploratoryTracker) NavigationStarted(url string) error {
	return t.Info(fmt.Sprintf("Navigating to %s", url), Percent(10), nil)
}

func (t *ExploratoryTracker) PageLoaded() error {
	return t.Info("Page loaded successfully", Percent(20), nil)
}

func (t *ExploratoryTracker) AnalyzingStructure() error {
	return t.Info("Analyzing page structure", Percent(30), nil)
}

func (t *ExploratoryTracker) TestingInteractions(totalElements int) error {
	return t.Info(
		fmt.Sprintf("Testing interactions with %d elements", totalElements),
		Percent(40),
		map[string]any{"total_elements": totalElements},
	)
}

// ElementTested reports one tested element; element testing spans the
// 40-80% range of the overall run.
func (t *ExploratoryTracker) ElementTested(elementType string, index, total int) error {
	pct := 40.0
	if total > 0 {
		pct = 40 + float64(index)/float64(total)*40
	}
	return t.Info(
		fmt.Sprintf("Testing %s (%d/%d)", elementType, index, total),
		Percent(pct),
		nil,
	)
}

func (t *ExploratoryTracker) GeneratingReport() error {
	return t.Info("Generating test report", Percent(90), nil)
}

func (t *ExploratoryTracker) Completed(findingsCount int) error {
	return t.successWithPct(
		fmt.Sprintf("Exploratory test completed with %d findings", findingsCount),
		Percent(100),
		map[string]any{"findings_count": findingsCount},
	)
}

// AccessibilityTracker is the milestone vocabulary for accessibility
// tests.
type AccessibilityTracker struct {
	*Tracker
}

// Accessibility wraps a tracker with the accessibility-test vocabulary.
func Accessibility(t *Tracker) *AccessibilityTracker {
	return &AccessibilityTracker{Tracker: t}
}

func (t *AccessibilityTracker) CheckingWCAGCompliance(level string) error {
	return t.Info(fmt.Sprintf("Checking WCAG %s compliance", level), Percent(20), nil)
}

func (t *AccessibilityTracker) TestingKeyboardNavigation() error {
	return t.Info("Testing keyboard navigation", Percent(40), nil)
}

func (t *AccessibilityTracker) CheckingAriaLabels() error {
	return t.Info("Checking ARIA labels and roles", Percent(60), nil)
}

func (t *AccessibilityTracker) TestingColorContrast() error {
	return t.Info("Testing color contrast ratios", Percent(80), nil)
}

// IssueFound reports a discovered issue. It carries no percentage:
// issues can surface at any point in the run.
func (t *AccessibilityTracker) IssueFound(issueType, severity string) error {
	return t.Warning(
		fmt.Sprintf("Accessibility issue found: %s", issueType),
		map[string]any{"severity": severity, "issue_type": issueType},
	)
}

func (t *AccessibilityTracker) Completed(issuesCount int) error {
	return t.successWithPct(
		"Accessibility test completed",
		Percent(100),
		map[string]any{"issues_count": issuesCount},
	)
}
