package browser

import "fmt"

// AccessibilityIssue is one problem surfaced by the accessibility
// checks.
type AccessibilityIssue struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Element     any      `json:"element,omitempty"`
}

// AccessibilityResult bundles the page's accessible outline with the
// issues found.
type AccessibilityResult struct {
	Snapshot []AriaNode           `json:"snapshot"`
	Issues   []AccessibilityIssue `json:"issues"`
}

// CheckAccessibility scans the current page for accessibility problems
// and records each as a finding.
func (s *Session) CheckAccessibility() (*AccessibilityResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	snapshot, err := runScan[[]AriaNode](s.page, ariaTreeScanJS)
	if err != nil {
		return nil, fmt.Errorf("accessibility snapshot failed: %w", err)
	}

	issues, err := s.runAccessibilityChecks()
	if err != nil {
		return nil, err
	}

	for _, issue := range issues {
		s.addFinding(issue.Severity, Finding{
			Type:        "accessibility",
			Description: issue.Description,
			Details:     issue,
		})
	}

	return &AccessibilityResult{Snapshot: snapshot, Issues: issues}, nil
}

func (s *Session) runAccessibilityChecks() ([]AccessibilityIssue, error) {
	issues := []AccessibilityIssue{}

	noAltImages, err := runScan[[]MissingAltImage](s.page, missingAltScanJS)
	if err != nil {
		return nil, fmt.Errorf("alt text scan failed: %w", err)
	}
	for _, img := range noAltImages {
		issues = append(issues, AccessibilityIssue{
			Type:        "missing_alt_text",
			Severity:    SeverityMedium,
			Description: "Image missing alt text",
			Element:     img,
		})
	}

	unlabeled, err := runScan[[]UnlabeledInput](s.page, unlabeledInputScanJS)
	if err != nil {
		return nil, fmt.Errorf("label scan failed: %w", err)
	}
	for _, input := range unlabeled {
		name := input.Name
		if name == "" {
			name = input.ID
		}
		issues = append(issues, AccessibilityIssue{
			Type:        "missing_label",
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("Input field missing label: %s", name),
			Element:     input,
		})
	}

	return issues, nil
}
