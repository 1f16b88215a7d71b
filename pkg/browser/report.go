package browser

import (
	"fmt"
	"time"
)

// Report is the assembled outcome of a test run against one URL.
type Report struct {
	TestType             string                 `json:"test_type"`
	URL                  string                 `json:"url"`
	Summary              string                 `json:"summary"`
	Date                 string                 `json:"date"`
	Browser              string                 `json:"browser"`
	Viewport             string                 `json:"viewport"`
	Device               string                 `json:"device"`
	HighPriorityIssues   []string               `json:"high_priority_issues"`
	MediumPriorityIssues []string               `json:"medium_priority_issues"`
	LowPriorityIssues    []string               `json:"low_priority_issues"`
	Recommendations      []string               `json:"recommendations"`
	Screenshots          []string               `json:"screenshots"`
	NextSteps            []string               `json:"next_steps"`
	RawFindings          map[Severity][]Finding `json:"raw_findings"`
	RawScreenshots       []Screenshot           `json:"raw_screenshots"`
}

// GetTestReport assembles a report from everything the session has
// accumulated so far.
func (s *Session) GetTestReport(testType, url string) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	userAgent := ""
	if raw, err := s.page.Evaluate(userAgentJS); err == nil {
		if ua, ok := raw.(string); ok {
			userAgent = ua
		}
	}

	high := numberedDescriptions(s.findings[SeverityHigh])
	medium := numberedDescriptions(s.findings[SeverityMedium])
	low := numberedDescriptions(s.findings[SeverityLow])

	var recommendations []string
	if len(s.findings[SeverityHigh]) > 0 {
		recommendations = append(recommendations, "High Priority Fixes:")
		for _, issue := range s.findings[SeverityHigh] {
			recommendations = append(recommendations, fmt.Sprintf("- Fix %s", issue.Description))
		}
	}
	if len(s.findings[SeverityMedium]) > 0 {
		recommendations = append(recommendations, "Medium Priority Improvements:")
		mediums := s.findings[SeverityMedium]
		if len(mediums) > 5 {
			mediums = mediums[:5]
		}
		for _, issue := range mediums {
			recommendations = append(recommendations, fmt.Sprintf("- Address %s", issue.Description))
		}
	}

	var nextSteps []string
	if len(s.findings[SeverityHigh]) > 0 || len(s.findings[SeverityMedium]) > 0 {
		nextSteps = append(nextSteps,
			"1. Address the identified issues starting with high-priority items",
			"2. Run focused tests on problematic areas after fixes")
	} else {
		nextSteps = append(nextSteps,
			"1. Run additional test types to ensure comprehensive coverage")
	}
	nextSteps = append(nextSteps,
		"3. Consider implementing automated testing for regression prevention")

	var shotLines []string
	shots := s.screenshots
	if len(shots) > 5 {
		shots = shots[:5]
	}
	for i, shot := range shots {
		shotLines = append(shotLines, fmt.Sprintf("%d. %s (%s)", i+1, shot.Name, shot.Type))
	}

	summary := fmt.Sprintf("Tested %s using %s methodology. ", url, testType)
	totalIssues := len(s.findings[SeverityHigh]) + len(s.findings[SeverityMedium]) + len(s.findings[SeverityLow])
	if totalIssues == 0 {
		summary += "No issues were found."
	} else {
		summary += fmt.Sprintf("Found %d issues (%d high, %d medium, %d low priority).",
			totalIssues,
			len(s.findings[SeverityHigh]),
			len(s.findings[SeverityMedium]),
			len(s.findings[SeverityLow]))
	}

	rawFindings := make(map[Severity][]Finding, len(s.findings))
	for sev, list := range s.findings {
		rawFindings[sev] = append([]Finding{}, list...)
	}

	return &Report{
		TestType:             testType,
		URL:                  url,
		Summary:              summary,
		Date:                 time.Now().Format("2006-01-02"),
		Browser:              userAgent,
		Viewport:             fmt.Sprintf("%dx%d", s.viewport.Width, s.viewport.Height),
		Device:               "Desktop",
		HighPriorityIssues:   high,
		MediumPriorityIssues: medium,
		LowPriorityIssues:    low,
		Recommendations:      recommendations,
		Screenshots:          shotLines,
		NextSteps:            nextSteps,
		RawFindings:          rawFindings,
		RawScreenshots:       append([]Screenshot{}, s.screenshots...),
	}, nil
}

func numberedDescriptions(findings []Finding) []string {
	out := make([]string, 0, len(findings))
	for i, f := range findings {
		out = append(out, fmt.Sprintf("%d. %s", i+1, f.Description))
	}
	return out
}
