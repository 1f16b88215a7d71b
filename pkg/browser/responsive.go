package browser

import "fmt"

// LayoutIssue is one layout problem observed at a breakpoint.
type LayoutIssue struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Breakpoint  string   `json:"breakpoint,omitempty"`
	Details     any      `json:"details,omitempty"`
}

// BreakpointResult is the outcome of testing one viewport size.
type BreakpointResult struct {
	Name       string        `json:"name"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Screenshot string        `json:"screenshot,omitempty"`
	Issues     []LayoutIssue `json:"issues"`
}

// ResponsiveResult aggregates all breakpoint outcomes.
type ResponsiveResult struct {
	Breakpoints []BreakpointResult `json:"breakpoints"`
	Issues      []LayoutIssue      `json:"issues"`
}

// CheckResponsiveDesign reloads the current page at each breakpoint,
// captures a screenshot, and scans for layout problems. Each problem
// is recorded as a medium finding tagged with its breakpoint.
func (s *Session) CheckResponsiveDesign(breakpoints []Breakpoint) (*ResponsiveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if len(breakpoints) == 0 {
		breakpoints = DefaultBreakpoints
	}

	currentURL := s.page.URL()
	result := &ResponsiveResult{
		Breakpoints: []BreakpointResult{},
		Issues:      []LayoutIssue{},
	}

	for _, bp := range breakpoints {
		if err := s.page.SetViewportSize(bp.Width, bp.Height); err != nil {
			return nil, fmt.Errorf("failed to resize to %s: %w", bp.Name, err)
		}
		s.viewport = Viewport{Width: bp.Width, Height: bp.Height}

		// Reload so media queries and responsive scripts apply cleanly.
		if _, err := s.page.Goto(currentURL); err != nil {
			return nil, fmt.Errorf("failed to reload at %s: %w", bp.Name, err)
		}

		bpResult := BreakpointResult{
			Name:   bp.Name,
			Width:  bp.Width,
			Height: bp.Height,
			Issues: []LayoutIssue{},
		}

		shot, err := s.captureScreenshot(fmt.Sprintf("breakpoint_%s", bp.Name), "", false)
		if err != nil {
			s.log.Warnw("breakpoint screenshot failed", "breakpoint", bp.Name, "error", err)
		} else {
			bpResult.Screenshot = shot.Data
		}

		issues, err := s.checkLayoutIssues(bp.Width)
		if err != nil {
			return nil, fmt.Errorf("layout scan failed at %s: %w", bp.Name, err)
		}
		for i := range issues {
			issues[i].Breakpoint = bp.Name
		}
		bpResult.Issues = issues
		result.Breakpoints = append(result.Breakpoints, bpResult)

		for _, issue := range issues {
			result.Issues = append(result.Issues, issue)

			s.addFinding(SeverityMedium, Finding{
				Type:        "responsive",
				Description: fmt.Sprintf("Responsive issue at %s breakpoint: %s", bp.Name, issue.Description),
				Details:     issue,
			})
		}
	}

	return result, nil
}

func (s *Session) checkLayoutIssues(viewportWidth int) ([]LayoutIssue, error) {
	issues := []LayoutIssue{}

	overflowing, err := runScan[[]OverflowingElement](s.page, overflowScanJS)
	if err != nil {
		return nil, fmt.Errorf("overflow scan failed: %w", err)
	}
	for _, el := range overflowing {
		desc := fmt.Sprintf("Element overflows horizontally by %.0fpx", el.Difference)
		if el.Element == "body" {
			desc = fmt.Sprintf("Page content overflows horizontally by %.0fpx", el.Difference)
		}
		issues = append(issues, LayoutIssue{
			Type:        "horizontal_overflow",
			Severity:    SeverityMedium,
			Description: desc,
			Details:     el,
		})
	}

	if viewportWidth <= MobileMaxWidthPx {
		smallTargets, err := runScan[[]SmallTapTarget](s.page, tapTargetScanJS)
		if err != nil {
			return nil, fmt.Errorf("tap target scan failed: %w", err)
		}
		for _, target := range smallTargets {
			issues = append(issues, LayoutIssue{
				Type:        "small_tap_target",
				Severity:    SeverityMedium,
				Description: fmt.Sprintf("Tap target is too small: %.0fx%.0fpx", target.Width, target.Height),
				Details:     target,
			})
		}
	}

	return issues, nil
}
