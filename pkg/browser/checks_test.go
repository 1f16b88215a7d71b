package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scanDispatcher routes scan scripts to canned results by matching
// distinctive fragments of each scan's source.
func scanDispatcher(results map[string]any) func(string) (any, error) {
	return func(script string) (any, error) {
		for fragment, result := range results {
			if strings.Contains(script, fragment) {
				return result, nil
			}
		}
		return nil, nil
	}
}

func TestCheckAccessibility(t *testing.T) {
	pager := newFakePager()
	pager.evalFn = scanDispatcher(map[string]any{
		"walk(document.body": []any{
			map[string]any{"role": "heading", "name": "Welcome", "depth": 1},
		},
		"querySelectorAll('img')": []any{
			map[string]any{
				"element": "img", "src": "/logo.png",
				"location": map[string]any{"x": 10.0, "y": 20.0},
			},
		},
		"aria-labelledby": []any{
			map[string]any{
				"element": "input", "type": "text", "name": "search",
				"location": map[string]any{"x": 0.0, "y": 0.0},
			},
		},
	})
	s := testSession(t, pager, Options{})

	result, err := s.CheckAccessibility()
	require.NoError(t, err)

	require.Len(t, result.Snapshot, 1)
	assert.Equal(t, "heading", result.Snapshot[0].Role)

	require.Len(t, result.Issues, 2)
	assert.Equal(t, "missing_alt_text", result.Issues[0].Type)
	assert.Equal(t, SeverityMedium, result.Issues[0].Severity)
	assert.Equal(t, "missing_label", result.Issues[1].Type)
	assert.Equal(t, "Input field missing label: search", result.Issues[1].Description)

	findings := s.Findings()
	require.Len(t, findings[SeverityMedium], 2)
	assert.Equal(t, "accessibility", findings[SeverityMedium][0].Type)
}

func TestCheckAccessibilityCleanPage(t *testing.T) {
	s := testSession(t, newFakePager(), Options{})

	result, err := s.CheckAccessibility()
	require.NoError(t, err)
	assert.Empty(t, result.Issues)
	for _, list := range s.Findings() {
		assert.Empty(t, list)
	}
}

func TestCheckResponsiveDesign(t *testing.T) {
	pager := newFakePager()
	pager.url = "https://example.com"
	pager.evalFn = scanDispatcher(map[string]any{
		"scrollWidth": []any{
			map[string]any{
				"element": "div", "width": 400.0, "right": 395.0,
				"windowWidth": 375.0, "difference": 20.0,
			},
		},
		"MIN_TAP_SIZE": []any{
			map[string]any{
				"element": "button", "width": 20.0, "height": 20.0, "text": "OK",
			},
		},
	})
	s := testSession(t, pager, Options{})

	result, err := s.CheckResponsiveDesign(DefaultBreakpoints)
	require.NoError(t, err)
	require.Len(t, result.Breakpoints, 3)

	// Every breakpoint reloads the original URL at its viewport size.
	assert.Len(t, pager.gotoCalls, 3)
	for _, call := range pager.gotoCalls {
		assert.Equal(t, "https://example.com", call)
	}
	assert.Equal(t, []Viewport{
		{Width: 375, Height: 667},
		{Width: 768, Height: 1024},
		{Width: 1920, Height: 1080},
	}, pager.viewports)

	// Overflow fires everywhere; tap targets only at mobile widths.
	mobile := result.Breakpoints[0]
	assert.Equal(t, "mobile", mobile.Name)
	require.Len(t, mobile.Issues, 2)
	for _, issue := range mobile.Issues {
		assert.Equal(t, "mobile", issue.Breakpoint)
	}

	desktop := result.Breakpoints[2]
	require.Len(t, desktop.Issues, 1)
	assert.Equal(t, "horizontal_overflow", desktop.Issues[0].Type)
	assert.Equal(t, "desktop", desktop.Issues[0].Breakpoint)

	// The flat list carries the same tags.
	require.Len(t, result.Issues, 5)
	assert.Equal(t, "mobile", result.Issues[0].Breakpoint)
	assert.Equal(t, "desktop", result.Issues[4].Breakpoint)

	// All issues land in the medium findings bucket with breakpoints.
	findings := s.Findings()
	assert.Len(t, findings[SeverityMedium], 5)
	assert.Contains(t, findings[SeverityMedium][0].Description, "mobile breakpoint")

	names := []string{}
	for _, shot := range s.Screenshots() {
		names = append(names, shot.Name)
	}
	assert.Equal(t, []string{"breakpoint_mobile", "breakpoint_tablet", "breakpoint_desktop"}, names)
}

func TestCheckResponsiveDesignDefaultsBreakpoints(t *testing.T) {
	pager := newFakePager()
	pager.url = "https://example.com"
	s := testSession(t, pager, Options{})

	result, err := s.CheckResponsiveDesign(nil)
	require.NoError(t, err)
	assert.Len(t, result.Breakpoints, len(DefaultBreakpoints))
	assert.Empty(t, result.Issues)
}

func TestRunSecurityChecksInsecureSite(t *testing.T) {
	pager := newFakePager()
	pager.url = "http://insecure.test"
	pager.gotoInfo = &NavigationInfo{Status: 200, OK: true, Headers: map[string]string{
		"Content-Type": "text/html",
	}}
	pager.evalFn = scanDispatcher(map[string]any{
		"hasPassword": []any{
			map[string]any{"action": "http://insecure.test/login", "method": "post", "hasPassword": true},
		},
	})
	s := testSession(t, pager, Options{})

	result, err := s.RunSecurityChecks()
	require.NoError(t, err)

	assert.False(t, result.TransportSecurity.HTTPS)
	assert.False(t, result.ContentSecurity.CSP)
	assert.False(t, result.ContentSecurity.XFrameOptions)
	require.Len(t, result.Issues, 4)

	findings := s.Findings()
	assert.Len(t, findings[SeverityHigh], 2)
	assert.Len(t, findings[SeverityMedium], 1)
	assert.Len(t, findings[SeverityLow], 1)
}

func TestRunSecurityChecksSecureSite(t *testing.T) {
	pager := newFakePager()
	pager.url = "https://secure.test"
	pager.gotoInfo = &NavigationInfo{Status: 200, OK: true, Headers: map[string]string{
		"Content-Security-Policy": "default-src 'self'",
		"X-Frame-Options":         "DENY",
	}}
	s := testSession(t, pager, Options{})

	result, err := s.RunSecurityChecks()
	require.NoError(t, err)

	assert.True(t, result.TransportSecurity.HTTPS)
	assert.True(t, result.ContentSecurity.CSP)
	assert.True(t, result.ContentSecurity.XFrameOptions)
	assert.Empty(t, result.Issues)
	for _, list := range s.Findings() {
		assert.Empty(t, list)
	}
}

func TestGetTestReportNoIssues(t *testing.T) {
	pager := newFakePager()
	pager.evalFn = scanDispatcher(map[string]any{
		"navigator.userAgent": "TestBrowser/1.0",
	})
	s := testSession(t, pager, Options{Viewport: &Viewport{Width: 1280, Height: 720}})

	report, err := s.GetTestReport("exploratory", "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, "Tested https://example.com using exploratory methodology. No issues were found.", report.Summary)
	assert.Equal(t, "TestBrowser/1.0", report.Browser)
	assert.Equal(t, "1280x720", report.Viewport)
	assert.Empty(t, report.HighPriorityIssues)
	require.NotEmpty(t, report.NextSteps)
	assert.Contains(t, report.NextSteps[0], "additional test types")
}

func TestGetTestReportWithFindings(t *testing.T) {
	s := testSession(t, newFakePager(), Options{})

	s.addFinding(SeverityHigh, Finding{Type: "security", Description: "Site is not using HTTPS"})
	s.addFinding(SeverityMedium, Finding{Type: "accessibility", Description: "Image missing alt text"})
	s.addFinding(SeverityMedium, Finding{Type: "responsive", Description: "Tap target is too small"})
	s.addFinding(SeverityLow, Finding{Type: "security", Description: "No X-Frame-Options header"})

	report, err := s.GetTestReport("security", "https://example.com")
	require.NoError(t, err)

	assert.Contains(t, report.Summary, "Found 4 issues (1 high, 2 medium, 1 low priority).")
	assert.Equal(t, []string{"1. Site is not using HTTPS"}, report.HighPriorityIssues)
	assert.Len(t, report.MediumPriorityIssues, 2)
	assert.Equal(t, "1. Image missing alt text", report.MediumPriorityIssues[0])

	require.NotEmpty(t, report.Recommendations)
	assert.Equal(t, "High Priority Fixes:", report.Recommendations[0])
	assert.Equal(t, "- Fix Site is not using HTTPS", report.Recommendations[1])
	assert.Contains(t, report.NextSteps[0], "high-priority")

	// Raw findings keep every severity bucket.
	assert.Len(t, report.RawFindings, 4)
}

func TestGetTestReportScreenshotLimit(t *testing.T) {
	pager := newFakePager()
	s := testSession(t, pager, Options{})

	for i := 0; i < 7; i++ {
		_, err := s.TakeScreenshot("shot", "", false)
		require.NoError(t, err)
	}

	report, err := s.GetTestReport("exploratory", "https://example.com")
	require.NoError(t, err)
	assert.Len(t, report.Screenshots, 5)
	assert.Len(t, report.RawScreenshots, 7)
}
