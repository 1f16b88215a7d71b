package browser

import (
	"fmt"
	"strings"
)

// SecurityIssue is one problem surfaced by the security checks.
type SecurityIssue struct {
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
}

// SecurityResult reports the outcome of the basic security checks.
type SecurityResult struct {
	TransportSecurity struct {
		HTTPS bool `json:"https"`
	} `json:"transport_security"`
	ContentSecurity struct {
		CSP           bool `json:"csp"`
		XFrameOptions bool `json:"x_frame_options"`
	} `json:"content_security"`
	FormSecurity struct {
		Forms []FormSecurityInfo `json:"forms"`
	} `json:"form_security"`
	Issues []SecurityIssue `json:"issues"`
}

// RunSecurityChecks inspects the current page's transport, response
// headers, and forms. The page is re-navigated to read response
// headers. Each problem is recorded as a finding at its severity.
func (s *Session) RunSecurityChecks() (*SecurityResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	result := &SecurityResult{Issues: []SecurityIssue{}}
	currentURL := s.page.URL()

	result.TransportSecurity.HTTPS = strings.HasPrefix(currentURL, "https://")
	if !result.TransportSecurity.HTTPS {
		s.addFinding(SeverityHigh, Finding{
			Type:        "security",
			Description: "Site is not using HTTPS",
			Details:     map[string]any{"url": currentURL},
		})
		result.Issues = append(result.Issues, SecurityIssue{
			Severity:       SeverityHigh,
			Description:    "Site is not using HTTPS",
			Recommendation: "Implement HTTPS for all pages",
		})
	}

	info, err := s.page.Goto(currentURL)
	if err != nil {
		return nil, fmt.Errorf("failed to reload for header inspection: %w", err)
	}

	headers := map[string]string{}
	if info != nil {
		for k, v := range info.Headers {
			headers[strings.ToLower(k)] = v
		}
	}
	headerNames := make([]string, 0, len(headers))
	for name := range headers {
		headerNames = append(headerNames, name)
	}

	_, hasCSP := headers["content-security-policy"]
	result.ContentSecurity.CSP = hasCSP
	if !hasCSP {
		s.addFinding(SeverityMedium, Finding{
			Type:        "security",
			Description: "No Content Security Policy header",
			Details:     map[string]any{"headers": headerNames},
		})
		result.Issues = append(result.Issues, SecurityIssue{
			Severity:       SeverityMedium,
			Description:    "No Content Security Policy header",
			Recommendation: "Implement a Content Security Policy to prevent XSS attacks",
		})
	}

	_, hasXFO := headers["x-frame-options"]
	result.ContentSecurity.XFrameOptions = hasXFO
	if !hasXFO {
		s.addFinding(SeverityLow, Finding{
			Type:        "security",
			Description: "No X-Frame-Options header",
			Details:     map[string]any{"headers": headerNames},
		})
		result.Issues = append(result.Issues, SecurityIssue{
			Severity:       SeverityLow,
			Description:    "No X-Frame-Options header",
			Recommendation: "Add X-Frame-Options header to prevent clickjacking attacks",
		})
	}

	forms, err := runScan[[]FormSecurityInfo](s.page, formSecurityScanJS)
	if err != nil {
		return nil, fmt.Errorf("form security scan failed: %w", err)
	}
	result.FormSecurity.Forms = forms
	for _, form := range forms {
		if form.HasPassword && strings.HasPrefix(form.Action, "http:") {
			s.addFinding(SeverityHigh, Finding{
				Type:        "security",
				Description: "Password form submitting over HTTP",
				Details:     form,
			})
			result.Issues = append(result.Issues, SecurityIssue{
				Severity:       SeverityHigh,
				Description:    "Password form submitting over HTTP",
				Recommendation: "Use HTTPS for all forms with sensitive data",
			})
		}
	}

	return result, nil
}
