package browser

import "fmt"

// LoginResult is the outcome of driving a login form.
type LoginResult struct {
	Success    bool   `json:"success"`
	CurrentURL string `json:"current_url"`
	Status     string `json:"status"`
}

// ExtractFormFields lists the fillable fields of the form matching
// formSelector, or of the page's first form when empty.
func (s *Session) ExtractFormFields(formSelector string) ([]FormFieldInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	raw, err := s.page.Evaluate(formFieldScanScript(formSelector))
	if err != nil {
		return nil, fmt.Errorf("form field scan failed: %w", err)
	}
	fields, err := decodeScan[[]FormFieldInfo](raw)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = []FormFieldInfo{}
	}
	return fields, nil
}

// TestLoginForm fills the credentials, submits, and applies a
// heuristic success check. Screenshots are captured before and after
// submission. Success detection looks for logout affordances first,
// then known failure messages, and assumes success otherwise.
func (s *Session) TestLoginForm(usernameSelector, passwordSelector, submitSelector, username, password string) (*LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.page.Fill(usernameSelector, username); err != nil {
		return nil, fmt.Errorf("failed to fill username: %w", err)
	}
	if err := s.page.Fill(passwordSelector, password); err != nil {
		return nil, fmt.Errorf("failed to fill password: %w", err)
	}

	if _, err := s.captureScreenshot("login_form_filled", "", false); err != nil {
		s.log.Warnw("login form screenshot failed", "error", err)
	}

	if err := s.page.Click(submitSelector); err != nil {
		return nil, fmt.Errorf("failed to submit login form: %w", err)
	}
	if err := s.page.WaitForNetworkIdle(); err != nil {
		return nil, fmt.Errorf("page did not settle after login: %w", err)
	}
	s.currentURL = s.page.URL()

	if _, err := s.captureScreenshot("login_result", "", false); err != nil {
		s.log.Warnw("login result screenshot failed", "error", err)
	}

	indicators, err := runScan[loginIndicators](s.page, loginIndicatorScanJS)
	if err != nil {
		return nil, fmt.Errorf("login indicator scan failed: %w", err)
	}

	// Logout affordances win over error text; with neither, assume the
	// navigation succeeded.
	success := true
	if indicators.HasError && !indicators.HasLogout {
		success = false
	}

	status := "login_failed"
	if success {
		status = "login_successful"
	}
	return &LoginResult{
		Success:    success,
		CurrentURL: s.currentURL,
		Status:     status,
	}, nil
}
