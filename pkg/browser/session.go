package browser

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/playwright-community/playwright-go"

	"github.com/aj-geddes/tinaa-playwright-msp/pkg/logging"
)

// Session is one live browser page plus everything accumulated while
// testing it. Findings and screenshots persist across operations so a
// report can be assembled at any point.
type Session struct {
	mu   sync.Mutex
	name string
	opts Options
	page Pager

	browser playwright.Browser
	context playwright.BrowserContext

	createdAt  time.Time
	lastUsedAt time.Time
	currentURL string

	viewport Viewport

	allow []glob.Glob

	findings      map[Severity][]Finding
	screenshots   []Screenshot
	consoleErrors []string
	pageErrors    []string

	log *logging.Logger
}

func newSession(name string, opts Options, page Pager, log *logging.Logger) (*Session, error) {
	if opts.Viewport == nil {
		opts.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}

	allow := make([]glob.Glob, 0, len(opts.AllowedURLPatterns))
	for _, pattern := range opts.AllowedURLPatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid URL pattern %q: %w", pattern, err)
		}
		allow = append(allow, g)
	}

	now := time.Now()
	s := &Session{
		name:       name,
		opts:       opts,
		page:       page,
		createdAt:  now,
		lastUsedAt: now,
		currentURL: "about:blank",
		viewport:   *opts.Viewport,
		allow:      allow,
		findings:   emptyFindings(),
		log:        log,
	}
	return s, nil
}

// emptyFindings returns a findings map with every severity bucket
// present and empty.
func emptyFindings() map[Severity][]Finding {
	m := make(map[Severity][]Finding, len(Severities))
	for _, sev := range Severities {
		m[sev] = []Finding{}
	}
	return m
}

// Name returns the session's registry name.
func (s *Session) Name() string { return s.name }

// LastUsedAt returns when the session last served an operation.
func (s *Session) LastUsedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsedAt
}

// Title returns the current page title.
func (s *Session) Title() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.page.Title()
}

// CurrentURL returns the URL of the last successful navigation.
func (s *Session) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentURL
}

// Info returns a point-in-time snapshot of the session's metadata.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		Name:       s.name,
		CurrentURL: s.currentURL,
		CreatedAt:  s.createdAt,
		LastUsedAt: s.lastUsedAt,
	}
}

func (s *Session) touch() {
	s.lastUsedAt = time.Now()
}

// allowed reports whether url passes the session's allowlist. An empty
// allowlist permits everything.
func (s *Session) allowed(url string) bool {
	if len(s.allow) == 0 {
		return true
	}
	for _, g := range s.allow {
		if g.Match(url) {
			return true
		}
	}
	return false
}

// Navigate loads url, waits for network idle, and captures a
// "page_load" screenshot on success.
func (s *Session) Navigate(url string) (*NavigationInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if !s.allowed(url) {
		return nil, fmt.Errorf("%w: %s", ErrNavigationBlocked, url)
	}

	info, err := s.page.Goto(url)
	if err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	s.currentURL = s.page.URL()
	s.log.Infow("navigated", "url", url)

	if _, err := s.captureScreenshot("page_load", "", false); err != nil {
		s.log.Warnw("page load screenshot failed", "error", err)
	}
	return info, nil
}

// TakeScreenshot captures the page, or a single element when selector
// is non-empty, and records it in the session's screenshot log.
func (s *Session) TakeScreenshot(name, selector string, fullPage bool) (*Screenshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.captureScreenshot(name, selector, fullPage)
}

func (s *Session) captureScreenshot(name, selector string, fullPage bool) (*Screenshot, error) {
	var (
		data     []byte
		shotType ScreenshotType
		err      error
	)
	if selector != "" {
		data, err = s.page.ElementScreenshot(selector)
		shotType = ScreenshotElement
	} else {
		data, err = s.page.Screenshot(fullPage)
		shotType = ScreenshotViewport
		if fullPage {
			shotType = ScreenshotFullPage
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot %q: %w", name, err)
	}

	shot := Screenshot{
		Name:     name,
		Type:     shotType,
		Selector: selector,
		Data:     base64.StdEncoding.EncodeToString(data),
	}
	s.screenshots = append(s.screenshots, shot)
	return &shot, nil
}

// FillForm fills each field in order, then clicks submitSelector when
// non-empty, waits for the page to settle, and captures a
// "form_submission" screenshot.
func (s *Session) FillForm(fields []FormField, submitSelector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	for _, field := range fields {
		if err := s.page.Fill(field.Selector, field.Value); err != nil {
			return fmt.Errorf("failed to fill field %s: %w", field.Selector, err)
		}
		s.log.Debugw("filled field", "selector", field.Selector)
	}

	if submitSelector == "" {
		return nil
	}

	if err := s.page.Click(submitSelector); err != nil {
		return fmt.Errorf("failed to click submit %s: %w", submitSelector, err)
	}
	if err := s.page.WaitForNetworkIdle(); err != nil {
		return fmt.Errorf("page did not settle after submit: %w", err)
	}
	s.currentURL = s.page.URL()

	if _, err := s.captureScreenshot("form_submission", "", false); err != nil {
		s.log.Warnw("form submission screenshot failed", "error", err)
	}
	return nil
}

// addFinding records a finding under severity, defaulting unknown
// severities to medium.
func (s *Session) addFinding(severity Severity, f Finding) {
	if _, ok := s.findings[severity]; !ok {
		severity = SeverityMedium
	}
	s.findings[severity] = append(s.findings[severity], f)
}

// Findings returns a copy of the findings map. Every severity bucket
// is present even when empty.
func (s *Session) Findings() map[Severity][]Finding {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[Severity][]Finding, len(s.findings))
	for sev, list := range s.findings {
		out[sev] = append([]Finding{}, list...)
	}
	return out
}

// Screenshots returns a copy of the accumulated screenshot log.
func (s *Session) Screenshots() []Screenshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Screenshot{}, s.screenshots...)
}

// ConsoleErrors returns console error messages captured since the
// session started.
func (s *Session) ConsoleErrors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.consoleErrors...)
}

// PageErrors returns uncaught page exceptions captured since the
// session started.
func (s *Session) PageErrors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.pageErrors...)
}

// ResetFindings clears all findings and screenshots, keeping the page
// open for a fresh test run.
func (s *Session) ResetFindings() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings = emptyFindings()
	s.screenshots = nil
}

func (s *Session) recordConsoleError(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consoleErrors = append(s.consoleErrors, text)
}

func (s *Session) recordPageError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageErrors = append(s.pageErrors, err.Error())
}

// shutdown closes the page and its browser. Close errors are ignored
// so teardown always completes.
func (s *Session) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.page.Close()
	if s.context != nil {
		_ = s.context.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
}
