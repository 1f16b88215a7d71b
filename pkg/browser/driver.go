package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Pager is the narrow page surface the session controller drives. The
// DOM scans in scans.go define their inputs and outputs against this
// seam, so the execution mechanism can be swapped (real page in
// production, in-memory fake in tests) without touching the issue
// schemas.
type Pager interface {
	// Goto navigates and waits for network idle. The returned info may
	// be nil when the navigation produced no response (about:blank).
	Goto(url string) (*NavigationInfo, error)

	// Screenshot captures the viewport, or the whole scrollable page
	// when fullPage is set, as PNG bytes.
	Screenshot(fullPage bool) ([]byte, error)

	// ElementScreenshot captures the first element matching selector.
	// Returns ErrElementNotFound when nothing matches.
	ElementScreenshot(selector string) ([]byte, error)

	// Fill sets the value of the input matching selector.
	Fill(selector, value string) error

	// Click clicks the first element matching selector.
	Click(selector string) error

	// WaitForNetworkIdle blocks until the page settles.
	WaitForNetworkIdle() error

	// Evaluate runs a JavaScript expression in the page and returns
	// its JSON-compatible result.
	Evaluate(expression string) (any, error)

	// SetViewportSize resizes the viewport.
	SetViewportSize(width, height int) error

	// URL returns the page's current URL.
	URL() string

	// Title returns the page's current title.
	Title() (string, error)

	// Close closes the page.
	Close() error
}

// NavigationInfo describes the response of a completed navigation.
type NavigationInfo struct {
	Status  int
	OK      bool
	Headers map[string]string
}

// pwPage adapts a playwright page to the Pager interface.
type pwPage struct {
	page    playwright.Page
	timeout float64
}

func newPWPage(page playwright.Page, timeout float64) *pwPage {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &pwPage{page: page, timeout: timeout}
}

func (p *pwPage) Goto(url string) (*NavigationInfo, error) {
	response, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   &p.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("goto failed: %w", err)
	}
	if response == nil {
		return nil, nil
	}

	headers := response.Headers()
	return &NavigationInfo{
		Status:  response.Status(),
		OK:      response.Ok(),
		Headers: headers,
	}, nil
}

func (p *pwPage) Screenshot(fullPage bool) ([]byte, error) {
	data, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: &fullPage,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}

func (p *pwPage) ElementScreenshot(selector string) ([]byte, error) {
	element, err := p.page.QuerySelector(selector)
	if err != nil {
		return nil, fmt.Errorf("selector query failed: %w", err)
	}
	if element == nil {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}

	data, err := element.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("element screenshot failed: %w", err)
	}
	return data, nil
}

func (p *pwPage) Fill(selector, value string) error {
	err := p.page.Fill(selector, value, playwright.PageFillOptions{
		Timeout: &p.timeout,
	})
	if err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

func (p *pwPage) Click(selector string) error {
	err := p.page.Click(selector, playwright.PageClickOptions{
		Timeout: &p.timeout,
	})
	if err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (p *pwPage) WaitForNetworkIdle() error {
	err := p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: &p.timeout,
	})
	if err != nil {
		return fmt.Errorf("wait for network idle failed: %w", err)
	}
	return nil
}

func (p *pwPage) Evaluate(expression string) (any, error) {
	result, err := p.page.Evaluate(expression)
	if err != nil {
		return nil, fmt.Errorf("evaluate failed: %w", err)
	}
	return result, nil
}

func (p *pwPage) SetViewportSize(width, height int) error {
	if err := p.page.SetViewportSize(width, height); err != nil {
		return fmt.Errorf("viewport resize failed: %w", err)
	}
	return nil
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) Title() (string, error) {
	title, err := p.page.Title()
	if err != nil {
		return "", fmt.Errorf("title failed: %w", err)
	}
	return title, nil
}

func (p *pwPage) Close() error {
	return p.page.Close()
}
