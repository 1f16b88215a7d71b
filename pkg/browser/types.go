package browser

import (
	"errors"
	"time"
)

// Sentinel errors callers branch on.
var (
	// ErrNotInitialized is returned when an action is attempted on a
	// session whose browser is not running.
	ErrNotInitialized = errors.New("browser session not initialized")

	// ErrSessionNotFound is returned by the manager for unknown names.
	ErrSessionNotFound = errors.New("session not found")

	// ErrElementNotFound is returned when a selector matches nothing.
	ErrElementNotFound = errors.New("element not found")

	// ErrNavigationBlocked is returned when a URL fails the session's
	// allowlist.
	ErrNavigationBlocked = errors.New("navigation blocked by allowlist")
)

// Severity classifies a finding.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
	SeverityInfo   Severity = "info"
)

// Severities lists every severity bucket in display order. A session's
// findings map always carries exactly these keys.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// Finding is a discovered issue accumulated for reporting.
type Finding struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Details     any    `json:"details,omitempty"`
}

// ScreenshotType describes what a screenshot captured.
type ScreenshotType string

const (
	ScreenshotViewport ScreenshotType = "viewport"
	ScreenshotFullPage ScreenshotType = "full_page"
	ScreenshotElement  ScreenshotType = "element"
)

// Screenshot is one captured image, stored base64-encoded.
type Screenshot struct {
	Name     string         `json:"name"`
	Type     ScreenshotType `json:"type"`
	Selector string         `json:"selector,omitempty"`
	Data     string         `json:"data"`
}

// Viewport represents browser viewport dimensions.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Breakpoint is a named viewport size used for responsive testing.
type Breakpoint struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// DefaultBreakpoints covers the common device classes.
var DefaultBreakpoints = []Breakpoint{
	{Name: "mobile", Width: 375, Height: 667},
	{Name: "tablet", Width: 768, Height: 1024},
	{Name: "desktop", Width: 1920, Height: 1080},
}

// FormField pairs a selector with the value to fill. Fields are filled
// in slice order.
type FormField struct {
	Selector string `json:"selector"`
	Value    string `json:"value"`
}

// Options configures a new browser session.
type Options struct {
	// Headless controls whether the browser runs without a window.
	Headless bool

	// Viewport sets the initial viewport size.
	Viewport *Viewport

	// UserAgent overrides the browser's user agent when non-empty.
	UserAgent string

	// Locale sets the browser locale when non-empty.
	Locale string

	// Timeout is the default timeout for page operations, in
	// milliseconds. Zero means DefaultTimeout.
	Timeout float64

	// AllowedURLPatterns restricts navigation to URLs matching at
	// least one glob pattern. Empty means all URLs are allowed.
	AllowedURLPatterns []string
}

// SessionInfo contains metadata about an active session.
type SessionInfo struct {
	Name       string    `json:"name"`
	CurrentURL string    `json:"current_url"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Default values for session operations.
const (
	DefaultTimeout        = 30000.0 // milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 5

	// MinTapTargetPx is the minimum recommended tap target dimension.
	MinTapTargetPx = 44

	// OverflowTolerancePx is how far an element may extend past the
	// viewport before it counts as horizontal overflow.
	OverflowTolerancePx = 5

	// MobileMaxWidthPx is the widest viewport still scanned for tap
	// target sizes.
	MobileMaxWidthPx = 768
)
