package browser

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/aj-geddes/tinaa-playwright-msp/pkg/logging"
)

// Manager owns the Playwright runtime and the registry of named
// sessions. All methods are safe for concurrent use.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	playwright  *playwright.Playwright
	maxSessions int
	initialized bool
	log         *logging.Logger
}

// NewManager creates a manager with the default session cap.
func NewManager() *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		maxSessions: DefaultMaxSessions,
		log:         logging.New("browser"),
	}
}

// SetMaxSessions overrides the maximum number of concurrent sessions.
func (m *Manager) SetMaxSessions(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if max > 0 {
		m.maxSessions = max
	}
}

// Initialize installs browser binaries if needed and starts the
// Playwright driver. It must be called before StartSession and is
// idempotent.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	// Driver output would interleave with our own logs.
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	m.log.Info("playwright initialized")
	return nil
}

// StartSession launches a browser and registers a new session under
// name. The name must be unused and the session cap not yet reached.
func (m *Manager) StartSession(name string, opts Options) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, ErrNotInitialized
	}
	if _, exists := m.sessions[name]; exists {
		return nil, fmt.Errorf("session %q already exists", name)
	}
	if len(m.sessions) >= m.maxSessions {
		return nil, fmt.Errorf("maximum number of sessions (%d) reached", m.maxSessions)
	}

	if opts.Viewport == nil {
		opts.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	browser, err := m.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	}
	if opts.UserAgent != "" {
		contextOpts.UserAgent = &opts.UserAgent
	}
	if opts.Locale != "" {
		contextOpts.Locale = &opts.Locale
	}
	context, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(opts.Timeout)

	session, err := newSession(name, opts, newPWPage(page, opts.Timeout), m.log)
	if err != nil {
		page.Close()
		context.Close()
		browser.Close()
		return nil, err
	}
	session.browser = browser
	session.context = context

	m.attachPageListeners(page, session)

	m.sessions[name] = session
	m.log.Infow("session started", "name", name, "headless", opts.Headless)
	return session, nil
}

// attachPageListeners wires up console, page error, and dialog
// handlers. Dialogs are accepted so automated runs never hang on a
// native prompt.
func (m *Manager) attachPageListeners(page playwright.Page, session *Session) {
	page.OnConsole(func(msg playwright.ConsoleMessage) {
		if msg.Type() == "error" {
			session.recordConsoleError(msg.Text())
		}
	})
	page.OnPageError(func(err error) {
		session.recordPageError(err)
	})
	page.OnDialog(func(dialog playwright.Dialog) {
		m.log.Debugw("auto-accepting dialog", "session", session.Name(), "type", dialog.Type())
		_ = dialog.Accept()
	})
}

// Get retrieves an active session by name.
func (m *Manager) Get(name string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, name)
	}
	return session, nil
}

// GetOrStart returns the named session, starting it when absent.
// Callers racing on the same name all get the session that won: a
// start that loses to a concurrent one falls back to the winner.
func (m *Manager) GetOrStart(name string, opts Options) (*Session, error) {
	if session, err := m.Get(name); err == nil {
		return session, nil
	}

	session, err := m.StartSession(name, opts)
	if err != nil {
		if existing, getErr := m.Get(name); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return session, nil
}

// CloseSession closes a session's browser and removes it from the
// registry.
func (m *Manager) CloseSession(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, name)
	}

	session.shutdown()
	delete(m.sessions, name)
	m.log.Infow("session closed", "name", name)
	return nil
}

// List returns metadata for every active session.
func (m *Manager) List() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, session := range m.sessions {
		infos = append(infos, session.Info())
	}
	return infos
}

// CloseAll closes every active session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, session := range m.sessions {
		session.shutdown()
		delete(m.sessions, name)
	}
}

// Shutdown closes all sessions and stops the Playwright driver.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, session := range m.sessions {
		session.shutdown()
		delete(m.sessions, name)
	}

	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.initialized = false
	}
	return nil
}

// CleanupIdle closes sessions idle for longer than maxIdle and
// returns their names.
func (m *Manager) CleanupIdle(maxIdle time.Duration) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var closed []string
	for name, session := range m.sessions {
		if now.Sub(session.LastUsedAt()) > maxIdle {
			session.shutdown()
			delete(m.sessions, name)
			closed = append(closed, name)
		}
	}
	if len(closed) > 0 {
		m.log.Infow("closed idle sessions", "names", closed)
	}
	return closed
}
