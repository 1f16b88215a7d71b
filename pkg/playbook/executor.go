package playbook

import (
	"context"
	"fmt"
	"sort"

	"github.com/aj-geddes/tinaa-playwright-msp/pkg/browser"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/logging"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/progress"
)

// Session is the browser surface a playbook runs against. Implemented
// by *browser.Session; tests substitute an in-memory fake.
type Session interface {
	Navigate(url string) (*browser.NavigationInfo, error)
	TakeScreenshot(name, selector string, fullPage bool) (*browser.Screenshot, error)
	FillForm(fields []browser.FormField, submitSelector string) error
	CheckAccessibility() (*browser.AccessibilityResult, error)
	CheckResponsiveDesign(breakpoints []browser.Breakpoint) (*browser.ResponsiveResult, error)
	RunSecurityChecks() (*browser.SecurityResult, error)
	ExtractFormFields(formSelector string) ([]browser.FormFieldInfo, error)
	GetTestReport(testType, url string) (*browser.Report, error)
	CurrentURL() string
	Title() (string, error)
}

// Result is the outcome of one playbook run. Status is always
// "completed": per-step failures live in Results, and stop_on_error
// only controls how many steps ran.
type Result struct {
	PlaybookID string           `json:"playbook_id"`
	Name       string           `json:"name"`
	Status     string           `json:"status"`
	Results    []StepResult     `json:"results"`
	Summary    progress.Summary `json:"summary"`
}

// Executor runs playbooks against one session, reporting progress
// through a sink.
type Executor struct {
	session Session
	sink    progress.Sink
	log     *logging.Logger
}

// NewExecutor binds an executor to a session. sink may be nil when no
// progress consumer is attached.
func NewExecutor(session Session, sink progress.Sink) *Executor {
	return &Executor{
		session: session,
		sink:    sink,
		log:     logging.New("playbook"),
	}
}

// Execute runs every step of pb in order. A step failure is recorded
// in the result; when the playbook stops on error, later steps never
// run and are absent from Results. Execute itself does not fail: the
// returned Result always reflects however far the run got.
func (e *Executor) Execute(ctx context.Context, pb *Playbook) *Result {
	tracker := progress.NewTracker(e.sink)
	total := len(pb.Steps)

	_ = tracker.StartPhase(fmt.Sprintf("Executing: %s", pb.Name), total)

	results := []StepResult{}
	for i, step := range pb.Steps {
		if ctx.Err() != nil {
			_ = tracker.Warning(fmt.Sprintf("Run aborted before step %d: %v", i+1, ctx.Err()), nil)
			break
		}

		_ = tracker.Info(
			fmt.Sprintf("Executing step %d/%d: %s", i+1, total, step.Action),
			progress.Percent(float64(i)/float64(total)*100),
			nil,
		)

		stepResult, err := e.executeStep(tracker, step)
		if err != nil {
			_ = tracker.Error(fmt.Sprintf("Step %d failed: %v", i+1, err), nil)
			results = append(results, StepResult{
				StepID: step.ID,
				Action: step.Action,
				Status: StepError,
				Error:  err.Error(),
			})
			if pb.StopsOnError() {
				break
			}
			continue
		}

		_ = tracker.Success(fmt.Sprintf("Step %d completed successfully", i+1), nil)
		results = append(results, StepResult{
			StepID: step.ID,
			Action: step.Action,
			Status: StepSuccess,
			Result: stepResult,
		})
	}

	_ = tracker.CompletePhase(pb.Name)

	return &Result{
		PlaybookID: pb.ID,
		Name:       pb.Name,
		Status:     "completed",
		Results:    results,
		Summary:    tracker.Summary(),
	}
}

// executeStep dispatches one step to its handler. The switch is
// exhaustive over the action set; Validate has already rejected
// anything else, so the default case only fires on a drifted enum.
func (e *Executor) executeStep(tracker *progress.Tracker, step Step) (any, error) {
	switch step.Action {
	case ActionNavigate:
		return e.runNavigate(tracker, step.Parameters)
	case ActionScreenshot:
		return e.runScreenshot(tracker, step.Parameters)
	case ActionFillForm:
		return e.runFillForm(tracker, step.Parameters)
	case ActionTestExploratory:
		return e.runExploratory(tracker, step.Parameters)
	case ActionTestAccessibility:
		return e.runAccessibility(tracker)
	case ActionTestResponsive:
		return e.runResponsive(tracker, step.Parameters)
	case ActionTestSecurity:
		return e.runSecurity(tracker)
	case ActionDetectForms:
		return e.runDetectForms(step.Parameters)
	case ActionGenerateReport:
		return e.runGenerateReport(tracker, step.Parameters)
	default:
		return nil, fmt.Errorf("unknown action: %s", step.Action)
	}
}

func (e *Executor) runNavigate(tracker *progress.Tracker, params map[string]any) (any, error) {
	url := stringParam(params, "url", "")
	if url == "" {
		return nil, fmt.Errorf("navigate requires a url parameter")
	}

	scope, err := tracker.Begin("Navigation", 3)
	if err != nil {
		return nil, err
	}
	_ = scope.Step(fmt.Sprintf("Preparing to navigate to %s", url), 1)

	info, err := e.session.Navigate(url)
	if err != nil {
		return nil, scope.End(err)
	}

	_ = scope.Step("Navigation completed", 1)
	_ = scope.Step("Page loaded and ready", 1)
	if err := scope.End(nil); err != nil {
		return nil, err
	}
	return info, nil
}

func (e *Executor) runScreenshot(tracker *progress.Tracker, params map[string]any) (any, error) {
	fullPage := boolParam(params, "full_page", true)
	name := stringParam(params, "name", "screenshot")
	selector := stringParam(params, "selector", "")

	scope, err := tracker.Begin("Screenshot Capture", 0)
	if err != nil {
		return nil, err
	}
	_ = scope.Step("Preparing screenshot", 1)

	shot, err := e.session.TakeScreenshot(name, selector, fullPage)
	if err != nil {
		return nil, scope.End(err)
	}

	_ = scope.Step("Screenshot captured successfully", 1)
	if err := scope.End(nil); err != nil {
		return nil, err
	}
	return shot, nil
}

func (e *Executor) runFillForm(tracker *progress.Tracker, params map[string]any) (any, error) {
	fields := formFieldsParam(params, "fields")
	submit := stringParam(params, "submit_selector", "")

	scope, err := tracker.Begin("Form Filling", len(fields)+1)
	if err != nil {
		return nil, err
	}
	_ = scope.Step("Analyzing form structure", 1)
	for _, field := range fields {
		_ = scope.Step(fmt.Sprintf("Filling field: %s", field.Selector), 1)
	}

	if err := e.session.FillForm(fields, submit); err != nil {
		return nil, scope.End(err)
	}
	if err := scope.End(nil); err != nil {
		return nil, err
	}
	return map[string]any{"filled": len(fields)}, nil
}

func (e *Executor) runExploratory(tracker *progress.Tracker, params map[string]any) (any, error) {
	milestones := progress.Exploratory(tracker)

	url := stringParam(params, "url", e.session.CurrentURL())
	focusArea := stringParam(params, "focus_area", "general")

	_ = milestones.NavigationStarted(url)
	if _, err := e.session.Navigate(url); err != nil {
		return nil, fmt.Errorf("exploratory navigation failed: %w", err)
	}
	_ = milestones.PageLoaded()

	if _, err := e.session.TakeScreenshot("initial_view", "", true); err != nil {
		e.log.Warnw("initial screenshot failed", "error", err)
	}

	_ = milestones.AnalyzingStructure()
	fields, err := e.session.ExtractFormFields("")
	if err != nil {
		return nil, fmt.Errorf("exploratory structure analysis failed: %w", err)
	}

	_ = milestones.TestingInteractions(len(fields))
	for i, field := range fields {
		_ = milestones.ElementTested(field.Tag, i+1, len(fields))
	}

	_ = milestones.GeneratingReport()
	report, err := e.session.GetTestReport("exploratory", url)
	if err != nil {
		return nil, fmt.Errorf("exploratory report failed: %w", err)
	}

	findingsCount := len(report.HighPriorityIssues) +
		len(report.MediumPriorityIssues) +
		len(report.LowPriorityIssues)
	_ = milestones.Completed(findingsCount)

	title, err := e.session.Title()
	if err != nil {
		title = ""
	}

	return map[string]any{
		"url":        url,
		"focus_area": focusArea,
		"title":      title,
		"report":     report,
	}, nil
}

func (e *Executor) runAccessibility(tracker *progress.Tracker) (any, error) {
	milestones := progress.Accessibility(tracker)

	_ = milestones.CheckingWCAGCompliance("2.1 AA")
	_ = milestones.TestingKeyboardNavigation()
	_ = milestones.CheckingAriaLabels()

	result, err := e.session.CheckAccessibility()
	if err != nil {
		return nil, fmt.Errorf("accessibility test failed: %w", err)
	}

	_ = milestones.TestingColorContrast()
	for _, issue := range result.Issues {
		_ = milestones.IssueFound(issue.Type, string(issue.Severity))
	}
	_ = milestones.Completed(len(result.Issues))

	return result, nil
}

func (e *Executor) runResponsive(tracker *progress.Tracker, params map[string]any) (any, error) {
	breakpoints := breakpointsParam(params, "breakpoints")

	scope, err := tracker.Begin("Responsive Testing", len(breakpoints))
	if err != nil {
		return nil, err
	}
	for _, bp := range breakpoints {
		_ = scope.Step(fmt.Sprintf("Testing %s viewport", bp.Name), 1)
	}

	result, err := e.session.CheckResponsiveDesign(breakpoints)
	if err != nil {
		return nil, scope.End(err)
	}
	if err := scope.End(nil); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Executor) runSecurity(tracker *progress.Tracker) (any, error) {
	scope, err := tracker.Begin("Security Testing", 4)
	if err != nil {
		return nil, err
	}
	_ = scope.Step("Checking HTTPS configuration", 1)
	_ = scope.Step("Analyzing security headers", 1)
	_ = scope.Step("Testing form submissions", 1)
	_ = scope.Step("Checking for common vulnerabilities", 1)

	result, err := e.session.RunSecurityChecks()
	if err != nil {
		return nil, scope.End(err)
	}
	if err := scope.End(nil); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Executor) runDetectForms(params map[string]any) (any, error) {
	selector := stringParam(params, "form_selector", "")
	fields, err := e.session.ExtractFormFields(selector)
	if err != nil {
		return nil, fmt.Errorf("form detection failed: %w", err)
	}
	return fields, nil
}

func (e *Executor) runGenerateReport(tracker *progress.Tracker, params map[string]any) (any, error) {
	testType := stringParam(params, "test_type", "playbook")

	scope, err := tracker.Begin("Report Generation", 3)
	if err != nil {
		return nil, err
	}
	_ = scope.Step("Collecting test results", 1)
	_ = scope.Step("Analyzing findings", 1)
	_ = scope.Step("Generating report", 1)

	report, err := e.session.GetTestReport(testType, e.session.CurrentURL())
	if err != nil {
		return nil, scope.End(err)
	}
	if err := scope.End(nil); err != nil {
		return nil, err
	}
	return report, nil
}

// Parameter extraction helpers. Playbook parameters arrive as untyped
// YAML/JSON maps.

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func boolParam(params map[string]any, key string, fallback bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return fallback
}

// formFieldsParam reads the fields parameter in either of two shapes.
// A list of {selector, value} entries fills in list order, which is
// how dependent fields (country before state) must be expressed. A
// selector-to-value object is also accepted, but object key order does
// not survive decoding, so its keys are sorted for a deterministic
// fill order.
func formFieldsParam(params map[string]any, key string) []browser.FormField {
	switch raw := params[key].(type) {
	case []any:
		fields := make([]browser.FormField, 0, len(raw))
		for _, entry := range raw {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			selector, _ := m["selector"].(string)
			if selector == "" {
				continue
			}
			value, _ := m["value"].(string)
			fields = append(fields, browser.FormField{Selector: selector, Value: value})
		}
		return fields

	case map[string]any:
		selectors := make([]string, 0, len(raw))
		for selector := range raw {
			selectors = append(selectors, selector)
		}
		sort.Strings(selectors)

		fields := make([]browser.FormField, 0, len(selectors))
		for _, selector := range selectors {
			value, _ := raw[selector].(string)
			fields = append(fields, browser.FormField{Selector: selector, Value: value})
		}
		return fields
	}
	return nil
}

// breakpointsParam reads a list of breakpoint maps, falling back to
// the default device classes.
func breakpointsParam(params map[string]any, key string) []browser.Breakpoint {
	raw, ok := params[key].([]any)
	if !ok || len(raw) == 0 {
		return browser.DefaultBreakpoints
	}

	breakpoints := make([]browser.Breakpoint, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		bp := browser.Breakpoint{
			Name:   stringParam(m, "name", "Custom"),
			Width:  intParam(m, "width", browser.DefaultViewportWidth),
			Height: intParam(m, "height", browser.DefaultViewportHeight),
		}
		breakpoints = append(breakpoints, bp)
	}
	if len(breakpoints) == 0 {
		return browser.DefaultBreakpoints
	}
	return breakpoints
}

func intParam(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}
