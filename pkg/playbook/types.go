package playbook

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Action identifies one kind of playbook step. The set is closed:
// anything outside it is rejected when the playbook is built, so the
// executor dispatches over a known vocabulary.
type Action string

const (
	ActionNavigate          Action = "navigate"
	ActionScreenshot        Action = "screenshot"
	ActionFillForm          Action = "fill_form"
	ActionTestExploratory   Action = "test_exploratory"
	ActionTestAccessibility Action = "test_accessibility"
	ActionTestResponsive    Action = "test_responsive"
	ActionTestSecurity      Action = "test_security"
	ActionDetectForms       Action = "detect_forms"
	ActionGenerateReport    Action = "generate_report"
)

// Actions lists every valid action.
var Actions = []Action{
	ActionNavigate,
	ActionScreenshot,
	ActionFillForm,
	ActionTestExploratory,
	ActionTestAccessibility,
	ActionTestResponsive,
	ActionTestSecurity,
	ActionDetectForms,
	ActionGenerateReport,
}

// ParseAction converts a raw string into an Action, rejecting anything
// outside the closed set.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action: %s", s)
}

// Valid reports whether the action belongs to the closed set.
func (a Action) Valid() bool {
	_, err := ParseAction(string(a))
	return err == nil
}

// Step is one unit of work in a playbook.
type Step struct {
	ID              string         `yaml:"id" json:"id"`
	Action          Action         `yaml:"action" json:"action"`
	Parameters      map[string]any `yaml:"parameters" json:"parameters"`
	Description     string         `yaml:"description,omitempty" json:"description,omitempty"`
	ExpectedOutcome string         `yaml:"expected_outcome,omitempty" json:"expected_outcome,omitempty"`
}

// Playbook is an ordered sequence of steps executed against one
// browser session. The executor never mutates it.
type Playbook struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []Step `yaml:"steps" json:"steps"`

	// StopOnError controls whether a failing step aborts the rest of
	// the run. Unset means true.
	StopOnError *bool `yaml:"stop_on_error,omitempty" json:"stop_on_error,omitempty"`
}

// StopsOnError resolves the stop_on_error setting, defaulting to true.
func (p *Playbook) StopsOnError() bool {
	if p.StopOnError == nil {
		return true
	}
	return *p.StopOnError
}

// Normalize fills in missing IDs: a uuid for the playbook, positional
// IDs for steps.
func (p *Playbook) Normalize() {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	for i := range p.Steps {
		if p.Steps[i].ID == "" {
			p.Steps[i].ID = fmt.Sprintf("step-%d", i)
		}
	}
}

// Validate checks the playbook is executable: it has a name, at least
// one step, and every step carries a known action.
func (p *Playbook) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("playbook has no name")
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("playbook %q has no steps", p.Name)
	}
	for i, step := range p.Steps {
		if _, err := ParseAction(string(step.Action)); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.ID, err)
		}
	}
	return nil
}

// Load reads, normalizes, and validates a playbook from a YAML file.
func Load(path string) (*Playbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playbook: %w", err)
	}
	return Parse(data)
}

// Parse builds a playbook from YAML bytes.
func Parse(data []byte) (*Playbook, error) {
	var pb Playbook
	if err := yaml.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("failed to parse playbook: %w", err)
	}
	pb.Normalize()
	if err := pb.Validate(); err != nil {
		return nil, err
	}
	return &pb, nil
}

// StepStatus is the outcome of one executed step.
type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepError   StepStatus = "error"
)

// StepResult records what happened to one step.
type StepResult struct {
	StepID string     `json:"step_id"`
	Action Action     `json:"action"`
	Status StepStatus `json:"status"`
	Result any        `json:"result,omitempty"`
	Error  string     `json:"error,omitempty"`
}
