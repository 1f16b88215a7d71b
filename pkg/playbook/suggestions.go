package playbook

// Suggestion is a candidate next step offered to a playbook author.
type Suggestion struct {
	Action      Action `json:"action"`
	Description string `json:"description"`
}

// Suggest proposes next steps based on the last step already in the
// playbook. An empty playbook gets starting points; otherwise the
// suggestions follow the common navigate-inspect-interact flow.
func Suggest(steps []Step) []Suggestion {
	if len(steps) == 0 {
		return []Suggestion{
			{Action: ActionNavigate, Description: "Navigate to a URL"},
			{Action: ActionScreenshot, Description: "Take a screenshot"},
		}
	}

	switch steps[len(steps)-1].Action {
	case ActionNavigate:
		return []Suggestion{
			{Action: ActionScreenshot, Description: "Take a screenshot"},
			{Action: ActionDetectForms, Description: "Detect form fields"},
			{Action: ActionTestExploratory, Description: "Run exploratory test"},
		}
	case ActionDetectForms:
		return []Suggestion{
			{Action: ActionFillForm, Description: "Fill form fields"},
			{Action: ActionTestAccessibility, Description: "Test form accessibility"},
		}
	default:
		return nil
	}
}
