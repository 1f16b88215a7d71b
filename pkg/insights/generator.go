// Package insights turns raw test output into written analysis using
// a chat-completion collaborator. Insight generation is advisory: a
// failing or disabled client degrades to no insights, never to a
// failed test run.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aj-geddes/tinaa-playwright-msp/pkg/browser"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/llm"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/logging"
)

// Generator builds prompts from test results and asks the client for
// analysis.
type Generator struct {
	client llm.Client
	log    *logging.Logger
}

// NewGenerator wraps a client. A nil client behaves like llm.NopClient.
func NewGenerator(client llm.Client) *Generator {
	if client == nil {
		client = llm.NopClient{}
	}
	return &Generator{
		client: client,
		log:    logging.New("insights"),
	}
}

// Insight is one generated analysis, empty when the client is
// disabled.
type Insight struct {
	Text string `json:"text,omitempty"`
	Err  string `json:"error,omitempty"`
}

// Exploratory generates testing guidance for a page.
func (g *Generator) Exploratory(ctx context.Context, url, title, focusArea string) Insight {
	prompt := fmt.Sprintf(`As an expert QA engineer, analyze this website and provide comprehensive testing insights.

URL: %s
Title: %s
Focus Area: %s

Please provide:
1. Initial observations about the site's purpose and functionality
2. Potential areas of concern for testing
3. Specific test scenarios to explore
4. Accessibility considerations
5. Performance observations
6. Security considerations
7. Recommendations for comprehensive testing

Format your response as a structured analysis that will help guide exploratory testing.`,
		url, title, focusArea)

	return g.generate(ctx, "exploratory", prompt)
}

// Accessibility generates fix recommendations from scan results.
func (g *Generator) Accessibility(ctx context.Context, url string, results *browser.AccessibilityResult) Insight {
	prompt := fmt.Sprintf(`As an accessibility expert, analyze these test results and provide recommendations:

URL: %s
Accessibility scan results:
%s

Please provide:
1. Severity assessment of found issues
2. Prioritized fix recommendations
3. WCAG compliance impact
4. User impact analysis
5. Best practices for improvement
6. Additional manual testing recommendations`,
		url, asJSON(results))

	return g.generate(ctx, "accessibility", prompt)
}

// Security generates a deeper security analysis from check results.
func (g *Generator) Security(ctx context.Context, url string, results *browser.SecurityResult) Insight {
	prompt := fmt.Sprintf(`As a security testing expert, analyze these observations and provide comprehensive security insights:

URL: %s
Initial observations:
%s

Please provide:
1. Potential security vulnerabilities
2. OWASP Top 10 considerations
3. Authentication/authorization concerns
4. Data protection assessment
5. Recommended security test cases
6. Priority areas for manual security testing`,
		url, asJSON(results))

	return g.generate(ctx, "security", prompt)
}

// FormFields suggests test data for detected form fields.
func (g *Generator) FormFields(ctx context.Context, fields []browser.FormFieldInfo) Insight {
	prompt := fmt.Sprintf(`Analyze these form fields and suggest appropriate test data:

Form fields:
%s

Please provide:
1. Suggested test values for each field (valid and invalid cases)
2. Edge cases to test
3. Security testing considerations
4. Validation rules that might apply
5. Accessibility requirements for the form`,
		asJSON(fields))

	return g.generate(ctx, "form fields", prompt)
}

func (g *Generator) generate(ctx context.Context, kind, prompt string) Insight {
	text, err := g.client.ChatCompletion(ctx, prompt)
	if err != nil {
		if !errors.Is(err, llm.ErrDisabled) {
			g.log.Warnw("insight generation failed", "kind", kind, "error", err)
		}
		return Insight{Err: err.Error()}
	}
	return Insight{Text: text}
}

func asJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
