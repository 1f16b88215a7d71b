package insights

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aj-geddes/tinaa-playwright-msp/pkg/browser"
)

// stubClient returns a canned completion and records the prompt.
type stubClient struct {
	prompt string
	reply  string
	err    error
}

func (s *stubClient) ChatCompletion(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

func TestExploratoryInsight(t *testing.T) {
	client := &stubClient{reply: "Start with the checkout flow."}
	gen := NewGenerator(client)

	insight := gen.Exploratory(context.Background(), "https://shop.test", "Shop", "checkout")

	assert.Equal(t, "Start with the checkout flow.", insight.Text)
	assert.Empty(t, insight.Err)
	assert.Contains(t, client.prompt, "URL: https://shop.test")
	assert.Contains(t, client.prompt, "Title: Shop")
	assert.Contains(t, client.prompt, "Focus Area: checkout")
}

func TestAccessibilityInsightIncludesResults(t *testing.T) {
	client := &stubClient{reply: "Add alt text."}
	gen := NewGenerator(client)

	results := &browser.AccessibilityResult{
		Issues: []browser.AccessibilityIssue{
			{Type: "missing_alt_text", Severity: browser.SeverityMedium, Description: "Image missing alt text"},
		},
	}
	insight := gen.Accessibility(context.Background(), "https://shop.test", results)

	assert.Equal(t, "Add alt text.", insight.Text)
	assert.Contains(t, client.prompt, "missing_alt_text")
	assert.Contains(t, client.prompt, "Image missing alt text")
}

func TestSecurityInsight(t *testing.T) {
	client := &stubClient{reply: "Enable HTTPS."}
	gen := NewGenerator(client)

	results := &browser.SecurityResult{
		Issues: []browser.SecurityIssue{
			{Severity: browser.SeverityHigh, Description: "Site is not using HTTPS"},
		},
	}
	insight := gen.Security(context.Background(), "http://shop.test", results)

	assert.Equal(t, "Enable HTTPS.", insight.Text)
	assert.Contains(t, client.prompt, "Site is not using HTTPS")
}

func TestFormFieldsInsight(t *testing.T) {
	client := &stubClient{reply: "Try SQL injection payloads in the search box."}
	gen := NewGenerator(client)

	fields := []browser.FormFieldInfo{
		{Tag: "input", Type: "text", Name: "q", Selector: "#q"},
	}
	insight := gen.FormFields(context.Background(), fields)

	assert.Equal(t, "Try SQL injection payloads in the search box.", insight.Text)
	assert.Contains(t, client.prompt, `"name": "q"`)
}

func TestGeneratorTransportFailure(t *testing.T) {
	client := &stubClient{err: fmt.Errorf("connection refused")}
	gen := NewGenerator(client)

	insight := gen.Exploratory(context.Background(), "https://shop.test", "", "general")

	assert.Empty(t, insight.Text)
	assert.Equal(t, "connection refused", insight.Err)
}

func TestGeneratorNilClientDisabled(t *testing.T) {
	gen := NewGenerator(nil)

	insight := gen.Exploratory(context.Background(), "https://shop.test", "", "general")

	require.Empty(t, insight.Text)
	assert.Contains(t, insight.Err, "disabled")
}
