package format

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"mercator-hq/callisto/pkg/processing/insights"
)

// Document is the renderer-neutral content of a response.
type Document struct {
	// Title names the tool or operation.
	Title string

	// Summary is a one-line description of the result.
	Summary string

	// Body is the result value. It must be JSON-encodable.
	Body any

	// Preview replaces Body when set; used for offloaded results.
	Preview string

	Insights []insights.Insight
	Actions  []insights.Action
}

// Renderer turns a Document into text for one environment.
type Renderer interface {
	Render(doc *Document) (string, error)
}

// RendererFor picks the renderer for env.
func RendererFor(env Environment) Renderer {
	switch {
	case env.RichMarkup && env.Interactive:
		return richRenderer{}
	case env.RichMarkup:
		return markdownRenderer{}
	default:
		return plainRenderer{}
	}
}

// Render renders doc for env.
func Render(env Environment, doc *Document) (string, error) {
	return RendererFor(env).Render(doc)
}

func body(doc *Document) (string, error) {
	if doc.Preview != "" {
		return doc.Preview, nil
	}
	if s, ok := doc.Body.(string); ok {
		return s, nil
	}
	data, err := json.MarshalIndent(doc.Body, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode response body: %w", err)
	}
	return string(data), nil
}

type plainRenderer struct{}

func (plainRenderer) Render(doc *Document) (string, error) {
	text, err := body(doc)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if doc.Title != "" {
		b.WriteString(doc.Title + "\n")
	}
	if doc.Summary != "" {
		b.WriteString(doc.Summary + "\n")
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(text)
	b.WriteString("\n")

	if len(doc.Insights) > 0 {
		b.WriteString("\nInsights:\n")
		for _, in := range doc.Insights {
			fmt.Fprintf(&b, "- [%s] %s\n", in.Type, in.Text)
		}
	}
	if len(doc.Actions) > 0 {
		b.WriteString("\nSuggested actions:\n")
		for _, a := range doc.Actions {
			fmt.Fprintf(&b, "- %s: %s\n", a.Tool, a.Description)
		}
	}
	return b.String(), nil
}

type markdownRenderer struct{}

func (markdownRenderer) Render(doc *Document) (string, error) {
	text, err := body(doc)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if doc.Title != "" {
		fmt.Fprintf(&b, "### %s\n\n", doc.Title)
	}
	if doc.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", doc.Summary)
	}
	marks := fenceMarks(text)
	fmt.Fprintf(&b, "%s%s\n%s\n%s\n", marks, codeLang(doc), text, marks)

	if len(doc.Insights) > 0 {
		b.WriteString("\n**Insights**\n\n")
		for _, in := range doc.Insights {
			fmt.Fprintf(&b, "- **%s**: %s\n", in.Type, in.Text)
		}
	}
	if len(doc.Actions) > 0 {
		b.WriteString("\n**Suggested actions**\n\n")
		for _, a := range doc.Actions {
			fmt.Fprintf(&b, "- `%s`: %s\n", a.Tool, a.Description)
		}
	}
	return b.String(), nil
}

type richRenderer struct{}

func (richRenderer) Render(doc *Document) (string, error) {
	text, err := body(doc)
	if err != nil {
		return "", err
	}

	title := doc.Title
	if title == "" {
		title = "Result"
	}

	var b strings.Builder
	if doc.Summary != "" {
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(doc.Summary))
	}
	fmt.Fprintf(&b, "<details>\n<summary>%s</summary>\n<pre><code class=\"language-%s\">%s</code></pre>\n</details>\n",
		html.EscapeString(title), codeLang(doc), html.EscapeString(text))

	if len(doc.Insights) > 0 {
		b.WriteString("<ul class=\"insights\">\n")
		for _, in := range doc.Insights {
			fmt.Fprintf(&b, "<li class=\"%s %s\">%s</li>\n",
				in.Type, in.Importance, html.EscapeString(in.Text))
		}
		b.WriteString("</ul>\n")
	}
	if len(doc.Actions) > 0 {
		b.WriteString("<ul class=\"actions\">\n")
		for _, a := range doc.Actions {
			fmt.Fprintf(&b, "<li><code>%s</code> %s</li>\n",
				html.EscapeString(a.Tool), html.EscapeString(a.Description))
		}
		b.WriteString("</ul>\n")
	}
	return b.String(), nil
}

// fence is the code block language for the body.
func codeLang(doc *Document) string {
	if doc.Preview != "" {
		return "text"
	}
	if _, ok := doc.Body.(string); ok {
		return "text"
	}
	return "json"
}

// fenceMarks returns a backtick fence longer than any backtick run in text.
func fenceMarks(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}
