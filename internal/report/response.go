// Package report interprets raw toolchain output and shapes the structured
// responses tools return to the calling agent.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Fragment is one labeled block of response text. Fragments are ordered;
// the first fragment is what the agent reads first.
type Fragment struct {
	Label string
	Text  string
}

// Suggestion names a plausible follow-on tool invocation. Advisory only —
// suggestions never drive control flow.
type Suggestion struct {
	Tool     string
	Params   map[string]any
	Priority int
}

// Response is the shape every tool returns: ordered fragments, an error
// flag, and optional next-step suggestions.
type Response struct {
	Fragments []Fragment
	IsError   bool
	NextSteps []Suggestion
}

func NewResponse() *Response {
	return &Response{}
}

// Add appends a labeled fragment.
func (r *Response) Add(label, text string) *Response {
	r.Fragments = append(r.Fragments, Fragment{Label: label, Text: text})
	return r
}

// Fail appends a fragment and sets the error flag.
func (r *Response) Fail(label, text string) *Response {
	r.IsError = true
	return r.Add(label, text)
}

// Suggest records a follow-on invocation; lower priority sorts first.
func (r *Response) Suggest(tool string, priority int, params map[string]any) *Response {
	r.NextSteps = append(r.NextSteps, Suggestion{Tool: tool, Params: params, Priority: priority})
	return r
}

// ErrorResponse is the one-fragment failure shape used for validation and
// resolution failures crossing the tool boundary.
func ErrorResponse(text string) *Response {
	return NewResponse().Fail("", text)
}

// Render converts the response into an MCP tool result. Each fragment
// becomes one text content block; next steps render as a trailing block
// sorted by priority.
func (r *Response) Render() *mcp.CallToolResult {
	contents := make([]mcp.Content, 0, len(r.Fragments)+1)
	for _, f := range r.Fragments {
		text := f.Text
		if f.Label != "" {
			text = f.Label + ":\n" + f.Text
		}
		contents = append(contents, mcp.NewTextContent(text))
	}

	if len(r.NextSteps) > 0 {
		steps := make([]Suggestion, len(r.NextSteps))
		copy(steps, r.NextSteps)
		sort.SliceStable(steps, func(i, j int) bool { return steps[i].Priority < steps[j].Priority })

		var b strings.Builder
		b.WriteString("Next steps:\n")
		for i, s := range steps {
			fmt.Fprintf(&b, "%d. %s", i+1, s.Tool)
			if len(s.Params) > 0 {
				keys := make([]string, 0, len(s.Params))
				for k := range s.Params {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				pairs := make([]string, 0, len(keys))
				for _, k := range keys {
					pairs = append(pairs, fmt.Sprintf("%s=%v", k, s.Params[k]))
				}
				fmt.Fprintf(&b, " (%s)", strings.Join(pairs, ", "))
			}
			b.WriteString("\n")
		}
		contents = append(contents, mcp.NewTextContent(b.String()))
	}

	return &mcp.CallToolResult{Content: contents, IsError: r.IsError}
}
