package report

import (
	"fmt"
	"strings"
)

// Step is one executed stage of a build/test/run sequence together with
// its captured output.
type Step struct {
	Name    string
	Success bool
	Stdout  string
	Stderr  string
}

// Outcome is the classified result of a step sequence. Never mutated after
// construction.
type Outcome struct {
	Success  bool
	Warnings []string
	Errors   []string
	Summary  string
}

// Markers follow the xcodebuild diagnostic conventions.
const (
	warningMarker = "warning:"
	errorMarker   = "error:"
)

// Interpret classifies the combined stdout+stderr of every step line by
// line. Overall success is the AND of every step's success flag; an empty
// stdout is fine and classifies to nothing.
func Interpret(label string, steps []Step) Outcome {
	out := Outcome{Success: true}
	var failedStep string

	for _, step := range steps {
		if !step.Success {
			out.Success = false
			if failedStep == "" {
				failedStep = step.Name
			}
		}
		classifyLines(step.Stdout, &out)
		classifyLines(step.Stderr, &out)
	}

	switch {
	case out.Success:
		out.Summary = fmt.Sprintf("%s succeeded", label)
		if n := len(out.Warnings); n > 0 {
			out.Summary += fmt.Sprintf(" with %d warning(s)", n)
		}
	default:
		out.Summary = fmt.Sprintf("%s failed during %s", label, failedStep)
	}
	return out
}

func classifyLines(text string, out *Outcome) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		switch {
		case strings.Contains(lower, errorMarker):
			out.Errors = append(out.Errors, trimmed)
		case strings.Contains(lower, warningMarker):
			out.Warnings = append(out.Warnings, trimmed)
		}
	}
}

// FailureResponse renders a single failed step as the standard error
// shape: one fragment reading "Failed to <step>: <stderr>".
func FailureResponse(step Step) *Response {
	detail := strings.TrimSpace(step.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(step.Stdout)
	}
	if detail == "" {
		detail = "no output"
	}
	return ErrorResponse(fmt.Sprintf("Failed to %s: %s", step.Name, detail))
}

// BuildResponse assembles the caller-facing response for a finished step
// sequence. On failure the failing step's stderr gets its own labeled
// fragment even when stdout also carries diagnostics — stderr is the
// authoritative channel and the agent should see it first.
func BuildResponse(outcome Outcome, steps []Step) *Response {
	resp := NewResponse()

	if outcome.Success {
		resp.Add("", "✅ "+outcome.Summary)
	} else {
		resp.Fail("", "❌ "+outcome.Summary)
		for _, step := range steps {
			if !step.Success {
				if stderr := strings.TrimSpace(step.Stderr); stderr != "" {
					resp.Add("stderr ("+step.Name+")", stderr)
				}
				break
			}
		}
	}

	if len(outcome.Errors) > 0 {
		resp.Add("Errors", strings.Join(outcome.Errors, "\n"))
	}
	if len(outcome.Warnings) > 0 {
		resp.Add("Warnings", strings.Join(outcome.Warnings, "\n"))
	}
	return resp
}
