// Package xcode drives xcodebuild and simctl through the command runner:
// argument assembly, build settings extraction, and the strictly sequenced
// build/install/launch pipeline.
package xcode

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/notexe/xcode-mcp/internal/command"
	"github.com/notexe/xcode-mcp/internal/report"
)

// Options describes one xcodebuild invocation target.
type Options struct {
	ProjectPath     string
	WorkspacePath   string
	Scheme          string
	Configuration   string
	Destination     string
	DerivedDataPath string
	ExtraArgs       []string
}

// Driver wraps xcodebuild behind the injected runner.
type Driver struct {
	runner  command.Runner
	timeout time.Duration
}

func NewDriver(runner command.Runner, timeout time.Duration) *Driver {
	return &Driver{runner: runner, timeout: timeout}
}

// args assembles the common xcodebuild argument vector for the options,
// ending with the given action verb.
func (d *Driver) args(opts Options, action string) []string {
	args := []string{"xcodebuild"}
	if opts.WorkspacePath != "" {
		args = append(args, "-workspace", opts.WorkspacePath)
	} else if opts.ProjectPath != "" {
		args = append(args, "-project", opts.ProjectPath)
	}
	if opts.Scheme != "" {
		args = append(args, "-scheme", opts.Scheme)
	}
	if opts.Configuration != "" {
		args = append(args, "-configuration", opts.Configuration)
	}
	if opts.Destination != "" {
		args = append(args, "-destination", opts.Destination)
	}
	if opts.DerivedDataPath != "" {
		args = append(args, "-derivedDataPath", opts.DerivedDataPath)
	}
	args = append(args, opts.ExtraArgs...)
	if action != "" {
		args = append(args, action)
	}
	return args
}

func (d *Driver) run(ctx context.Context, name string, args []string) (report.Step, error) {
	res, err := d.runner.Run(ctx, command.Invocation{
		Args:    args,
		Label:   name,
		Timeout: d.timeout,
	})
	if err != nil {
		return report.Step{}, err
	}
	return report.Step{Name: name, Success: res.Success, Stdout: res.Stdout, Stderr: res.Stderr}, nil
}

// Build runs `xcodebuild ... build`.
func (d *Driver) Build(ctx context.Context, opts Options) (report.Step, error) {
	return d.run(ctx, "build", d.args(opts, "build"))
}

// Test runs `xcodebuild ... test`.
func (d *Driver) Test(ctx context.Context, opts Options) (report.Step, error) {
	return d.run(ctx, "test", d.args(opts, "test"))
}

// Clean runs `xcodebuild ... clean`.
func (d *Driver) Clean(ctx context.Context, opts Options) (report.Step, error) {
	return d.run(ctx, "clean", d.args(opts, "clean"))
}

// Settings is the parsed `-showBuildSettings` output.
type Settings map[string]string

// AppPath joins TARGET_BUILD_DIR and FULL_PRODUCT_NAME into the built
// bundle path, or "" when either is missing.
func (s Settings) AppPath() string {
	dir := s["TARGET_BUILD_DIR"]
	name := s["FULL_PRODUCT_NAME"]
	if dir == "" || name == "" {
		return ""
	}
	return strings.TrimRight(dir, "/") + "/" + name
}

// BundleID returns PRODUCT_BUNDLE_IDENTIFIER, or "".
func (s Settings) BundleID() string {
	return s["PRODUCT_BUNDLE_IDENTIFIER"]
}

// ShowBuildSettings runs `-showBuildSettings` and parses the KEY = VALUE
// lines. The step is returned alongside the settings so a failed run can
// be rendered with the standard failure shape.
func (d *Driver) ShowBuildSettings(ctx context.Context, opts Options) (Settings, report.Step, error) {
	args := d.args(opts, "")
	args = append(args, "-showBuildSettings")
	step, err := d.run(ctx, "show build settings", args)
	if err != nil {
		return nil, report.Step{}, err
	}
	if !step.Success {
		return nil, step, nil
	}
	return parseSettings(step.Stdout), step, nil
}

func parseSettings(out string) Settings {
	settings := make(Settings)
	for _, line := range strings.Split(out, "\n") {
		key, value, found := strings.Cut(line, " = ")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		settings[key] = strings.TrimSpace(value)
	}
	return settings
}

// ListSchemes runs `xcodebuild -list -json` and returns the scheme names
// for the project or workspace.
func (d *Driver) ListSchemes(ctx context.Context, opts Options) ([]string, report.Step, error) {
	args := []string{"xcodebuild", "-list", "-json"}
	if opts.WorkspacePath != "" {
		args = append(args, "-workspace", opts.WorkspacePath)
	} else if opts.ProjectPath != "" {
		args = append(args, "-project", opts.ProjectPath)
	}
	step, err := d.run(ctx, "list schemes", args)
	if err != nil {
		return nil, report.Step{}, err
	}
	if !step.Success {
		return nil, step, nil
	}

	var listing struct {
		Project struct {
			Schemes []string `json:"schemes"`
		} `json:"project"`
		Workspace struct {
			Schemes []string `json:"schemes"`
		} `json:"workspace"`
	}
	if err := json.Unmarshal([]byte(step.Stdout), &listing); err != nil {
		step.Success = false
		step.Stderr = fmt.Sprintf("failed to parse scheme listing: %v", err)
		return nil, step, nil
	}
	schemes := listing.Project.Schemes
	if len(schemes) == 0 {
		schemes = listing.Workspace.Schemes
	}
	return schemes, step, nil
}
