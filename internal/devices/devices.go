// Package devices lists physical Apple devices through devicectl and
// classifies their availability for build/run workflows.
package devices

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/notexe/xcode-mcp/internal/command"
)

// Device is one entry from the devicectl listing, flattened for callers.
type Device struct {
	Identifier    string `json:"identifier"`
	Name          string `json:"name"`
	Platform      string `json:"platform"`
	OSVersion     string `json:"osVersion"`
	ProductType   string `json:"productType"`
	CPUType       string `json:"cpuType,omitempty"`
	TransportType string `json:"transportType,omitempty"`
	PairingState  string `json:"pairingState"`
	TunnelState   string `json:"tunnelState"`
	Available     bool   `json:"available"`
}

// devicectlOutput mirrors `xcrun devicectl list devices --json-output`.
type devicectlOutput struct {
	Result struct {
		Devices []struct {
			Identifier           string `json:"identifier"`
			VisibilityClass      string `json:"visibilityClass"`
			ConnectionProperties struct {
				PairingState  string `json:"pairingState"`
				TunnelState   string `json:"tunnelState"`
				TransportType string `json:"transportType"`
			} `json:"connectionProperties"`
			DeviceProperties struct {
				Name               string `json:"name"`
				PlatformIdentifier string `json:"platformIdentifier"`
				OSVersionNumber    string `json:"osVersionNumber"`
			} `json:"deviceProperties"`
			HardwareProperties struct {
				ProductType string `json:"productType"`
				CPUType     struct {
					Name string `json:"name"`
				} `json:"cpuType"`
			} `json:"hardwareProperties"`
		} `json:"devices"`
	} `json:"result"`
}

// Lister runs devicectl and parses its JSON report. devicectl only writes
// JSON to a file, so the lister points it at a temp path and reads it back.
// OutputPath, when set, overrides that path (tests use this).
type Lister struct {
	Runner     command.Runner
	OutputPath string
}

func NewLister(runner command.Runner) *Lister {
	return &Lister{Runner: runner}
}

// List returns all known devices with availability classified.
func (l *Lister) List(ctx context.Context) ([]Device, error) {
	path := l.OutputPath
	if path == "" {
		path = filepath.Join(os.TempDir(), fmt.Sprintf("devicectl_list_%d.json", time.Now().UnixNano()))
		defer os.Remove(path)
	}

	res, err := l.Runner.Run(ctx, command.Invocation{
		Args:  []string{"xcrun", "devicectl", "list", "devices", "--json-output", path},
		Label: "devicectl list devices",
	})
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("devicectl list failed: %s", strings.TrimSpace(res.Stderr))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read devicectl output: %w", err)
	}

	var out devicectlOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse devicectl output: %w", err)
	}

	devices := make([]Device, 0, len(out.Result.Devices))
	for _, d := range out.Result.Devices {
		devices = append(devices, Device{
			Identifier:    d.Identifier,
			Name:          d.DeviceProperties.Name,
			Platform:      d.DeviceProperties.PlatformIdentifier,
			OSVersion:     d.DeviceProperties.OSVersionNumber,
			ProductType:   d.HardwareProperties.ProductType,
			CPUType:       d.HardwareProperties.CPUType.Name,
			TransportType: d.ConnectionProperties.TransportType,
			PairingState:  d.ConnectionProperties.PairingState,
			TunnelState:   d.ConnectionProperties.TunnelState,
			Available:     available(d.ConnectionProperties.PairingState, d.ConnectionProperties.TunnelState),
		})
	}
	return devices, nil
}

// available classifies a device as usable for build/run workflows. A paired
// device whose tunnel is merely disconnected still counts as available so
// WiFi-connected devices are not filtered out; only an unavailable tunnel
// excludes it. This classification is a product policy decision, not a
// connectivity fact.
func available(pairingState, tunnelState string) bool {
	if !strings.EqualFold(pairingState, "paired") {
		return false
	}
	return !strings.EqualFold(tunnelState, "unavailable")
}
