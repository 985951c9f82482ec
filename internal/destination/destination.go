// Package destination translates a target-platform description into the
// destination addressing syntax xcodebuild expects, resolving simulator
// names to UUIDs through simctl when needed.
package destination

import "fmt"

// Platform identifies which device family and device-vs-simulator variant
// a build or test targets.
type Platform int

const (
	IOS Platform = iota
	WatchOS
	TvOS
	VisionOS
	MacOS
	IOSSimulator
	WatchOSSimulator
	TvOSSimulator
	VisionOSSimulator
)

var platformNames = map[Platform]string{
	IOS:               "iOS",
	WatchOS:           "watchOS",
	TvOS:              "tvOS",
	VisionOS:          "visionOS",
	MacOS:             "macOS",
	IOSSimulator:      "iOS Simulator",
	WatchOSSimulator:  "watchOS Simulator",
	TvOSSimulator:     "tvOS Simulator",
	VisionOSSimulator: "visionOS Simulator",
}

func (p Platform) String() string {
	if name, ok := platformNames[p]; ok {
		return name
	}
	return "unknown"
}

// IsSimulator reports whether the platform addresses a simulator runtime.
func (p Platform) IsSimulator() bool {
	switch p {
	case IOSSimulator, WatchOSSimulator, TvOSSimulator, VisionOSSimulator:
		return true
	}
	return false
}

// ParsePlatform maps the caller-facing platform name to its Platform.
func ParsePlatform(name string) (Platform, error) {
	for p, n := range platformNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown platform %q", name)
}

// Spec describes one build/test/run target. SimulatorName and SimulatorID
// are mutually exclusive inputs; for simulator platforms exactly one of
// them must be resolvable before the toolchain is invoked.
type Spec struct {
	Platform      Platform
	SimulatorName string
	SimulatorID   string
	DeviceID      string
	UseLatestOS   bool
}
