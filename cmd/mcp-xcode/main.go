// Command mcp-xcode provides an MCP server for Xcode toolchain automation.
//
// This server provides tools for:
// - Building and testing schemes (build, build_run, test, clean, show_build_settings)
// - Simulator management (list, boot, screenshot, install, launch)
// - Physical device listing via devicectl
// - Long-running log capture sessions for simulator and device apps
// - Session defaults shared by subsequent tool calls
//
// Usage:
//
//	./mcp-xcode          # Start MCP server (stdio)
//	./mcp-xcode --check  # Check prerequisites
//	./mcp-xcode --help   # Show help
//
// The server communicates via stdio using the MCP protocol; logs go to
// stderr.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/robfig/cron/v3"

	"github.com/notexe/xcode-mcp/internal/command"
	"github.com/notexe/xcode-mcp/internal/config"
	"github.com/notexe/xcode-mcp/internal/logcapture"
	"github.com/notexe/xcode-mcp/internal/logging"
	"github.com/notexe/xcode-mcp/internal/server"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--check", "-c":
			checkPrerequisites()
			return
		case "--help", "-h":
			printHelp()
			return
		}
	}

	cfg, err := config.Load(config.GetDefaultConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level)
	runner := command.NewLocalRunner(log)

	capture := logcapture.NewManager(runner, log)
	capture.SetRetention(cfg.Retention())
	if cfg.Capture.Dir != "" {
		capture.SetTempDir(cfg.Capture.Dir)
	}
	defer capture.StopAll()

	// Retention also runs on every capture start; the scheduled sweep
	// covers long-idle servers.
	if cfg.Capture.CleanupSchedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.Capture.CleanupSchedule, func() {
			capture.Sweep(time.Now())
		}); err != nil {
			log.Warn().Err(err).Str("schedule", cfg.Capture.CleanupSchedule).Msg("invalid cleanup schedule")
		} else {
			c.Start()
			defer c.Stop()
		}
	}

	s := server.New(runner, capture, cfg.CommandTimeout(), log)
	log.Info().Msg("mcp-xcode serving on stdio")

	if err := mcpserver.ServeStdio(s.MCPServer()); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`MCP Xcode Server - Xcode toolchain automation via MCP protocol

USAGE:
    mcp-xcode            Start MCP server (communicates via stdio)
    mcp-xcode --check    Check if prerequisites are installed
    mcp-xcode --help     Show this help

PREREQUISITES:
    1. Xcode & Command Line Tools
       xcode-select --install

    2. A simulator runtime (for simulator workflows)
       xcrun simctl list devices

CONFIGURATION:
    Optional YAML config at ~/.xcode-mcp/config.yaml:
      log:
        level: info
      command:
        timeout_seconds: 600
      capture:
        retention_days: 3
        cleanup_schedule: "@hourly"

    Add to your MCP client configuration:
    {
      "mcpServers": {
        "xcode": {
          "command": "/path/to/mcp-xcode",
          "args": []
        }
      }
    }

TOOLS:
    Build:     build, build_run, test, clean, show_build_settings, list_schemes
    Simulator: list_simulators, boot_simulator, open_simulator, screenshot,
               install_app, launch_app, stop_app
    Devices:   list_devices
    Capture:   start_simulator_log_capture, start_device_log_capture,
               stop_log_capture, list_log_capture_sessions
    Defaults:  set_session_defaults, show_session_defaults, clear_session_defaults`)
}

func checkPrerequisites() {
	fmt.Println("Checking MCP Xcode Server prerequisites...")
	fmt.Println()

	allGood := true

	fmt.Print("✓ Xcode Command Line Tools: ")
	if _, err := exec.LookPath("xcodebuild"); err != nil {
		fmt.Println("NOT FOUND")
		fmt.Println("  → Install: xcode-select --install")
		allGood = false
	} else {
		out, _ := exec.Command("xcodebuild", "-version").Output()
		fmt.Println(strings.Split(string(out), "\n")[0])
	}

	fmt.Print("✓ Simulator (simctl): ")
	if _, err := exec.LookPath("xcrun"); err != nil {
		fmt.Println("NOT FOUND")
		allGood = false
	} else {
		fmt.Println("OK")
	}

	fmt.Print("✓ Device control (devicectl): ")
	out, err := exec.Command("xcrun", "devicectl", "--version").Output()
	if err != nil {
		fmt.Println("NOT FOUND (device tools need Xcode 15+)")
	} else {
		fmt.Println(strings.TrimSpace(string(out)))
	}

	fmt.Print("✓ Booted Simulator: ")
	out, _ = exec.Command("xcrun", "simctl", "list", "devices", "-j").Output()
	if strings.Contains(string(out), `"state" : "Booted"`) {
		fmt.Println("YES")
	} else {
		fmt.Println("NONE")
		fmt.Println("  → Boot one: xcrun simctl boot \"iPhone 16\" && open -a Simulator")
	}

	fmt.Println()
	if allGood {
		fmt.Println("✅ All prerequisites met! MCP Xcode Server is ready to use.")
	} else {
		fmt.Println("❌ Some prerequisites are missing. Install them and run --check again.")
		os.Exit(1)
	}
}
