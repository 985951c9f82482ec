// Package server exposes the toolchain as MCP tools. Each tool is a thin
// policy wrapper: declare a schema and rule set, resolve parameters against
// session defaults, hand off to the destination resolver and the command
// runner, and interpret the output into a structured response.
package server

import (
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/notexe/xcode-mcp/internal/command"
	"github.com/notexe/xcode-mcp/internal/destination"
	"github.com/notexe/xcode-mcp/internal/devices"
	"github.com/notexe/xcode-mcp/internal/logcapture"
	"github.com/notexe/xcode-mcp/internal/session"
	"github.com/notexe/xcode-mcp/internal/xcode"
)

const (
	serverName    = "xcode-mcp"
	serverVersion = "1.0.0"
)

// Server is the MCP server for Xcode build, simulator, device, and log
// capture automation.
type Server struct {
	mcpServer *server.MCPServer
	runner    command.Runner
	store     *session.Store
	dest      *destination.Resolver
	driver    *xcode.Driver
	devices   *devices.Lister
	capture   *logcapture.Manager
	log       zerolog.Logger
}

// New wires the core components into a tool catalog.
func New(runner command.Runner, capture *logcapture.Manager, commandTimeout time.Duration, log zerolog.Logger) *Server {
	s := &Server{
		runner:  runner,
		store:   session.NewStore(),
		dest:    destination.NewResolver(runner),
		driver:  xcode.NewDriver(runner, commandTimeout),
		devices: devices.NewLister(runner),
		capture: capture,
		log:     log.With().Str("component", "server").Logger(),
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerBuildTools()
	s.registerSimulatorTools()
	s.registerDeviceTools()
	s.registerCaptureTools()
	s.registerDefaultsTools()

	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerBuildTools() {
	destParams := []mcp.ToolOption{
		mcp.WithString("platform", mcp.Description("Target platform: iOS, watchOS, tvOS, visionOS, macOS, or their ' Simulator' variants (default: iOS Simulator)")),
		mcp.WithString("simulatorName", mcp.Description("Simulator name, e.g. 'iPhone 16' (mutually exclusive with simulatorId)")),
		mcp.WithString("simulatorId", mcp.Description("Simulator UDID (mutually exclusive with simulatorName)")),
		mcp.WithString("deviceId", mcp.Description("Physical device identifier, for device platforms")),
		mcp.WithBoolean("useLatestOS", mcp.Description("Address the simulator by name and let xcodebuild pick the latest runtime")),
	}
	projectParams := []mcp.ToolOption{
		mcp.WithString("projectPath", mcp.Description("Path to the .xcodeproj (mutually exclusive with workspacePath)")),
		mcp.WithString("workspacePath", mcp.Description("Path to the .xcworkspace (mutually exclusive with projectPath)")),
		mcp.WithString("scheme", mcp.Description("Build scheme name")),
		mcp.WithString("configuration", mcp.Description("Build configuration (default: Debug)")),
		mcp.WithString("derivedDataPath", mcp.Description("Custom derived data path")),
	}

	buildOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Build a scheme for the resolved destination"),
	}, append(projectParams, destParams...)...)
	s.mcpServer.AddTool(mcp.NewTool("build", buildOpts...), s.handleBuild)

	runOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Build a scheme, then install and launch the app on the resolved simulator"),
	}, append(projectParams, destParams...)...)
	s.mcpServer.AddTool(mcp.NewTool("build_run", runOpts...), s.handleBuildRun)

	testOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Run the scheme's tests on the resolved destination"),
	}, append(projectParams, destParams...)...)
	s.mcpServer.AddTool(mcp.NewTool("test", testOpts...), s.handleTest)

	cleanOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Clean build artifacts for a scheme"),
	}, projectParams...)
	s.mcpServer.AddTool(mcp.NewTool("clean", cleanOpts...), s.handleClean)

	settingsOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Show resolved build settings for a scheme"),
	}, append(projectParams, destParams...)...)
	s.mcpServer.AddTool(mcp.NewTool("show_build_settings", settingsOpts...), s.handleShowBuildSettings)

	s.mcpServer.AddTool(
		mcp.NewTool("list_schemes",
			mcp.WithDescription("List available schemes in a project or workspace"),
			mcp.WithString("projectPath", mcp.Description("Path to the .xcodeproj")),
			mcp.WithString("workspacePath", mcp.Description("Path to the .xcworkspace")),
		),
		s.handleListSchemes,
	)
}

func (s *Server) registerSimulatorTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("list_simulators",
			mcp.WithDescription("List all available simulators with UDID, name, state, and runtime"),
		),
		s.handleListSimulators,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("boot_simulator",
			mcp.WithDescription("Boot a simulator by UDID or name"),
			mcp.WithString("simulatorId", mcp.Description("Simulator UDID")),
			mcp.WithString("simulatorName", mcp.Description("Simulator name")),
		),
		s.handleBootSimulator,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("open_simulator",
			mcp.WithDescription("Open the Simulator app"),
		),
		s.handleOpenSimulator,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("screenshot",
			mcp.WithDescription("Capture the simulator screen to a file"),
			mcp.WithString("simulatorId", mcp.Description("Simulator UDID")),
			mcp.WithString("simulatorName", mcp.Description("Simulator name")),
			mcp.WithString("outputPath", mcp.Description("Output file path (default: temp file)")),
		),
		s.handleScreenshot,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("install_app",
			mcp.WithDescription("Install an app bundle on a simulator"),
			mcp.WithString("simulatorId", mcp.Description("Simulator UDID")),
			mcp.WithString("simulatorName", mcp.Description("Simulator name")),
			mcp.WithString("appPath", mcp.Required(), mcp.Description("Path to the .app bundle")),
		),
		s.handleInstallApp,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("launch_app",
			mcp.WithDescription("Launch an app on a simulator"),
			mcp.WithString("simulatorId", mcp.Description("Simulator UDID")),
			mcp.WithString("simulatorName", mcp.Description("Simulator name")),
			mcp.WithString("bundleId", mcp.Required(), mcp.Description("App bundle identifier")),
		),
		s.handleLaunchApp,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("stop_app",
			mcp.WithDescription("Terminate a running app on a simulator"),
			mcp.WithString("simulatorId", mcp.Description("Simulator UDID")),
			mcp.WithString("simulatorName", mcp.Description("Simulator name")),
			mcp.WithString("bundleId", mcp.Required(), mcp.Description("App bundle identifier")),
		),
		s.handleStopApp,
	)
}

func (s *Server) registerDeviceTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("list_devices",
			mcp.WithDescription("List physical devices with identifier, platform, and availability"),
		),
		s.handleListDevices,
	)
}

func (s *Server) registerCaptureTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("start_simulator_log_capture",
			mcp.WithDescription("Start capturing an app's log stream on a simulator; returns a session id"),
			mcp.WithString("simulatorId", mcp.Description("Simulator UDID")),
			mcp.WithString("simulatorName", mcp.Description("Simulator name")),
			mcp.WithString("bundleId", mcp.Required(), mcp.Description("App bundle identifier to capture")),
		),
		s.handleStartSimulatorCapture,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("start_device_log_capture",
			mcp.WithDescription("Launch an app on a device with its console captured; returns a session id"),
			mcp.WithString("deviceId", mcp.Required(), mcp.Description("Physical device identifier")),
			mcp.WithString("bundleId", mcp.Required(), mcp.Description("App bundle identifier to capture")),
		),
		s.handleStartDeviceCapture,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("stop_log_capture",
			mcp.WithDescription("Stop a log capture session and return the captured content"),
			mcp.WithString("sessionId", mcp.Required(), mcp.Description("Session id from a start capture tool")),
		),
		s.handleStopCapture,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_log_capture_sessions",
			mcp.WithDescription("List active log capture sessions"),
		),
		s.handleListCaptureSessions,
	)
}

func (s *Server) registerDefaultsTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("set_session_defaults",
			mcp.WithDescription("Remember default parameter values for subsequent tool calls in this session"),
			mcp.WithString("projectPath", mcp.Description("Default project path")),
			mcp.WithString("workspacePath", mcp.Description("Default workspace path")),
			mcp.WithString("scheme", mcp.Description("Default scheme")),
			mcp.WithString("configuration", mcp.Description("Default configuration")),
			mcp.WithString("platform", mcp.Description("Default platform")),
			mcp.WithString("simulatorName", mcp.Description("Default simulator name")),
			mcp.WithString("simulatorId", mcp.Description("Default simulator UDID")),
			mcp.WithString("deviceId", mcp.Description("Default device identifier")),
		),
		s.handleSetDefaults,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("show_session_defaults",
			mcp.WithDescription("Show the currently stored session defaults"),
		),
		s.handleShowDefaults,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("clear_session_defaults",
			mcp.WithDescription("Clear all stored session defaults"),
		),
		s.handleClearDefaults,
	)
}
