package mcp

import (
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepBuddy", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepBuddy workout log. Read workout history, the exercise library, routines and training volume. Weights are in kilograms; bodyweight exercises have no volume."),
	)

	h := &handlers{ds: ds, log: log, now: time.Now}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolGetTrainingSummary, Handler: h.getTrainingSummary},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolListRoutines, Handler: h.listRoutines},
		server.ServerTool{Tool: toolExportMarkdown, Handler: h.exportMarkdown},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
	now func() time.Time
}

// --- Resource definitions ---

var resRecentWorkouts = mcp.NewResource(
	"repbuddy://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts from the last 14 days, newest first"),
	mcp.WithMIMEType("application/json"),
)

var resExerciseCatalog = mcp.NewResource(
	"repbuddy://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All exercises in the library with muscle group, equipment and bodyweight flag"),
	mcp.WithMIMEType("application/json"),
)
