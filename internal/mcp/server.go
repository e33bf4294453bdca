package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/coachly/internal/classify"
	"github.com/claude/coachly/internal/periodize"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const ownerKey contextKey = iota

// defaultOwner matches the login the HTTP server uses without Tailscale.
const defaultOwner = "local"

// OwnerFromContext extracts the owner injected by the transport layer.
func OwnerFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ownerKey).(string); ok && id != "" {
		return id
	}
	return defaultOwner
}

// WithOwner returns a context with the given owner.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey, ownerID)
}

// New creates an MCP server with all tools and resources registered.
// classifier may be nil, in which case the classification tools report that
// classification is not configured.
func New(ds DataSource, engine *periodize.Engine, classifier classify.Classifier, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Coachly", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Coachly training program server. Convert programs between flat and week-by-week layouts, copy templates to athletes, and label exercises with muscle groups. All programs are scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, engine: engine, classifier: classifier, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolTogglePeriodization, Handler: h.togglePeriodization},
		server.ServerTool{Tool: toolImportProgram, Handler: h.importProgram},
		server.ServerTool{Tool: toolClassifyExercises, Handler: h.classifyExercises},
		server.ServerTool{Tool: toolEnrichProgram, Handler: h.enrichProgram},
		server.ServerTool{Tool: toolGetProgram, Handler: h.getProgram},
		server.ServerTool{Tool: toolListPrograms, Handler: h.listPrograms},
	)

	s.AddResources(
		server.ServerResource{Resource: resMuscleGroups, Handler: h.muscleGroups},
		server.ServerResource{Resource: resPrograms, Handler: h.programs},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds         DataSource
	engine     *periodize.Engine
	classifier classify.Classifier
	log        *slog.Logger
}

// --- Resource definitions ---

var resMuscleGroups = mcp.NewResource(
	"coachly://muscle_groups",
	"Muscle Groups",
	mcp.WithResourceDescription("The muscle group labels exercises can be classified into"),
	mcp.WithMIMEType("application/json"),
)

var resPrograms = mcp.NewResource(
	"coachly://programs",
	"Programs",
	mcp.WithResourceDescription("Summaries of the caller's stored training programs"),
	mcp.WithMIMEType("application/json"),
)
