package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/coachly/internal/classify"
	"github.com/claude/coachly/internal/ingest/sheet"
	coachmcp "github.com/claude/coachly/internal/mcp"
	"github.com/claude/coachly/internal/models"
	"github.com/claude/coachly/internal/periodize"
	"github.com/claude/coachly/internal/storage"
	"github.com/go-chi/chi/v5"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Store is the persistence the HTTP handlers need. *storage.DB satisfies it.
type Store interface {
	GetProgram(ctx context.Context, ownerID, id string) (*models.Program, error)
	CreateProgram(ctx context.Context, p *models.Program) error
	ReplaceProgram(ctx context.Context, p *models.Program) error
	DeleteProgram(ctx context.Context, ownerID, id string) error
	ListPrograms(ctx context.Context, ownerID string) ([]storage.ProgramSummary, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, ownerID string, limit int) ([]storage.ImportLog, error)
	GetProgramStats(ctx context.Context, ownerID string) (*storage.ProgramStats, error)
	TouchUser(ctx context.Context, login, displayName string) error
}

var _ Store = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      Store
	engine     *periodize.Engine
	classifier classify.Classifier
	sheets     *sheet.Provider
	log        *slog.Logger
	apiKey     string
	whois      WhoIser
	mcp        http.Handler
	router     chi.Router
}

// New creates a new Server. classifier may be nil, in which case the
// classification endpoints answer 503.
func New(store Store, engine *periodize.Engine, classifier classify.Classifier, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:      store,
		engine:     engine,
		classifier: classifier,
		sheets:     sheet.NewProvider(store, engine, log),
		log:        log,
		apiKey:     apiKey,
	}
	s.buildRouter()
	return s
}

// SetTailscale switches caller identification to tailnet WhoIs lookups.
func (s *Server) SetTailscale(lc WhoIser) {
	s.whois = lc
	s.buildRouter()
}

// SetMCP mounts an MCP server at /mcp using the streamable HTTP transport.
// Tool calls run as the identified HTTP caller.
func (s *Server) SetMCP(m *mcpserver.MCPServer) {
	s.mcp = mcpserver.NewStreamableHTTPServer(m,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return coachmcp.WithOwner(ctx, ownerID(r))
		}),
	)
	s.buildRouter()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) identity() func(http.Handler) http.Handler {
	if s.whois != nil {
		return TailscaleIdentity(s.whois, s.store.TouchUser, s.log)
	}
	return DevIdentity
}

func (s *Server) buildRouter() {
	r := chi.NewRouter()
	r.Use(RequestLogging(s.log))
	r.Use(CORS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity())

		// Sheet uploads come from scripts, not browsers (API key required)
		r.With(APIKeyAuth(s.apiKey)).Post("/sheets/import", s.handleSheetImport)

		// Stateless conversions on a posted document
		r.Post("/programs/toggle", s.handleToggleDocument)
		r.Post("/programs/import", s.handleImportDocument)
		r.Post("/exercises/classify", s.handleClassify)
		r.Get("/muscle-groups", s.handleMuscleGroups)

		r.Get("/programs", s.handleListPrograms)
		r.Post("/programs", s.handleCreateProgram)
		r.Route("/programs/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetProgram)
			r.Put("/", s.handleReplaceProgram)
			r.Delete("/", s.handleDeleteProgram)
			r.Post("/toggle", s.handleToggleStored)
			r.Post("/import", s.handleImportStored)
			r.Post("/enrich", s.handleEnrichStored)
			r.Get("/export.xlsx", s.handleExportXLSX)
		})

		r.Get("/me", s.handleMe)
		r.Get("/stats", s.handleStats)
		r.Get("/import-logs", s.handleImportLogs)
	})

	if s.mcp != nil {
		r.With(s.identity()).Handle("/mcp", s.mcp)
	}

	s.router = r
}
