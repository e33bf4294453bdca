package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/claude/coachly/internal/classify"
	"github.com/claude/coachly/internal/periodize"
	"github.com/claude/coachly/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

// textClassifier is implemented by classifiers that can answer in prose.
type textClassifier interface {
	ClassifyText(ctx context.Context, names []string) (string, error)
}

// --- Tool definitions ---

var toolTogglePeriodization = mcp.NewTool("toggle_periodization",
	mcp.WithDescription("Convert a stored program between a flat layout (one set of routines repeated every week) and a periodized layout (routines scheduled week by week). Flat to periodized copies the routine order into every week of the program's duration. Periodized to flat keeps only the first scheduled week. The converted program is saved in place."),
	mcp.WithString("program_id", mcp.Required(), mcp.Description("ID of the program to convert")),
	mcp.WithBoolean("dry_run", mcp.Description("Return the converted program without saving it. Defaults to false.")),
)

var toolImportProgram = mcp.NewTool("import_program",
	mcp.WithDescription("Copy one of your template programs to a user. The copy gets fresh IDs, is owned by the target user, and keeps the template's layout and schedule."),
	mcp.WithString("program_id", mcp.Required(), mcp.Description("ID of the template program to copy")),
	mcp.WithString("target_user_id", mcp.Description("Login of the user receiving the copy. Defaults to you.")),
)

var toolClassifyExercises = mcp.NewTool("classify_exercises",
	mcp.WithDescription("Label exercise names with their primary muscle group using the configured language model."),
	mcp.WithArray("names", mcp.Required(), mcp.Description("Exercise names to classify"), mcp.WithStringItems()),
	mcp.WithString("format", mcp.Description("Answer format. Defaults to 'json'."), mcp.Enum("json", "text")),
)

var toolEnrichProgram = mcp.NewTool("enrich_program",
	mcp.WithDescription("Label every exercise in a stored program with its muscle group and save the result. If classification fails the program is left unchanged."),
	mcp.WithString("program_id", mcp.Required(), mcp.Description("ID of the program to enrich")),
)

var toolGetProgram = mcp.NewTool("get_program",
	mcp.WithDescription("Retrieve a stored program with its placements and routine library."),
	mcp.WithString("program_id", mcp.Required(), mcp.Description("Program ID")),
)

var toolListPrograms = mcp.NewTool("list_programs",
	mcp.WithDescription("List your stored programs with title, duration and layout."),
)

// --- Tool handlers ---

func (h *handlers) togglePeriodization(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program_id")
	if err != nil {
		return mcp.NewToolResultError("program_id parameter is required"), nil
	}

	p, err := h.ds.GetProgram(ctx, OwnerFromContext(ctx), id)
	if err != nil {
		return h.failure("toggle_periodization", err), nil
	}
	out, err := h.engine.TogglePeriodization(p)
	if err != nil {
		return h.failure("toggle_periodization", err), nil
	}
	if !req.GetBool("dry_run", false) {
		if err := h.ds.ReplaceProgram(ctx, out); err != nil {
			return h.failure("toggle_periodization", err), nil
		}
	}
	return jsonResult(out)
}

func (h *handlers) importProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program_id")
	if err != nil {
		return mcp.NewToolResultError("program_id parameter is required"), nil
	}
	owner := OwnerFromContext(ctx)
	target := strings.TrimSpace(req.GetString("target_user_id", ""))
	if target == "" {
		target = owner
	}

	src, err := h.ds.GetProgram(ctx, owner, id)
	if err != nil {
		return h.failure("import_program", err), nil
	}
	out, err := h.engine.ImportProgram(src, target)
	if err != nil {
		return h.failure("import_program", err), nil
	}
	if err := h.ds.CreateProgram(ctx, out); err != nil {
		return h.failure("import_program", err), nil
	}
	return jsonResult(out)
}

func (h *handlers) classifyExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.classifier == nil {
		return mcp.NewToolResultError("classification is not configured"), nil
	}
	names := req.GetStringSlice("names", nil)
	if len(names) == 0 {
		return mcp.NewToolResultError("names parameter is required"), nil
	}

	if req.GetString("format", "json") == "text" {
		tc, ok := h.classifier.(textClassifier)
		if !ok {
			return mcp.NewToolResultError("text format is not supported by this classifier"), nil
		}
		text, err := tc.ClassifyText(ctx, names)
		if err != nil {
			return h.failure("classify_exercises", err), nil
		}
		return mcp.NewToolResultText(text), nil
	}

	labels, err := h.classifier.Classify(ctx, names)
	if err != nil {
		return h.failure("classify_exercises", err), nil
	}
	return jsonResult(labels)
}

func (h *handlers) enrichProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.classifier == nil {
		return mcp.NewToolResultError("classification is not configured"), nil
	}
	id, err := req.RequireString("program_id")
	if err != nil {
		return mcp.NewToolResultError("program_id parameter is required"), nil
	}

	p, err := h.ds.GetProgram(ctx, OwnerFromContext(ctx), id)
	if err != nil {
		return h.failure("enrich_program", err), nil
	}
	out, err := classify.Enrich(ctx, h.classifier, p)
	if err != nil {
		return h.failure("enrich_program", err), nil
	}
	if err := h.ds.ReplaceProgram(ctx, out); err != nil {
		return h.failure("enrich_program", err), nil
	}
	return jsonResult(out)
}

func (h *handlers) getProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program_id")
	if err != nil {
		return mcp.NewToolResultError("program_id parameter is required"), nil
	}
	p, err := h.ds.GetProgram(ctx, OwnerFromContext(ctx), id)
	if err != nil {
		return h.failure("get_program", err), nil
	}
	return jsonResult(p)
}

func (h *handlers) listPrograms(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.ds.ListPrograms(ctx, OwnerFromContext(ctx))
	if err != nil {
		return h.failure("list_programs", err), nil
	}
	return jsonResult(list)
}

// failure turns an error into a tool error result. Caller mistakes are
// reported as-is; anything else is logged.
func (h *handlers) failure(tool string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, periodize.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return mcp.NewToolResultError("program not found")
	case errors.Is(err, periodize.ErrValidation):
		return mcp.NewToolResultError(err.Error())
	case errors.Is(err, storage.ErrConflict):
		return mcp.NewToolResultError("program was modified concurrently, retry")
	case errors.Is(err, classify.ErrExternalService):
		h.log.Warn("mcp "+tool, "error", err)
		return mcp.NewToolResultError("classification service unavailable: " + err.Error())
	}
	h.log.Error("mcp "+tool, "error", err)
	return mcp.NewToolResultError(tool + " failed: " + err.Error())
}

func jsonResult[T any](v T) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
