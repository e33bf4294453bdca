package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/coachly/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) muscleGroups(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, models.MuscleGroups)
}

func (h *handlers) programs(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list, err := h.ds.ListPrograms(ctx, OwnerFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, list)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
