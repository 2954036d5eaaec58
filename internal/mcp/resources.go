package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

const recentWindowDays = 14

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	workouts, err := h.ds.GetWorkouts(ctx)
	if err != nil {
		return nil, err
	}
	end := h.now()
	recent := filterWorkouts(workouts, end.AddDate(0, 0, -recentWindowDays), end, "")
	return jsonResource(req.Params.URI, recent)
}

func (h *handlers) exerciseCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	exercises, err := h.ds.GetExercises(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, exercises)
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
