package mcp

import (
	"context"

	"github.com/claude/repbuddy/internal/models"
	"github.com/claude/repbuddy/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.Store
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	GetWorkouts(ctx context.Context) ([]models.Workout, error)
	GetWorkout(ctx context.Context, id string) (models.Workout, error)
	GetExercises(ctx context.Context) ([]models.Exercise, error)
	GetRoutines(ctx context.Context) ([]models.Routine, error)
	GetProfile(ctx context.Context) (models.UserProfile, error)
}

// Compile-time check: *storage.Store satisfies DataSource.
var _ DataSource = (*storage.Store)(nil)
