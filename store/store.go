// Package store persists jobs, video artifacts and per-step completion
// records. Two implementations exist: a SQLite-backed GORM store and a
// mutex-guarded in-memory store for tests and development.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"videoreach/types"
)

var (
	ErrJobNotFound   = errors.New("store: job not found")
	ErrVideoNotFound = errors.New("store: video not found")
	ErrJobExists     = errors.New("store: job already exists")
)

// Store is the persistence contract for the pipeline and the API surface.
// The pipeline never runs two steps of one job concurrently, so only
// single-record atomicity is required.
type Store interface {
	CreateJob(ctx context.Context, job *types.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error)
	SaveJob(ctx context.Context, job *types.Job) error

	CreateVideo(ctx context.Context, video *types.Video) error
	GetVideo(ctx context.Context, id uuid.UUID) (*types.Video, error)
	GetVideoByJob(ctx context.Context, jobID uuid.UUID) (*types.Video, error)
	SaveVideo(ctx context.Context, video *types.Video) error
	ListPublishedVideos(ctx context.Context) ([]*types.Video, error)

	// MarkStepDone records that a step completed for a job. StepDone is the
	// re-entry guard: a redelivered step sees the record and skips its side
	// effects.
	MarkStepDone(ctx context.Context, jobID uuid.UUID, step string) error
	StepDone(ctx context.Context, jobID uuid.UUID, step string) (bool, error)

	Close() error
}
