package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"videoreach/types"
)

var _ Store = (*Memory)(nil)

// Memory is a fully in-memory Store. Safe for concurrent access. Intended
// for unit testing and development.
type Memory struct {
	mu sync.RWMutex

	jobs   map[uuid.UUID]*types.Job
	videos map[uuid.UUID]*types.Video
	steps  map[string]struct{} // key: "jobID:step"
}

// NewMemory returns a new empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		jobs:   make(map[uuid.UUID]*types.Job),
		videos: make(map[uuid.UUID]*types.Video),
		steps:  make(map[string]struct{}),
	}
}

func (m *Memory) CreateJob(_ context.Context, job *types.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[job.ID]; exists {
		return ErrJobExists
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *Memory) GetJob(_ context.Context, id uuid.UUID) (*types.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *Memory) SaveJob(_ context.Context, job *types.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[job.ID]; !ok {
		return ErrJobNotFound
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *Memory) CreateVideo(_ context.Context, video *types.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *video
	m.videos[video.ID] = &cp
	return nil
}

func (m *Memory) GetVideo(_ context.Context, id uuid.UUID) (*types.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	video, ok := m.videos[id]
	if !ok {
		return nil, ErrVideoNotFound
	}
	cp := *video
	return &cp, nil
}

func (m *Memory) GetVideoByJob(_ context.Context, jobID uuid.UUID) (*types.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, video := range m.videos {
		if video.JobID == jobID {
			cp := *video
			return &cp, nil
		}
	}
	return nil, ErrVideoNotFound
}

func (m *Memory) SaveVideo(_ context.Context, video *types.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.videos[video.ID]; !ok {
		return ErrVideoNotFound
	}
	cp := *video
	m.videos[video.ID] = &cp
	return nil
}

func (m *Memory) ListPublishedVideos(_ context.Context) ([]*types.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*types.Video
	for _, video := range m.videos {
		if video.Published {
			cp := *video
			out = append(out, &cp)
		}
	}
	// Map order is random; newest first keeps listings deterministic.
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) MarkStepDone(_ context.Context, jobID uuid.UUID, step string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.steps[jobID.String()+":"+step] = struct{}{}
	return nil
}

func (m *Memory) StepDone(_ context.Context, jobID uuid.UUID, step string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.steps[jobID.String()+":"+step]
	return ok, nil
}

func (m *Memory) Close() error { return nil }
