package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"videoreach/types"
)

func TestMemoryJobs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	job := &types.Job{
		ID:        uuid.New(),
		Text:      "a short brief",
		Language:  "English",
		Status:    types.StatusQueued,
		CreatedAt: time.Now(),
	}
	if err := m.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if err := m.CreateJob(ctx, job); !errors.Is(err, ErrJobExists) {
		t.Fatalf("CreateJob() duplicate error = %v, want %v", err, ErrJobExists)
	}

	got, err := m.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Text != job.Text || got.Status != types.StatusQueued {
		t.Errorf("GetJob() = %+v", got)
	}

	// The store must hand out copies, not aliases.
	got.Status = types.StatusFailed
	again, err := m.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if again.Status != types.StatusQueued {
		t.Errorf("mutating a returned job leaked into the store: status = %v", again.Status)
	}

	job.Status = types.StatusProcessing
	if err := m.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}
	saved, _ := m.GetJob(ctx, job.ID)
	if saved.Status != types.StatusProcessing {
		t.Errorf("SaveJob() not persisted, status = %v", saved.Status)
	}

	if _, err := m.GetJob(ctx, uuid.New()); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("GetJob(unknown) error = %v, want %v", err, ErrJobNotFound)
	}
	if err := m.SaveJob(ctx, &types.Job{ID: uuid.New()}); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("SaveJob(unknown) error = %v, want %v", err, ErrJobNotFound)
	}
}

func TestMemoryVideos(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	jobID := uuid.New()
	video := &types.Video{
		ID:        uuid.New(),
		JobID:     jobID,
		Title:     "Home Loans Explained",
		VideoFile: "media/videos/out.mp4",
		CreatedAt: time.Now(),
	}
	if err := m.CreateVideo(ctx, video); err != nil {
		t.Fatalf("CreateVideo() error = %v", err)
	}

	byJob, err := m.GetVideoByJob(ctx, jobID)
	if err != nil {
		t.Fatalf("GetVideoByJob() error = %v", err)
	}
	if byJob.ID != video.ID {
		t.Errorf("GetVideoByJob() = %v, want %v", byJob.ID, video.ID)
	}
	if _, err := m.GetVideoByJob(ctx, uuid.New()); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("GetVideoByJob(unknown) error = %v, want %v", err, ErrVideoNotFound)
	}
	if _, err := m.GetVideo(ctx, uuid.New()); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("GetVideo(unknown) error = %v, want %v", err, ErrVideoNotFound)
	}

	video.Published = true
	video.ExternalID = "yt123"
	if err := m.SaveVideo(ctx, video); err != nil {
		t.Fatalf("SaveVideo() error = %v", err)
	}
	got, _ := m.GetVideo(ctx, video.ID)
	if !got.Published || got.ExternalID != "yt123" {
		t.Errorf("SaveVideo() not persisted: %+v", got)
	}
}

func TestMemoryListPublishedVideos(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	base := time.Now()
	older := &types.Video{ID: uuid.New(), JobID: uuid.New(), Published: true, CreatedAt: base.Add(-time.Hour)}
	newer := &types.Video{ID: uuid.New(), JobID: uuid.New(), Published: true, CreatedAt: base}
	draft := &types.Video{ID: uuid.New(), JobID: uuid.New(), Published: false, CreatedAt: base.Add(time.Hour)}
	for _, v := range []*types.Video{older, newer, draft} {
		if err := m.CreateVideo(ctx, v); err != nil {
			t.Fatal(err)
		}
	}

	list, err := m.ListPublishedVideos(ctx)
	if err != nil {
		t.Fatalf("ListPublishedVideos() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListPublishedVideos() returned %d videos, want 2", len(list))
	}
	if list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Errorf("ListPublishedVideos() not newest first: %v then %v", list[0].ID, list[1].ID)
	}
}

func TestMemoryStepRecords(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	jobID := uuid.New()

	done, err := m.StepDone(ctx, jobID, "generate_script")
	if err != nil {
		t.Fatalf("StepDone() error = %v", err)
	}
	if done {
		t.Fatal("StepDone() = true before any mark")
	}

	if err := m.MarkStepDone(ctx, jobID, "generate_script"); err != nil {
		t.Fatalf("MarkStepDone() error = %v", err)
	}
	// Marking twice is fine; redelivery must not error.
	if err := m.MarkStepDone(ctx, jobID, "generate_script"); err != nil {
		t.Fatalf("MarkStepDone() repeat error = %v", err)
	}

	done, _ = m.StepDone(ctx, jobID, "generate_script")
	if !done {
		t.Error("StepDone() = false after mark")
	}
	done, _ = m.StepDone(ctx, jobID, "process_video")
	if done {
		t.Error("StepDone() leaked across step names")
	}
	done, _ = m.StepDone(ctx, uuid.New(), "generate_script")
	if done {
		t.Error("StepDone() leaked across jobs")
	}
}
