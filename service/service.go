// Package service implements the caller-facing operations: job submission
// with synchronous validation, status and artifact queries, publishing,
// and the auxiliary answer/TTS/post operations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"videoreach/queue"
	"videoreach/script"
	"videoreach/speech"
	"videoreach/store"
	"videoreach/types"
)

// ValidationError rejects bad input before any job is created. It is the
// only error surfaced synchronously at submission time.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ChainRunner runs the full pipeline chain for one job.
type ChainRunner interface {
	Run(ctx context.Context, jobID uuid.UUID)
}

// Assistant answers questions and generates social post content.
type Assistant interface {
	Answer(ctx context.Context, question, speech string) (string, error)
	GeneratePostContent(ctx context.Context, script string) ([]types.PostContent, error)
}

// SpeechSynthesizer writes spoken audio for a text to a file.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, language, outFile string) ([]types.VisemeFrame, error)
}

// Service ties the store, the queue and the pipeline together.
type Service struct {
	store     store.Store
	queue     *queue.Queue
	chain     ChainRunner
	assistant Assistant
	speech    SpeechSynthesizer
	tempDir   string
	logger    *slog.Logger
}

// New creates a Service.
func New(st store.Store, q *queue.Queue, chain ChainRunner, assistant Assistant, synth SpeechSynthesizer, tempDir string, logger *slog.Logger) *Service {
	return &Service{
		store:     st,
		queue:     q,
		chain:     chain,
		assistant: assistant,
		speech:    synth,
		tempDir:   tempDir,
		logger:    logger,
	}
}

// CreateJobRequest is one submission. Exactly one of FilePath and Text is
// set; FilePath points at the already-saved upload.
type CreateJobRequest struct {
	FilePath   string
	Text       string
	Preference string
	Language   string
}

// CreateJob validates the submission, persists the job in queued state and
// enqueues its chain. Validation failures return *ValidationError and no
// job is created.
func (s *Service) CreateJob(ctx context.Context, req CreateJobRequest) (*types.Job, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	job := &types.Job{
		ID:         uuid.New(),
		FilePath:   req.FilePath,
		Text:       req.Text,
		Preference: req.Preference,
		Language:   req.Language,
		Status:     types.StatusQueued,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	jobID := job.ID
	if err := s.queue.Enqueue(func(ctx context.Context) {
		s.chain.Run(ctx, jobID)
	}); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	s.logger.Info("job accepted", "job", job.ID, "language", job.Language)
	return job, nil
}

func validate(req CreateJobRequest) error {
	if req.FilePath == "" && req.Text == "" {
		return &ValidationError{Message: "provide a document or text"}
	}
	if req.FilePath != "" && req.Text != "" {
		return &ValidationError{Message: "provide either a document or text, not both"}
	}
	if req.FilePath != "" {
		ext := strings.ToLower(filepath.Ext(req.FilePath))
		if !script.SupportedExtension(ext) {
			return &ValidationError{Message: fmt.Sprintf("invalid file format %q; accepted formats are: .pdf, .doc, .docx, .pptx, .jpg, .jpeg, .png", ext)}
		}
	}
	if !speech.Supported(req.Language) {
		return &ValidationError{Message: fmt.Sprintf("invalid language selection; supported languages: %s", strings.Join(speech.SupportedLanguages(), ", "))}
	}
	return nil
}

// JobStatus is the status projection for one job. VideoID is set only when
// the job completed and its video record exists.
type JobStatus struct {
	JobID   uuid.UUID    `json:"job_id"`
	Status  types.Status `json:"status"`
	VideoID *uuid.UUID   `json:"video_id,omitempty"`
}

// Status reports the job's current status. For a completed job whose video
// record has not appeared yet, the video lookup's not-found is surfaced
// as-is: the caller sees NotFound rather than a half-built completed view.
func (s *Service) Status(ctx context.Context, jobID uuid.UUID) (*JobStatus, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	status := &JobStatus{JobID: job.ID, Status: job.Status}
	if job.Status == types.StatusCompleted {
		video, err := s.store.GetVideoByJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		status.VideoID = &video.ID
	}
	return status, nil
}

// Video returns the artifact record by its id.
func (s *Service) Video(ctx context.Context, videoID uuid.UUID) (*types.Video, error) {
	return s.store.GetVideo(ctx, videoID)
}

// Publish marks a video published.
func (s *Service) Publish(ctx context.Context, videoID uuid.UUID) error {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return err
	}
	video.Published = true
	return s.store.SaveVideo(ctx, video)
}

// ListPublished lists all published videos, newest first.
func (s *Service) ListPublished(ctx context.Context) ([]*types.Video, error) {
	return s.store.ListPublishedVideos(ctx)
}

// Answer responds to a user question in the requested speech register.
func (s *Service) Answer(ctx context.Context, question, speechRegister string) (string, error) {
	if question == "" {
		return "", &ValidationError{Message: "'question' is required"}
	}
	return s.assistant.Answer(ctx, question, speechRegister)
}

// Synthesize converts text to spoken audio and returns the WAV bytes plus
// the viseme track.
func (s *Service) Synthesize(ctx context.Context, text, language string) ([]byte, []types.VisemeFrame, error) {
	if text == "" {
		return nil, nil, &ValidationError{Message: "'text' is required"}
	}
	if language == "" {
		language = "English"
	}
	if !speech.Supported(language) {
		return nil, nil, &ValidationError{Message: fmt.Sprintf("invalid language selection; supported languages: %s", strings.Join(speech.SupportedLanguages(), ", "))}
	}

	outFile := filepath.Join(s.tempDir, uuid.NewString()+".wav")
	defer os.Remove(outFile)

	visemes, err := s.speech.Synthesize(ctx, text, language, outFile)
	if err != nil {
		return nil, nil, fmt.Errorf("synthesize: %w", err)
	}

	audio, err := os.ReadFile(outFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, visemes, nil
}

// GeneratePosts derives social post contents from a job's script.
func (s *Service) GeneratePosts(ctx context.Context, jobID uuid.UUID) ([]types.PostContent, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Script == "" {
		return nil, &ValidationError{Message: "job has no script yet"}
	}
	return s.assistant.GeneratePostContent(ctx, job.Script)
}
