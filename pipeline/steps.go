package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"videoreach/script"
	"videoreach/store"
	"videoreach/types"
)

// ScriptGenerator is the script-generation collaborator.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, req script.Request) (string, error)
}

// VideoProducer is the speech+video-synthesis collaborator.
type VideoProducer interface {
	Produce(ctx context.Context, job *types.Job) (*types.Video, error)
}

// Campaigner is the targeting/outreach collaborator. Run returns the path
// of the persisted target list.
type Campaigner interface {
	Run(ctx context.Context, job *types.Job, video *types.Video) (string, error)
}

// ScriptStep turns the job's input document or text into a narration
// script. It is the first step and moves the job into processing.
type ScriptStep struct {
	generator ScriptGenerator
	logger    *slog.Logger
}

// NewScriptStep creates the script step.
func NewScriptStep(generator ScriptGenerator, logger *slog.Logger) *ScriptStep {
	return &ScriptStep{generator: generator, logger: logger}
}

func (s *ScriptStep) Name() string { return "generate_script" }

func (s *ScriptStep) Run(ctx context.Context, job *types.Job) error {
	job.Status = types.StatusProcessing

	text, err := s.generator.GenerateScript(ctx, script.Request{
		Text:       job.Text,
		FilePath:   job.FilePath,
		Preference: job.Preference,
		Language:   job.Language,
	})
	if err != nil {
		job.Script = ""
		return fmt.Errorf("generate script: %w", err)
	}

	job.Script = text
	s.logger.Info("script generated", "job", job.ID, "chars", len(text))
	return nil
}

// VideoStep renders the slideshow video for the script and persists the
// Video artifact, linked back to the job.
type VideoStep struct {
	store    store.Store
	producer VideoProducer
	logger   *slog.Logger
}

// NewVideoStep creates the video step.
func NewVideoStep(st store.Store, producer VideoProducer, logger *slog.Logger) *VideoStep {
	return &VideoStep{store: st, producer: producer, logger: logger}
}

func (s *VideoStep) Name() string { return "process_video" }

func (s *VideoStep) Run(ctx context.Context, job *types.Job) error {
	video, err := s.producer.Produce(ctx, job)
	if err != nil {
		return fmt.Errorf("produce video: %w", err)
	}
	if err := s.store.CreateVideo(ctx, video); err != nil {
		return fmt.Errorf("persist video: %w", err)
	}
	s.logger.Info("video produced", "job", job.ID, "video", video.ID, "duration_sec", video.DurationSec)
	return nil
}

// OutreachStep runs the campaign and, as the terminal step, marks the job
// completed once the target list verifiably exists.
type OutreachStep struct {
	store    store.Store
	campaign Campaigner
	logger   *slog.Logger
}

// NewOutreachStep creates the outreach step.
func NewOutreachStep(st store.Store, campaign Campaigner, logger *slog.Logger) *OutreachStep {
	return &OutreachStep{store: st, campaign: campaign, logger: logger}
}

func (s *OutreachStep) Name() string { return "send_campaign" }

func (s *OutreachStep) Run(ctx context.Context, job *types.Job) error {
	video, err := s.store.GetVideoByJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load video for job: %w", err)
	}

	listPath, err := s.campaign.Run(ctx, job, video)
	if err != nil {
		return fmt.Errorf("run campaign: %w", err)
	}

	// The campaign may have attached the external video id.
	if err := s.store.SaveVideo(ctx, video); err != nil {
		return fmt.Errorf("persist video after campaign: %w", err)
	}

	if _, err := os.Stat(listPath); err != nil {
		return fmt.Errorf("target list missing after campaign: %w", err)
	}

	job.Status = types.StatusCompleted
	s.logger.Info("campaign finished", "job", job.ID, "target_list", listPath)
	return nil
}
