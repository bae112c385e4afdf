// Package pipeline runs the per-job chain of steps: script generation,
// video synthesis, and audience outreach. All durable state lives in the
// job record; the chain itself only holds the ordered step list, so a
// restarted chain resumes by re-reading the job and the per-step
// completion records.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"videoreach/store"
	"videoreach/types"
)

// Step is one retryable unit of work. Run mutates the job's domain fields;
// the chain persists the job afterwards. On error a step must have cleared
// any partially written field it owns before returning.
type Step interface {
	Name() string
	Run(ctx context.Context, job *types.Job) error
}

// Chain executes steps for one job strictly in order, aborting on the
// first failure. Failures are absorbed: the job is marked failed and
// logged, nothing propagates to the host.
type Chain struct {
	store  store.Store
	steps  []Step
	logger *slog.Logger
}

// NewChain creates a Chain over the given steps.
func NewChain(st store.Store, logger *slog.Logger, steps ...Step) *Chain {
	return &Chain{store: st, steps: steps, logger: logger}
}

// Run drives the job through every step. Terminal statuses are absorbing:
// once a job is failed or completed no further step executes. A step whose
// completion is already recorded is skipped, which keeps redelivered work
// from repeating side effects.
func (c *Chain) Run(ctx context.Context, jobID uuid.UUID) {
	for _, step := range c.steps {
		job, err := c.store.GetJob(ctx, jobID)
		if err != nil {
			c.logger.Error("load job", "job", jobID, "step", step.Name(), "error", err)
			return
		}
		if job.Status.Terminal() {
			c.logger.Info("chain halted at terminal status", "job", jobID, "status", job.Status)
			return
		}

		done, err := c.store.StepDone(ctx, jobID, step.Name())
		if err != nil {
			c.logger.Error("check step record", "job", jobID, "step", step.Name(), "error", err)
			return
		}
		if done {
			c.logger.Info("step already completed, skipping", "job", jobID, "step", step.Name())
			continue
		}

		if err := step.Run(ctx, job); err != nil {
			job.Status = types.StatusFailed
			job.LastError = err.Error()
			if saveErr := c.store.SaveJob(ctx, job); saveErr != nil {
				c.logger.Error("persist failed job", "job", jobID, "error", saveErr)
			}
			c.logger.Error("step failed", "job", jobID, "step", step.Name(), "error", err)
			return
		}

		if err := c.store.SaveJob(ctx, job); err != nil {
			c.logger.Error("persist job after step", "job", jobID, "step", step.Name(), "error", err)
			return
		}
		if err := c.store.MarkStepDone(ctx, jobID, step.Name()); err != nil {
			c.logger.Error("record step completion", "job", jobID, "step", step.Name(), "error", err)
			return
		}
		c.logger.Info("step completed", "job", jobID, "step", step.Name())
	}
}
