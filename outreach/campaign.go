// Package outreach runs the campaign tail of the pipeline: classify the
// script, select the ranked audience, upload the video, and email every
// target a thumbnail linking to it.
package outreach

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"videoreach/audience"
	"videoreach/types"
)

// VideoUploader publishes a rendered video and returns its external id and
// watch URL.
type VideoUploader interface {
	Upload(ctx context.Context, videoFile string, details types.VideoDetails) (id, url string, err error)
}

// CampaignMailer delivers the campaign email to one recipient.
type CampaignMailer interface {
	Send(ctx context.Context, recipient types.AudienceRow, videoURL, thumbnailPath string) error
}

// Campaign is the targeting/outreach collaborator for the pipeline's final
// step.
type Campaign struct {
	datasetPath  string
	campaignsDir string
	uploader     VideoUploader
	mailer       CampaignMailer
	logger       *slog.Logger
}

// NewCampaign wires a Campaign.
func NewCampaign(datasetPath, campaignsDir string, uploader VideoUploader, mailer CampaignMailer, logger *slog.Logger) *Campaign {
	return &Campaign{
		datasetPath:  datasetPath,
		campaignsDir: campaignsDir,
		uploader:     uploader,
		mailer:       mailer,
		logger:       logger,
	}
}

// Run executes the campaign for a job's video. It returns the path of the
// persisted target list. Individual send failures are logged and do not
// abort the campaign; classification, targeting and upload failures do.
func (c *Campaign) Run(ctx context.Context, job *types.Job, video *types.Video) (string, error) {
	category, err := audience.Classify(job.Script)
	if err != nil {
		return "", fmt.Errorf("classify script: %w", err)
	}
	c.logger.Info("script classified", "job", job.ID, "category", category)

	rows, err := audience.LoadDataset(c.datasetPath)
	if err != nil {
		return "", fmt.Errorf("load audience dataset: %w", err)
	}

	targets, err := audience.Target(category, rows)
	if err != nil {
		return "", fmt.Errorf("select audience: %w", err)
	}
	c.logger.Info("audience selected", "job", job.ID, "targets", len(targets), "dataset", len(rows))

	details := types.VideoDetails{Title: video.Title, Description: video.Description}
	externalID, videoURL, err := c.uploader.Upload(ctx, video.VideoFile, details)
	if err != nil {
		return "", fmt.Errorf("upload video: %w", err)
	}
	video.ExternalID = externalID

	sent, failed := 0, 0
	for _, target := range targets {
		if err := c.mailer.Send(ctx, target, videoURL, video.Thumbnail); err != nil {
			c.logger.Warn("campaign email failed", "job", job.ID, "recipient", target.Email, "error", err)
			failed++
			continue
		}
		sent++
	}
	c.logger.Info("campaign emails dispatched", "job", job.ID, "sent", sent, "failed", failed)

	listPath := filepath.Join(c.campaignsDir, job.ID.String()+".csv")
	if err := audience.WriteTargetList(listPath, targets); err != nil {
		return "", err
	}
	return listPath, nil
}
