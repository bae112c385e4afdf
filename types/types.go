// Package types defines the records shared across the pipeline: the job,
// the video artifact it produces, and the audience rows targeted by the
// outreach campaign.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a processing job.
type Status string

const (
	// StatusQueued means the job is waiting for its first pipeline step.
	StatusQueued Status = "queued"
	// StatusProcessing means a step is (or has been) working on the job.
	StatusProcessing Status = "processing"
	// StatusCompleted means the full chain finished and the target list exists.
	StatusCompleted Status = "completed"
	// StatusFailed means a step failed; the chain never resumes.
	StatusFailed Status = "failed"
)

// Terminal reports whether no further step may touch the job.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one end-to-end request to turn a document or raw text into a
// published video and outreach campaign. Exactly one of FilePath and Text
// is set.
type Job struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	FilePath   string    `json:"file_path,omitempty"`
	Text       string    `json:"text,omitempty" gorm:"type:text"`
	Preference string    `json:"preference"`
	Language   string    `json:"language"`
	Script     string    `json:"script,omitempty" gorm:"type:text"`
	Status     Status    `json:"status"`
	LastError  string    `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// VisemeFrame is one timed mouth shape from speech synthesis.
type VisemeFrame struct {
	OffsetMs float64 `json:"offset_ms"`
	VisemeID int     `json:"viseme_id"`
}

// Video is the terminal artifact of a job: the rendered slideshow plus its
// thumbnail and upload reference. One job owns zero or one Video.
type Video struct {
	ID          uuid.UUID     `json:"video_id" gorm:"type:uuid;primaryKey"`
	JobID       uuid.UUID     `json:"job_id" gorm:"type:uuid;index"`
	Title       string        `json:"title"`
	Description string        `json:"description" gorm:"type:text"`
	VideoFile   string        `json:"video_file"`
	Thumbnail   string        `json:"thumbnail,omitempty"`
	Visemes     []VisemeFrame `json:"visemes,omitempty" gorm:"serializer:json"`
	DurationSec float64       `json:"duration"`
	ExternalID  string        `json:"external_id,omitempty"`
	Published   bool          `json:"published"`
	CreatedAt   time.Time     `json:"created_at"`
}

// VideoDetails is the generated title/description pair for a video.
type VideoDetails struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AudienceRow is one record from the audience dataset. Rows are read-only
// inputs; TimeSpent is the engagement signal the ranking sorts on.
type AudienceRow struct {
	Name        string  `csv:"name"`
	Email       string  `csv:"email"`
	Age         int     `csv:"age"`
	Balance     float64 `csv:"balance"`
	Housing     string  `csv:"housing"`
	Marital     string  `csv:"marital"`
	Has4Wheeler bool    `csv:"Has_4_Wheeler"`
	TopSite     string  `csv:"Highest_Time_Spent_Website"`
	TimeSpent   float64 `csv:"Highest_Time_Spent"`
}

// PostContent is one generated social post for a campaign.
type PostContent struct {
	Heading      string `json:"heading"`
	Subtitle     string `json:"subtitle"`
	Button       string `json:"button"`
	Description  string `json:"description"`
	Address      string `json:"address"`
	ImageKeyword string `json:"image_keyword"`
}
