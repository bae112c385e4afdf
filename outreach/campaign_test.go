package outreach

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"videoreach/audience"
	"videoreach/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const datasetCSV = "name,email,age,balance,housing,marital,Has_4_Wheeler,Highest_Time_Spent_Website,Highest_Time_Spent\n" +
	"Asha,asha@example.com,35,20000,no,married,false,home-loans.example.com,75.5\n" +
	"Meera,meera@example.com,29,15000,no,single,false,mortgage.example.com,120\n" +
	"Ravi,ravi@example.com,52,80000,yes,single,true,news.example.com,12\n"

type fakeUploader struct {
	id  string
	url string
	err error
	got string
}

func (f *fakeUploader) Upload(_ context.Context, videoFile string, _ types.VideoDetails) (string, string, error) {
	f.got = videoFile
	return f.id, f.url, f.err
}

type fakeMailer struct {
	failFor map[string]bool
	sent    []types.AudienceRow
	urls    []string
}

func (f *fakeMailer) Send(_ context.Context, recipient types.AudienceRow, videoURL, _ string) error {
	if f.failFor[recipient.Email] {
		return errors.New("mailbox unavailable")
	}
	f.sent = append(f.sent, recipient)
	f.urls = append(f.urls, videoURL)
	return nil
}

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audience.csv")
	if err := os.WriteFile(path, []byte(datasetCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCampaignRun(t *testing.T) {
	ctx := context.Background()
	uploader := &fakeUploader{id: "yt123", url: "https://www.youtube.com/watch?v=yt123"}
	mailer := &fakeMailer{}
	campaignsDir := t.TempDir()
	campaign := NewCampaign(writeDataset(t), campaignsDir, uploader, mailer, testLogger())

	job := &types.Job{
		ID:     uuid.New(),
		Script: "All about home-loans: choosing the right mortgage, home-loans rates, home-loans tenure.",
	}
	video := &types.Video{ID: uuid.New(), JobID: job.ID, Title: "Home Loans", VideoFile: "out.mp4", Thumbnail: ""}

	listPath, err := campaign.Run(ctx, job, video)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if video.ExternalID != "yt123" {
		t.Errorf("video external id = %q", video.ExternalID)
	}
	if uploader.got != "out.mp4" {
		t.Errorf("uploaded file = %q", uploader.got)
	}

	// Both non-homeowners match, ranked by time spent descending.
	if len(mailer.sent) != 2 {
		t.Fatalf("sent %d emails, want 2", len(mailer.sent))
	}
	if mailer.sent[0].Name != "Meera" || mailer.sent[1].Name != "Asha" {
		t.Errorf("send order = %v, %v", mailer.sent[0].Name, mailer.sent[1].Name)
	}
	for _, u := range mailer.urls {
		if u != uploader.url {
			t.Errorf("mailed url = %q", u)
		}
	}

	if filepath.Dir(listPath) != campaignsDir {
		t.Errorf("target list written to %q", listPath)
	}
	rows, err := audience.LoadDataset(listPath)
	if err != nil {
		t.Fatalf("target list unreadable: %v", err)
	}
	if len(rows) != 2 || rows[0].Email != "meera@example.com" {
		t.Errorf("target list = %+v", rows)
	}
}

func TestCampaignRunContinuesPastSendFailures(t *testing.T) {
	uploader := &fakeUploader{id: "yt123", url: "https://example.com/watch"}
	mailer := &fakeMailer{failFor: map[string]bool{"meera@example.com": true}}
	campaign := NewCampaign(writeDataset(t), t.TempDir(), uploader, mailer, testLogger())

	job := &types.Job{ID: uuid.New(), Script: "home-loans home-loans"}
	video := &types.Video{ID: uuid.New(), JobID: job.ID, VideoFile: "out.mp4"}

	listPath, err := campaign.Run(context.Background(), job, video)
	if err != nil {
		t.Fatalf("Run() error = %v, want send failures absorbed", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].Email != "asha@example.com" {
		t.Errorf("sent = %+v", mailer.sent)
	}
	if _, err := os.Stat(listPath); err != nil {
		t.Errorf("target list missing despite partial sends: %v", err)
	}
}

func TestCampaignRunUnclassifiableScript(t *testing.T) {
	uploader := &fakeUploader{}
	mailer := &fakeMailer{}
	campaign := NewCampaign(writeDataset(t), t.TempDir(), uploader, mailer, testLogger())

	job := &types.Job{ID: uuid.New(), Script: "a story about gardening"}
	video := &types.Video{ID: uuid.New(), JobID: job.ID}

	_, err := campaign.Run(context.Background(), job, video)
	if !errors.Is(err, audience.ErrNoCategory) {
		t.Fatalf("Run() error = %v, want %v", err, audience.ErrNoCategory)
	}
	if uploader.got != "" {
		t.Error("upload attempted for an unclassifiable script")
	}
}

func TestCampaignRunUploadFailure(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("quota exceeded")}
	mailer := &fakeMailer{}
	campaign := NewCampaign(writeDataset(t), t.TempDir(), uploader, mailer, testLogger())

	job := &types.Job{ID: uuid.New(), Script: "home-loans home-loans"}
	video := &types.Video{ID: uuid.New(), JobID: job.ID, VideoFile: "out.mp4"}

	_, err := campaign.Run(context.Background(), job, video)
	if err == nil || !strings.Contains(err.Error(), "upload video") {
		t.Fatalf("Run() error = %v, want upload failure", err)
	}
	if len(mailer.sent) != 0 {
		t.Error("emails went out despite a failed upload")
	}
}

func TestCampaignRunMissingDataset(t *testing.T) {
	campaign := NewCampaign(filepath.Join(t.TempDir(), "missing.csv"), t.TempDir(), &fakeUploader{}, &fakeMailer{}, testLogger())

	job := &types.Job{ID: uuid.New(), Script: "home-loans home-loans"}
	_, err := campaign.Run(context.Background(), job, &types.Video{ID: uuid.New()})
	if err == nil || !strings.Contains(err.Error(), "load audience dataset") {
		t.Fatalf("Run() error = %v, want dataset load failure", err)
	}
}
