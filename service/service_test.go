package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"videoreach/queue"
	"videoreach/store"
	"videoreach/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeChain records the job ids it was asked to run.
type fakeChain struct {
	mu   sync.Mutex
	runs []uuid.UUID
	wg   sync.WaitGroup
}

func (f *fakeChain) Run(_ context.Context, jobID uuid.UUID) {
	f.mu.Lock()
	f.runs = append(f.runs, jobID)
	f.mu.Unlock()
	f.wg.Done()
}

type fakeAssistant struct {
	answer string
	posts  []types.PostContent
	err    error
}

func (f *fakeAssistant) Answer(_ context.Context, _, _ string) (string, error) {
	return f.answer, f.err
}

func (f *fakeAssistant) GeneratePostContent(_ context.Context, _ string) ([]types.PostContent, error) {
	return f.posts, f.err
}

type fakeSynth struct {
	audio   []byte
	visemes []types.VisemeFrame
	err     error
}

func (f *fakeSynth) Synthesize(_ context.Context, _, _, outFile string) ([]types.VisemeFrame, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := os.WriteFile(outFile, f.audio, 0o644); err != nil {
		return nil, err
	}
	return f.visemes, nil
}

func newTestService(t *testing.T, st store.Store, chain *fakeChain, assistant Assistant, synth SpeechSynthesizer) *Service {
	t.Helper()
	q := queue.New(1, testLogger())
	q.Start(context.Background())
	t.Cleanup(q.Shutdown)
	if st == nil {
		st = store.NewMemory()
	}
	return New(st, q, chain, assistant, synth, t.TempDir(), testLogger())
}

func TestCreateJob(t *testing.T) {
	st := store.NewMemory()
	chain := &fakeChain{}
	chain.wg.Add(1)
	svc := newTestService(t, st, chain, nil, nil)

	job, err := svc.CreateJob(context.Background(), CreateJobRequest{
		Text:       "pension plans for retirees",
		Preference: "summarizes",
		Language:   "English",
	})
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if job.Status != types.StatusQueued {
		t.Errorf("job status = %v, want queued", job.Status)
	}

	stored, err := st.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if stored.Text != "pension plans for retirees" {
		t.Errorf("stored job text = %q", stored.Text)
	}

	chain.wg.Wait()
	chain.mu.Lock()
	defer chain.mu.Unlock()
	if len(chain.runs) != 1 || chain.runs[0] != job.ID {
		t.Errorf("chain runs = %v, want [%v]", chain.runs, job.ID)
	}
}

func TestCreateJobValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateJobRequest
		wantMsg string
	}{
		{
			name:    "neither document nor text",
			req:     CreateJobRequest{Language: "English"},
			wantMsg: "provide a document or text",
		},
		{
			name: "both document and text",
			req: CreateJobRequest{
				FilePath: "brief.pdf",
				Text:     "also text",
				Language: "English",
			},
			wantMsg: "not both",
		},
		{
			name: "unsupported document format",
			req: CreateJobRequest{
				FilePath: "brief.exe",
				Language: "English",
			},
			wantMsg: "invalid file format",
		},
		{
			name: "unsupported language",
			req: CreateJobRequest{
				Text:     "some text",
				Language: "Klingon",
			},
			wantMsg: "invalid language selection",
		},
		{
			name:    "missing language",
			req:     CreateJobRequest{Text: "some text"},
			wantMsg: "invalid language selection",
		},
	}

	st := store.NewMemory()
	svc := newTestService(t, st, &fakeChain{}, nil, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateJob(context.Background(), tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("CreateJob() error = %v, want *ValidationError", err)
			}
			if !strings.Contains(verr.Message, tt.wantMsg) {
				t.Errorf("validation message = %q, want it to mention %q", verr.Message, tt.wantMsg)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := newTestService(t, st, &fakeChain{}, nil, nil)

	job := &types.Job{ID: uuid.New(), Status: types.StatusProcessing, CreatedAt: time.Now()}
	if err := st.CreateJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Status(ctx, job.ID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if got.Status != types.StatusProcessing || got.VideoID != nil {
		t.Errorf("Status() = %+v", got)
	}

	// Completed jobs carry their video id.
	video := &types.Video{ID: uuid.New(), JobID: job.ID}
	if err := st.CreateVideo(ctx, video); err != nil {
		t.Fatal(err)
	}
	job.Status = types.StatusCompleted
	if err := st.SaveJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	got, err = svc.Status(ctx, job.ID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if got.VideoID == nil || *got.VideoID != video.ID {
		t.Errorf("Status() video id = %v, want %v", got.VideoID, video.ID)
	}

	if _, err := svc.Status(ctx, uuid.New()); !errors.Is(err, store.ErrJobNotFound) {
		t.Errorf("Status(unknown) error = %v, want %v", err, store.ErrJobNotFound)
	}
}

func TestStatusCompletedWithoutVideo(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := newTestService(t, st, &fakeChain{}, nil, nil)

	job := &types.Job{ID: uuid.New(), Status: types.StatusCompleted, CreatedAt: time.Now()}
	if err := st.CreateJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Status(ctx, job.ID); !errors.Is(err, store.ErrVideoNotFound) {
		t.Errorf("Status() error = %v, want %v", err, store.ErrVideoNotFound)
	}
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := newTestService(t, st, &fakeChain{}, nil, nil)

	video := &types.Video{ID: uuid.New(), JobID: uuid.New(), CreatedAt: time.Now()}
	if err := st.CreateVideo(ctx, video); err != nil {
		t.Fatal(err)
	}

	if err := svc.Publish(ctx, video.ID); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	got, _ := st.GetVideo(ctx, video.ID)
	if !got.Published {
		t.Error("Publish() did not persist the flag")
	}

	list, err := svc.ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != video.ID {
		t.Errorf("ListPublished() = %+v", list)
	}

	if err := svc.Publish(ctx, uuid.New()); !errors.Is(err, store.ErrVideoNotFound) {
		t.Errorf("Publish(unknown) error = %v, want %v", err, store.ErrVideoNotFound)
	}
}

func TestAnswer(t *testing.T) {
	svc := newTestService(t, nil, &fakeChain{}, &fakeAssistant{answer: "Plants make food from sunlight."}, nil)

	got, err := svc.Answer(context.Background(), "What is photosynthesis?", "casual")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got != "Plants make food from sunlight." {
		t.Errorf("Answer() = %q", got)
	}

	_, err = svc.Answer(context.Background(), "", "casual")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Answer(empty) error = %v, want *ValidationError", err)
	}
}

func TestSynthesize(t *testing.T) {
	audio := []byte("RIFF....WAVEfmt fake")
	synth := &fakeSynth{audio: audio, visemes: []types.VisemeFrame{{OffsetMs: 10, VisemeID: 3}}}
	svc := newTestService(t, nil, &fakeChain{}, nil, synth)

	got, visemes, err := svc.Synthesize(context.Background(), "hello there", "Hindi")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(got) != string(audio) {
		t.Errorf("Synthesize() audio = %q", got)
	}
	if len(visemes) != 1 || visemes[0].VisemeID != 3 {
		t.Errorf("Synthesize() visemes = %+v", visemes)
	}

	var verr *ValidationError
	if _, _, err := svc.Synthesize(context.Background(), "", "Hindi"); !errors.As(err, &verr) {
		t.Errorf("Synthesize(empty text) error = %v, want *ValidationError", err)
	}
	if _, _, err := svc.Synthesize(context.Background(), "hello", "Klingon"); !errors.As(err, &verr) {
		t.Errorf("Synthesize(bad language) error = %v, want *ValidationError", err)
	}
}

func TestGeneratePosts(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	posts := []types.PostContent{{Heading: "Own Your Home", Button: "Apply Now"}}
	svc := newTestService(t, st, &fakeChain{}, &fakeAssistant{posts: posts}, nil)

	job := &types.Job{ID: uuid.New(), Script: "a finished script", Status: types.StatusCompleted, CreatedAt: time.Now()}
	if err := st.CreateJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	got, err := svc.GeneratePosts(ctx, job.ID)
	if err != nil {
		t.Fatalf("GeneratePosts() error = %v", err)
	}
	if len(got) != 1 || got[0].Heading != "Own Your Home" {
		t.Errorf("GeneratePosts() = %+v", got)
	}

	// A job whose script step has not run yet cannot produce posts.
	bare := &types.Job{ID: uuid.New(), Status: types.StatusQueued, CreatedAt: time.Now()}
	if err := st.CreateJob(ctx, bare); err != nil {
		t.Fatal(err)
	}
	var verr *ValidationError
	if _, err := svc.GeneratePosts(ctx, bare.ID); !errors.As(err, &verr) {
		t.Errorf("GeneratePosts(no script) error = %v, want *ValidationError", err)
	}

	if _, err := svc.GeneratePosts(ctx, uuid.New()); !errors.Is(err, store.ErrJobNotFound) {
		t.Errorf("GeneratePosts(unknown) error = %v, want %v", err, store.ErrJobNotFound)
	}
}
