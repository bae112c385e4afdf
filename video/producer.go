// Package video turns a narration script into a playable slideshow video:
// speech audio, one stock image per visual keyword, captions, and a
// thumbnail frame at the temporal midpoint.
package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"videoreach/config"
	"videoreach/types"
)

// SpeechSynthesizer produces a WAV file plus an optional viseme track.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, language, outFile string) ([]types.VisemeFrame, error)
}

// ScriptAnalyzer derives keywords, captions and video details from a script.
type ScriptAnalyzer interface {
	GenerateKeywords(ctx context.Context, script string) ([]string, error)
	GenerateCaptions(ctx context.Context, script string, keywords []string) ([]string, error)
	GenerateVideoDetails(ctx context.Context, script string) (title, description string, err error)
}

// ImageFetcher resolves a keyword to image bytes; (nil, nil) is a miss.
type ImageFetcher interface {
	Fetch(ctx context.Context, keyword string) ([]byte, error)
}

// Producer is the video-synthesis collaborator for the pipeline's video
// step. One call produces the complete Video artifact for a job.
type Producer struct {
	speech SpeechSynthesizer
	script ScriptAnalyzer
	images ImageFetcher
	paths  config.PathsConfig
	fps    int
	width  int
	height int
	logger *slog.Logger
}

// NewProducer wires a Producer from its collaborators.
func NewProducer(speech SpeechSynthesizer, analyzer ScriptAnalyzer, images ImageFetcher, cfg *config.Config, logger *slog.Logger) *Producer {
	fps := cfg.Video.FPS
	if fps == 0 {
		fps = 24
	}
	w, h := cfg.Video.Width, cfg.Video.Height
	if w == 0 || h == 0 {
		w, h = 1280, 720
	}
	return &Producer{
		speech: speech,
		script: analyzer,
		images: images,
		paths:  cfg.Paths,
		fps:    fps,
		width:  w,
		height: h,
		logger: logger,
	}
}

// Produce renders the video for the job's script and returns the unsaved
// Video record. Fails when no image could be found for any keyword.
func (p *Producer) Produce(ctx context.Context, job *types.Job) (*types.Video, error) {
	if job.Script == "" {
		return nil, fmt.Errorf("job %s has no script", job.ID)
	}

	audioFile := filepath.Join(p.paths.TempAssets, job.ID.String()+".wav")
	videoFile := filepath.Join(p.paths.GeneratedVideos, job.ID.String()+".mp4")
	thumbFile := filepath.Join(p.paths.Thumbnails, job.ID.String()+".jpg")

	workDir := filepath.Join(p.paths.TempAssets, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	visemes, err := p.speech.Synthesize(ctx, job.Script, job.Language, audioFile)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}

	audioDuration, err := probeDuration(ctx, audioFile)
	if err != nil {
		return nil, fmt.Errorf("measure audio: %w", err)
	}

	keywords, err := p.script.GenerateKeywords(ctx, job.Script)
	if err != nil {
		return nil, fmt.Errorf("generate keywords: %w", err)
	}

	captions, err := p.script.GenerateCaptions(ctx, job.Script, keywords)
	if err != nil {
		p.logger.Warn("caption generation failed, rendering without captions", "job", job.ID, "error", err)
		captions = make([]string, len(keywords))
	}

	slides, err := p.collectSlides(ctx, keywords, captions, workDir)
	if err != nil {
		return nil, err
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("no images found for any of %d keywords", len(keywords))
	}

	durations := SplitDurations(audioDuration, len(slides))
	for i := range slides {
		slides[i].Duration = durations[i]
	}

	p.logger.Info("composing slideshow",
		"job", job.ID, "images", len(slides), "audio_sec", audioDuration)

	if err := p.composeSlideshow(ctx, slides, audioFile, workDir, videoFile); err != nil {
		return nil, fmt.Errorf("compose slideshow: %w", err)
	}

	if err := extractThumbnail(ctx, videoFile, audioDuration, thumbFile); err != nil {
		p.logger.Warn("thumbnail extraction failed", "job", job.ID, "error", err)
		thumbFile = ""
	}

	title, description, err := p.script.GenerateVideoDetails(ctx, job.Script)
	if err != nil {
		// Details are nice-to-have; an empty title never fails the render.
		p.logger.Warn("video details generation failed", "job", job.ID, "error", err)
		title, description = "", ""
	}

	return &types.Video{
		ID:          uuid.New(),
		JobID:       job.ID,
		Title:       title,
		Description: description,
		VideoFile:   videoFile,
		Thumbnail:   thumbFile,
		Visemes:     visemes,
		DurationSec: audioDuration,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// collectSlides fetches one image per keyword, skipping keywords with no
// hit in any source.
func (p *Producer) collectSlides(ctx context.Context, keywords, captions []string, workDir string) ([]slide, error) {
	var slides []slide
	for i, keyword := range keywords {
		data, err := p.images.Fetch(ctx, keyword)
		if err != nil {
			return nil, fmt.Errorf("fetch image for %q: %w", keyword, err)
		}
		if data == nil {
			p.logger.Info("no image found, skipping keyword", "keyword", keyword)
			continue
		}

		imageFile := filepath.Join(workDir, fmt.Sprintf("image_%03d.jpg", i))
		if err := os.WriteFile(imageFile, data, 0644); err != nil {
			return nil, fmt.Errorf("write image: %w", err)
		}
		slides = append(slides, slide{ImageFile: imageFile, Caption: captions[i]})
	}
	return slides, nil
}
