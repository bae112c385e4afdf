package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// slide is one image plus the caption drawn in its bottom band.
type slide struct {
	ImageFile string
	Caption   string
	Duration  float64
}

// SplitDurations divides an audio duration evenly across n slides. The last
// slide absorbs the floating-point remainder so the sum is exactly the
// audio duration.
func SplitDurations(audioDuration float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	per := audioDuration / float64(n)
	out := make([]float64, n)
	var used float64
	for i := 0; i < n-1; i++ {
		out[i] = per
		used += per
	}
	out[n-1] = audioDuration - used
	return out
}

// composeSlideshow renders each slide as an mp4 segment, concatenates the
// segments, and muxes the narration audio on top. All rendering goes
// through ffmpeg.
func (p *Producer) composeSlideshow(ctx context.Context, slides []slide, audioFile, workDir, outFile string) error {
	var segments []string
	for i, s := range slides {
		segment := filepath.Join(workDir, fmt.Sprintf("segment_%03d.mp4", i))
		if err := p.renderSegment(ctx, s, segment); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		segments = append(segments, segment)
	}

	silent := filepath.Join(workDir, "slideshow_silent.mp4")
	if err := p.concatSegments(ctx, segments, workDir, silent); err != nil {
		return fmt.Errorf("concat segments: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", silent,
		"-i", audioFile,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg mux audio: %w: %s", err, tail(out))
	}
	return nil
}

// renderSegment turns one still image into a fixed-duration video segment
// with the caption drawn in a band along the bottom.
func (p *Producer) renderSegment(ctx context.Context, s slide, outFile string) error {
	w, h := p.width, p.height

	filters := []string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", w, h),
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", w, h),
		"setsar=1",
	}
	if s.Caption != "" {
		filters = append(filters,
			"drawbox=x=0:y=ih-100:w=iw:h=80:color=yellow@1.0:t=fill",
			fmt.Sprintf("drawtext=text='%s':x=10:y=h-90:fontsize=28:fontcolor=red", escapeDrawtext(s.Caption)),
		)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-loop", "1",
		"-i", s.ImageFile,
		"-t", fmt.Sprintf("%.4f", s.Duration),
		"-vf", strings.Join(filters, ","),
		"-r", fmt.Sprintf("%d", p.fps),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-an",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg segment render: %w: %s", err, tail(out))
	}
	return nil
}

// concatSegments joins segment files with the concat demuxer.
func (p *Producer) concatSegments(ctx context.Context, segments []string, workDir, outFile string) error {
	listFile := filepath.Join(workDir, "concat_list.txt")
	var lines []string
	for _, seg := range segments {
		lines = append(lines, fmt.Sprintf("file '%s'", seg))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w: %s", err, tail(out))
	}
	return nil
}

// extractThumbnail grabs the frame at the temporal midpoint.
func extractThumbnail(ctx context.Context, videoFile string, durationSec float64, outFile string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-ss", fmt.Sprintf("%.3f", durationSec/2),
		"-i", videoFile,
		"-frames:v", "1",
		"-q:v", "2",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg thumbnail: %w: %s", err, tail(out))
	}
	return nil
}

// probeDuration uses ffprobe to measure a media file's duration in seconds.
func probeDuration(ctx context.Context, mediaFile string) (float64, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		mediaFile,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	var dur float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur); err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return dur, nil
}

// escapeDrawtext escapes characters the drawtext filter treats specially.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}

// tail returns the last portion of ffmpeg output for error messages.
func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > 300 {
		s = s[len(s)-300:]
	}
	return s
}
