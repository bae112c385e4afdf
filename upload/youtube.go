// Package upload pushes rendered videos to YouTube through the Data API v3.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"videoreach/config"
	"videoreach/types"
)

// Credentials holds the OAuth refresh-token triple for the channel.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Uploader handles YouTube video upload via Data API v3.
type Uploader struct {
	creds  Credentials
	cfg    config.UploadConfig
	logger *slog.Logger
}

// New creates a new Uploader. Credentials are injected rather than read
// from the environment here.
func New(creds Credentials, cfg config.UploadConfig, logger *slog.Logger) *Uploader {
	return &Uploader{creds: creds, cfg: cfg, logger: logger}
}

// Upload pushes the video file with its metadata and returns the external
// video id and watch URL.
func (u *Uploader) Upload(ctx context.Context, videoFile string, details types.VideoDetails) (string, string, error) {
	u.logger.Info("authenticating with YouTube API")

	client, err := u.oauthClient(ctx)
	if err != nil {
		return "", "", fmt.Errorf("youtube auth: %w", err)
	}

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", "", fmt.Errorf("youtube service: %w", err)
	}

	u.logger.Info("uploading video", "title", details.Title, "file", videoFile)

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                details.Title,
			Description:          details.Description,
			CategoryId:           u.cfg.CategoryID,
			DefaultLanguage:      u.cfg.DefaultLanguage,
			DefaultAudioLanguage: u.cfg.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           u.cfg.Visibility,
			SelfDeclaredMadeForKids: u.cfg.MadeForKids,
		},
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return "", "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.Media(f)

	uploaded, err := call.Do()
	if err != nil {
		return "", "", fmt.Errorf("youtube upload: %w", err)
	}

	videoID := uploaded.Id
	videoURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)

	u.logger.Info("upload complete", "video_id", videoID, "url", videoURL)
	return videoID, videoURL, nil
}

// oauthClient creates an OAuth2-authenticated HTTP client from the
// refresh token.
func (u *Uploader) oauthClient(ctx context.Context) (*http.Client, error) {
	if u.creds.ClientID == "" || u.creds.ClientSecret == "" || u.creds.RefreshToken == "" {
		return nil, fmt.Errorf("youtube credentials not configured")
	}

	conf := &oauth2.Config{
		ClientID:     u.creds.ClientID,
		ClientSecret: u.creds.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}

	token := &oauth2.Token{
		RefreshToken: u.creds.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}

	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token)), nil
}
