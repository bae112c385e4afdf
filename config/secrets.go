package config

import (
	"fmt"
	"os"
)

// Secrets carries all collaborator credentials. They are read from the
// environment once at startup and injected into the clients that need
// them, so nothing deeper in the pipeline touches os.Getenv.
type Secrets struct {
	GeminiAPIKey   string
	AzureSpeechKey string
	UnsplashKey    string
	PixabayKey     string

	YouTubeClientID     string
	YouTubeClientSecret string
	YouTubeRefreshToken string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
}

// SecretsFromEnv loads credentials from the environment. Call godotenv.Load
// first in local development.
func SecretsFromEnv() Secrets {
	return Secrets{
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		AzureSpeechKey: os.Getenv("AZURE_SPEECH_API_KEY"),
		UnsplashKey:    os.Getenv("UNSPLASH_API_KEY"),
		PixabayKey:     os.Getenv("PIXABAY_API_KEY"),

		YouTubeClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
		YouTubeClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
		YouTubeRefreshToken: os.Getenv("YOUTUBE_REFRESH_TOKEN"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: envInt("SMTP_PORT", 587),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASSWORD"),
		MailFrom: os.Getenv("MAIL_FROM"),
	}
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return def
	}
	return n
}
