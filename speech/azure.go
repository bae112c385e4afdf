// Package speech synthesizes narration audio through the Azure Speech REST
// endpoint, with one neural voice per supported language.
package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"videoreach/types"
)

// voice pairs a locale with its neural voice name.
type voice struct {
	Locale string
	Name   string
}

var voices = map[string]voice{
	"English":   {"en-IN", "en-IN-NeerjaNeural"},
	"Assamese":  {"as-IN", "as-IN-YashicaNeural"},
	"Bengali":   {"bn-IN", "bn-IN-TanishaaNeural"},
	"Gujarati":  {"gu-IN", "gu-IN-DhwaniNeural"},
	"Hindi":     {"hi-IN", "hi-IN-AnanyaNeural"},
	"Kannada":   {"kn-IN", "kn-IN-SapnaNeural"},
	"Malayalam": {"ml-IN", "ml-IN-SobhanaNeural"},
	"Marathi":   {"mr-IN", "mr-IN-AarohiNeural"},
	"Nepali":    {"ne-NP", "ne-NP-HemkalaNeural"},
	"Punjabi":   {"pa-IN", "pa-IN-VaaniNeural"},
	"Tamil":     {"ta-IN", "ta-IN-PallaviNeural"},
	"Telugu":    {"te-IN", "te-IN-ShrutiNeural"},
	"Urdu":      {"ur-IN", "ur-IN-GulNeural"},
}

// SupportedLanguages returns the languages with a configured voice, sorted.
func SupportedLanguages() []string {
	out := make([]string, 0, len(voices))
	for lang := range voices {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Supported reports whether a voice is configured for the language.
func Supported(language string) bool {
	_, ok := voices[language]
	return ok
}

// Synthesizer converts text to a WAV file via the Azure Speech service.
type Synthesizer struct {
	apiKey       string
	region       string
	outputFormat string
	endpoint     string
	httpClient   *http.Client
	logger       *slog.Logger
}

// New creates a Synthesizer for the given region.
func New(apiKey, region, outputFormat string, logger *slog.Logger) *Synthesizer {
	if outputFormat == "" {
		outputFormat = "riff-24khz-16bit-mono-pcm"
	}
	return &Synthesizer{
		apiKey:       apiKey,
		region:       region,
		outputFormat: outputFormat,
		endpoint:     fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		logger:       logger,
	}
}

// WithEndpoint overrides the service endpoint. Used by tests.
func (s *Synthesizer) WithEndpoint(u string) *Synthesizer {
	s.endpoint = u
	return s
}

// Synthesize speaks text in the language's voice and writes a WAV file to
// outFile. The viseme track is empty: the plain REST endpoint does not
// stream viseme events, that needs the websocket protocol.
func (s *Synthesizer) Synthesize(ctx context.Context, text, language, outFile string) ([]types.VisemeFrame, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AZURE_SPEECH_API_KEY not set")
	}
	v, ok := voices[language]
	if !ok {
		return nil, fmt.Errorf("no voice configured for language %q", language)
	}

	s.logger.Info("synthesizing speech", "language", language, "voice", v.Name, "chars", len(text))

	ssml := fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice xml:lang='%s' name='%s'>%s</voice></speak>`,
		v.Locale, v.Locale, v.Name, escapeSSML(text),
	)

	// The service occasionally times out under load; retry briefly.
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		audio, err := s.request(ctx, ssml)
		if err == nil {
			if err := os.WriteFile(outFile, audio, 0644); err != nil {
				return nil, fmt.Errorf("write audio file: %w", err)
			}
			return nil, nil
		}
		lastErr = err
		s.logger.Warn("speech synthesis attempt failed", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 2 * time.Second):
		}
	}
	return nil, fmt.Errorf("speech synthesis failed after 3 attempts: %w", lastErr)
}

func (s *Synthesizer) request(ctx context.Context, ssml string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", s.outputFormat)
	req.Header.Set("User-Agent", "videoreach")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d from speech service: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech service returned no audio")
	}
	return audio, nil
}

func escapeSSML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}
