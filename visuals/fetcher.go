// Package visuals finds one stock image per keyword: Unsplash first,
// Pixabay second, and a miss when neither has a hit. A miss is not an
// error — the caller skips that keyword.
package visuals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Fetcher resolves a keyword to image bytes. A (nil, nil) return means no
// image was found for the keyword.
type Fetcher interface {
	Fetch(ctx context.Context, keyword string) ([]byte, error)
}

// Unsplash searches the Unsplash photo API.
type Unsplash struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewUnsplash creates an Unsplash fetcher.
func NewUnsplash(apiKey string) *Unsplash {
	return &Unsplash{
		apiKey:     apiKey,
		baseURL:    "https://api.unsplash.com",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (u *Unsplash) WithBaseURL(base string) *Unsplash {
	u.baseURL = base
	return u
}

func (u *Unsplash) Fetch(ctx context.Context, keyword string) ([]byte, error) {
	searchURL := fmt.Sprintf("%s/search/photos?query=%s&client_id=%s",
		u.baseURL, url.QueryEscape(keyword), u.apiKey)

	var result struct {
		Results []struct {
			URLs struct {
				Small string `json:"small"`
			} `json:"urls"`
		} `json:"results"`
	}
	if err := getJSON(ctx, u.httpClient, searchURL, &result); err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, nil
	}
	return download(ctx, u.httpClient, result.Results[0].URLs.Small)
}

// Pixabay searches the Pixabay photo API.
type Pixabay struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewPixabay creates a Pixabay fetcher.
func NewPixabay(apiKey string) *Pixabay {
	return &Pixabay{
		apiKey:     apiKey,
		baseURL:    "https://pixabay.com",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (p *Pixabay) WithBaseURL(base string) *Pixabay {
	p.baseURL = base
	return p
}

func (p *Pixabay) Fetch(ctx context.Context, keyword string) ([]byte, error) {
	searchURL := fmt.Sprintf("%s/api/?key=%s&q=%s&image_type=photo",
		p.baseURL, p.apiKey, url.QueryEscape(keyword))

	var result struct {
		Hits []struct {
			LargeImageURL string `json:"largeImageURL"`
		} `json:"hits"`
	}
	if err := getJSON(ctx, p.httpClient, searchURL, &result); err != nil {
		return nil, err
	}
	if len(result.Hits) == 0 {
		return nil, nil
	}
	return download(ctx, p.httpClient, result.Hits[0].LargeImageURL)
}

// Fallback tries each source in order and reports a miss only when all of
// them miss. Source errors are logged and treated as misses so one flaky
// provider cannot fail a whole render.
type Fallback struct {
	sources []Fetcher
	logger  *slog.Logger
}

// NewFallback creates a Fallback over the given sources.
func NewFallback(logger *slog.Logger, sources ...Fetcher) *Fallback {
	return &Fallback{sources: sources, logger: logger}
}

func (f *Fallback) Fetch(ctx context.Context, keyword string) ([]byte, error) {
	for _, src := range f.sources {
		data, err := src.Fetch(ctx, keyword)
		if err != nil {
			f.logger.Warn("image source failed", "keyword", keyword, "error", err)
			continue
		}
		if data != nil {
			return data, nil
		}
	}
	return nil, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from image search", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func download(ctx context.Context, client *http.Client, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d downloading image", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	// Guard against tiny error pages served with a 200.
	if len(data) < 100 {
		return nil, fmt.Errorf("image response too small (%d bytes)", len(data))
	}
	return data, nil
}
