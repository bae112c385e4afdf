// Package script talks to the Gemini API: narration scripts, visual
// keywords, caption sentences, video details, social post content and Q&A
// answers. Every structured call demands a JSON payload and validates it
// into typed structs; free-text bracket scanning is not accepted.
package script

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"videoreach/types"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

const scriptPrompt = `Extract the key information from the content and identify the main points that need to be discussed.
Break down these main points into smaller subtopics that can be explained sequentially.
For each subtopic, construct a simple and engaging explanation that fits naturally into a continuous narrative.
Ensure that each subtopic flows logically into the next, maintaining coherence and a clear structure.
Use simple and concise language, keeping the audience's attention with relatable examples or anecdotes where necessary.
Review the entire monologue to make sure it includes all the important information.
Do not include anything related to QR codes or links.
Return the script only: the response must start with the script and end with it.
The response must not contain a label like "Script:" and must be plain text with no special characters.`

const keywordsPrompt = `Given the script below, generate a sequence of short visual keywords for stock image search, in the same order as the script's content. Each keyword is one to three words, vivid and descriptive, avoiding company names and trademarked terms. Respond with ONLY a valid JSON array of strings — no markdown, no explanation.`

const captionsPrompt = `Given the script and the keyword list below, generate one factual, descriptive and clear sentence per keyword that matches the context of that keyword. Each sentence must be a complete sentence between 10 and 25 words. The output order must align with the keyword order. Respond with ONLY a valid JSON array of strings of the same length as the keyword list — no markdown, no explanation.`

const detailsPrompt = `Given the script below, generate a catchy title and description for the video. Respond with ONLY valid JSON of the shape {"title": string, "description": string} — no markdown, no explanation.`

const postsPrompt = `Given the script below, generate two social media post contents promoting it. Respond with ONLY a valid JSON array of objects with the fields "heading", "subtitle", "button", "description", "address" and "image_keyword" — no markdown, no explanation.`

// mimeTypes maps accepted upload extensions to the MIME type sent to the
// model as inline data.
var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Request describes one script-generation call. Exactly one of Text and
// FilePath is set.
type Request struct {
	Text       string
	FilePath   string
	Preference string
	Language   string
}

// Client is a Gemini REST client.
type Client struct {
	apiKey      string
	model       string
	temperature float64
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a Gemini Client.
func NewClient(apiKey, model string, temperature float64, logger *slog.Logger) *Client {
	return &Client{
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		logger:      logger,
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateScript produces the narration script for a document or raw text.
// Returns an error if the model errors or returns an empty script.
func (c *Client) GenerateScript(ctx context.Context, req Request) (string, error) {
	c.logger.Info("generating narration script", "language", req.Language, "preference", req.Preference)

	prompt := scriptPrompt
	prompt += fmt.Sprintf("\n\nMake the script so that it %s the content.", req.Preference)
	if req.Language != "" && req.Language != "English" {
		prompt += fmt.Sprintf("\n\nWrite the script in %s.", req.Language)
	}

	parts := []geminiPart{{Text: prompt}}
	switch {
	case req.Text != "":
		parts[0].Text += "\n\nContent:\n" + req.Text
	case req.FilePath != "":
		part, err := inlineFilePart(req.FilePath)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	default:
		return "", fmt.Errorf("script request has neither text nor file")
	}

	out, err := c.generate(ctx, parts)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("model returned an empty script")
	}
	return out, nil
}

// GenerateKeywords derives ordered visual keywords from a script.
func (c *Client) GenerateKeywords(ctx context.Context, script string) ([]string, error) {
	out, err := c.generate(ctx, []geminiPart{{Text: keywordsPrompt + "\n\nScript:\n" + script}})
	if err != nil {
		return nil, err
	}

	var keywords []string
	if err := json.Unmarshal([]byte(cleanJSON(out)), &keywords); err != nil {
		return nil, fmt.Errorf("parse keywords JSON: %w", err)
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("model returned no keywords")
	}
	return keywords, nil
}

// GenerateCaptions produces one overlay sentence per keyword, in order.
func (c *Client) GenerateCaptions(ctx context.Context, script string, keywords []string) ([]string, error) {
	prompt := fmt.Sprintf("%s\n\nScript:\n%s\n\nKeywords:\n%s",
		captionsPrompt, script, strings.Join(keywords, "\n"))

	out, err := c.generate(ctx, []geminiPart{{Text: prompt}})
	if err != nil {
		return nil, err
	}

	var captions []string
	if err := json.Unmarshal([]byte(cleanJSON(out)), &captions); err != nil {
		return nil, fmt.Errorf("parse captions JSON: %w", err)
	}
	if len(captions) != len(keywords) {
		return nil, fmt.Errorf("got %d captions for %d keywords", len(captions), len(keywords))
	}
	return captions, nil
}

// details mirrors the JSON shape the details prompt demands.
type details struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GenerateVideoDetails produces a title and description for the video.
func (c *Client) GenerateVideoDetails(ctx context.Context, script string) (title, description string, err error) {
	out, err := c.generate(ctx, []geminiPart{{Text: detailsPrompt + "\n\nScript:\n" + script}})
	if err != nil {
		return "", "", err
	}

	var d details
	if err := json.Unmarshal([]byte(cleanJSON(out)), &d); err != nil {
		return "", "", fmt.Errorf("parse video details JSON: %w", err)
	}
	return d.Title, d.Description, nil
}

// GeneratePostContent produces social post contents for a script.
func (c *Client) GeneratePostContent(ctx context.Context, script string) ([]types.PostContent, error) {
	out, err := c.generate(ctx, []geminiPart{{Text: postsPrompt + "\n\nScript:\n" + script}})
	if err != nil {
		return nil, err
	}

	var posts []types.PostContent
	if err := json.Unmarshal([]byte(cleanJSON(out)), &posts); err != nil {
		return nil, fmt.Errorf("parse post content JSON: %w", err)
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("model returned no post content")
	}
	return posts, nil
}

// Answer responds to a user question in the requested speech register.
func (c *Client) Answer(ctx context.Context, question, speech string) (string, error) {
	if speech == "" {
		speech = "formal"
	}
	prompt := fmt.Sprintf(`You are a school teacher. A student asks you a question and you answer in short and simple words, in %s speech. Do not include any markup such as asterisks or bullet points, just plain text.

The question is: %s`, speech, question)

	out, err := c.generate(ctx, []geminiPart{{Text: prompt}})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// generate performs one generateContent call and returns the first
// candidate's text.
func (c *Client) generate(ctx context.Context, parts []geminiPart) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := geminiRequest{
		Contents:         []geminiContent{{Parts: parts}},
		GenerationConfig: &generationConfig{Temperature: c.temperature},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var gr geminiResponse
	if err := json.Unmarshal(respBytes, &gr); err != nil {
		return "", fmt.Errorf("parse gemini response: %w", err)
	}
	if gr.Error != nil {
		return "", fmt.Errorf("gemini error: %s", gr.Error.Message)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// inlineFilePart reads an uploaded document and wraps it as inline data.
func inlineFilePart(path string) (geminiPart, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mime, ok := mimeTypes[ext]
	if !ok {
		return geminiPart{}, fmt.Errorf("unsupported file type %q", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return geminiPart{}, fmt.Errorf("read document: %w", err)
	}

	return geminiPart{InlineData: &geminiInlineData{
		MimeType: mime,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}, nil
}

// cleanJSON strips markdown fences if the model wraps its response in
// ```json ... ```
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// SupportedExtension reports whether the upload extension is accepted.
func SupportedExtension(ext string) bool {
	_, ok := mimeTypes[strings.ToLower(ext)]
	return ok
}
