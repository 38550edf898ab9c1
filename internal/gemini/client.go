// Package gemini is a typed REST client for the Gemini API: conversational
// generation with search/maps grounding, image generation, and speech
// synthesis. Only the slices of the API this service uses are modeled.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type Options struct {
	ChatModel  string
	ImageModel string
	TTSModel   string
	TTSVoice   string
	// BaseURL overrides the API endpoint; used by tests.
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	apiKey     string
	chatModel  string
	imageModel string
	ttsModel   string
	ttsVoice   string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string, opts Options) *Client {
	c := &Client{
		apiKey:     apiKey,
		chatModel:  opts.ChatModel,
		imageModel: opts.ImageModel,
		ttsModel:   opts.TTSModel,
		ttsVoice:   opts.TTSVoice,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return c
}

// ChatRequest is an orchestrator-level conversational request.
type ChatRequest struct {
	Contents          []Content
	SystemInstruction string
	Tools             []Tool
	LatLng            *LatLng
	ThinkingBudget    *int
}

// ChatResult is the decomposed provider response: primary text, an optional
// inline image, and any grounding citations.
type ChatResult struct {
	Text      string
	ImageData []byte
	ImageMIME string
	Citations []GroundingSource
}

// GenerateContent issues a conversational request and decomposes the response.
func (c *Client) GenerateContent(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	body := generateContentRequest{
		Contents: req.Contents,
		Tools:    req.Tools,
	}
	if strings.TrimSpace(req.SystemInstruction) != "" {
		body.SystemInstruction = &Content{Parts: []Part{{Text: req.SystemInstruction}}}
	}
	if req.LatLng != nil {
		body.ToolConfig = &ToolConfig{RetrievalConfig: &RetrievalConfig{LatLng: req.LatLng}}
	}
	if req.ThinkingBudget != nil {
		body.GenerationConfig = &GenerationConfig{
			ThinkingConfig: &ThinkingConfig{ThinkingBudget: req.ThinkingBudget},
		}
	}

	var resp generateContentResponse
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.chatModel)
	if err := c.doJSON(ctx, url, body, &resp); err != nil {
		return nil, err
	}
	return decomposeChat(&resp)
}

func decomposeChat(resp *generateContentResponse) (*ChatResult, error) {
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: response has no candidates")
	}
	cand := resp.Candidates[0]
	out := &ChatResult{}
	if cand.Content != nil {
		var text strings.Builder
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				text.WriteString(p.Text)
			}
			if out.ImageData == nil && p.InlineData != nil && strings.HasPrefix(p.InlineData.MIMEType, "image/") {
				data, err := decodeInline(p.InlineData)
				if err != nil {
					return nil, err
				}
				out.ImageData = data
				out.ImageMIME = p.InlineData.MIMEType
			}
		}
		out.Text = text.String()
	}
	if cand.GroundingMetadata != nil {
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			src := chunk.Web
			if src == nil {
				src = chunk.Maps
			}
			if src == nil || src.URI == "" {
				continue
			}
			out.Citations = append(out.Citations, *src)
		}
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("gemini: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error != nil && envelope.Error.Message != "" {
			return envelope.Error
		}
		return fmt.Errorf("gemini: unexpected status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("gemini: parse response: %w", err)
	}
	return nil
}
