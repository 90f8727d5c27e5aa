package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/carpool-gateway/internal/logger"
)

const prompt = "Check if the following text contains blasphemy or inappropriate language. " +
	"If yes, return \"UNSAFE\". Otherwise return \"SAFE\":\n\n"

// GeminiChecker asks a generative-language model whether text is
// acceptable. The model answers "SAFE" for clean text; any other answer is
// a rejection.
type GeminiChecker struct {
	BaseURL string
	Model   string
	APIKey  string
	HTTP    *http.Client
	Log     logger.ILogger
}

func NewGeminiChecker(baseURL, model, apiKey string, timeout time.Duration, log logger.ILogger) *GeminiChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GeminiChecker{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
		Log:     log,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiChecker) Check(ctx context.Context, text string) (Verdict, error) {
	v, err := g.check(ctx, text)
	if err != nil {
		g.Log.Warning("moderation check failed", logger.Error(err))
		return Unavailable, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, nil
}

func (g *GeminiChecker) check(ctx context.Context, text string) (Verdict, error) {
	if g.APIKey == "" {
		return Unavailable, fmt.Errorf("no api key configured")
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt + text}}}},
	})
	if err != nil {
		return Unavailable, err
	}

	// The key goes in a header; transport errors quote the url.
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.BaseURL, url.PathEscape(g.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Unavailable, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return Unavailable, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return Unavailable, fmt.Errorf("status %d", resp.StatusCode)
	}

	var out geminiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return Unavailable, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return Unavailable, fmt.Errorf("empty response")
	}

	if strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text) == "SAFE" {
		return Safe, nil
	}
	return Unsafe, nil
}
