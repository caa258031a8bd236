package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Fixed generation settings: low temperature, deterministic-leaning
// sampling, bounded output. Chosen for classification-style tasks, not
// open-ended generation.
const (
	defaultModel   = "gemini-2.5-flash"
	defaultBaseURL = "https://generativelanguage.googleapis.com"

	genTemperature     = 0.3
	genTopP            = 0.8
	genTopK            = 20
	genMaxOutputTokens = 1024
)

type generateRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// providerError is a failed provider call, carrying enough detail for the
// retry policy to classify it.
type providerError struct {
	statusCode int
	status     string
	message    string
}

func (e *providerError) Error() string {
	if e.statusCode != 0 {
		return fmt.Sprintf("provider error (%d %s): %s", e.statusCode, e.status, e.message)
	}
	return fmt.Sprintf("provider error: %s", e.message)
}

// isQuotaError reports whether err indicates quota or rate-limit
// exhaustion, which gets the long cooldown instead of the short backoff.
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if pe, ok := err.(*providerError); ok && pe.statusCode == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted")
}

// generateOnce performs a single generateContent call and returns the
// trimmed text of the first candidate.
func (c *Client) generateOnce(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     genTemperature,
			TopP:            genTopP,
			TopK:            genTopK,
			MaxOutputTokens: genMaxOutputTokens,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &providerError{message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &providerError{message: fmt.Sprintf("reading response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", &providerError{
				statusCode: resp.StatusCode,
				status:     apiErr.Error.Status,
				message:    apiErr.Error.Message,
			}
		}
		return "", &providerError{statusCode: resp.StatusCode, message: string(respBody)}
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &providerError{message: fmt.Sprintf("decoding response: %v", err)}
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", &providerError{message: "empty response"}
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}
