package extract

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

// OpenAIUnderstander talks to an OpenAI-compatible chat completions endpoint,
// such as a locally served Llama model.
type OpenAIUnderstander struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewOpenAIUnderstander creates an OpenAIUnderstander. A zero timeout means 10s.
func NewOpenAIUnderstander(baseURL, model, apiKey string, timeout time.Duration) *OpenAIUnderstander {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenAIUnderstander{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Understand implements Understander.
func (c *OpenAIUnderstander) Understand(ctx context.Context, content string) (Understanding, error) {
	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt(content)}},
		Temperature:    0,
		MaxTokens:      100,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return Understanding{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Understanding{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Understanding{}, fmt.Errorf("chat completion request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Understanding{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Understanding{}, fmt.Errorf("chat completion returned %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return Understanding{}, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return Understanding{}, fmt.Errorf("chat completion error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return Understanding{}, fmt.Errorf("chat completion returned no choices")
	}
	return decodeUnderstanding(out.Choices[0].Message.Content)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
