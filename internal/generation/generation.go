// Package generation calls the hosted language model that composes the final
// answer from the retrieved grounding context.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrUnavailable is the boundary error for any generation failure. Handlers
// map it to a generic unavailable-service reply and never expose the cause
// to external callers.
var ErrUnavailable = errors.New("generation service unavailable")

// Client is an OpenAI-compatible chat completions client.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// Config configures the chat client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewClient creates a chat client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  key,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate sends the prompt and returns the model reply. All failures are
// wrapped in ErrUnavailable.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
	}{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}

	var out struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return out.Choices[0].Message.Content, nil
}

// BuildPrompt assembles the investigation-assistant prompt. With retrieved
// regulations it instructs the model to ground and cite; without, it falls
// back to a plain analytical prompt.
func BuildPrompt(question string, detections []string, ragContext, sources string) string {
	evidence := "no objects"
	if len(detections) > 0 {
		evidence = strings.Join(detections, ", ")
	}

	if ragContext != "" {
		return fmt.Sprintf(`Act as a professional detective and analytical assistant specialized in evidence-based scenarios.

Evidence Detected: %s

Relevant Regulations:
%s
[Source: %s]

Question: %q

Instructions:
- Provide direct, concise answers for simple questions
- For regulation-related queries, cite sources as "According to [source name], ..."
- Never mention page numbers
- Base answers on the regulations provided above
- Keep responses professional and to-the-point
- Only elaborate when the question requires detailed analysis
- If the regulations do not cover the question, say you lack enough evidence to support a claim`,
			evidence, ragContext, sources, question)
	}

	return fmt.Sprintf(`Act as a professional detective analyzing this evidence.

Evidence Detected: %s

Question: %q

Provide a direct, professional answer based on your analytical expertise. Keep it concise unless the question requires detailed investigation.`,
		evidence, question)
}
