package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/randomtoy/tarot-fan/internal/domain"
	"github.com/randomtoy/tarot-fan/internal/ports"
)

const maxErrorBody = 256

// Client implements ports.Interpreter via the OpenRouter API. Models are
// tried in order until one answers with a usable reading; an auth failure
// ends the chain since every model shares the key.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	models     []string
	logger     *slog.Logger
}

func NewClient(httpClient *http.Client, apiKey, baseURL, model string, fallbackModels []string, logger *slog.Logger) *Client {
	models := make([]string, 0, 1+len(fallbackModels))
	models = append(models, model)
	models = append(models, fallbackModels...)
	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		models:     models,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// statusError is a non-200 answer from the API.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.code, e.body)
}

func (e *statusError) auth() bool {
	return e.code == http.StatusUnauthorized || e.code == http.StatusForbidden
}

func (c *Client) Interpret(ctx context.Context, in ports.InterpretInput) (ports.InterpretOutput, error) {
	var lastErr error
	for i, model := range c.models {
		out, err := c.interpretWithModel(ctx, in, model)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && se.auth() {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if i < len(c.models)-1 {
			c.logger.WarnContext(ctx, "model failed, trying next", "model", model, "error", err)
		}
	}
	return ports.InterpretOutput{}, lastErr
}

func (c *Client) interpretWithModel(ctx context.Context, in ports.InterpretInput, model string) (ports.InterpretOutput, error) {
	system := systemPrompt(in.Lang)
	user := readingPrompt(in)

	content, err := c.complete(ctx, model, system, user)
	if err != nil {
		return ports.InterpretOutput{}, fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
	}

	out, err := decodeReading(content)
	if err != nil {
		c.logger.WarnContext(ctx, "LLM returned an unusable reading, retrying", "model", model, "error", err)
		content, err = c.complete(ctx, model, system, retryPrompt(content))
		if err != nil {
			return ports.InterpretOutput{}, fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
		}
		if out, err = decodeReading(content); err != nil {
			return ports.InterpretOutput{}, fmt.Errorf("%w: %w", domain.ErrInvalidLLMJSON, err)
		}
	}

	out.Model = model
	return out, nil
}

// decodeReading parses the model's answer, tolerating code fences or chatter
// around the JSON object, and fills the defaults.
func decodeReading(content string) (ports.InterpretOutput, error) {
	var out ports.InterpretOutput
	if err := json.Unmarshal([]byte(extractJSON(content)), &out); err != nil {
		return out, err
	}
	if strings.TrimSpace(out.Text) == "" {
		return out, errors.New("empty interpretation text")
	}
	if out.Style == "" {
		out.Style = "neutral"
	}
	if out.Disclaimer == "" {
		out.Disclaimer = defaultDisclaimer
	}
	return out, nil
}

func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func (c *Client) complete(ctx context.Context, model, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    0.7,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	c.logger.DebugContext(ctx, "LLM call finished",
		"model", model,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return "", &statusError{code: resp.StatusCode, body: msg}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}
