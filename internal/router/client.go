package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"

	logx "github.com/xsharmas/Brainhealer-bot/pkg/logger"
)

// chatMessage is the OpenAI-compatible wire form of one turn.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	User        string        `json:"user,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client issues single chat completions against OpenRouter. Every failure
// comes back as a *BackendError so the dispatcher can classify it without
// string matching.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a completion client. Per-attempt deadlines come from the
// dispatcher's context, so the underlying transport carries no timeout of
// its own.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{cfg: cfg, http: &http.Client{}}
}

// Complete sends one completion request to the given model and returns the
// assistant text.
func (c *Client) Complete(ctx context.Context, modelID string, messages []*schema.Message, opts CompletionOptions) (string, error) {
	payload := chatRequest{
		Model:       modelID,
		Messages:    toWire(messages),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		User:        opts.User,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &BackendError{Model: modelID, Kind: FailureMalformed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &BackendError{Model: modelID, Kind: FailureNetwork, Err: err}
	}
	c.cfg.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		kind := FailureNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			kind = FailureTimeout
		}
		return "", &BackendError{Model: modelID, Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &BackendError{Model: modelID, Kind: FailureNetwork, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// decoded below
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &BackendError{
			Model:  modelID,
			Kind:   FailureAuth,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("provider said: %s", truncate(raw, 100)),
		}
	default:
		// 404/410/429/5xx and anything else unexpected skip to the next model.
		return "", &BackendError{Model: modelID, Kind: FailureStatus, Status: resp.StatusCode}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &BackendError{Model: modelID, Kind: FailureMalformed, Err: err}
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", &BackendError{Model: modelID, Kind: FailureEmpty, Status: resp.StatusCode}
	}

	if parsed.Model != "" && parsed.Model != modelID {
		// The auto-router reports which upstream actually answered.
		logx.Debug().Str("requested", modelID).Str("served_by", parsed.Model).Msg("Completion served by routed model")
	}
	return parsed.Choices[0].Message.Content, nil
}

// toWire converts graph messages to the provider's role/content pairs.
func toWire(messages []*schema.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		if m == nil || m.Content == "" {
			continue
		}
		out = append(out, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func truncate(raw []byte, n int) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > n {
		return s[:n]
	}
	return s
}
