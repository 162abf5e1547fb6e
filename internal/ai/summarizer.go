// Package ai provides product description generation backed by an
// external language model API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrNotConfigured = errors.New("ai endpoint not configured")

// Summarizer turns raw product details into storefront copy.
type Summarizer interface {
	Describe(ctx context.Context, name, category string, specifications map[string]string) (string, error)
}

// Config holds the connection details for the model API.
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
}

type httpSummarizer struct {
	cfg    Config
	client *http.Client
}

// NewSummarizer creates a Summarizer calling an OpenAI-compatible
// chat completions endpoint.
func NewSummarizer(cfg Config) Summarizer {
	return &httpSummarizer{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (s *httpSummarizer) Describe(ctx context.Context, name, category string, specifications map[string]string) (string, error) {
	if s.cfg.Endpoint == "" {
		return "", ErrNotConfigured
	}

	prompt := fmt.Sprintf("Write a short, appealing product description for %q in the %q category.", name, category)
	for key, value := range specifications {
		prompt += fmt.Sprintf(" %s: %s.", key, value)
	}

	body, err := json.Marshal(chatRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}

	return decoded.Choices[0].Message.Content, nil
}
