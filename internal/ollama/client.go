// Package ollama is a minimal client for a local Ollama server's structured
// chat API. It exists as the non-brittle alternative to scraping llama-cli
// console output.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ChatResponse struct {
	Model     string  `json:"model"`
	CreatedAt string  `json:"created_at"`
	Message   Message `json:"message"`
	Done      bool    `json:"done"`
}

type Model struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
}

type modelsResponse struct {
	Models []Model `json:"models"`
}

// Client represents a client for the Ollama API
type Client struct {
	base      *url.URL
	http      *http.Client
	modelsURL *url.URL
	chatURL   *url.URL
}

const DefaultHost = "localhost:11434"

func NewClient(host string) *Client {
	if host == "" {
		host = DefaultHost
	}
	baseURL := &url.URL{Scheme: "http", Host: host}
	return &Client{
		base: baseURL,
		// LLM responses can be slow.
		http:      &http.Client{Timeout: 5 * time.Minute},
		modelsURL: baseURL.ResolveReference(&url.URL{Path: "/api/tags"}),
		chatURL:   baseURL.ResolveReference(&url.URL{Path: "/api/chat"}),
	}
}

// Available reports whether the server answers on its base URL.
func (c *Client) Available() bool {
	resp, err := c.http.Get(c.base.String())
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) Models() ([]Model, error) {
	req, err := http.NewRequest(http.MethodGet, c.modelsURL.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("failed to fetch models: " + resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var response modelsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, err
	}
	return response.Models, nil
}

// Chat sends the full message history and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, model string, messages []Message) (string, error) {
	data := ChatRequest{Model: model, Messages: messages, Stream: false}
	bts, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL.String(), bytes.NewBuffer(bts))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.http.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", errors.New("chat request failed: " + response.Status)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(response.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	return chatResp.Message.Content, nil
}
