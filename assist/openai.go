package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/postdeck/postdeck/scheduling"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "google/gemini-2.0-flash-001"

	maxCaptionTokens   = 200
	captionTemperature = 0.7
)

// OpenAIGateway calls any endpoint implementing the OpenAI Chat Completions
// wire format (OpenAI, OpenRouter, vLLM, Ollama, etc.).
type OpenAIGateway struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

var _ Gateway = (*OpenAIGateway)(nil)

func NewOpenAIGateway(httpClient *http.Client, baseURL, apiKey, model string) *OpenAIGateway {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if model == "" {
		model = DefaultModel
	}

	return &OpenAIGateway{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (gw *OpenAIGateway) GenerateCaption(ctx context.Context, content string, platform scheduling.Platform) (string, error) {
	reqBody := chatRequest{
		Model: gw.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(platform)},
			{Role: "user", Content: content},
		},
		MaxTokens:   maxCaptionTokens,
		Temperature: captionTemperature,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gw.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if gw.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+gw.apiKey)
	}

	resp, err := gw.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat completions endpoint: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completions endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp chatResponse

	err = json.Unmarshal(body, &chatResp)
	if err != nil {
		return "", fmt.Errorf("failed to unmarshal chat response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("chat completions endpoint returned error: %s: %s", chatResp.Error.Type, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}

	caption := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if caption == "" {
		return "", fmt.Errorf("chat response has empty content")
	}

	return caption, nil
}
