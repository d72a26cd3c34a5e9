package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"context"

	"agentic_debate/pkg/core/provider"
)

// DeepSeekProvider implements provider.Port against DeepSeek's OpenAI-style
// chat completions endpoint.
type DeepSeekProvider struct {
	ProviderID string
	Model      string
}

var _ provider.Port = (*DeepSeekProvider)(nil)

func (p *DeepSeekProvider) ID() string {
	if p.ProviderID != "" {
		return p.ProviderID
	}
	return "deepseek"
}

type deepseekMessage struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type deepseekRequest struct {
	Messages    []deepseekMessage `json:"messages"`
	Model       string            `json:"model"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature"`
	TopP        float64           `json:"top_p"`
	Stream      bool              `json:"stream"`
}

type deepseekResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (p *DeepSeekProvider) Chat(ctx context.Context, messages []provider.Message, systemPrompt string, opts provider.Options) (provider.Response, error) {
	ctx, cancel := provider.WithCancelToken(ctx, opts.CancelToken)
	defer cancel()

	apiKey := os.Getenv("DEEPSEEK_API_KEY")
	if apiKey == "" {
		return provider.Response{}, provider.NewError(provider.ErrAuth, false, fmt.Errorf("DEEPSEEK_API_KEY not set"))
	}

	model := p.Model
	if model == "" {
		model = "deepseek-chat"
	}

	wireMessages := make([]deepseekMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		wireMessages = append(wireMessages, deepseekMessage{Role: "system", Content: systemPrompt})
	}
	for _, m := range messages {
		wireMessages = append(wireMessages, deepseekMessage{Role: m.Role, Content: m.Content})
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	reqBody := deepseekRequest{
		Messages:    wireMessages,
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: 1.0,
		TopP:        1.0,
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return provider.Response{}, provider.NewError(provider.ErrInvalidResponse, false, fmt.Errorf("deepseek marshal: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.deepseek.com/chat/completions", bytes.NewBuffer(jsonBytes))
	if err != nil {
		return provider.Response{}, provider.NewError(provider.ErrTransport, false, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return provider.Response{}, provider.NewError(provider.ErrCancelled, false, err)
		}
		return provider.Response{}, provider.NewError(provider.ErrTransport, true, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return provider.Response{}, provider.NewError(provider.ErrTransport, true, err)
	}

	if res.StatusCode == http.StatusTooManyRequests {
		return provider.Response{}, provider.NewError(provider.ErrRateLimited, true, fmt.Errorf("deepseek rate limited: %s", string(body)))
	}
	if res.StatusCode != http.StatusOK {
		return provider.Response{}, provider.NewError(provider.ErrTransport, true, fmt.Errorf("deepseek status=%d body=%s", res.StatusCode, string(body)))
	}

	var response deepseekResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return provider.Response{}, provider.NewError(provider.ErrInvalidResponse, false, fmt.Errorf("deepseek unmarshal: %w", err))
	}
	if len(response.Choices) == 0 {
		return provider.Response{}, provider.NewError(provider.ErrInvalidResponse, false, fmt.Errorf("deepseek returned no choices"))
	}

	return provider.Response{
		Text: response.Choices[0].Message.Content,
		Usage: provider.Usage{
			Input:  response.Usage.PromptTokens,
			Output: response.Usage.CompletionTokens,
			Total:  response.Usage.TotalTokens,
		},
	}, nil
}
