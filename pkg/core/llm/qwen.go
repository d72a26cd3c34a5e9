package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"agentic_debate/pkg/core/provider"
)

// QwenProvider implements provider.Port against Alibaba's DashScope
// native text-generation API.
type QwenProvider struct {
	ProviderID string
	Model      string
}

var _ provider.Port = (*QwenProvider)(nil)

func (p *QwenProvider) ID() string {
	if p.ProviderID != "" {
		return p.ProviderID
	}
	return "qwen"
}

func (p *QwenProvider) Chat(ctx context.Context, messages []provider.Message, systemPrompt string, opts provider.Options) (provider.Response, error) {
	ctx, cancel := provider.WithCancelToken(ctx, opts.CancelToken)
	defer cancel()

	apiKey := os.Getenv("DASHSCOPE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("QWEN_API_KEY")
	}
	if apiKey == "" {
		return provider.Response{}, provider.NewError(provider.ErrAuth, false, fmt.Errorf("DASHSCOPE_API_KEY or QWEN_API_KEY not set"))
	}

	model := p.Model
	if model == "" {
		model = "qwen-max"
	}

	wireMessages := make([]map[string]string, 0, len(messages)+1)
	if systemPrompt != "" {
		wireMessages = append(wireMessages, map[string]string{"role": "system", "content": systemPrompt})
	}
	for _, m := range messages {
		wireMessages = append(wireMessages, map[string]string{"role": m.Role, "content": m.Content})
	}

	reqBody := map[string]interface{}{
		"model": model,
		"input": map[string]interface{}{
			"messages": wireMessages,
		},
		"parameters": map[string]interface{}{
			"result_format": "message",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return provider.Response{}, provider.NewError(provider.ErrInvalidResponse, false, fmt.Errorf("qwen marshal: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation", bytes.NewBuffer(jsonBody))
	if err != nil {
		return provider.Response{}, provider.NewError(provider.ErrTransport, false, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return provider.Response{}, provider.NewError(provider.ErrCancelled, false, err)
		}
		return provider.Response{}, provider.NewError(provider.ErrTransport, true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return provider.Response{}, provider.NewError(provider.ErrRateLimited, true, fmt.Errorf("qwen rate limited: %s", string(bodyBytes)))
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return provider.Response{}, provider.NewError(provider.ErrTransport, true, fmt.Errorf("qwen status %d: %s", resp.StatusCode, string(bodyBytes)))
	}

	var result struct {
		Output struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
			Text string `json:"text"`
		} `json:"output"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
			TotalTokens  int `json:"total_tokens"`
		} `json:"usage"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return provider.Response{}, provider.NewError(provider.ErrInvalidResponse, false, fmt.Errorf("qwen decode: %w", err))
	}
	if result.Code != "" {
		return provider.Response{}, provider.NewError(provider.ErrTransport, true, fmt.Errorf("qwen api error: %s - %s", result.Code, result.Message))
	}

	usage := provider.Usage{Input: result.Usage.InputTokens, Output: result.Usage.OutputTokens, Total: result.Usage.TotalTokens}

	if len(result.Output.Choices) > 0 {
		return provider.Response{Text: result.Output.Choices[0].Message.Content, Usage: usage}, nil
	}
	if result.Output.Text != "" {
		return provider.Response{Text: result.Output.Text, Usage: usage}, nil
	}

	return provider.Response{}, provider.NewError(provider.ErrInvalidResponse, false, fmt.Errorf("empty response from qwen api"))
}
