package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"agentic_debate/pkg/core/provider"
)

// GeminiProvider implements provider.Port for Google's Gemini models.
type GeminiProvider struct {
	ProviderID string
	Model      string // e.g. "gemini-2.0-flash-exp"
}

var _ provider.Port = (*GeminiProvider)(nil)

func (p *GeminiProvider) ID() string {
	if p.ProviderID != "" {
		return p.ProviderID
	}
	return "gemini"
}

// Chat sends a generateContent request to the Gemini API using the
// official GenAI SDK, honouring opts.CancelToken via provider.WithCancelToken.
func (p *GeminiProvider) Chat(ctx context.Context, messages []provider.Message, systemPrompt string, opts provider.Options) (provider.Response, error) {
	ctx, cancel := provider.WithCancelToken(ctx, opts.CancelToken)
	defer cancel()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return provider.Response{}, provider.NewError(provider.ErrAuth, false, fmt.Errorf("GEMINI_API_KEY environment variable not set"))
	}

	model := p.Model
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return provider.Response{}, provider.NewError(provider.ErrTransport, true, fmt.Errorf("failed to create GenAI client: %w", err))
	}

	prompt := flattenMessages(messages)

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}
	if strings.Contains(strings.ToLower(systemPrompt), "json") || strings.Contains(strings.ToLower(prompt), "json") {
		config.ResponseMIMEType = "application/json"
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		if ctx.Err() != nil {
			return provider.Response{}, provider.NewError(provider.ErrCancelled, false, err)
		}
		return provider.Response{}, provider.NewError(provider.ErrTransport, true, fmt.Errorf("gemini generation failed: %w", err))
	}

	text := result.Text()
	if len(result.Candidates) > 0 {
		cand := result.Candidates[0]
		if cand.GroundingMetadata != nil && len(cand.GroundingMetadata.GroundingChunks) > 0 {
			var citations []string
			for _, chunk := range cand.GroundingMetadata.GroundingChunks {
				if chunk.Web != nil {
					citations = append(citations, fmt.Sprintf("[%s](%s)", chunk.Web.Title, chunk.Web.URI))
				}
			}
			if len(citations) > 0 {
				text = fmt.Sprintf("%s\n\n**Sources:**\n%s", text, strings.Join(citations, "\n"))
			}
		}
	}

	// The alpha genai SDK's usage-metadata shape has shifted across
	// releases; estimate from text length rather than depend on a field
	// that may not exist in the vendored version.
	usage := provider.Usage{
		Input:  len(prompt) / 4,
		Output: len(text) / 4,
	}
	usage.Total = usage.Input + usage.Output

	return provider.Response{Text: text, Usage: usage}, nil
}

func flattenMessages(messages []provider.Message) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}
