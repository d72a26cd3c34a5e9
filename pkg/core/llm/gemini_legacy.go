package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"agentic_debate/pkg/core/provider"
)

// GeminiLegacyProvider implements provider.Port using the older
// generative-ai-go SDK and grounding-capable GenerativeModel client,
// rather than the newer google.golang.org/genai client GeminiProvider
// uses. Grounded on the teacher's BaseAgent.generateWithGrounding: the
// per-call client construction, temperature, and candidate/part text
// extraction are carried over unchanged. The Google Search grounding tool
// (left commented out in the teacher's code, pending an SDK upgrade) is
// still not wired, and the system prompt is prepended to the prompt text
// rather than set as a separate system instruction.
//
// Two adapters for the same vendor satisfying provider.Port lets a
// deployment keep an older pinned SDK on one advisor (e.g. during a
// staged rollout of the newer client) while the rest of the roster
// moves to GeminiProvider.
type GeminiLegacyProvider struct {
	ProviderID string
	Model      string // e.g. "gemini-1.5-pro"
}

var _ provider.Port = (*GeminiLegacyProvider)(nil)

func (p *GeminiLegacyProvider) ID() string {
	if p.ProviderID != "" {
		return p.ProviderID
	}
	return "gemini-legacy"
}

func (p *GeminiLegacyProvider) Chat(ctx context.Context, messages []provider.Message, systemPrompt string, opts provider.Options) (provider.Response, error) {
	ctx, cancel := provider.WithCancelToken(ctx, opts.CancelToken)
	defer cancel()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return provider.Response{}, provider.NewError(provider.ErrAuth, false, fmt.Errorf("GEMINI_API_KEY environment variable not set"))
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return provider.Response{}, provider.NewError(provider.ErrTransport, true, fmt.Errorf("failed to create legacy Gemini client: %w", err))
	}
	defer client.Close()

	modelName := p.Model
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.1)

	// TODO: wire GoogleSearchRetrieval once the vendored SDK supports it
	// (same gap the teacher's BaseAgent left open).
	model.Tools = []*genai.Tool{}

	prompt := flattenMessages(messages)
	if systemPrompt != "" {
		prompt = systemPrompt + "\n\nTask: " + prompt
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if ctx.Err() != nil {
			return provider.Response{}, provider.NewError(provider.ErrCancelled, false, err)
		}
		return provider.Response{}, provider.NewError(provider.ErrTransport, true, fmt.Errorf("legacy gemini generation failed: %w", err))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return provider.Response{}, provider.NewError(provider.ErrInvalidResponse, false, fmt.Errorf("legacy gemini returned no candidates"))
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	text := sb.String()

	usage := provider.Usage{Input: len(prompt) / 4, Output: len(text) / 4}
	usage.Total = usage.Input + usage.Output

	return provider.Response{Text: text, Usage: usage}, nil
}
