package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You triage support requests for SquadUp, a platform where amateur players build gaming teams.
Decide whether the request is appropriate to forward to staff. Reject harassment, spam, or requests unrelated to the platform.
Reply with a single JSON object and nothing else:
{"approved": bool, "reason": string, "category": "account"|"team"|"tournament"|"bug"|"abuse"|"other", "subject": string, "summary": string}
When approved is false, set only reason. When approved is true, write a short subject and a neutral summary of the problem.`

// OpenAIClassifier asks a hosted chat model for a verdict.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier returns a classifier using apiKey. baseURL overrides
// the API endpoint when set, for proxies or compatible providers.
func NewOpenAIClassifier(apiKey, model, baseURL string) *OpenAIClassifier {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClassifier{client: openai.NewClientWithConfig(cfg), model: model}
}

func (c *OpenAIClassifier) Name() string { return "openai" }

func (c *OpenAIClassifier) Classify(ctx context.Context, description string) (Classification, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: description},
		},
	})
	if err != nil {
		return Classification{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return Classification{}, fmt.Errorf("%w: empty completion", ErrUnavailable)
	}

	raw := ExtractJSON(resp.Choices[0].Message.Content)
	if raw == "" {
		return Classification{}, fmt.Errorf("%w: no JSON object in completion", ErrUnavailable)
	}

	var out Classification
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Classification{}, fmt.Errorf("%w: decode completion: %v", ErrUnavailable, err)
	}
	if out.Approved && (strings.TrimSpace(out.Subject) == "" || strings.TrimSpace(out.Summary) == "") {
		return Classification{}, fmt.Errorf("%w: approved verdict without subject or summary", ErrUnavailable)
	}
	if !out.Approved && strings.TrimSpace(out.Reason) == "" {
		out.Reason = "This request can't be submitted as a support ticket."
	}
	return out, nil
}
