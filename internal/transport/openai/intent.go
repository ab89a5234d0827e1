package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
	"github.com/kailas-cloud/memberscout/internal/usecase/extract"
)

// maxParseRetries bounds re-asks when the model returns malformed JSON.
const maxParseRetries = 3

const intentSystemPrompt = `You extract structured search filters from queries against a membership directory.
Respond with a single JSON object and nothing else:
{
  "intent": "find_business" | "find_peers" | "find_specific_person" | "find_alumni_business" | "ambiguous",
  "filters": {
    "graduation_year": <int or null>,
    "branch": <string or null>,
    "city": <string or null>,
    "skills": [<string>, ...] or null,
    "designation": <string or null>,
    "min_turnover": <number in rupees or null>,
    "name": <string or null>
  },
  "canonical_text": "<the query reduced to its semantic core, lowercase>",
  "confidence": <0.0 to 1.0>
}
Only fill a filter when the query states it. Do not guess. Leave unstated filters null.`

// IntentExtractor calls an OpenAI-compatible chat model to extract intent
// and filters from query text the deterministic rules could not account for.
type IntentExtractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// IntentExtractorConfig holds the extraction provider settings.
type IntentExtractorConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewIntentExtractor creates an LLM-backed intent extractor.
func NewIntentExtractor(cfg *IntentExtractorConfig) *IntentExtractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &IntentExtractor{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// llmResponse mirrors the JSON contract of intentSystemPrompt.
type llmResponse struct {
	Intent  string `json:"intent"`
	Filters struct {
		GraduationYear *int     `json:"graduation_year"`
		Branch         *string  `json:"branch"`
		City           *string  `json:"city"`
		Skills         []string `json:"skills"`
		Designation    *string  `json:"designation"`
		MinTurnover    *float64 `json:"min_turnover"`
		Name           *string  `json:"name"`
	} `json:"filters"`
	CanonicalText string  `json:"canonical_text"`
	Confidence    float64 `json:"confidence"`
}

// ExtractIntent implements extract.IntentExtractor. Malformed JSON is
// retried up to maxParseRetries times before the call is reported failed.
func (x *IntentExtractor) ExtractIntent(ctx context.Context, text string, recentQueries []string) (extract.LLMExtraction, error) {
	userPrompt := buildUserPrompt(text, recentQueries)

	var lastErr error
	for attempt := 1; attempt <= maxParseRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return extract.LLMExtraction{}, err
		}

		raw, err := x.complete(ctx, userPrompt)
		if err != nil {
			return extract.LLMExtraction{}, err
		}

		var parsed llmResponse
		if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
			lastErr = fmt.Errorf("parse extraction response (attempt %d): %w", attempt, err)
			x.logger.Warn("malformed extraction JSON, retrying",
				zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		return toExtraction(parsed), nil
	}

	return extract.LLMExtraction{}, fmt.Errorf("%v: %w", lastErr, domain.ErrExtractionProviderError)
}

func (x *IntentExtractor) complete(ctx context.Context, userPrompt string) (string, error) {
	resp, err := x.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       x.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: intentSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %v: %w", err, domain.ErrExtractionProviderError)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion: %w", domain.ErrExtractionProviderError)
	}
	return resp.Choices[0].Message.Content, nil
}

func buildUserPrompt(text string, recentQueries []string) string {
	var b strings.Builder
	if len(recentQueries) > 0 {
		b.WriteString("Previous queries in this conversation:\n")
		for _, q := range recentQueries {
			b.WriteString("- ")
			b.WriteString(q)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	b.WriteString("Query: ")
	b.WriteString(text)
	return b.String()
}

// toExtraction converts the wire shape into domain types, dropping any
// filter value the constructors reject.
func toExtraction(parsed llmResponse) extract.LLMExtraction {
	intent := domain.Intent(parsed.Intent)
	if !intent.IsValid() {
		intent = domain.IntentAmbiguous
	}

	filters := filter.NewSet()
	add := func(c filter.Condition, err error) {
		if err == nil {
			filters = filters.With(c)
		}
	}

	f := parsed.Filters
	if f.GraduationYear != nil {
		add(filter.NewYear(*f.GraduationYear))
	}
	if f.Branch != nil {
		add(filter.NewBranch(*f.Branch))
	}
	if f.City != nil {
		add(filter.NewCity(*f.City))
	}
	if len(f.Skills) > 0 {
		add(filter.NewSkills(f.Skills...))
	}
	if f.Designation != nil {
		add(filter.NewDesignation(*f.Designation))
	}
	if f.MinTurnover != nil {
		add(filter.NewTurnoverAtLeast(*f.MinTurnover))
	}
	if f.Name != nil {
		add(filter.NewName(*f.Name))
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return extract.LLMExtraction{
		Intent:     intent,
		Filters:    filters,
		Canonical:  strings.TrimSpace(parsed.CanonicalText),
		Confidence: confidence,
	}
}

// stripCodeFence tolerates models that wrap JSON in a markdown fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
