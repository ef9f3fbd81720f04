package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/ardcek/fatura-ocr-app/internal/extract"
	"github.com/ardcek/fatura-ocr-app/internal/logger"
)

// OpenAIConfig configures the ChatGPT annotator.
type OpenAIConfig struct {
	Model       string  // gpt-4, gpt-3.5-turbo
	Temperature float32 // low temperatures keep span extraction deterministic
	MaxRetries  int
}

// OpenAIAnnotator labels entity spans using ChatGPT. Unlike the prose
// annotator it handles Turkish text well, at the cost of a network round
// trip per document.
type OpenAIAnnotator struct {
	client *openai.Client
	config OpenAIConfig
	log    zerolog.Logger
}

// chatEntity is the JSON shape ChatGPT is asked to produce per span.
type chatEntity struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// NewOpenAIAnnotator creates an annotator with explicit dependencies.
func NewOpenAIAnnotator(client *openai.Client, config OpenAIConfig) *OpenAIAnnotator {
	if config.Model == "" {
		config.Model = "gpt-3.5-turbo"
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	return &OpenAIAnnotator{
		client: client,
		config: config,
		log:    logger.WithComponent("nlp-openai"),
	}
}

const annotateSystemPrompt = `You are a named-entity tagger for Turkish invoices.
Given invoice text, return a JSON array of entities. Each entity is an object
with "label" and "text". Allowed labels: MONEY (monetary amounts), DATE
(calendar dates), ORG (company names), PERSON (person names).
Return ONLY the JSON array, no explanation.`

// Annotate sends the text to ChatGPT and parses the labeled spans from the
// response. Transient failures and malformed responses are retried up to
// MaxRetries times.
func (a *OpenAIAnnotator) Annotate(ctx context.Context, text string) ([]extract.Entity, error) {
	const op = "OpenAIAnnotator.Annotate"

	var lastErr error
	for attempt := 1; attempt <= a.config.MaxRetries; attempt++ {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       a.config.Model,
			Temperature: a.config.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: annotateSystemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: text,
				},
			},
			MaxTokens: 1000,
		})
		if err != nil {
			lastErr = err
			a.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", a.config.MaxRetries).
				Msg("ChatGPT annotation request failed, retrying")
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response choices from ChatGPT")
			continue
		}

		content := strings.TrimSpace(resp.Choices[0].Message.Content)
		// Models sometimes wrap the array in a markdown code fence.
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")

		var spans []chatEntity
		if err := json.Unmarshal([]byte(content), &spans); err != nil {
			lastErr = fmt.Errorf("failed to parse ChatGPT JSON response: %w", err)
			a.log.Warn().
				Err(err).
				Str("response", content).
				Int("attempt", attempt).
				Msg("Failed to parse ChatGPT annotation response, retrying")
			continue
		}

		return a.toEntities(text, spans), nil
	}

	return nil, fmt.Errorf("%s: all %d attempts failed: %w", op, a.config.MaxRetries, lastErr)
}

// toEntities resolves each labeled span back to an offset in the source
// text. Spans the model invented (not present in the text) are kept with
// zero offsets since the extraction engine only needs label and text.
func (a *OpenAIAnnotator) toEntities(text string, spans []chatEntity) []extract.Entity {
	var entities []extract.Entity
	for _, span := range spans {
		label := strings.ToUpper(strings.TrimSpace(span.Label))
		switch label {
		case "MONEY", "DATE", "ORG", "PERSON":
		default:
			continue
		}
		value := strings.TrimSpace(span.Text)
		if value == "" {
			continue
		}
		start := strings.Index(text, value)
		end := 0
		if start >= 0 {
			end = start + len(value)
		} else {
			start = 0
		}
		entities = append(entities, extract.Entity{
			Label: label,
			Text:  value,
			Start: start,
			End:   end,
		})
	}
	return entities
}
