// Package classifier augments the keyword intent resolver with an LLM for
// ambiguous phrasing. It is an optional collaborator: the command pipeline
// works without it and falls back to "didn't understand" on low confidence.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coreybb/dailybrief/models"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Guess is the classifier's structured reading of an utterance. Intent is
// one of: add_source, remove_source, change_time, set_timezone, view_sources,
// unsubscribe, help. Confidence below the caller's threshold degrades to an
// unrecognized command rather than a silent wrong action.
type Guess struct {
	Intent     string  `json:"intent"`
	Source     string  `json:"source,omitempty"`
	Time       string  `json:"time,omitempty"`
	Timezone   string  `json:"timezone,omitempty"`
	Confidence float64 `json:"confidence"`
}

type OpenAIClassifier struct {
	client openai.Client
	model  string
}

func NewOpenAIClassifier(apiKey, model string) *OpenAIClassifier {
	if model == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClassifier{client: client, model: model}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, text string, stage models.OnboardingStage) (Guess, error) {
	prompt := buildPrompt(text, stage)

	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String("You are a helpful assistant that parses user intents for a news digest subscription service. Respond with a single JSON object and nothing else."),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt),
					},
				},
			},
		},
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(300),
	})
	if err != nil {
		return Guess{}, fmt.Errorf("openai request failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return Guess{}, fmt.Errorf("no response from openai")
	}

	return parseGuess(response.Choices[0].Message.Content)
}

// parseGuess decodes the model's JSON reply, tolerating markdown code fences
// around the object.
func parseGuess(content string) (Guess, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.Trim(content, "` \n")

	var guess Guess
	if err := json.Unmarshal([]byte(content), &guess); err != nil {
		return Guess{}, fmt.Errorf("failed to parse openai response: %w", err)
	}
	return guess, nil
}

func buildPrompt(text string, stage models.OnboardingStage) string {
	var b strings.Builder
	b.WriteString("Parse the user's intent from their message to a news digest subscription bot.\n\n")
	fmt.Fprintf(&b, "Message: %q\n", text)
	fmt.Fprintf(&b, "Onboarding stage: %s\n\n", stage)
	b.WriteString(`Possible intents:
- add_source: user wants to add a news source (extract the source name or URL)
- remove_source: user wants to remove a news source (extract the source name or URL)
- change_time: user wants to change delivery time (extract the time in HH:MM 24-hour format)
- set_timezone: user wants to set their timezone (extract an IANA timezone identifier)
- view_sources: user wants to see their current sources
- unsubscribe: user wants to stop receiving digests
- help: the intent is unclear

Return a JSON object with keys: intent, source, time, timezone, confidence (0.0-1.0).`)
	return b.String()
}
