package translate

import (
	"context"
	"encoding/json"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Anthropic translates value batches with a Claude model. Useful for
// domain vocabulary (facility types, administrative terms) that MT
// services render poorly.
type Anthropic struct {
	client sdk.Client
	model  string
	apiKey string
}

// NewAnthropic creates an Anthropic translator with the given key and model.
func NewAnthropic(apiKey, model string) *Anthropic {
	return &Anthropic{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		apiKey: apiKey,
	}
}

// Name implements Translator.
func (a *Anthropic) Name() string { return "anthropic" }

// Available implements Translator.
func (a *Anthropic) Available() bool { return a.apiKey != "" }

// Translate implements Translator.
func (a *Anthropic) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	values, err := json.Marshal(texts)
	if err != nil {
		return nil, eris.Wrap(err, "translate: anthropic encode values")
	}

	var prompt strings.Builder
	prompt.WriteString("Translate each value in the following JSON array from ")
	prompt.WriteString(source)
	prompt.WriteString(" to ")
	prompt.WriteString(target)
	prompt.WriteString(". These are column values from a national statistics dataset; ")
	prompt.WriteString("keep proper nouns, codes, and numbers unchanged. ")
	prompt.WriteString("Respond with only a JSON array of the translated values, same length and order.\n\n")
	prompt.Write(values)

	msg, err := a.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(a.model),
		MaxTokens: 4096,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt.String())),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "translate: anthropic request")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	out, err := parseTranslatedArray(text.String())
	if err != nil {
		return nil, err
	}
	if len(out) != len(texts) {
		return nil, eris.Errorf("translate: anthropic returned %d values, want %d", len(out), len(texts))
	}

	zap.L().Debug("anthropic translation batch",
		zap.Int("values", len(texts)),
		zap.String("source", source),
		zap.String("target", target),
	)
	return out, nil
}

// parseTranslatedArray extracts the JSON array from a model response,
// tolerating surrounding prose and code fences.
func parseTranslatedArray(s string) ([]string, error) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end < start {
		return nil, eris.Errorf("translate: no JSON array in response")
	}

	var out []string
	if err := json.Unmarshal([]byte(s[start:end+1]), &out); err != nil {
		return nil, eris.Wrap(err, "translate: anthropic parse response")
	}
	return out, nil
}
