package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/brandlens/brandlens/internal/brand"
	"github.com/brandlens/brandlens/internal/gateway"
)

const variationSystemPrompt = `You rewrite a search intent into distinct natural-language questions a
person might ask an AI assistant. Return a JSON array of strings and
nothing else.`

// Generator expands a brand profile into a bounded list of test prompts.
//
// The static strategy set never calls the LLM and is the reliability
// fallback; the dynamic variation path degrades to the base intent when the
// LLM output stays unparseable through the retry budget.
type Generator struct {
	Driver  gateway.Driver
	Model   string
	Retry   RetryPolicy
	Sleeper Sleeper
	Logger  *zap.Logger
}

// GeneratePrompts produces the fixed strategy set for one subject, templated
// from the profile's industry, keywords, and company name.
func (g *Generator) GeneratePrompts(profile brand.Profile, subject string) []brand.Strategy {
	industry := strings.TrimSpace(profile.Industry)
	if industry == "" {
		industry = "the market"
	}
	need := industry
	if len(profile.Keywords) > 0 {
		need = strings.Join(profile.Keywords, ", ")
	}

	return []brand.Strategy{
		{
			Type:    brand.StrategyDiscovery,
			Subject: subject,
			Text:    fmt.Sprintf("What are the best %s solutions available today?", industry),
		},
		{
			Type:    brand.StrategyMarket,
			Subject: subject,
			Text:    fmt.Sprintf("Which companies are considered leaders in %s?", industry),
		},
		{
			Type:    brand.StrategyProblem,
			Subject: subject,
			Text:    fmt.Sprintf("I need help with %s. What would you recommend?", need),
		},
	}
}

// GenerateVariations asks the LLM for count distinct phrasings of
// baseIntent. It never returns an empty slice: on parse or shape failure it
// retries up to the policy budget, then degrades to the base intent alone.
func (g *Generator) GenerateVariations(ctx context.Context, baseIntent string, count int) []string {
	baseIntent = strings.TrimSpace(baseIntent)
	if baseIntent == "" {
		return nil
	}
	if count <= 0 || g == nil || g.Driver == nil {
		return []string{baseIntent}
	}

	var variations []string
	err := g.Retry.Do(ctx, g.Sleeper, func() error {
		resp, err := g.Driver.Complete(ctx, &gateway.Request{
			Model: g.Model,
			Messages: []gateway.Message{
				{Role: "system", Content: variationSystemPrompt},
				{Role: "user", Content: fmt.Sprintf("Write %d distinct variations of: %s", count, baseIntent)},
			},
			ResponseFormat: &gateway.ResponseFormat{Type: "json_object"},
		})
		if err != nil {
			return err
		}

		parsed, ok := extractVariations(resp.Text)
		if !ok || len(parsed) == 0 {
			return fmt.Errorf("no variations in response")
		}
		if len(parsed) > count {
			parsed = parsed[:count]
		}
		variations = parsed
		return nil
	})
	if err != nil {
		if g.Logger != nil {
			g.Logger.Warn("variation generation exhausted retries, using base intent",
				zap.String("base_intent", baseIntent), zap.Error(err))
		}
		return []string{baseIntent}
	}

	return variations
}

// variationKeys are object fields checked, in order, when the model wraps
// the array instead of returning it directly.
var variationKeys = []string{"variations", "prompts", "queries"}

// extractVariations parses model output into a string list using a
// prioritized ladder: direct array, known wrapper keys, then any first
// array-valued field.
func extractVariations(raw string) ([]string, bool) {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return nil, false
	}

	if list, ok := decodeStringArray(json.RawMessage(cleaned)); ok {
		return list, true
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &wrapper); err != nil {
		return nil, false
	}

	for _, key := range variationKeys {
		if value, exists := wrapper[key]; exists {
			if list, ok := decodeStringArray(value); ok {
				return list, true
			}
		}
	}

	for _, value := range wrapper {
		if list, ok := decodeStringArray(value); ok {
			return list, true
		}
	}

	return nil, false
}

func decodeStringArray(raw json.RawMessage) ([]string, bool) {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}

	result := make([]string, 0, len(list))
	for _, entry := range list {
		if trimmed := strings.TrimSpace(entry); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return nil, false
	}
	return result, true
}
