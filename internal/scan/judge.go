package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/brandlens/brandlens/internal/brand"
	"github.com/brandlens/brandlens/internal/gateway"
)

const judgeSystemPrompt = `You evaluate whether a brand is mentioned in an AI assistant's answer.
Read the answer and return a JSON object with exactly these fields:
  "mentioned": boolean, true if the subject brand is mentioned,
  "rank": integer position of the subject among recommendations, or null,
  "sentiment": number between -1.0 and 1.0 for the tone toward the subject.
Return only the JSON object.`

// Judge scores a natural-language response for mention, rank, and sentiment
// via a secondary LLM call, backstopped by a deterministic literal match.
//
// Judge failures are downgraded to a neutral verdict rather than propagated:
// a single malformed judge response must not fail a whole batch.
type Judge struct {
	Driver      gateway.Driver
	Model       string
	Temperature float64
	Logger      *zap.Logger
}

type judgePayload struct {
	Mentioned bool     `json:"mentioned"`
	Rank      *int     `json:"rank"`
	Sentiment *float64 `json:"sentiment"`
}

// Judge evaluates responseText for the given subject. The returned response
// carries the judge call's usage so the caller can meter its cost; it is nil
// when the judge call failed.
func (j *Judge) Judge(ctx context.Context, responseText, subject, originalPrompt string) (brand.Verdict, *gateway.Response) {
	verdict := brand.Verdict{}

	resp, err := j.complete(ctx, responseText, subject, originalPrompt)
	if err != nil {
		j.warn("judge call failed", subject, err)
		resp = nil
	} else if parsed, perr := parseJudgePayload(resp.Text); perr != nil {
		// Keep the neutral default; the natural response is still usable.
		j.warn("judge response unparseable", subject, perr)
	} else {
		verdict.Mentioned = parsed.Mentioned
		verdict.Rank = parsed.Rank
		if parsed.Sentiment != nil {
			verdict.Sentiment = clampSentiment(*parsed.Sentiment)
		}
	}

	// Literal presence is higher-confidence ground truth than the judge's
	// summarization, so the override only ever promotes false to true.
	if !verdict.Mentioned && SubjectMentioned(responseText, subject) {
		verdict.Mentioned = true
	}

	return verdict, resp
}

func (j *Judge) complete(ctx context.Context, responseText, subject, originalPrompt string) (*gateway.Response, error) {
	if j == nil || j.Driver == nil {
		return nil, fmt.Errorf("judge driver not configured")
	}

	user := fmt.Sprintf("Subject brand: %s\nOriginal question: %s\n\nAnswer to evaluate:\n%s", subject, originalPrompt, responseText)
	temperature := j.Temperature

	return j.Driver.Complete(ctx, &gateway.Request{
		Model: j.Model,
		Messages: []gateway.Message{
			{Role: "system", Content: judgeSystemPrompt},
			{Role: "user", Content: user},
		},
		Temperature:    &temperature,
		ResponseFormat: &gateway.ResponseFormat{Type: "json_object"},
	})
}

func (j *Judge) warn(msg, subject string, err error) {
	if j == nil || j.Logger == nil {
		return
	}
	j.Logger.Warn(msg, zap.String("subject", subject), zap.Error(err))
}

func parseJudgePayload(raw string) (*judgePayload, error) {
	cleaned := StripCodeFences(raw)
	if strings.TrimSpace(cleaned) == "" {
		return nil, fmt.Errorf("empty judge response")
	}

	var payload judgePayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("decode judge response: %w", err)
	}
	return &payload, nil
}

// SubjectMentioned reports whether subject occurs in text as a whole word,
// case-insensitively, with regex metacharacters in subject escaped.
func SubjectMentioned(text, subject string) bool {
	subject = strings.TrimSpace(subject)
	if subject == "" || text == "" {
		return false
	}
	pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(subject) + `\b`)
	if err != nil {
		return false
	}
	return pattern.MatchString(text)
}

// openingFence matches a leading Markdown code fence with an optional
// language tag, whether or not a newline follows it.
var openingFence = regexp.MustCompile("^```[a-zA-Z0-9]*[ \t]*\n?")

// StripCodeFences removes a wrapping Markdown code fence, if present. The
// language tag after the opening fence (e.g. ```json) is dropped even when
// the whole fenced block sits on a single line.
func StripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = openingFence.ReplaceAllString(trimmed, "")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func clampSentiment(value float64) float64 {
	if value < -1 {
		return -1
	}
	if value > 1 {
		return 1
	}
	return value
}
