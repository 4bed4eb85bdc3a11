package openai

import (
	"fmt"

	"github.com/brandlens/brandlens/internal/gateway"
)

type chatCompletionResponse struct {
	Choices []choice `json:"choices"`
	Usage   *usage   `json:"usage,omitempty"`
	// Some gateways (e.g. OpenRouter-style proxies) report the metered
	// monetary cost for the call alongside token usage.
	Cost *float64 `json:"cost,omitempty"`
}

type choice struct {
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type chatResponseMessage struct {
	Content string `json:"content"`
}

type usage struct {
	PromptTokens     int      `json:"prompt_tokens"`
	CompletionTokens int      `json:"completion_tokens"`
	TotalTokens      int      `json:"total_tokens"`
	Cost             *float64 `json:"cost,omitempty"`
}

func toGatewayResponse(resp *chatCompletionResponse) (*gateway.Response, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response choices")
	}

	choice := resp.Choices[0]
	response := &gateway.Response{
		Text:         choice.Message.Content,
		FinishReason: choice.FinishReason,
		Cost:         resp.Cost,
	}

	if resp.Usage != nil {
		response.Usage = &gateway.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
		if response.Cost == nil {
			response.Cost = resp.Usage.Cost
		}
	}

	return response, nil
}
