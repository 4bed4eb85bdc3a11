// Package gateway defines the provider-agnostic LLM completion interface
// consumed by the scan engine.
package gateway

import "context"

// Driver defines the interface for LLM completion providers.
type Driver interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g., "openai").
	Name() string
}

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat specifies the expected response format.
type ResponseFormat struct {
	Type string `json:"type"` // "text", "json_object"
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model          string
	Messages       []Message
	Temperature    *float64
	MaxTokens      *int
	ResponseFormat *ResponseFormat
}

// Response is a provider-agnostic completion response.
//
// Cost is the provider-reported monetary cost for the call, when the
// provider exposes one. When nil, callers estimate from Usage.
type Response struct {
	Text         string
	FinishReason string
	Usage        *Usage
	Cost         *float64
}
