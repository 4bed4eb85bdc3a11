package scan

import (
	"github.com/brandlens/brandlens/internal/brand"
	"github.com/brandlens/brandlens/internal/gateway"
)

// Accountant computes the monetary cost of one gateway call.
//
// Defaults apply when a model has no price entry; unknown models are billed
// at these guessed rates.
type Accountant struct {
	DefaultInputPerToken  float64
	DefaultOutputPerToken float64
}

// CallCost returns the cost of a completed gateway call.
//
// A gateway-reported cost is authoritative and used verbatim; otherwise the
// cost is estimated from token usage.
func (a *Accountant) CallCost(resp *gateway.Response, entry *brand.PriceEntry) float64 {
	if resp == nil {
		return 0
	}
	if resp.Cost != nil {
		return *resp.Cost
	}
	return a.EstimateCost(resp.Usage, entry)
}

// EstimateCost computes promptTokens*input + completionTokens*output.
// Missing usage contributes zero; a nil price entry falls back to the
// configured defaults.
func (a *Accountant) EstimateCost(usage *gateway.Usage, entry *brand.PriceEntry) float64 {
	if usage == nil {
		return 0
	}

	inputPrice := a.DefaultInputPerToken
	outputPrice := a.DefaultOutputPerToken
	if entry != nil {
		inputPrice = entry.InputPerToken
		outputPrice = entry.OutputPerToken
	}

	cost := 0.0
	if usage.PromptTokens > 0 {
		cost += float64(usage.PromptTokens) * inputPrice
	}
	if usage.CompletionTokens > 0 {
		cost += float64(usage.CompletionTokens) * outputPrice
	}
	return cost
}
