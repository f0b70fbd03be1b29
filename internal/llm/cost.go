package llm

import (
	"sort"
	"strings"
)

// price is USD per million tokens.
type price struct {
	input, output float64
}

// pricing is keyed by model family; dated snapshots such as
// "gpt-4o-2024-08-06" resolve to the longest matching prefix.
var pricing = map[string]price{
	"gpt-4o":           {2.50, 10.00},
	"gpt-4o-mini":      {0.15, 0.60},
	"gpt-4.1":          {2.00, 8.00},
	"gpt-4.1-mini":     {0.40, 1.60},
	"gpt-4.1-nano":     {0.10, 0.40},
	"claude-sonnet-4":  {3.00, 15.00},
	"claude-opus-4":    {15.00, 75.00},
	"claude-3-5-haiku": {0.80, 4.00},
}

var pricingPrefixes = func() []string {
	keys := make([]string, 0, len(pricing))
	for k := range pricing {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	return keys
}()

func lookupPrice(model string) (price, bool) {
	if p, ok := pricing[model]; ok {
		return p, true
	}
	for _, prefix := range pricingPrefixes {
		if strings.HasPrefix(model, prefix+"-") {
			return pricing[prefix], true
		}
	}
	return price{}, false
}

// CalculateCost returns the USD cost of a call, or 0 for unpriced models
// such as local Ollama ones.
func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := lookupPrice(model)
	if !ok {
		return 0
	}
	return (float64(inputTokens)*p.input + float64(outputTokens)*p.output) / 1e6
}
