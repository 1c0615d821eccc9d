package models

import "time"

type OptionKind string

const (
	OptionCall OptionKind = "call"
	OptionPut  OptionKind = "put"
)

// OptionContract is one listed contract with its provider-supplied IV.
type OptionContract struct {
	ContractSymbol    string     `json:"contract_symbol" csv:"contract_symbol"`
	Kind              OptionKind `json:"kind" csv:"kind"`
	Strike            float64    `json:"strike" csv:"strike"`
	ImpliedVolatility float64    `json:"implied_volatility" csv:"implied_volatility"`
}

// OptionsSnapshot is the chain for a single expiry.
type OptionsSnapshot struct {
	Symbol string           `json:"symbol"`
	Expiry time.Time        `json:"expiry"`
	Calls  []OptionContract `json:"calls"`
	Puts   []OptionContract `json:"puts"`
}

// MeanCallIV is the arithmetic mean implied volatility across calls.
// ok is false when the chain lists no calls.
func (o OptionsSnapshot) MeanCallIV() (mean float64, ok bool) {
	if len(o.Calls) == 0 {
		return 0, false
	}
	var sum float64
	for _, c := range o.Calls {
		sum += c.ImpliedVolatility
	}
	return sum / float64(len(o.Calls)), true
}
