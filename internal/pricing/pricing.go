// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pricing estimates transcript cost from recorded token usage.
//
// Prices are a static table, per single token, derived from the published
// per-million-token rates. Estimates are advisory only: they always use the
// currently selected model's rates, so switching models mid-conversation
// re-prices earlier exchanges at the new model's rates.
package pricing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/morganforge/parley/internal/model"
)

// USDToPLN is the fixed conversion rate used for the second display currency.
const USDToPLN = 3.97

// =============================================================================
// PRICE TABLE
// =============================================================================

// Price holds per-token USD rates for one model.
type Price struct {
	InputPerToken  float64
	OutputPerToken float64
}

// modelOrder fixes the display and selection order. The first entry is the
// default model.
var modelOrder = []string{"gpt-4o", "gpt-4o-mini"}

var priceTable = map[string]Price{
	"gpt-4o":      {InputPerToken: 5.00 / 1_000_000, OutputPerToken: 15.00 / 1_000_000},
	"gpt-4o-mini": {InputPerToken: 0.150 / 1_000_000, OutputPerToken: 0.600 / 1_000_000},
}

// Models returns the selectable model identifiers in stable order.
func Models() []string {
	out := make([]string, len(modelOrder))
	copy(out, modelOrder)
	return out
}

// DefaultModel returns the model selected at startup.
func DefaultModel() string {
	return modelOrder[0]
}

// Lookup returns the price entry for a model and whether it is known.
func Lookup(modelID string) (Price, bool) {
	p, ok := priceTable[modelID]
	return p, ok
}

// =============================================================================
// ESTIMATION
// =============================================================================

// CostUSD prices one exchange's token usage at the given model's rates.
// Unknown models cost zero.
func CostUSD(usage model.Usage, modelID string) float64 {
	p, ok := priceTable[modelID]
	if !ok {
		return 0
	}
	return float64(usage.PromptTokens)*p.InputPerToken +
		float64(usage.CompletionTokens)*p.OutputPerToken
}

// EstimateUSD sums the cost of every assistant message that carries usage,
// priced at the given model's rates. Messages without usage contribute
// nothing, as does an unknown model or an empty transcript.
func EstimateUSD(msgs []model.Message, modelID string) float64 {
	total := 0.0
	for _, msg := range msgs {
		if msg.Role != model.RoleAssistant || msg.Usage == nil {
			continue
		}
		total += CostUSD(*msg.Usage, modelID)
	}
	return total
}

// ToPLN converts a USD amount at the fixed rate.
func ToPLN(usd float64) float64 {
	return usd * USDToPLN
}

// =============================================================================
// FORMATTING
// =============================================================================

var (
	usdPrinter = message.NewPrinter(language.English)
	plnPrinter = message.NewPrinter(language.Polish)
)

// FormatUSD renders a USD amount for display, e.g. "$0.000450".
func FormatUSD(usd float64) string {
	return usdPrinter.Sprintf("$%.6f", usd)
}

// FormatPLN renders a PLN amount for display, e.g. "0,001787 zł".
func FormatPLN(pln float64) string {
	return plnPrinter.Sprintf("%.6f zł", pln)
}
