package service

import "github.com/shopspring/decimal"

const (
	// CreditScale is the number of fractional digits kept on credits and balances.
	CreditScale = 6
	// CurrencyScale is the precision of payout amounts and CPM rates.
	CurrencyScale = 2
)

var impressionsPerRate = decimal.NewFromInt(1000)

// ComputeCredit converts a CPM rate into the credit for a single visit.
// An absent rate earns nothing.
func ComputeCredit(rate decimal.Decimal, found bool) decimal.Decimal {
	if !found || rate.IsNegative() {
		return decimal.Zero
	}
	return rate.DivRound(impressionsPerRate, CreditScale)
}
