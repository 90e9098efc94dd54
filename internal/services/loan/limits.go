package loan

import (
	"casino/internal/config"
)

// Limits is the borrowing envelope a credit score buys.
type Limits struct {
	MaxLoanAmount int64
	MaxDays       int
}

// defaultLoanBase is used when a tenant config carries no base amount.
const defaultLoanBase = 1000

// creditTiers is a monotonic step function over the 300-900 score range:
// a higher score never buys a smaller envelope. Amounts are multiples of half
// the tenant's base loan amount, so the whole ladder scales per tenant.
var creditTiers = []struct {
	minScore int
	halves   int64
	maxDays  int
}{
	{800, 20, 30},
	{650, 10, 21},
	{500, 5, 14},
	{0, 2, 7},
}

// LimitsForScore maps a credit score to its borrowing limits, scaled by the
// tenant's base loan amount.
func LimitsForScore(score int, cfg config.TenantConfig) Limits {
	base := cfg.LoanBaseAmount
	if base <= 0 {
		base = defaultLoanBase
	}
	for _, tier := range creditTiers {
		if score >= tier.minScore {
			return Limits{MaxLoanAmount: base * tier.halves / 2, MaxDays: tier.maxDays}
		}
	}
	last := creditTiers[len(creditTiers)-1]
	return Limits{MaxLoanAmount: base * last.halves / 2, MaxDays: last.maxDays}
}
