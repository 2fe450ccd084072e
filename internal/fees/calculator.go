package fees

import (
	"math"
	"sort"

	"tenantpay/internal/models"
)

// Tier is one row of the processing-fee schedule. A payment whose base
// amount is at most UpTo pays Percent. UpTo <= 0 means no upper bound.
type Tier struct {
	UpTo    float64
	Percent float64
}

// DefaultTiers returns the gateway's current fee schedule:
// 2.0% up to 10,000, 2.5% above.
func DefaultTiers() []Tier {
	return []Tier{
		{UpTo: 10000, Percent: 2.0},
		{UpTo: 0, Percent: 2.5},
	}
}

// Calculator computes payment breakups from an ordered tier table.
// It is a pure value, safe to call on every keystroke.
type Calculator struct {
	tiers []Tier
}

func NewCalculator(tiers []Tier) *Calculator {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}

	// Bounded tiers sorted ascending, open tier (UpTo <= 0) last
	ordered := make([]Tier, len(tiers))
	copy(ordered, tiers)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].UpTo <= 0 {
			return false
		}
		if ordered[j].UpTo <= 0 {
			return true
		}
		return ordered[i].UpTo < ordered[j].UpTo
	})

	return &Calculator{tiers: ordered}
}

// Rate returns the fee percentage for a base amount (first matching tier).
func (c *Calculator) Rate(baseAmount float64) float64 {
	baseAmount = sanitize(baseAmount)

	for _, t := range c.tiers {
		if t.UpTo <= 0 || baseAmount <= t.UpTo {
			return t.Percent
		}
	}

	// Every tier bounded and amount above all of them: highest tier applies
	return c.tiers[len(c.tiers)-1].Percent
}

// Breakup computes the full payment figure set for a base amount.
// Invariant: TotalAmount == BaseAmount + FeeAmount to 2 decimal places.
func (c *Calculator) Breakup(baseAmount float64) models.PaymentBreakup {
	baseAmount = sanitize(baseAmount)
	rate := c.Rate(baseAmount)

	feeAmount := round2(baseAmount * rate / 100)
	totalAmount := round2(baseAmount + feeAmount)

	return models.PaymentBreakup{
		BaseAmount:  baseAmount,
		FeeRate:     rate,
		FeeAmount:   feeAmount,
		TotalAmount: totalAmount,
	}
}

// Tiers returns a copy of the schedule for display
func (c *Calculator) Tiers() []Tier {
	out := make([]Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

// sanitize clamps negative, NaN and infinite amounts to zero
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// round2 rounds half-up to 2 decimal places to match currency display
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
