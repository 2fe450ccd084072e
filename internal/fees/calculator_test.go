package fees

import (
	"math"
	"testing"
)

func TestBreakup_lowerTier(t *testing.T) {
	c := NewCalculator(nil)

	b := c.Breakup(9999)
	if b.FeeRate != 2.0 {
		t.Fatalf("expected rate 2.0, got %v", b.FeeRate)
	}
	if b.FeeAmount != 199.98 {
		t.Fatalf("expected fee 199.98, got %v", b.FeeAmount)
	}
	if b.TotalAmount != 10198.98 {
		t.Fatalf("expected total 10198.98, got %v", b.TotalAmount)
	}
}

func TestBreakup_upperTier(t *testing.T) {
	c := NewCalculator(nil)

	b := c.Breakup(15000)
	if b.FeeRate != 2.5 {
		t.Fatalf("expected rate 2.5, got %v", b.FeeRate)
	}
	if b.FeeAmount != 375.00 {
		t.Fatalf("expected fee 375.00, got %v", b.FeeAmount)
	}
	if b.TotalAmount != 15375.00 {
		t.Fatalf("expected total 15375.00, got %v", b.TotalAmount)
	}
}

func TestBreakup_tierBoundary(t *testing.T) {
	c := NewCalculator(nil)

	// 10000 is still in the lower tier; the rate steps up just above it
	if r := c.Rate(10000); r != 2.0 {
		t.Fatalf("expected rate 2.0 at boundary, got %v", r)
	}
	if r := c.Rate(10000.01); r != 2.5 {
		t.Fatalf("expected rate 2.5 above boundary, got %v", r)
	}
}

func TestBreakup_zero(t *testing.T) {
	c := NewCalculator(nil)

	b := c.Breakup(0)
	if b.BaseAmount != 0 || b.FeeAmount != 0 || b.TotalAmount != 0 {
		t.Fatalf("expected all-zero breakup, got %+v", b)
	}
	if b.FeeRate != 2.0 {
		t.Fatalf("expected lowest tier rate for zero amount, got %v", b.FeeRate)
	}
}

func TestBreakup_clampsBadInput(t *testing.T) {
	c := NewCalculator(nil)

	for _, v := range []float64{-1, -9999.99, math.NaN(), math.Inf(1), math.Inf(-1)} {
		b := c.Breakup(v)
		if b.BaseAmount != 0 || b.TotalAmount != 0 {
			t.Fatalf("input %v: expected clamped zero breakup, got %+v", v, b)
		}
	}
}

func TestBreakup_totalIsBasePlusFee(t *testing.T) {
	c := NewCalculator(nil)

	for _, base := range []float64{0.01, 1, 99.99, 500, 9999.99, 10000, 10000.01, 123456.78} {
		b := c.Breakup(base)
		want := math.Floor((b.BaseAmount+b.FeeAmount)*100+0.5) / 100
		if b.TotalAmount != want {
			t.Fatalf("base %v: total %v != base+fee %v", base, b.TotalAmount, want)
		}
	}
}

func TestBreakup_deterministic(t *testing.T) {
	c := NewCalculator(nil)

	first := c.Breakup(8765.43)
	second := c.Breakup(8765.43)
	if first != second {
		t.Fatalf("expected identical breakups, got %+v and %+v", first, second)
	}
}

func TestCalculator_customTiers(t *testing.T) {
	// Unordered input; the calculator must evaluate first-match ascending
	c := NewCalculator([]Tier{
		{UpTo: 0, Percent: 3.0},
		{UpTo: 5000, Percent: 1.0},
		{UpTo: 20000, Percent: 2.0},
	})

	cases := []struct {
		base float64
		rate float64
	}{
		{1000, 1.0},
		{5000, 1.0},
		{5001, 2.0},
		{20000, 2.0},
		{20001, 3.0},
	}
	for _, tc := range cases {
		if r := c.Rate(tc.base); r != tc.rate {
			t.Fatalf("base %v: expected rate %v, got %v", tc.base, tc.rate, r)
		}
	}
}

func TestRate_monotonic(t *testing.T) {
	c := NewCalculator(nil)

	prev := 0.0
	for base := 0.0; base <= 30000; base += 500 {
		r := c.Rate(base)
		if r < prev {
			t.Fatalf("rate decreased at base %v: %v < %v", base, r, prev)
		}
		prev = r
	}
}
