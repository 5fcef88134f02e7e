package emi

import (
	"errors"
	"math"
	"testing"
)

// oracle recomputes the closed-form installment without rounding, for
// cross-checking Compute against the formula itself.
func oracle(principal, annualRate float64, months int) float64 {
	r := annualRate / 12 / 100
	if r == 0 {
		return principal / float64(months)
	}
	p := math.Pow(1+r, float64(months))
	return principal * r * p / (p - 1)
}

func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

func TestCompute(t *testing.T) {
	t.Run("zero rate is straight-line", func(t *testing.T) {
		s, err := Compute(120000, 0, 12)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.EMI != 10000.00 {
			t.Errorf("expected EMI 10000.00, got %v", s.EMI)
		}
		if s.TotalAmount != 120000.00 {
			t.Errorf("expected total 120000.00, got %v", s.TotalAmount)
		}
		if s.TotalInterest != 0 {
			t.Errorf("expected zero interest, got %v", s.TotalInterest)
		}
	})

	t.Run("home reference case matches formula", func(t *testing.T) {
		s, err := Compute(500000, 9.0, 240)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := round2(oracle(500000, 9.0, 240))
		if s.EMI != want {
			t.Errorf("expected EMI %v, got %v", want, s.EMI)
		}
		if s.TenureMonths != 240 {
			t.Errorf("expected tenure 240, got %d", s.TenureMonths)
		}
	})

	t.Run("totals are consistent", func(t *testing.T) {
		s, err := Compute(300000, 12.0, 36)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		raw := oracle(300000, 12.0, 36)
		wantTotal := round2(raw * 36)
		wantInterest := round2(raw*36 - 300000)
		if s.TotalAmount != wantTotal {
			t.Errorf("expected total %v, got %v", wantTotal, s.TotalAmount)
		}
		if s.TotalInterest != wantInterest {
			t.Errorf("expected interest %v, got %v", wantInterest, s.TotalInterest)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a, _ := Compute(987654.32, 10.5, 84)
		b, _ := Compute(987654.32, 10.5, 84)
		if a != b {
			t.Errorf("same inputs produced different schedules: %+v vs %+v", a, b)
		}
	})

	t.Run("invalid inputs", func(t *testing.T) {
		tests := []struct {
			name      string
			principal float64
			rate      float64
			months    int
			wantErr   error
		}{
			{"zero principal", 0, 9.0, 12, ErrInvalidPrincipal},
			{"negative principal", -100, 9.0, 12, ErrInvalidPrincipal},
			{"zero tenure", 100000, 9.0, 0, ErrInvalidTenure},
			{"negative tenure", 100000, 9.0, -12, ErrInvalidTenure},
			{"negative rate", 100000, -1.0, 12, ErrInvalidRate},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Compute(tt.principal, tt.rate, tt.months)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			})
		}
	})
}

func TestRateFor(t *testing.T) {
	tests := []struct {
		loanType string
		want     float64
	}{
		{"education", 8.5},
		{"home", 9.0},
		{"car", 10.5},
		{"personal", 12.0},
		{"business", 11.5},
	}

	for _, tt := range tests {
		t.Run(tt.loanType, func(t *testing.T) {
			rate, ok := RateFor(tt.loanType)
			if !ok {
				t.Fatalf("expected rate for %s", tt.loanType)
			}
			if rate != tt.want {
				t.Errorf("expected %v, got %v", tt.want, rate)
			}
		})
	}

	if _, ok := RateFor("yacht"); ok {
		t.Error("expected no rate for unknown loan type")
	}
}

func TestComputeForLoanType(t *testing.T) {
	t.Run("years converted to months", func(t *testing.T) {
		s, err := ComputeForLoanType("home", 500000, 20, Years)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.TenureMonths != 240 {
			t.Errorf("expected 240 months, got %d", s.TenureMonths)
		}
		if s.AnnualRate != 9.0 {
			t.Errorf("expected rate 9.0, got %v", s.AnnualRate)
		}
	})

	t.Run("months passed through", func(t *testing.T) {
		s, err := ComputeForLoanType("personal", 200000, 48, Months)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.TenureMonths != 48 {
			t.Errorf("expected 48 months, got %d", s.TenureMonths)
		}
	})

	t.Run("unknown loan type", func(t *testing.T) {
		_, err := ComputeForLoanType("yacht", 200000, 48, Months)
		if !errors.Is(err, ErrUnknownLoanType) {
			t.Errorf("expected ErrUnknownLoanType, got %v", err)
		}
	})
}

func TestRoundCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.125, 0.13}, // exact half rounds up
		{1.004, 1.0},
		{1.006, 1.01},
		{123.456, 123.46},
		{0, 0},
	}

	for _, tt := range tests {
		if got := roundCurrency(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("roundCurrency(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
