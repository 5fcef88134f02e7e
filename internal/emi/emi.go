// Package emi implements the equated monthly installment calculator.
//
// The calculator is a pure function of (principal, annual rate, tenure in
// months). It carries the fixed per-loan-type rate table and knows nothing
// about applications or decisions.
package emi

import (
	"errors"
	"fmt"
	"math"
)

// Annual interest rates in percent, fixed per loan type.
var rateTable = map[string]float64{
	"education": 8.5,
	"home":      9.0,
	"car":       10.5,
	"personal":  12.0,
	"business":  11.5,
}

var (
	ErrInvalidPrincipal = errors.New("emi: principal must be positive")
	ErrInvalidTenure    = errors.New("emi: tenure must be a positive number of months")
	ErrInvalidRate      = errors.New("emi: annual rate must not be negative")
	ErrUnknownLoanType  = errors.New("emi: unknown loan type")
)

// TenureUnit selects how a submitted tenure value is interpreted.
type TenureUnit string

const (
	Years  TenureUnit = "years"
	Months TenureUnit = "months"
)

// Schedule holds the derived repayment quantities for a loan.
type Schedule struct {
	EMI           float64 `json:"emi"`
	TotalAmount   float64 `json:"total_amount"`
	TotalInterest float64 `json:"total_interest"`
	AnnualRate    float64 `json:"interest_rate"`
	TenureMonths  int     `json:"tenure_months"`
	Principal     float64 `json:"principal"`
}

// RateFor returns the fixed annual interest rate for a loan type.
func RateFor(loanType string) (float64, bool) {
	rate, ok := rateTable[loanType]
	return rate, ok
}

// Compute calculates the repayment schedule with the standard amortization
// formula:
//
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1)
//
// where r is the monthly rate and n the tenure in months. A zero rate
// degenerates to straight-line division. Monetary outputs are rounded
// half-up to two decimals exactly once, at the end; no intermediate
// rounding.
func Compute(principal, annualRate float64, tenureMonths int) (Schedule, error) {
	if principal <= 0 {
		return Schedule{}, ErrInvalidPrincipal
	}
	if tenureMonths <= 0 {
		return Schedule{}, ErrInvalidTenure
	}
	if annualRate < 0 {
		return Schedule{}, ErrInvalidRate
	}

	monthlyRate := annualRate / 12 / 100
	var installment float64
	if monthlyRate == 0 {
		installment = principal / float64(tenureMonths)
	} else {
		power := math.Pow(1+monthlyRate, float64(tenureMonths))
		installment = principal * monthlyRate * power / (power - 1)
	}

	total := installment * float64(tenureMonths)
	return Schedule{
		EMI:           roundCurrency(installment),
		TotalAmount:   roundCurrency(total),
		TotalInterest: roundCurrency(total - principal),
		AnnualRate:    annualRate,
		TenureMonths:  tenureMonths,
		Principal:     principal,
	}, nil
}

// ComputeForLoanType looks up the fixed rate for loanType and computes the
// schedule. Tenure submitted in years is converted to months here; callers
// own knowing which unit their input uses.
func ComputeForLoanType(loanType string, principal float64, tenure int, unit TenureUnit) (Schedule, error) {
	rate, ok := RateFor(loanType)
	if !ok {
		return Schedule{}, fmt.Errorf("%w: %s", ErrUnknownLoanType, loanType)
	}
	months := tenure
	if unit == Years {
		months = tenure * 12
	}
	return Compute(principal, rate, months)
}

// roundCurrency rounds half-up to two decimals. math.Round would round
// half-away-from-zero, which differs for negative values.
func roundCurrency(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
