package rules

import (
	"strings"

	"github.com/openlend/kestrel/internal/domain"
	"github.com/openlend/kestrel/internal/emi"
)

// Education loan checks. Applicant income has no minimum (students), but the
// parent or guardian must carry the loan: income floor, combined floor, and
// a 15x multiple cap plus the absolute product limit.
func evaluateEducation(app *domain.Application, sched emi.Schedule, c *checklist) {
	d := app.Education

	if app.Age < 18 {
		c.failf("Applicant age (%d) is below minimum requirement (18 years)", app.Age)
	}
	if d.ApplicantAnnualIncome < 0 {
		c.failf("Applicant income cannot be negative")
	}
	if d.ParentGuardianIncome < 150000 {
		c.failf("Parent/Guardian income (%.0f) is below minimum requirement (150000/year)", d.ParentGuardianIncome)
	}

	combined := d.ApplicantAnnualIncome + d.ParentGuardianIncome
	c.metric("combined_income", combined)
	if combined < 150000 {
		c.failf("Combined income (%.0f) is below minimum requirement (150000/year)", combined)
	}

	if len(strings.TrimSpace(d.CourseName)) < 3 {
		c.failf("Course name is invalid or missing")
	}
	if len(strings.TrimSpace(d.InstitutionName)) < 3 {
		c.failf("Institution name is invalid or missing")
	}

	if d.CreditHistory != nil {
		c.metric("credit_history", *d.CreditHistory)
		if *d.CreditHistory < 0.5 {
			c.failf("Credit history (%.2f) is below minimum requirement (0.5)", *d.CreditHistory)
		}
	}

	maxByIncome := d.ParentGuardianIncome * 15
	c.metric("max_amount_by_income", maxByIncome)
	if app.Amount > maxByIncome {
		c.failf("Loan amount (%.0f) exceeds maximum allowed (15x parent income = %.0f)", app.Amount, maxByIncome)
	}
	if app.Amount > 1500000 {
		c.failf("Loan amount (%.0f) exceeds maximum limit (1500000)", app.Amount)
	}
}

// Home loan checks. Income is the combined applicant plus co-applicant
// monthly figure; the EMI burden cap at 40% is inclusive.
func evaluateHome(app *domain.Application, sched emi.Schedule, c *checklist) {
	d := app.Home

	monthly := d.AnnualIncome/12 + d.CoApplicantIncome/12
	c.metric("monthly_income", monthly)

	if app.Age < 21 || app.Age > 60 {
		c.failf("Applicant age (%d) is outside acceptable range (21-60 years)", app.Age)
	}
	if monthly < 35000 {
		c.failf("Monthly income (%.0f) is below minimum requirement (35000/month)", monthly)
	}
	if app.Amount < 500000 {
		c.failf("Loan amount (%.0f) is below minimum requirement (500000)", app.Amount)
	}

	c.requireScore(d.CreditScore, 650)

	if d.PropertyValue > 0 {
		maxByProperty := d.PropertyValue * 0.80
		c.metric("max_amount_by_property", maxByProperty)
		c.metric("loan_to_value_ratio", app.Amount/d.PropertyValue*100)
		if app.Amount > maxByProperty {
			c.failf("Loan amount (%.0f) exceeds 80%% of property value (%.0f)", app.Amount, maxByProperty)
		}
	}

	ratio := emiRatio(sched.EMI, monthly)
	c.metric("emi_to_income_ratio", ratio)
	if ratio > 40 {
		c.failf("EMI-to-income ratio (%.1f%%) exceeds maximum allowed (40%%)", ratio)
	}
}

// Car loan checks. Monthly income falls back to annual/12; the down payment
// floor only applies when a car price was given.
func evaluateCar(app *domain.Application, sched emi.Schedule, c *checklist) {
	d := app.Car

	monthly := 0.0
	if d.MonthlyIncome != nil && *d.MonthlyIncome > 0 {
		monthly = *d.MonthlyIncome
	} else if d.AnnualIncome > 0 {
		monthly = d.AnnualIncome / 12
	}
	c.metric("monthly_income", monthly)

	if monthly < 20000 {
		c.failf("Monthly income (%.0f) is below minimum requirement (20000/month)", monthly)
	}

	c.requireScore(d.CreditScore, 600)

	if d.CarPrice > 0 {
		minDown := d.CarPrice * 0.10
		c.metric("min_down_payment", minDown)
		if d.DownPayment < minDown {
			c.failf("Down payment (%.0f) is below minimum requirement (10%% of car price = %.0f)", d.DownPayment, minDown)
		}
	}

	if d.WorkExperience < 1 {
		c.failf("Work experience (%.0f years) is below minimum requirement (1 year)", d.WorkExperience)
	}

	ratio := emiRatio(sched.EMI, monthly)
	c.metric("emi_to_income_ratio", ratio)
	if ratio > 40 {
		c.failf("EMI-to-income ratio (%.1f%%) exceeds maximum allowed (40%%)", ratio)
	}
}

// Personal loan checks. The EMI burden bound is strict: exactly 50% is
// rejected, unlike the inclusive 40% for home and car.
func evaluatePersonal(app *domain.Application, sched emi.Schedule, c *checklist) {
	d := app.Personal

	c.metric("monthly_income", d.MonthlyIncome)
	if d.MonthlyIncome < 25000 {
		c.failf("Monthly salary (%.0f) is below minimum requirement (25000/month)", d.MonthlyIncome)
	}

	c.requireScore(d.CreditScore, 650)

	if d.WorkExperience < 1 {
		c.failf("Work experience (%.0f years) is below minimum requirement (1 year)", d.WorkExperience)
	}

	maxBySalary := d.MonthlyIncome * 12
	c.metric("max_amount_by_salary", maxBySalary)
	if app.Amount > maxBySalary {
		c.failf("Loan amount (%.0f) exceeds maximum allowed (12x monthly salary = %.0f)", app.Amount, maxBySalary)
	}

	ratio := emiRatio(sched.EMI, d.MonthlyIncome)
	c.metric("emi_to_income_ratio", ratio)
	if ratio >= 50 {
		c.failf("EMI-to-income ratio (%.1f%%) exceeds maximum allowed (50%%)", ratio)
	}
}

// Business loan checks. Profit data is not collected, so the amount cap uses
// a conservative 10% of turnover as the profit estimate.
func evaluateBusiness(app *domain.Application, sched emi.Schedule, c *checklist) {
	d := app.Business

	if d.BusinessAge < 2 {
		c.failf("Business age (%.0f years) is below minimum requirement (2 years)", d.BusinessAge)
	}
	if d.AnnualTurnover < 1000000 {
		c.failf("Annual turnover (%.0f) is below minimum requirement (1000000)", d.AnnualTurnover)
	}
	if len(strings.TrimSpace(d.GSTNumber)) != 15 {
		c.failf("GST number is invalid or missing (should be 15 characters)")
	}

	c.requireScore(d.CreditScore, 600)

	estimatedProfit := d.AnnualTurnover * 0.10
	maxByProfit := estimatedProfit * 3
	c.metric("estimated_annual_profit", estimatedProfit)
	c.metric("max_amount_by_profit", maxByProfit)
	if app.Amount > maxByProfit {
		c.failf("Loan amount (%.0f) exceeds maximum allowed (3x estimated annual profit = %.0f)", app.Amount, maxByProfit)
	}
}
