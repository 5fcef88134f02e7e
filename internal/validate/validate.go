// Package validate checks loan application submissions before evaluation.
// Validation failures are client errors (HTTP 400); they are distinct from
// rejection reasons, which come from the decision engine.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/openlend/kestrel/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// Request checks the common envelope and the per-type required fields for
// a submission. Returns the first failure found.
func Request(loanType domain.LoanType, r *domain.ApplicationRequest) error {
	if !loanType.Valid() {
		return fmt.Errorf("unknown loan type: %s", loanType)
	}
	if r == nil {
		return fmt.Errorf("request body is required")
	}

	if err := common(r); err != nil {
		return err
	}

	switch loanType {
	case domain.LoanEducation:
		return education(r)
	case domain.LoanHome:
		return home(r)
	case domain.LoanCar:
		return car(r)
	case domain.LoanPersonal:
		return personal(r)
	case domain.LoanBusiness:
		return business(r)
	}
	return nil
}

func common(r *domain.ApplicationRequest) error {
	if strings.TrimSpace(r.FullName) == "" {
		return missing("full_name")
	}
	if r.Age <= 0 {
		return missing("age")
	}
	if err := Phone(r.Phone); err != nil {
		return err
	}
	if err := Email(r.Email); err != nil {
		return err
	}
	if r.Amount <= 0 {
		return missing("loan_amount")
	}
	if r.Tenure <= 0 {
		return missing("loan_tenure")
	}
	return nil
}

// Email checks the address shape. Empty is a missing field.
func Email(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return missing("email")
	}
	if !emailPattern.MatchString(addr) {
		return fmt.Errorf("invalid email address: %s", addr)
	}
	return nil
}

// Phone requires at least 10 digits, ignoring separators.
func Phone(number string) error {
	if strings.TrimSpace(number) == "" {
		return missing("phone")
	}
	digits := 0
	for _, c := range number {
		if c >= '0' && c <= '9' {
			digits++
		}
	}
	if digits < 10 {
		return fmt.Errorf("invalid phone number: must contain at least 10 digits")
	}
	return nil
}

func education(r *domain.ApplicationRequest) error {
	if strings.TrimSpace(r.CourseName) == "" {
		return missing("course_name")
	}
	if strings.TrimSpace(r.InstitutionName) == "" {
		return missing("institution_name")
	}
	if r.ParentGuardianIncome == 0 {
		return missing("parent_guardian_income")
	}
	return nil
}

func home(r *domain.ApplicationRequest) error {
	if r.AnnualIncome == 0 {
		return missing("annual_income")
	}
	if r.PropertyValue == 0 {
		return missing("property_value")
	}
	return nil
}

func car(r *domain.ApplicationRequest) error {
	// Either monthly or annual income must be present
	if (r.MonthlyIncome == nil || *r.MonthlyIncome == 0) && r.AnnualIncome == 0 {
		return missing("monthly_income")
	}
	if r.CarPrice == 0 {
		return missing("car_price")
	}
	return nil
}

func personal(r *domain.ApplicationRequest) error {
	if r.MonthlyIncome == nil || *r.MonthlyIncome == 0 {
		return missing("monthly_income")
	}
	return nil
}

func business(r *domain.ApplicationRequest) error {
	if strings.TrimSpace(r.BusinessName) == "" {
		return missing("business_name")
	}
	if r.AnnualTurnover == 0 {
		return missing("annual_turnover")
	}
	if strings.TrimSpace(r.GSTNumber) == "" {
		return missing("gst_number")
	}
	return nil
}

func missing(field string) error {
	return fmt.Errorf("missing required field: %s", field)
}
