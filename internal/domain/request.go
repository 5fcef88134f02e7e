package domain

import (
	"time"
)

// ApplicationRequest is the API submission payload. The body is flat,
// snake_case, and a superset of all per-type fields; which fields are
// required depends on the loan type in the URL.
//
// Tenure units differ by loan type, matching the intake forms:
// education and home submit years, car, personal and business submit months.
type ApplicationRequest struct {
	// Common applicant fields
	FullName string `json:"full_name"`
	Age      int    `json:"age"`
	Gender   string `json:"gender,omitempty"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`

	Amount  float64 `json:"loan_amount"`
	Tenure  int     `json:"loan_tenure"`
	Purpose string  `json:"purpose,omitempty"`

	// Education
	CourseName            string   `json:"course_name,omitempty"`
	CourseDuration        string   `json:"course_duration,omitempty"`
	InstitutionName       string   `json:"institution_name,omitempty"`
	InstitutionType       string   `json:"institution_type,omitempty"`
	ApplicantAnnualIncome float64  `json:"applicant_annual_income,omitempty"`
	ParentGuardianIncome  float64  `json:"parent_guardian_income,omitempty"`
	CoBorrowerName        string   `json:"co_borrower_name,omitempty"`
	CoBorrowerOccupation  string   `json:"co_borrower_occupation,omitempty"`
	CreditHistory         *float64 `json:"credit_history,omitempty"`

	// Home
	AnnualIncome      float64 `json:"annual_income,omitempty"`
	CoApplicantIncome float64 `json:"co_applicant_income,omitempty"`
	PropertyType      string  `json:"property_type,omitempty"`
	PropertyLocation  string  `json:"property_location,omitempty"`
	PropertyValue     float64 `json:"property_value,omitempty"`
	OwnershipType     string  `json:"ownership_type,omitempty"`

	// Car / Personal
	MonthlyIncome  *float64 `json:"monthly_income,omitempty"`
	EmploymentType string   `json:"employment_type,omitempty"`
	EmployerName   string   `json:"employer_name,omitempty"`
	WorkExperience float64  `json:"work_experience,omitempty"`
	CarType        string   `json:"car_type,omitempty"`
	Brand          string   `json:"brand,omitempty"`
	Model          string   `json:"model,omitempty"`
	CarPrice       float64  `json:"car_price,omitempty"`
	RegistrationCity string `json:"registration_city,omitempty"`
	DownPayment    float64  `json:"down_payment,omitempty"`
	ExistingEMI    *float64 `json:"existing_emi,omitempty"`

	// Business
	BusinessName    string  `json:"business_name,omitempty"`
	BusinessType    string  `json:"business_type,omitempty"`
	BusinessAge     float64 `json:"business_age,omitempty"`
	AnnualTurnover  float64 `json:"annual_turnover,omitempty"`
	GSTNumber       string  `json:"gst_number,omitempty"`
	BusinessAddress string  `json:"business_address,omitempty"`
	ExistingLoans   string  `json:"existing_loans,omitempty"`
	Collateral      string  `json:"collateral,omitempty"`

	// Shared optional score
	CreditScore *float64 `json:"credit_score,omitempty"`
}

// TenureMonths normalizes the submitted tenure to months for the given
// loan type.
func (r *ApplicationRequest) TenureMonths(loanType LoanType) int {
	switch loanType {
	case LoanEducation, LoanHome:
		return r.Tenure * 12
	default:
		return r.Tenure
	}
}

// ToApplication converts a request to an Application domain object for the
// given loan type. Exactly one detail struct is populated.
func (r *ApplicationRequest) ToApplication(loanType LoanType) *Application {
	now := time.Now().UTC()
	app := &Application{
		LoanType:     loanType,
		FullName:     r.FullName,
		Age:          r.Age,
		Gender:       r.Gender,
		Phone:        r.Phone,
		Email:        r.Email,
		Amount:       r.Amount,
		TenureMonths: r.TenureMonths(loanType),
		Purpose:      r.Purpose,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	switch loanType {
	case LoanEducation:
		app.Education = &EducationDetails{
			CourseName:            r.CourseName,
			CourseDuration:        r.CourseDuration,
			InstitutionName:       r.InstitutionName,
			InstitutionType:       r.InstitutionType,
			ApplicantAnnualIncome: r.ApplicantAnnualIncome,
			ParentGuardianIncome:  r.ParentGuardianIncome,
			CoBorrowerName:        r.CoBorrowerName,
			CoBorrowerOccupation:  r.CoBorrowerOccupation,
			CreditHistory:         r.CreditHistory,
		}
	case LoanHome:
		app.Home = &HomeDetails{
			AnnualIncome:      r.AnnualIncome,
			CoApplicantIncome: r.CoApplicantIncome,
			EmploymentType:    r.EmploymentType,
			PropertyType:      r.PropertyType,
			PropertyLocation:  r.PropertyLocation,
			PropertyValue:     r.PropertyValue,
			OwnershipType:     r.OwnershipType,
			DownPayment:       r.DownPayment,
			CreditScore:       r.CreditScore,
		}
	case LoanCar:
		app.Car = &CarDetails{
			MonthlyIncome:    r.MonthlyIncome,
			AnnualIncome:     r.AnnualIncome,
			EmploymentType:   r.EmploymentType,
			WorkExperience:   r.WorkExperience,
			CarType:          r.CarType,
			Brand:            r.Brand,
			Model:            r.Model,
			CarPrice:         r.CarPrice,
			RegistrationCity: r.RegistrationCity,
			DownPayment:      r.DownPayment,
			CreditScore:      r.CreditScore,
		}
	case LoanPersonal:
		monthly := 0.0
		if r.MonthlyIncome != nil {
			monthly = *r.MonthlyIncome
		}
		app.Personal = &PersonalDetails{
			MonthlyIncome:  monthly,
			EmploymentType: r.EmploymentType,
			EmployerName:   r.EmployerName,
			WorkExperience: r.WorkExperience,
			ExistingEMI:    r.ExistingEMI,
			CreditScore:    r.CreditScore,
		}
	case LoanBusiness:
		app.Business = &BusinessDetails{
			BusinessName:    r.BusinessName,
			BusinessType:    r.BusinessType,
			BusinessAge:     r.BusinessAge,
			AnnualTurnover:  r.AnnualTurnover,
			GSTNumber:       r.GSTNumber,
			BusinessAddress: r.BusinessAddress,
			ExistingLoans:   r.ExistingLoans,
			Collateral:      r.Collateral,
			CreditScore:     r.CreditScore,
		}
	}

	return app
}
