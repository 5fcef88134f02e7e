// Package domain defines the core interfaces and types for Kestrel.
package domain

import (
	"time"

	"github.com/openlend/kestrel/internal/emi"
)

// LoanType identifies one of the supported loan categories.
type LoanType string

const (
	LoanEducation LoanType = "education"
	LoanHome      LoanType = "home"
	LoanCar       LoanType = "car"
	LoanPersonal  LoanType = "personal"
	LoanBusiness  LoanType = "business"
)

// AllLoanTypes lists every supported loan category in display order.
func AllLoanTypes() []LoanType {
	return []LoanType{LoanEducation, LoanHome, LoanCar, LoanPersonal, LoanBusiness}
}

// Valid reports whether t is a known loan type.
func (t LoanType) Valid() bool {
	switch t {
	case LoanEducation, LoanHome, LoanCar, LoanPersonal, LoanBusiness:
		return true
	}
	return false
}

// Application statuses.
const (
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Application represents a submitted loan application. The envelope fields
// are common to all loan types; exactly one of the detail pointers is set,
// matching LoanType. Immutable after submission except Status.
type Application struct {
	// Core identifiers
	ID       string   `json:"id"`
	LoanType LoanType `json:"loanType"`

	// Applicant
	FullName string `json:"fullName"`
	Age      int    `json:"age"`
	Gender   string `json:"gender,omitempty"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`

	// Requested loan
	Amount       float64 `json:"amount"`
	TenureMonths int     `json:"tenureMonths"`
	Purpose      string  `json:"purpose,omitempty"`

	// Per-type details (exactly one set)
	Education *EducationDetails `json:"education,omitempty"`
	Home      *HomeDetails      `json:"home,omitempty"`
	Car       *CarDetails       `json:"car,omitempty"`
	Personal  *PersonalDetails  `json:"personal,omitempty"`
	Business  *BusinessDetails  `json:"business,omitempty"`

	// Evaluation outputs, populated after submission
	Decision *Decision     `json:"decision,omitempty"`
	EMI      *emi.Schedule `json:"emiInfo,omitempty"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EducationDetails holds education-loan specific fields.
// CreditHistory is optional: nil means the applicant has no history on file,
// which is not itself a rejection.
type EducationDetails struct {
	CourseName            string   `json:"courseName"`
	CourseDuration        string   `json:"courseDuration,omitempty"`
	InstitutionName       string   `json:"institutionName"`
	InstitutionType       string   `json:"institutionType,omitempty"`
	ApplicantAnnualIncome float64  `json:"applicantAnnualIncome"`
	ParentGuardianIncome  float64  `json:"parentGuardianIncome"`
	CoBorrowerName        string   `json:"coBorrowerName,omitempty"`
	CoBorrowerOccupation  string   `json:"coBorrowerOccupation,omitempty"`
	CreditHistory         *float64 `json:"creditHistory,omitempty"`
}

// HomeDetails holds home-loan specific fields.
// CreditScore is optional but required by policy: nil is a rejection reason,
// not an error.
type HomeDetails struct {
	AnnualIncome      float64  `json:"annualIncome"`
	CoApplicantIncome float64  `json:"coApplicantIncome"`
	EmploymentType    string   `json:"employmentType,omitempty"`
	PropertyType      string   `json:"propertyType,omitempty"`
	PropertyLocation  string   `json:"propertyLocation,omitempty"`
	PropertyValue     float64  `json:"propertyValue"`
	OwnershipType     string   `json:"ownershipType,omitempty"`
	DownPayment       float64  `json:"downPayment,omitempty"`
	CreditScore       *float64 `json:"creditScore,omitempty"`
}

// CarDetails holds car-loan specific fields. MonthlyIncome falls back to
// AnnualIncome/12 when absent.
type CarDetails struct {
	MonthlyIncome    *float64 `json:"monthlyIncome,omitempty"`
	AnnualIncome     float64  `json:"annualIncome,omitempty"`
	EmploymentType   string   `json:"employmentType,omitempty"`
	WorkExperience   float64  `json:"workExperience"`
	CarType          string   `json:"carType,omitempty"`
	Brand            string   `json:"brand,omitempty"`
	Model            string   `json:"model,omitempty"`
	CarPrice         float64  `json:"carPrice"`
	RegistrationCity string   `json:"registrationCity,omitempty"`
	DownPayment      float64  `json:"downPayment"`
	CreditScore      *float64 `json:"creditScore,omitempty"`
}

// PersonalDetails holds personal-loan specific fields.
type PersonalDetails struct {
	MonthlyIncome  float64  `json:"monthlyIncome"`
	EmploymentType string   `json:"employmentType,omitempty"`
	EmployerName   string   `json:"employerName,omitempty"`
	WorkExperience float64  `json:"workExperience"`
	ExistingEMI    *float64 `json:"existingEmi,omitempty"`
	CreditScore    *float64 `json:"creditScore,omitempty"`
}

// BusinessDetails holds business-loan specific fields. BusinessAge is the
// operating age of the business in years; the envelope Age stays the owner's.
type BusinessDetails struct {
	BusinessName    string   `json:"businessName"`
	BusinessType    string   `json:"businessType,omitempty"`
	BusinessAge     float64  `json:"businessAge"`
	AnnualTurnover  float64  `json:"annualTurnover"`
	GSTNumber       string   `json:"gstNumber"`
	BusinessAddress string   `json:"businessAddress,omitempty"`
	ExistingLoans   string   `json:"existingLoans,omitempty"`
	Collateral      string   `json:"collateral,omitempty"`
	CreditScore     *float64 `json:"creditScore,omitempty"`
}

// MonthlyIncome derives the applicant's effective monthly income for the
// application's loan type. Used by supplemental policy rules; the built-in
// checks compute their own per-type figures.
func (a *Application) MonthlyIncome() float64 {
	switch a.LoanType {
	case LoanEducation:
		if a.Education == nil {
			return 0
		}
		return (a.Education.ApplicantAnnualIncome + a.Education.ParentGuardianIncome) / 12
	case LoanHome:
		if a.Home == nil {
			return 0
		}
		return a.Home.AnnualIncome/12 + a.Home.CoApplicantIncome/12
	case LoanCar:
		if a.Car == nil {
			return 0
		}
		if a.Car.MonthlyIncome != nil && *a.Car.MonthlyIncome > 0 {
			return *a.Car.MonthlyIncome
		}
		return a.Car.AnnualIncome / 12
	case LoanPersonal:
		if a.Personal == nil {
			return 0
		}
		return a.Personal.MonthlyIncome
	case LoanBusiness:
		if a.Business == nil {
			return 0
		}
		return a.Business.AnnualTurnover / 12
	}
	return 0
}

// CreditScoreValue returns the applicant's credit score for policy rules,
// or -1 when no score was provided.
func (a *Application) CreditScoreValue() float64 {
	var score *float64
	switch a.LoanType {
	case LoanHome:
		if a.Home != nil {
			score = a.Home.CreditScore
		}
	case LoanCar:
		if a.Car != nil {
			score = a.Car.CreditScore
		}
	case LoanPersonal:
		if a.Personal != nil {
			score = a.Personal.CreditScore
		}
	case LoanBusiness:
		if a.Business != nil {
			score = a.Business.CreditScore
		}
	}
	if score == nil {
		return -1
	}
	return *score
}
