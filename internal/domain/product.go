package domain

// LoanProduct describes the product envelope offered for a loan type:
// amount and tenure bounds plus the typical annual rate. Tenure bounds are
// normalized to months regardless of the unit the intake forms use.
type LoanProduct struct {
	LoanType        LoanType `json:"loanType"`
	MinAmount       float64  `json:"minAmount"`
	MaxAmount       float64  `json:"maxAmount"`
	MinTenureMonths int      `json:"minTenureMonths"`
	MaxTenureMonths int      `json:"maxTenureMonths"`
	TypicalRate     float64  `json:"typicalRate"`
	Description     string   `json:"description"`
}

var products = map[LoanType]LoanProduct{
	LoanEducation: {
		LoanType:        LoanEducation,
		MinAmount:       10000,
		MaxAmount:       5000000,
		MinTenureMonths: 12,
		MaxTenureMonths: 240,
		TypicalRate:     8.5,
		Description:     "Education loans help finance your studies",
	},
	LoanHome: {
		LoanType:        LoanHome,
		MinAmount:       500000,
		MaxAmount:       50000000,
		MinTenureMonths: 60,
		MaxTenureMonths: 360,
		TypicalRate:     9.0,
		Description:     "Home loans for buying or constructing your dream home",
	},
	LoanCar: {
		LoanType:        LoanCar,
		MinAmount:       50000,
		MaxAmount:       10000000,
		MinTenureMonths: 12,
		MaxTenureMonths: 84,
		TypicalRate:     10.5,
		Description:     "Car loans for new or used vehicles",
	},
	LoanPersonal: {
		LoanType:        LoanPersonal,
		MinAmount:       10000,
		MaxAmount:       5000000,
		MinTenureMonths: 6,
		MaxTenureMonths: 60,
		TypicalRate:     12.0,
		Description:     "Personal loans for various purposes",
	},
	LoanBusiness: {
		LoanType:        LoanBusiness,
		MinAmount:       100000,
		MaxAmount:       50000000,
		MinTenureMonths: 12,
		MaxTenureMonths: 120,
		TypicalRate:     11.5,
		Description:     "Business loans to grow your enterprise",
	},
}

// ProductFor returns the product envelope for a loan type.
func ProductFor(t LoanType) (LoanProduct, bool) {
	p, ok := products[t]
	return p, ok
}
