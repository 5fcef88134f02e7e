package rules

import (
	"strings"
	"testing"

	"github.com/openlend/kestrel/internal/domain"
	"github.com/openlend/kestrel/internal/emi"
)

func f64(v float64) *float64 { return &v }

func hasReason(reasons []string, substr string) bool {
	for _, r := range reasons {
		if strings.Contains(r, substr) {
			return true
		}
	}
	return false
}

func educationApp() *domain.Application {
	return &domain.Application{
		LoanType:     domain.LoanEducation,
		Age:          20,
		Amount:       1200000,
		TenureMonths: 120,
		Education: &domain.EducationDetails{
			CourseName:            "MS Computer Science",
			InstitutionName:       "IIT Delhi",
			ApplicantAnnualIncome: 0,
			ParentGuardianIncome:  400000,
		},
	}
}

func homeApp() *domain.Application {
	return &domain.Application{
		LoanType:     domain.LoanHome,
		Age:          35,
		Amount:       2000000,
		TenureMonths: 240,
		Home: &domain.HomeDetails{
			AnnualIncome:  1200000,
			PropertyValue: 4000000,
			CreditScore:   f64(720),
		},
	}
}

func TestEvaluateEducation(t *testing.T) {
	engine := NewEngine()

	t.Run("eligible application approved", func(t *testing.T) {
		decision, sched, err := engine.Evaluate(educationApp())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !decision.Approved {
			t.Errorf("expected approval, got reasons: %v", decision.Reasons)
		}
		if len(decision.Reasons) != 0 {
			t.Errorf("approved decision must have no reasons, got %v", decision.Reasons)
		}
		if sched.AnnualRate != 8.5 {
			t.Errorf("expected education rate 8.5, got %v", sched.AnnualRate)
		}
		if decision.Metrics["combined_income"] != 400000 {
			t.Errorf("expected combined_income metric 400000, got %v", decision.Metrics["combined_income"])
		}
	})

	t.Run("parent income boundary is inclusive", func(t *testing.T) {
		app := educationApp()
		app.Amount = 100000
		app.Education.ParentGuardianIncome = 150000
		decision, _, err := engine.Evaluate(app)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hasReason(decision.Reasons, "Parent/Guardian income") {
			t.Errorf("income exactly at threshold must pass, got %v", decision.Reasons)
		}
	})

	t.Run("underage rejected", func(t *testing.T) {
		app := educationApp()
		app.Age = 17
		decision, _, _ := engine.Evaluate(app)
		if decision.Approved {
			t.Error("expected rejection")
		}
		if !hasReason(decision.Reasons, "below minimum requirement (18 years)") {
			t.Errorf("expected age reason, got %v", decision.Reasons)
		}
	})

	t.Run("absent credit history is not a failure", func(t *testing.T) {
		app := educationApp()
		app.Education.CreditHistory = nil
		decision, _, _ := engine.Evaluate(app)
		if hasReason(decision.Reasons, "Credit history") {
			t.Errorf("nil credit history must not fail, got %v", decision.Reasons)
		}
	})

	t.Run("failing credit history rejected", func(t *testing.T) {
		app := educationApp()
		app.Education.CreditHistory = f64(0.3)
		decision, _, _ := engine.Evaluate(app)
		if !hasReason(decision.Reasons, "Credit history (0.30)") {
			t.Errorf("expected credit history reason, got %v", decision.Reasons)
		}
	})

	t.Run("amount over absolute limit rejected", func(t *testing.T) {
		app := educationApp()
		app.Amount = 1500001
		decision, _, _ := engine.Evaluate(app)
		if !hasReason(decision.Reasons, "exceeds maximum limit") {
			t.Errorf("expected limit reason, got %v", decision.Reasons)
		}
	})
}

func TestEvaluateHome(t *testing.T) {
	engine := NewEngine()

	t.Run("eligible application approved", func(t *testing.T) {
		decision, sched, err := engine.Evaluate(homeApp())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !decision.Approved {
			t.Errorf("expected approval, got reasons: %v", decision.Reasons)
		}
		if sched.AnnualRate != 9.0 {
			t.Errorf("expected home rate 9.0, got %v", sched.AnnualRate)
		}
	})

	t.Run("age boundaries inclusive", func(t *testing.T) {
		for _, age := range []int{21, 60} {
			app := homeApp()
			app.Age = age
			decision, _, _ := engine.Evaluate(app)
			if hasReason(decision.Reasons, "outside acceptable range") {
				t.Errorf("age %d must pass, got %v", age, decision.Reasons)
			}
		}
		for _, age := range []int{20, 61} {
			app := homeApp()
			app.Age = age
			decision, _, _ := engine.Evaluate(app)
			if !hasReason(decision.Reasons, "outside acceptable range") {
				t.Errorf("age %d must fail, got %v", age, decision.Reasons)
			}
		}
	})

	t.Run("missing credit score is a reason not a panic", func(t *testing.T) {
		app := homeApp()
		app.Home.CreditScore = nil
		decision, _, err := engine.Evaluate(app)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decision.Approved {
			t.Error("expected rejection")
		}
		if !hasReason(decision.Reasons, "Credit score is required but not provided") {
			t.Errorf("expected missing score reason, got %v", decision.Reasons)
		}
	})

	t.Run("credit score boundary inclusive", func(t *testing.T) {
		app := homeApp()
		app.Home.CreditScore = f64(650)
		decision, _, _ := engine.Evaluate(app)
		if hasReason(decision.Reasons, "Credit score (650)") {
			t.Errorf("score exactly 650 must pass, got %v", decision.Reasons)
		}
		app.Home.CreditScore = f64(649)
		decision, _, _ = engine.Evaluate(app)
		if !hasReason(decision.Reasons, "Credit score (649) is below minimum requirement (650)") {
			t.Errorf("score 649 must fail, got %v", decision.Reasons)
		}
	})

	t.Run("loan to value cap", func(t *testing.T) {
		app := homeApp()
		app.Amount = 3500000 // 87.5% of 4M
		decision, _, _ := engine.Evaluate(app)
		if !hasReason(decision.Reasons, "exceeds 80% of property value") {
			t.Errorf("expected LTV reason, got %v", decision.Reasons)
		}
	})

	t.Run("emi ratio cap inclusive at 40", func(t *testing.T) {
		app := homeApp()
		// 2M over 240 months at 9% is roughly 17994/month; income of
		// 45000/month gives a ratio just below 40.
		app.Home.AnnualIncome = 45000 * 12
		decision, _, _ := engine.Evaluate(app)
		if hasReason(decision.Reasons, "EMI-to-income ratio") {
			t.Errorf("ratio under 40 must pass, got %v", decision.Reasons)
		}
		app.Home.AnnualIncome = 40000 * 12 // ratio ~45
		decision, _, _ = engine.Evaluate(app)
		if !hasReason(decision.Reasons, "EMI-to-income ratio") {
			t.Errorf("ratio over 40 must fail, got %v", decision.Reasons)
		}
	})
}

func TestEvaluateCar(t *testing.T) {
	engine := NewEngine()

	carApp := func() *domain.Application {
		return &domain.Application{
			LoanType:     domain.LoanCar,
			Age:          30,
			Amount:       600000,
			TenureMonths: 60,
			Car: &domain.CarDetails{
				MonthlyIncome:  f64(80000),
				WorkExperience: 3,
				CarPrice:       800000,
				DownPayment:    200000,
				CreditScore:    f64(700),
			},
		}
	}

	t.Run("eligible application approved", func(t *testing.T) {
		decision, sched, err := engine.Evaluate(carApp())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !decision.Approved {
			t.Errorf("expected approval, got reasons: %v", decision.Reasons)
		}
		if sched.AnnualRate != 10.5 {
			t.Errorf("expected car rate 10.5, got %v", sched.AnnualRate)
		}
	})

	t.Run("annual income fallback", func(t *testing.T) {
		app := carApp()
		app.Car.MonthlyIncome = nil
		app.Car.AnnualIncome = 960000
		decision, _, _ := engine.Evaluate(app)
		if decision.Metrics["monthly_income"] != 80000 {
			t.Errorf("expected fallback income 80000, got %v", decision.Metrics["monthly_income"])
		}
		if !decision.Approved {
			t.Errorf("expected approval, got %v", decision.Reasons)
		}
	})

	t.Run("down payment boundary inclusive", func(t *testing.T) {
		app := carApp()
		app.Car.DownPayment = 80000 // exactly 10%
		decision, _, _ := engine.Evaluate(app)
		if hasReason(decision.Reasons, "Down payment") {
			t.Errorf("exact 10%% down payment must pass, got %v", decision.Reasons)
		}
		app.Car.DownPayment = 79999
		decision, _, _ = engine.Evaluate(app)
		if !hasReason(decision.Reasons, "Down payment") {
			t.Errorf("short down payment must fail, got %v", decision.Reasons)
		}
	})

	t.Run("work experience floor", func(t *testing.T) {
		app := carApp()
		app.Car.WorkExperience = 0.5
		decision, _, _ := engine.Evaluate(app)
		if !hasReason(decision.Reasons, "Work experience") {
			t.Errorf("expected work experience reason, got %v", decision.Reasons)
		}
	})
}

func TestEvaluatePersonal(t *testing.T) {
	engine := NewEngine()

	personalApp := func() *domain.Application {
		return &domain.Application{
			LoanType:     domain.LoanPersonal,
			Age:          30,
			Amount:       300000,
			TenureMonths: 36,
			Personal: &domain.PersonalDetails{
				MonthlyIncome:  60000,
				WorkExperience: 4,
				CreditScore:    f64(700),
			},
		}
	}

	t.Run("eligible application approved", func(t *testing.T) {
		decision, sched, err := engine.Evaluate(personalApp())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !decision.Approved {
			t.Errorf("expected approval, got reasons: %v", decision.Reasons)
		}
		if sched.AnnualRate != 12.0 {
			t.Errorf("expected personal rate 12.0, got %v", sched.AnnualRate)
		}
	})

	t.Run("ratio of exactly 50 percent is rejected", func(t *testing.T) {
		app := personalApp()
		sched, err := emi.Compute(app.Amount, 12.0, app.TenureMonths)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		app.Personal.MonthlyIncome = sched.EMI * 2

		decision, _, _ := engine.Evaluate(app)
		if decision.Approved {
			t.Error("ratio of exactly 50% must reject")
		}
		if !hasReason(decision.Reasons, "exceeds maximum allowed (50%)") {
			t.Errorf("expected strict 50%% reason, got %v", decision.Reasons)
		}
	})

	t.Run("ratio just under 50 percent passes the burden check", func(t *testing.T) {
		app := personalApp()
		sched, err := emi.Compute(app.Amount, 12.0, app.TenureMonths)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		app.Personal.MonthlyIncome = sched.EMI*2 + 1

		decision, _, _ := engine.Evaluate(app)
		if hasReason(decision.Reasons, "exceeds maximum allowed (50%)") {
			t.Errorf("ratio under 50 must pass the burden check, got %v", decision.Reasons)
		}
	})

	t.Run("salary multiple cap", func(t *testing.T) {
		app := personalApp()
		app.Amount = 60000*12 + 1
		decision, _, _ := engine.Evaluate(app)
		if !hasReason(decision.Reasons, "12x monthly salary") {
			t.Errorf("expected salary cap reason, got %v", decision.Reasons)
		}
	})
}

func TestEvaluateBusiness(t *testing.T) {
	engine := NewEngine()

	businessApp := func() *domain.Application {
		return &domain.Application{
			LoanType:     domain.LoanBusiness,
			Age:          45,
			Amount:       900000,
			TenureMonths: 48,
			Business: &domain.BusinessDetails{
				BusinessName:   "Sharma Traders",
				BusinessAge:    5,
				AnnualTurnover: 5000000,
				GSTNumber:      "22AAAAA0000A1Z5",
				CreditScore:    f64(680),
			},
		}
	}

	t.Run("eligible application approved", func(t *testing.T) {
		decision, sched, err := engine.Evaluate(businessApp())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !decision.Approved {
			t.Errorf("expected approval, got reasons: %v", decision.Reasons)
		}
		if sched.AnnualRate != 11.5 {
			t.Errorf("expected business rate 11.5, got %v", sched.AnnualRate)
		}
	})

	t.Run("turnover boundary inclusive", func(t *testing.T) {
		app := businessApp()
		app.Amount = 300000
		app.Business.AnnualTurnover = 1000000
		decision, _, _ := engine.Evaluate(app)
		if hasReason(decision.Reasons, "Annual turnover") {
			t.Errorf("turnover exactly at threshold must pass, got %v", decision.Reasons)
		}
	})

	t.Run("gst length must be exactly 15", func(t *testing.T) {
		for _, gst := range []string{"", "22AAAAA0000A1Z", "22AAAAA0000A1Z55"} {
			app := businessApp()
			app.Business.GSTNumber = gst
			decision, _, _ := engine.Evaluate(app)
			if !hasReason(decision.Reasons, "GST number") {
				t.Errorf("gst %q must fail, got %v", gst, decision.Reasons)
			}
		}
	})

	t.Run("independent failures all reported", func(t *testing.T) {
		app := businessApp()
		app.Business.BusinessAge = 1       // fails age
		app.Business.AnnualTurnover = 500000 // fails turnover and profit cap
		app.Business.GSTNumber = "SHORT"   // fails gst
		decision, _, err := engine.Evaluate(app)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decision.Approved {
			t.Error("expected rejection")
		}
		// age, turnover, gst, and the 3x profit cap (900000 > 150000)
		if len(decision.Reasons) != 4 {
			t.Errorf("expected 4 accumulated reasons, got %d: %v", len(decision.Reasons), decision.Reasons)
		}
	})
}

func TestEvaluateErrors(t *testing.T) {
	engine := NewEngine()

	t.Run("unknown loan type", func(t *testing.T) {
		_, _, err := engine.Evaluate(&domain.Application{LoanType: "yacht"})
		if err == nil {
			t.Fatal("expected error for unknown loan type")
		}
	})

	t.Run("emi computation failure propagates", func(t *testing.T) {
		app := educationApp()
		app.Amount = 0
		_, _, err := engine.Evaluate(app)
		if err == nil {
			t.Fatal("expected error for non-positive principal")
		}
	})
}
