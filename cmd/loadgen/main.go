// Load generator for exercising Kestrel with synthetic loan applications.
//
// Usage:
//   go run cmd/loadgen/main.go -url http://localhost:8080 -count 1000
//
// This tool:
//   1. Generates randomized applications across all five loan types
//   2. Submits each to Kestrel's /apply/{loanType} endpoint
//   3. Tracks approval rate, rejection reasons, and latency per loan type
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// ApplyRequest mirrors the Kestrel application payload. Per-type fields are
// populated only for the loan type being submitted.
type ApplyRequest struct {
	FullName string  `json:"full_name"`
	Age      int     `json:"age"`
	Phone    string  `json:"phone"`
	Email    string  `json:"email"`
	Amount   float64 `json:"loan_amount"`
	Tenure   int     `json:"loan_tenure"`

	CourseName           string  `json:"course_name,omitempty"`
	InstitutionName      string  `json:"institution_name,omitempty"`
	ParentGuardianIncome float64 `json:"parent_guardian_income,omitempty"`
	CoApplicant          string  `json:"co_applicant,omitempty"`

	AnnualIncome  float64 `json:"annual_income,omitempty"`
	PropertyValue float64 `json:"property_value,omitempty"`
	PropertyAge   int     `json:"property_age,omitempty"`

	MonthlyIncome float64 `json:"monthly_income,omitempty"`
	CarPrice      float64 `json:"car_price,omitempty"`
	CarModel      string  `json:"car_model,omitempty"`

	EmploymentType string  `json:"employment_type,omitempty"`
	CreditScore    float64 `json:"credit_score,omitempty"`

	BusinessName   string  `json:"business_name,omitempty"`
	BusinessType   string  `json:"business_type,omitempty"`
	AnnualTurnover float64 `json:"annual_turnover,omitempty"`
	GSTNumber      string  `json:"gst_number,omitempty"`
}

// ApplyResponse is the Kestrel API response format
type ApplyResponse struct {
	ApplicationID string `json:"application_id"`
	LoanType      string `json:"loan_type"`
	Status        string `json:"status"`
	Decision      struct {
		Approved bool     `json:"approved"`
		Reasons  []string `json:"reasons"`
	} `json:"decision"`
	Message string `json:"message"`
}

// Metrics tracks load generator results
type Metrics struct {
	TotalSubmitted int64
	TotalApproved  int64
	TotalRejected  int64
	TotalErrors    int64

	ProcessingTimeMs int64

	mu       sync.Mutex
	byType   map[string]*TypeMetrics
	rejectBy map[string]int64
}

// TypeMetrics tracks per-loan-type results
type TypeMetrics struct {
	Submitted int64
	Approved  int64
	Rejected  int64
}

var loanTypes = []string{"education", "home", "car", "personal", "business"}

var firstNames = []string{"Aarav", "Diya", "Ishaan", "Meera", "Rohan", "Sneha", "Vikram", "Ananya", "Kabir", "Priya"}
var lastNames = []string{"Sharma", "Patel", "Reddy", "Iyer", "Khan", "Das", "Mehta", "Nair", "Singh", "Gupta"}

func main() {
	// Parse flags
	baseURL := flag.String("url", "http://localhost:8080", "Kestrel base URL")
	count := flag.Int("count", 1000, "Number of applications to submit")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed (fixed seed gives a reproducible run)")
	verbose := flag.Bool("verbose", false, "Print each application result")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║           KESTREL LOADGEN - Synthetic Applications            ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nKestrel URL: %s\n", *baseURL)
	fmt.Printf("Count:       %d\n", *count)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Printf("Seed:        %d\n", *seed)
	fmt.Println()

	// Check Kestrel is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Kestrel not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Kestrel is running:")
		fmt.Println("  cd kestrel && go run cmd/kestrel/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Kestrel is healthy")

	// Generate applications up front so latency measurements only cover HTTP
	rng := rand.New(rand.NewSource(*seed))
	type job struct {
		loanType string
		req      ApplyRequest
	}
	jobs := make([]job, *count)
	for i := range jobs {
		lt := loanTypes[rng.Intn(len(loanTypes))]
		jobs[i] = job{loanType: lt, req: generateApplication(rng, lt, i)}
	}
	fmt.Printf("✓ Generated %d applications\n", len(jobs))

	// Run load
	fmt.Printf("\nSubmitting with %d workers...\n", *workers)
	metrics := &Metrics{
		byType:   make(map[string]*TypeMetrics),
		rejectBy: make(map[string]int64),
	}
	for _, lt := range loanTypes {
		metrics.byType[lt] = &TypeMetrics{}
	}

	startTime := time.Now()

	work := make(chan job, 100)
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for j := range work {
				start := time.Now()
				result, err := submitApplication(client, *baseURL, j.loanType, j.req)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalSubmitted, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if *verbose {
						fmt.Printf("ERROR: %s %s -> %v\n", j.loanType, j.req.FullName, err)
					}
					continue
				}

				tm := metrics.byType[j.loanType]
				atomic.AddInt64(&tm.Submitted, 1)
				if result.Decision.Approved {
					atomic.AddInt64(&metrics.TotalApproved, 1)
					atomic.AddInt64(&tm.Approved, 1)
				} else {
					atomic.AddInt64(&metrics.TotalRejected, 1)
					atomic.AddInt64(&tm.Rejected, 1)
					metrics.mu.Lock()
					for _, reason := range result.Decision.Reasons {
						metrics.rejectBy[reason]++
					}
					metrics.mu.Unlock()
				}

				if *verbose {
					status := "✓"
					if !result.Decision.Approved {
						status = "✗"
					}
					fmt.Printf("%s %-9s | %-20s | Amount: %12.0f | %s\n",
						status, j.loanType, j.req.FullName, j.req.Amount, result.Status)
				}
			}
		}()
	}

	for _, j := range jobs {
		work <- j
	}
	close(work)
	wg.Wait()

	printResults(metrics, time.Since(startTime))
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// generateApplication builds a plausible application for the loan type. Ranges
// straddle the eligibility cutoffs so runs produce a mix of approvals and
// rejections.
func generateApplication(rng *rand.Rand, loanType string, seq int) ApplyRequest {
	name := firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
	req := ApplyRequest{
		FullName: name,
		Age:      20 + rng.Intn(45),
		Phone:    fmt.Sprintf("98%08d", rng.Intn(100000000)),
		Email:    fmt.Sprintf("loadgen-%d@example.com", seq),
	}

	switch loanType {
	case "education":
		req.Age = 18 + rng.Intn(14)
		req.Amount = 100000 + rng.Float64()*2400000
		req.Tenure = 3 + rng.Intn(10)
		req.CourseName = "M.Tech Computer Science"
		req.InstitutionName = "National Institute of Technology"
		req.ParentGuardianIncome = 150000 + rng.Float64()*850000
		if rng.Intn(2) == 0 {
			req.CoApplicant = "parent"
		}
	case "home":
		req.Age = 23 + rng.Intn(35)
		req.Amount = 500000 + rng.Float64()*9500000
		req.Tenure = 5 + rng.Intn(25)
		req.AnnualIncome = 200000 + rng.Float64()*2800000
		req.PropertyValue = req.Amount * (1.1 + rng.Float64()*0.6)
		req.PropertyAge = rng.Intn(30)
		req.CreditScore = 550 + rng.Float64()*300
	case "car":
		req.Age = 21 + rng.Intn(35)
		req.CarPrice = 300000 + rng.Float64()*2200000
		req.Amount = req.CarPrice * (0.6 + rng.Float64()*0.4)
		req.Tenure = 1 + rng.Intn(7)
		req.MonthlyIncome = 15000 + rng.Float64()*135000
		req.CarModel = "Hatchback GT"
		req.CreditScore = 550 + rng.Float64()*300
	case "personal":
		req.Age = 21 + rng.Intn(37)
		req.Amount = 50000 + rng.Float64()*1450000
		req.Tenure = 1 + rng.Intn(5)
		req.MonthlyIncome = 15000 + rng.Float64()*185000
		req.EmploymentType = "salaried"
		req.CreditScore = 550 + rng.Float64()*300
	case "business":
		req.Age = 25 + rng.Intn(30)
		req.Amount = 500000 + rng.Float64()*9500000
		req.Tenure = 1 + rng.Intn(10)
		req.BusinessName = fmt.Sprintf("%s Trading Co", lastNames[rng.Intn(len(lastNames))])
		req.BusinessType = "retail"
		req.AnnualTurnover = 500000 + rng.Float64()*19500000
		req.GSTNumber = fmt.Sprintf("29ABCDE%04dF1Z%d", rng.Intn(10000), rng.Intn(10))
	}

	return req
}

func submitApplication(client *http.Client, baseURL, loanType string, req ApplyRequest) (*ApplyResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/apply/"+loanType, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result ApplyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                       LOADGEN RESULTS                         ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 SUBMISSION TOTALS\n")
	fmt.Printf("   Submitted:  %d\n", m.TotalSubmitted)
	fmt.Printf("   Approved:   %d\n", m.TotalApproved)
	fmt.Printf("   Rejected:   %d\n", m.TotalRejected)
	fmt.Printf("   Errors:     %d\n", m.TotalErrors)

	decided := m.TotalApproved + m.TotalRejected
	if decided > 0 {
		fmt.Printf("   Approval Rate: %.2f%%\n", 100*float64(m.TotalApproved)/float64(decided))
	}

	fmt.Printf("\n📈 PER LOAN TYPE\n")
	for _, lt := range loanTypes {
		tm := m.byType[lt]
		if tm.Submitted == 0 {
			continue
		}
		rate := 100 * float64(tm.Approved) / float64(tm.Submitted)
		fmt.Printf("   %-9s  submitted: %5d  approved: %5d  rejected: %5d  (%.2f%% approved)\n",
			lt, tm.Submitted, tm.Approved, tm.Rejected, rate)
	}

	if len(m.rejectBy) > 0 {
		fmt.Printf("\n🔍 TOP REJECTION REASONS\n")
		type reasonCount struct {
			reason string
			count  int64
		}
		reasons := make([]reasonCount, 0, len(m.rejectBy))
		for r, c := range m.rejectBy {
			reasons = append(reasons, reasonCount{r, c})
		}
		sort.Slice(reasons, func(i, j int) bool { return reasons[i].count > reasons[j].count })
		limit := 10
		if len(reasons) < limit {
			limit = len(reasons)
		}
		for _, rc := range reasons[:limit] {
			fmt.Printf("   %6d  %s\n", rc.count, rc.reason)
		}
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalSubmitted > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalSubmitted)
		aps := float64(m.TotalSubmitted) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f apps/sec\n", aps)
	}

	fmt.Println()
}
