package notify

import (
	"fmt"
	"strings"

	"github.com/openlend/kestrel/internal/domain"
)

// ConfirmationMessage builds the submission confirmation for an application.
func ConfirmationMessage(app *domain.Application) *domain.Notification {
	var b strings.Builder

	fmt.Fprintf(&b, "Dear %s,\n\n", app.FullName)
	fmt.Fprintf(&b, "Thank you for submitting your %s loan application.\n\n", app.LoanType)
	fmt.Fprintf(&b, "Application ID: %s\n", app.ID)
	fmt.Fprintf(&b, "Loan Type: %s Loan\n", titleCase(string(app.LoanType)))
	fmt.Fprintf(&b, "Loan Amount: %.2f\n", app.Amount)
	fmt.Fprintf(&b, "Tenure: %d months\n", app.TenureMonths)

	if app.EMI != nil {
		b.WriteString("\nEMI Details:\n")
		fmt.Fprintf(&b, "  Monthly EMI: %.2f\n", app.EMI.EMI)
		fmt.Fprintf(&b, "  Interest Rate: %.2f%% per annum\n", app.EMI.AnnualRate)
		fmt.Fprintf(&b, "  Total Amount Payable: %.2f\n", app.EMI.TotalAmount)
	}

	b.WriteString("\nWe will notify you once your application has been reviewed.\n")
	b.WriteString("\nBest regards,\nLoan Application Team\n")

	return &domain.Notification{
		To:      app.Email,
		Subject: "Loan Application Confirmation - " + shortID(app.ID),
		Body:    b.String(),
	}
}

// StatusMessage builds the decision notification for an application.
func StatusMessage(app *domain.Application) *domain.Notification {
	var b strings.Builder

	fmt.Fprintf(&b, "Dear %s,\n\n", app.FullName)
	fmt.Fprintf(&b, "Your %s loan application (ID: %s) has been %s.\n\n",
		app.LoanType, shortID(app.ID), app.Status)

	if app.Decision != nil {
		if app.Decision.Approved {
			b.WriteString("Congratulations! Your application meets all eligibility criteria.\n")
			if app.EMI != nil {
				fmt.Fprintf(&b, "\nYour monthly EMI will be %.2f at %.2f%% per annum over %d months.\n",
					app.EMI.EMI, app.EMI.AnnualRate, app.EMI.TenureMonths)
			}
		} else {
			b.WriteString("Unfortunately your application could not be approved for the following reasons:\n")
			for _, reason := range app.Decision.Reasons {
				fmt.Fprintf(&b, "  - %s\n", reason)
			}
		}
	}

	b.WriteString("\nBest regards,\nLoan Application Team\n")

	return &domain.Notification{
		To:      app.Email,
		Subject: "Loan Application Status Update - " + strings.ToUpper(app.Status),
		Body:    b.String(),
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
