package mockapi

import (
	"math"
	"time"

	"github.com/kassolend/console/internal/models"
)

// flatInterestRate is charged once on the principal regardless of tenure
const flatInterestRate = 20.0

// quote prices a loan at the flat rate, split into tenure equal installments
func quote(principal float64, tenureValue int, unit models.TenureUnit) models.LoanCalculatorResponse {
	interest := round2(principal * flatInterestRate / 100)
	total := round2(principal + interest)
	installments := max(tenureValue, 1)
	return models.LoanCalculatorResponse{
		PrincipalAmount:      round2(principal),
		InterestRate:         flatInterestRate,
		InterestAmount:       interest,
		TotalAmount:          total,
		InstallmentAmount:    round2(total / float64(installments)),
		NumberOfInstallments: installments,
		TenureValue:          tenureValue,
		TenureUnit:           unit,
	}
}

// buildSchedule lays installments out from start, one per tenure unit. The
// last installment absorbs rounding so the schedule sums to the total.
func buildSchedule(q models.LoanCalculatorResponse, start time.Time) []scheduleRecord {
	schedules := make([]scheduleRecord, 0, q.NumberOfInstallments)
	remaining := q.TotalAmount
	for i := 1; i <= q.NumberOfInstallments; i++ {
		amount := q.InstallmentAmount
		if i == q.NumberOfInstallments {
			amount = round2(remaining)
		}
		remaining -= amount
		schedules = append(schedules, scheduleRecord{
			DueDate:        addTenure(start, q.TenureUnit, i).Format(dateLayout),
			ExpectedAmount: amount,
		})
	}
	return schedules
}

func addTenure(t time.Time, unit models.TenureUnit, n int) time.Time {
	switch unit {
	case models.TenureDays:
		return t.AddDate(0, 0, n)
	case models.TenureWeeks:
		return t.AddDate(0, 0, 7*n)
	default:
		return t.AddDate(0, n, 0)
	}
}

// ledger is a loan's repayment position on a given day
type ledger struct {
	schedules []models.LoanSchedule
	repaid    float64
	arrears   float64
}

// computeLedger allocates repayments to installments oldest first
func computeLedger(loan *loanRecord, today string) ledger {
	var l ledger
	for _, r := range loan.Repayments {
		l.repaid += r.Amount
	}
	l.repaid = round2(l.repaid)

	pool := l.repaid
	for _, s := range loan.Schedules {
		paid := math.Min(pool, s.ExpectedAmount)
		pool -= paid
		remaining := round2(s.ExpectedAmount - paid)

		status := "PENDING"
		overdue := s.DueDate < today && remaining > 0
		switch {
		case remaining == 0:
			status = "PAID"
		case overdue:
			status = "OVERDUE"
			l.arrears += remaining
		case paid > 0:
			status = "PARTIAL"
		}

		l.schedules = append(l.schedules, models.LoanSchedule{
			ScheduleID:      s.ID,
			LoanID:          loan.ID,
			DueDate:         s.DueDate,
			ExpectedAmount:  s.ExpectedAmount,
			PaidAmount:      round2(paid),
			RemainingAmount: remaining,
			OffTrack:        overdue,
			Status:          status,
		})
	}
	l.arrears = round2(l.arrears)
	return l
}

// toDetail renders a loan with its repayment progress
func (l ledger) toDetail(loan *loanRecord) models.LoanDetail {
	outstanding := round2(math.Max(loan.TotalLoanAmount-l.repaid, 0))
	var percentage float64
	if loan.TotalLoanAmount > 0 {
		percentage = round2(l.repaid / loan.TotalLoanAmount * 100)
	}

	return models.LoanDetail{
		Loan: models.Loan{
			LoanID:              loan.ID,
			CustomerID:          loan.CustomerID,
			CustomerName:        loan.Customer.FullName,
			TotalLoanAmount:     loan.TotalLoanAmount,
			PrincipalAmount:     loan.PrincipalAmount,
			InterestAmount:      loan.InterestAmount,
			InterestRate:        loan.InterestRate,
			LoanStatus:          models.LoanStatus(loan.LoanStatus),
			ApplicationDate:     loan.ApplicationDate,
			ApprovalDate:        loan.ApplicationDate,
			DisbursementDate:    loan.DisbursementDate,
			DueDate:             loan.DueDate,
			LoanOfficerID:       loan.LoanOfficerID,
			LoanOfficerName:     loan.LoanOfficer.fullName(),
			CustomerPhoneNumber: loan.Customer.PhoneNumber,
			LoanReference:       loan.LoanReference,
			DateCreated:         loan.CreatedAt.UTC().Format(time.RFC3339),
		},
		DisbursementCost:          loan.DisbursementCost,
		DisbursementMethod:        models.DisbursementMethod(loan.DisbursementMethod),
		TenureValue:               loan.TenureValue,
		TenureUnit:                models.TenureUnit(loan.TenureUnit),
		InstallmentAmount:         loan.InstallmentAmount,
		TotalRepaid:               l.repaid,
		OutstandingBalance:        &outstanding,
		RepaymentPercentage:       percentage,
		Arrears:                   l.arrears,
		TotalPaid:                 l.repaid,
		RemainingToSeventyPercent: round2(math.Max(loan.TotalLoanAmount*0.7-l.repaid, 0)),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
