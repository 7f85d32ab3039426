package mockapi

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kassolend/console/internal/models"
)

// Demo credentials seeded into an empty database
const (
	DemoUsername        = "demo"
	DemoPassword        = "demo123"
	DemoOfficerUsername = "officer"
	DemoOfficerPassword = "officer123"
)

type seedLoan struct {
	principal    float64
	tenure       int
	unit         models.TenureUnit
	daysAgo      int
	repaidAmount float64
}

type seedCustomer struct {
	dto  models.CreateCustomerDTO
	loan *seedLoan
}

func seedCustomers() []seedCustomer {
	return []seedCustomer{
		{
			dto: models.CreateCustomerDTO{
				FirstName: "Jane", LastName: "Wanjiru", FullName: "Jane Wanjiru",
				IDNumber: "12345678", DateOfBirth: "1990-04-12",
				Gender: models.GenderFemale, MaritalStatus: models.MaritalMarried,
				PhoneNumber: "254712345678", EmailAddress: "jane.wanjiru@example.com",
				ResidentialAddress: "Kilimani", MobileMoneyNumber: "254712345678", TownOrArea: "Nairobi",
			},
			loan: &seedLoan{principal: 10000, tenure: 4, unit: models.TenureWeeks, daysAgo: 15, repaidAmount: 3000},
		},
		{
			dto: models.CreateCustomerDTO{
				FirstName: "Brian", LastName: "Kiprop", FullName: "Brian Kiprop",
				IDNumber: "23456789", DateOfBirth: "1985-11-02",
				Gender: models.GenderMale, MaritalStatus: models.MaritalSingle,
				PhoneNumber: "254723456789", EmailAddress: "brian.kiprop@example.com",
				ResidentialAddress: "Kapsoya", MobileMoneyNumber: "254723456789", TownOrArea: "Eldoret",
			},
			loan: &seedLoan{principal: 20000, tenure: 3, unit: models.TenureMonths, daysAgo: 40, repaidAmount: 8000},
		},
		{
			dto: models.CreateCustomerDTO{
				FirstName: "Mary", LastName: "Achieng", FullName: "Mary Achieng",
				IDNumber: "3456789", DateOfBirth: "1994-07-21",
				Gender: models.GenderFemale, MaritalStatus: models.MaritalSingle,
				PhoneNumber: "254734567890", EmailAddress: "mary.achieng@example.com",
				ResidentialAddress: "Milimani", MobileMoneyNumber: "254734567890", TownOrArea: "Kisumu",
			},
		},
	}
}

// seed fills an empty database with the demo accounts and a small portfolio
func (s *Server) seed() error {
	var count int64
	if err := s.db.Model(&accountRecord{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		adminHash, err := s.hashPassword(DemoPassword)
		if err != nil {
			return err
		}
		admin := accountRecord{
			Username: DemoUsername, Email: "admin@demo.com",
			FirstName: "Demo", LastName: "Admin",
			Role: string(models.RoleAdmin), PasswordHash: adminHash,
			PasswordChanged: true, Active: true,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}

		officerHash, err := s.hashPassword(DemoOfficerPassword)
		if err != nil {
			return err
		}
		officer := accountRecord{
			Username: DemoOfficerUsername, Email: "peter.otieno@demo.com",
			FirstName: "Peter", LastName: "Otieno", PhoneNumber: "254722000111",
			Role: string(models.RoleLoanOfficer), PasswordHash: officerHash,
			PasswordChanged: true, Active: true,
		}
		if err := tx.Create(&officer).Error; err != nil {
			return fmt.Errorf("failed to seed loan officer: %w", err)
		}

		now := s.now()
		for _, sc := range seedCustomers() {
			pin, err := s.hashPassword(sc.dto.PhoneNumber[len(sc.dto.PhoneNumber)-4:])
			if err != nil {
				return err
			}
			customer := customerRecord{Status: "ACTIVE", PasswordHash: pin, CreatedBy: admin.Username}
			sc.dto.LoanOfficerID = officer.ID
			customer.applyDTO(sc.dto)
			if err := tx.Create(&customer).Error; err != nil {
				return fmt.Errorf("failed to seed customer %s: %w", sc.dto.FullName, err)
			}

			if sc.loan == nil {
				continue
			}
			if err := seedLoanFor(tx, &customer, officer.ID, *sc.loan, now); err != nil {
				return err
			}
		}

		s.logger.Info().Str("username", DemoUsername).Msg("Seeded demo data")
		return nil
	})
}

func seedLoanFor(tx *gorm.DB, customer *customerRecord, officerID int64, sl seedLoan, now time.Time) error {
	disbursed := now.AddDate(0, 0, -sl.daysAgo)
	q := quote(sl.principal, sl.tenure, sl.unit)
	schedules := buildSchedule(q, disbursed)

	loan := loanRecord{
		LoanReference:      newLoanReference(),
		CustomerID:         customer.ID,
		LoanOfficerID:      officerID,
		PrincipalAmount:    q.PrincipalAmount,
		InterestRate:       q.InterestRate,
		InterestAmount:     q.InterestAmount,
		TotalLoanAmount:    q.TotalAmount,
		DisbursementMethod: string(models.DisbursementMpesa),
		TenureValue:        sl.tenure,
		TenureUnit:         string(sl.unit),
		InstallmentAmount:  q.InstallmentAmount,
		LoanStatus:         string(models.LoanActive),
		ApplicationDate:    disbursed.Format(dateLayout),
		DisbursementDate:   disbursed.Format(dateLayout),
		DueDate:            schedules[len(schedules)-1].DueDate,
	}
	if err := tx.Omit(clause.Associations).Create(&loan).Error; err != nil {
		return fmt.Errorf("failed to seed loan: %w", err)
	}
	for i := range schedules {
		schedules[i].LoanID = loan.ID
	}
	if err := tx.Create(&schedules).Error; err != nil {
		return fmt.Errorf("failed to seed schedule: %w", err)
	}

	if sl.repaidAmount > 0 {
		repayment := repaymentRecord{
			LoanID:               loan.ID,
			Amount:               sl.repaidAmount,
			PaymentDate:          disbursed.AddDate(0, 0, 7).Format(dateLayout),
			PaymentMethod:        string(models.DisbursementMpesa),
			TransactionReference: "QK" + loan.LoanReference[len(loan.LoanReference)-6:],
		}
		if err := tx.Create(&repayment).Error; err != nil {
			return fmt.Errorf("failed to seed repayment: %w", err)
		}
	}
	return nil
}
