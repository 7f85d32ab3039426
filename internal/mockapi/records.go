package mockapi

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/kassolend/console/internal/models"
)

const dateLayout = "2006-01-02"

// sessionRecord is an issued access token. Deleting the row revokes the token.
type sessionRecord struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)"`
	AccountID int64     `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (sessionRecord) TableName() string { return "sessions" }

// BeforeCreate generates a ULID for the ID field if it's empty
func (s *sessionRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = ulid.Make().String()
	}
	return nil
}

// accountRecord is a console user: an administrator or a loan officer
type accountRecord struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	Username        string `gorm:"uniqueIndex;not null"`
	Email           string
	FirstName       string `gorm:"not null"`
	MiddleName      string
	LastName        string
	OtherNames      string
	PhoneNumber     string
	Role            string `gorm:"not null"`
	PasswordHash    string `gorm:"not null"`
	PasswordChanged bool   `gorm:"not null;default:false"`
	Active          bool   `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (accountRecord) TableName() string { return "accounts" }

func (a *accountRecord) fullName() string {
	return joinNames(a.FirstName, a.MiddleName, a.LastName)
}

func (a *accountRecord) toUser() models.User {
	role := models.UserRole(a.Role)
	return models.User{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Role:        role,
		Permissions: models.RolePermissions[role],
		IsActive:    a.Active,
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (a *accountRecord) toOfficer(customers, loans int) models.LoanOfficer {
	return models.LoanOfficer{
		LoanOfficerID:   a.ID,
		FirstName:       a.FirstName,
		MiddleName:      a.MiddleName,
		LastName:        a.LastName,
		OtherNames:      a.OtherNames,
		FullName:        a.fullName(),
		Username:        a.Username,
		Email:           a.Email,
		PhoneNumber:     a.PhoneNumber,
		Active:          a.Active,
		PasswordChanged: a.PasswordChanged,
		CustomersCount:  customers,
		LoansCount:      loans,
		DateCreated:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// customerRecord is a borrower
type customerRecord struct {
	ID                     int64  `gorm:"primaryKey;autoIncrement"`
	FirstName              string `gorm:"not null"`
	MiddleName             string
	LastName               string `gorm:"not null"`
	OtherNames             string
	FullName               string `gorm:"not null"`
	IDNumber               string `gorm:"uniqueIndex;not null"`
	DateOfBirth            string
	Gender                 string
	MaritalStatus          string
	PhoneNumber            string `gorm:"not null"`
	AlternativePhoneNumber string
	EmailAddress           string
	ResidentialAddress     string
	MobileMoneyNumber      string
	TownOrArea             string
	Status                 string `gorm:"not null;default:ACTIVE"`
	LoanOfficerID          int64  `gorm:"not null;index"`
	PasswordHash           string `gorm:"not null"`
	PasswordChanged        bool   `gorm:"not null;default:false"`
	CreatedBy              string
	UpdatedBy              string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (customerRecord) TableName() string { return "customers" }

func (c *customerRecord) toModel() models.Customer {
	out := models.Customer{
		CustomerID:             c.ID,
		FirstName:              c.FirstName,
		MiddleName:             c.MiddleName,
		LastName:               c.LastName,
		OtherNames:             c.OtherNames,
		FullName:               c.FullName,
		IDNumber:               c.IDNumber,
		DateOfBirth:            c.DateOfBirth,
		Gender:                 models.Gender(c.Gender),
		MaritalStatus:          models.MaritalStatus(c.MaritalStatus),
		PhoneNumber:            c.PhoneNumber,
		AlternativePhoneNumber: c.AlternativePhoneNumber,
		EmailAddress:           c.EmailAddress,
		ResidentialAddress:     c.ResidentialAddress,
		MobileMoneyNumber:      c.MobileMoneyNumber,
		TownOrArea:             c.TownOrArea,
		Status:                 c.Status,
		LoanOfficerID:          c.LoanOfficerID,
		DateCreated:            c.CreatedAt.UTC().Format(time.RFC3339),
		DateUpdated:            c.UpdatedAt.UTC().Format(time.RFC3339),
		PasswordChanged:        c.PasswordChanged,
	}
	if c.CreatedBy != "" {
		out.CreatedBy = &c.CreatedBy
	}
	if c.UpdatedBy != "" {
		out.UpdatedBy = &c.UpdatedBy
	}
	return out
}

// applyDTO copies the editable fields of dto onto the record
func (c *customerRecord) applyDTO(dto models.CreateCustomerDTO) {
	c.FirstName = dto.FirstName
	c.MiddleName = deref(dto.MiddleName)
	c.LastName = dto.LastName
	c.OtherNames = deref(dto.OtherNames)
	c.FullName = dto.FullName
	c.IDNumber = dto.IDNumber
	c.DateOfBirth = dto.DateOfBirth
	c.Gender = string(dto.Gender)
	c.MaritalStatus = string(dto.MaritalStatus)
	c.PhoneNumber = dto.PhoneNumber
	c.AlternativePhoneNumber = dto.AlternativePhoneNumber
	c.EmailAddress = dto.EmailAddress
	c.ResidentialAddress = dto.ResidentialAddress
	c.MobileMoneyNumber = dto.MobileMoneyNumber
	c.TownOrArea = dto.TownOrArea
	c.LoanOfficerID = dto.LoanOfficerID
	if dto.Status != "" {
		c.Status = dto.Status
	}
}

// customerColumns maps the wire names accepted by update-field to columns
var customerColumns = map[string]string{
	"firstName":              "first_name",
	"middleName":             "middle_name",
	"lastName":               "last_name",
	"otherNames":             "other_names",
	"fullName":               "full_name",
	"dateOfBirth":            "date_of_birth",
	"gender":                 "gender",
	"maritalStatus":          "marital_status",
	"phoneNumber":            "phone_number",
	"alternativePhoneNumber": "alternative_phone_number",
	"emailAddress":           "email_address",
	"residentialAddress":     "residential_address",
	"mobileMoneyNumber":      "mobile_money_number",
	"townOrArea":             "town_or_area",
	"status":                 "status",
	"loanOfficerId":          "loan_officer_id",
}

// loanRecord is an originated loan with its schedule and payments
type loanRecord struct {
	ID                 int64  `gorm:"primaryKey;autoIncrement"`
	LoanReference      string `gorm:"uniqueIndex;not null"`
	CustomerID         int64  `gorm:"not null;index"`
	LoanOfficerID      int64  `gorm:"not null;index"`
	PrincipalAmount    float64
	InterestRate       float64
	InterestAmount     float64
	TotalLoanAmount    float64
	DisbursementCost   float64
	DisbursementMethod string
	TenureValue        int
	TenureUnit         string
	InstallmentAmount  float64
	LoanStatus         string `gorm:"not null;index"`
	ApplicationDate    string
	DisbursementDate   string
	DueDate            string
	CreatedAt          time.Time

	// Relationships
	Customer    customerRecord    `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT"`
	LoanOfficer accountRecord     `gorm:"foreignKey:LoanOfficerID"`
	Schedules   []scheduleRecord  `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE"`
	Repayments  []repaymentRecord `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE"`
}

func (loanRecord) TableName() string { return "loans" }

type scheduleRecord struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	LoanID         int64  `gorm:"not null;index"`
	DueDate        string `gorm:"not null"`
	ExpectedAmount float64
}

func (scheduleRecord) TableName() string { return "loan_schedules" }

type repaymentRecord struct {
	ID                   int64  `gorm:"primaryKey;autoIncrement"`
	LoanID               int64  `gorm:"not null;index"`
	Amount               float64
	PaymentDate          string `gorm:"not null"`
	PaymentMethod        string
	TransactionReference string
	Notes                string
	CreatedAt            time.Time
}

func (repaymentRecord) TableName() string { return "loan_repayments" }

func (r *repaymentRecord) toModel() models.LoanRepayment {
	out := models.LoanRepayment{
		RepaymentID:          r.ID,
		LoanID:               r.LoanID,
		Amount:               r.Amount,
		AmountPaid:           r.Amount,
		PaymentDate:          r.PaymentDate,
		PaymentMethod:        r.PaymentMethod,
		TransactionReference: r.TransactionReference,
		Notes:                r.Notes,
	}
	if r.PaymentMethod == string(models.DisbursementMpesa) {
		out.MpesaReference = r.TransactionReference
	}
	return out
}

// AutoMigrate runs database migrations for all records
func AutoMigrate(db *gorm.DB) error {
	records := []interface{}{
		&accountRecord{}, &sessionRecord{}, &customerRecord{},
		&loanRecord{}, &scheduleRecord{}, &repaymentRecord{},
	}
	return db.AutoMigrate(records...)
}

func joinNames(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
