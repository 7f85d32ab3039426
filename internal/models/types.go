package models

// User represents the signed-in console user as stored locally
type User struct {
	ID          int64        `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	FirstName   string       `json:"firstName"`
	LastName    string       `json:"lastName"`
	Role        UserRole     `json:"role"`
	Permissions []Permission `json:"permissions"`
	IsActive    bool         `json:"isActive"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
}

// FullName joins the first and last name
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// LoginCredentials is the body posted to the sign-in endpoints
type LoginCredentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthTokens carries the access token issued at login. The backend issues no
// refresh token, so RefreshToken mirrors AccessToken.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse is what a successful login returns to the caller
type LoginResponse struct {
	User   *User      `json:"user"`
	Tokens AuthTokens `json:"tokens"`
}

// Customer represents a borrower record
type Customer struct {
	CustomerID             int64         `json:"customerId"`
	FirstName              string        `json:"firstName"`
	MiddleName             string        `json:"middleName,omitempty"`
	LastName               string        `json:"lastName"`
	OtherNames             string        `json:"otherNames,omitempty"`
	FullName               string        `json:"fullName"`
	IDNumber               string        `json:"idNumber"`
	DateOfBirth            string        `json:"dateOfBirth"`
	Gender                 Gender        `json:"gender"`
	MaritalStatus          MaritalStatus `json:"maritalStatus"`
	PhoneNumber            string        `json:"phoneNumber"`
	AlternativePhoneNumber string        `json:"alternativePhoneNumber,omitempty"`
	EmailAddress           string        `json:"emailAddress"`
	ResidentialAddress     string        `json:"residentialAddress"`
	MobileMoneyNumber      string        `json:"mobileMoneyNumber"`
	TownOrArea             string        `json:"townOrArea"`
	Status                 string        `json:"status,omitempty"`
	LoanOfficerID          int64         `json:"loanOfficerId"`
	DateCreated            string        `json:"dateCreated,omitempty"`
	DateUpdated            string        `json:"dateUpdated,omitempty"`
	CreatedBy              *string       `json:"createdBy,omitempty"`
	UpdatedBy              *string       `json:"updatedBy,omitempty"`
	PasswordChanged        bool          `json:"passwordChanged,omitempty"`
}

// CreateCustomerDTO is the body for creating or updating a customer
type CreateCustomerDTO struct {
	FirstName              string        `json:"firstName" validate:"required"`
	MiddleName             *string       `json:"middleName"`
	LastName               string        `json:"lastName" validate:"required"`
	OtherNames             *string       `json:"otherNames"`
	FullName               string        `json:"fullName" validate:"required"`
	IDNumber               string        `json:"idNumber" validate:"required,ke_id"`
	DateOfBirth            string        `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Gender                 Gender        `json:"gender" validate:"required,oneof=MALE FEMALE OTHER"`
	MaritalStatus          MaritalStatus `json:"maritalStatus" validate:"required,oneof=SINGLE MARRIED DIVORCED WIDOWED"`
	PhoneNumber            string        `json:"phoneNumber" validate:"required,ke_phone"`
	AlternativePhoneNumber string        `json:"alternativePhoneNumber,omitempty" validate:"omitempty,ke_phone"`
	EmailAddress           string        `json:"emailAddress" validate:"required,email"`
	ResidentialAddress     string        `json:"residentialAddress" validate:"required"`
	MobileMoneyNumber      string        `json:"mobileMoneyNumber" validate:"required,ke_phone"`
	TownOrArea             string        `json:"townOrArea" validate:"required"`
	LoanOfficerID          int64         `json:"loanOfficerId" validate:"required,gt=0"`
	Status                 string        `json:"status,omitempty"`
}

// UpdateFieldRequest changes a single customer column
type UpdateFieldRequest struct {
	ColumnName string `json:"columnName" validate:"required"`
	NewValue   any    `json:"newValue"`
	UpdatedBy  int64  `json:"updatedBy" validate:"required"`
}

// ChangePasswordRequest changes a customer's mobile app password
type ChangePasswordRequest struct {
	IDNumber    string `json:"idNumber" validate:"required,ke_id"`
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=4,nefield=OldPassword"`
}

// Loan is the summary view of a loan
type Loan struct {
	LoanID              int64      `json:"loanId"`
	CustomerID          int64      `json:"customerId"`
	CustomerName        string     `json:"customerName"`
	TotalLoanAmount     float64    `json:"totalLoanAmount"`
	PrincipalAmount     float64    `json:"principalAmount"`
	InterestAmount      float64    `json:"interestAmount"`
	InterestRate        float64    `json:"interestRate,omitempty"`
	LoanStatus          LoanStatus `json:"loanStatus"`
	ApplicationDate     string     `json:"applicationDate,omitempty"`
	ApprovalDate        string     `json:"approvalDate,omitempty"`
	DisbursementDate    string     `json:"disbursementDate,omitempty"`
	DueDate             string     `json:"dueDate,omitempty"`
	LoanOfficerID       int64      `json:"loanOfficerId"`
	LoanOfficerName     string     `json:"loanOfficerName"`
	CustomerPhoneNumber string     `json:"customerPhoneNumber,omitempty"`
	LoanReference       string     `json:"loanReference,omitempty"`
	DateCreated         string     `json:"dateCreated,omitempty"`
}

// LoanDetail extends Loan with repayment progress
type LoanDetail struct {
	Loan
	DisbursementCost          float64            `json:"disbursementCost,omitempty"`
	DisbursementMethod        DisbursementMethod `json:"disbursementMethod"`
	TenureValue               int                `json:"tenureValue,omitempty"`
	TenureUnit                TenureUnit         `json:"tenureUnit,omitempty"`
	InstallmentAmount         float64            `json:"installmentAmount,omitempty"`
	TotalRepaid               float64            `json:"totalRepaid,omitempty"`
	OutstandingBalance        *float64           `json:"outstandingBalance,omitempty"`
	RepaymentPercentage       float64            `json:"repaymentPercentage,omitempty"`
	Arrears                   float64            `json:"arrears,omitempty"`
	TotalPaid                 float64            `json:"totalPaid,omitempty"`
	RemainingToSeventyPercent float64            `json:"remainingToSeventyPercent,omitempty"`
}

// CreateLoanDTO is the body for originating a loan
type CreateLoanDTO struct {
	CustomerID         int64              `json:"customerId" validate:"required,gt=0"`
	PrincipalAmount    float64            `json:"principalAmount" validate:"required,gt=0"`
	TenureValue        int                `json:"tenureValue" validate:"required,gt=0"`
	TenureUnit         TenureUnit         `json:"tenureUnit" validate:"required,oneof=DAYS WEEKS MONTHS"`
	DisbursementDate   string             `json:"disbursementDate" validate:"required,datetime=2006-01-02"`
	DisbursementCost   float64            `json:"disbursementCost" validate:"gte=0"`
	DisbursementMethod DisbursementMethod `json:"disbursementMethod" validate:"required,oneof=MPESA BANK_TRANSFER CASH"`
	LoanOfficerID      int64              `json:"loanOfficerId" validate:"required,gt=0"`
}

// LoanSchedule is one installment of a loan's repayment schedule
type LoanSchedule struct {
	ScheduleID      int64   `json:"scheduleId"`
	LoanID          int64   `json:"loanId,omitempty"`
	DueDate         string  `json:"dueDate"`
	ExpectedAmount  float64 `json:"expectedAmount"`
	PaidAmount      float64 `json:"paidAmount"`
	RemainingAmount float64 `json:"remainingAmount"`
	OffTrack        bool    `json:"offTrack"`
	Status          string  `json:"status,omitempty"`
}

// LoanRepayment is a single payment received against a loan
type LoanRepayment struct {
	RepaymentID          int64   `json:"repaymentId,omitempty"`
	LoanID               int64   `json:"loanId,omitempty"`
	Amount               float64 `json:"amount,omitempty"`
	AmountPaid           float64 `json:"amountPaid,omitempty"`
	PaymentDate          string  `json:"paymentDate"`
	PaymentMethod        string  `json:"paymentMethod,omitempty"`
	PaymentChannel       string  `json:"paymentChannel,omitempty"`
	TransactionReference string  `json:"transactionReference,omitempty"`
	MpesaReference       string  `json:"mpesaReference,omitempty"`
	PrincipalPaid        float64 `json:"principalPaid,omitempty"`
	InterestPaid         float64 `json:"interestPaid,omitempty"`
	PenaltyPaid          float64 `json:"penaltyPaid,omitempty"`
	Notes                string  `json:"notes,omitempty"`
}

// LoanCalculatorRequest asks the backend to price a loan
type LoanCalculatorRequest struct {
	PrincipalAmount float64    `json:"principalAmount" validate:"required,gt=0"`
	TenureValue     int        `json:"tenureValue" validate:"required,gt=0"`
	TenureUnit      TenureUnit `json:"tenureUnit" validate:"required,oneof=DAYS WEEKS MONTHS"`
}

// LoanTopUpRequest asks the backend to price a top-up on an existing loan
type LoanTopUpRequest struct {
	LoanID      int64      `json:"loanId" validate:"required,gt=0"`
	TopUpAmount float64    `json:"topUpAmount" validate:"required,gt=0"`
	TenureValue int        `json:"tenureValue" validate:"required,gt=0"`
	TenureUnit  TenureUnit `json:"tenureUnit" validate:"required,oneof=DAYS WEEKS MONTHS"`
}

// LoanCalculatorResponse is the backend's quote
type LoanCalculatorResponse struct {
	PrincipalAmount      float64    `json:"principalAmount"`
	InterestRate         float64    `json:"interestRate"`
	InterestAmount       float64    `json:"interestAmount"`
	TotalAmount          float64    `json:"totalAmount"`
	InstallmentAmount    float64    `json:"installmentAmount"`
	NumberOfInstallments int        `json:"numberOfInstallments"`
	TenureValue          int        `json:"tenureValue"`
	TenureUnit           TenureUnit `json:"tenureUnit"`
}

// LoanOfficer is a field agent who owns customers and loans
type LoanOfficer struct {
	LoanOfficerID   int64  `json:"loanOfficerId"`
	FirstName       string `json:"firstName"`
	MiddleName      string `json:"middleName,omitempty"`
	LastName        string `json:"lastName"`
	OtherNames      string `json:"otherNames,omitempty"`
	FullName        string `json:"fullName"`
	Username        string `json:"username"`
	Email           string `json:"email,omitempty"`
	PhoneNumber     string `json:"phoneNumber"`
	Active          bool   `json:"active"`
	PasswordChanged bool   `json:"passwordChanged,omitempty"`
	CustomersCount  int    `json:"customersCount,omitempty"`
	LoansCount      int    `json:"loansCount,omitempty"`
	DateCreated     string `json:"dateCreated,omitempty"`
}

// CreateLoanOfficerDTO is the body for registering a loan officer
type CreateLoanOfficerDTO struct {
	FirstName   string `json:"firstName" validate:"required"`
	MiddleName  string `json:"middleName,omitempty"`
	LastName    string `json:"lastName" validate:"required"`
	OtherNames  string `json:"otherNames,omitempty"`
	Username    string `json:"username" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required,ke_phone"`
}

// DashboardStats holds the portfolio headline numbers
type DashboardStats struct {
	TotalCustomers   int     `json:"totalCustomers"`
	TotalLoans       int     `json:"totalLoans"`
	ActiveLoans      int     `json:"activeLoans"`
	TotalDisbursed   float64 `json:"totalDisbursed"`
	PendingApprovals int     `json:"pendingApprovals"`
	DefaultedLoans   int     `json:"defaultedLoans"`
}
