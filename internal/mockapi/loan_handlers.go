package mockapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kassolend/console/internal/models"
)

// activeStatuses are the statuses of a loan still being repaid
var activeStatuses = []string{string(models.LoanActive), string(models.LoanDisbursed)}

// loadLoans runs query against the loans table with every relation preloaded
func (s *Server) loadLoans(query *gorm.DB) ([]loanRecord, error) {
	var loans []loanRecord
	err := query.
		Preload("Customer").
		Preload("LoanOfficer").
		Preload("Schedules", func(db *gorm.DB) *gorm.DB { return db.Order("due_date, id") }).
		Preload("Repayments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date, id") }).
		Find(&loans).Error
	return loans, err
}

func (s *Server) today() string {
	return s.now().Format(dateLayout)
}

func (s *Server) loanDetails(loans []loanRecord) []models.LoanDetail {
	today := s.today()
	out := make([]models.LoanDetail, len(loans))
	for i := range loans {
		out[i] = computeLedger(&loans[i], today).toDetail(&loans[i])
	}
	return out
}

// findLoan loads one loan visible to the caller, writing a 404 if none
func (s *Server) findLoan(c *gin.Context, id int64) (*loanRecord, bool) {
	loans, err := s.loadLoans(s.db.Scopes(scopeToOfficer(c)).Where("id = ?", id).Limit(1))
	if err != nil {
		s.logger.Error().Err(err).Int64("loan_id", id).Msg("Failed to find loan")
		internalError(c)
		return nil, false
	}
	if len(loans) == 0 {
		fail(c, http.StatusNotFound, "Loan not found")
		return nil, false
	}
	return &loans[0], true
}

// @Summary List loans
// @Description Answers a Spring page inside the wrapped envelope
// @Tags loans
// @Router /api/loans [get]
func (s *Server) listLoans(c *gin.Context) {
	page, size := pageParams(c)

	query := s.db.Model(&loanRecord{}).Scopes(scopeToOfficer(c))
	if v := c.Query("customerId"); v != "" {
		query = query.Where("customer_id = ?", v)
	}
	if v := c.Query("loanReference"); v != "" {
		query = query.Where("loan_reference = ?", v)
	}
	if v := c.Query("loanStatus"); v != "" {
		query = query.Where("loan_status = ?", strings.ToUpper(v))
	}
	if v := c.Query("loanOfficerId"); v != "" {
		query = query.Where("loan_officer_id = ?", v)
	}
	if v := c.Query("fromDate"); v != "" {
		query = query.Where("disbursement_date >= ?", v)
	}
	if v := c.Query("toDate"); v != "" {
		query = query.Where("disbursement_date <= ?", v)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count loans")
		internalError(c)
		return
	}

	loans, err := s.loadLoans(query.Order("created_at DESC, id DESC").Offset(page * size).Limit(size))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list loans")
		internalError(c)
		return
	}

	wrapped(c, http.StatusOK, "", newSpringPage(s.loanDetails(loans), total, page, size))
}

func (s *Server) getLoan(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	loan, ok := s.findLoan(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, computeLedger(loan, s.today()).toDetail(loan))
}

// loanSchedules answers {schedules: [...]}
func (s *Server) loanSchedules(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	loan, ok := s.findLoan(c, id)
	if !ok {
		return
	}
	schedules := computeLedger(loan, s.today()).schedules
	if schedules == nil {
		schedules = []models.LoanSchedule{}
	}
	c.JSON(http.StatusOK, gin.H{"loanId": loan.ID, "schedules": schedules})
}

func repaymentModels(records []repaymentRecord) []models.LoanRepayment {
	out := make([]models.LoanRepayment, len(records))
	for i := range records {
		out[i] = records[i].toModel()
	}
	return out
}

// loanRepayments answers a wrapped array
func (s *Server) loanRepayments(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	loan, ok := s.findLoan(c, id)
	if !ok {
		return
	}
	wrapped(c, http.StatusOK, "", repaymentModels(loan.Repayments))
}

// statementRepayments answers {data: [...]} inside the wrapped envelope
func (s *Server) statementRepayments(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("loanId"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "loanId is required")
		return
	}
	loan, ok := s.findLoan(c, id)
	if !ok {
		return
	}
	wrapped(c, http.StatusOK, "", gin.H{"data": repaymentModels(loan.Repayments)})
}

// @Summary Create loan
// @Description Originates and disburses a loan at the flat rate
// @Tags loans
// @Router /api/loans [post]
func (s *Server) createLoan(c *gin.Context) {
	var dto models.CreateLoanDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(dto); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	account := currentAccount(c)
	if account.Role == string(models.RoleLoanOfficer) {
		dto.LoanOfficerID = account.ID
	}

	customer, ok := s.findCustomer(c, dto.CustomerID)
	if !ok {
		return
	}
	if exists, err := s.officerExists(dto.LoanOfficerID); err != nil {
		internalError(c)
		return
	} else if !exists {
		fail(c, http.StatusBadRequest, "Loan officer not found")
		return
	}

	var running int64
	err := s.db.Model(&loanRecord{}).
		Where("customer_id = ? AND loan_status IN ?", customer.ID, activeStatuses).
		Count(&running).Error
	if err != nil {
		internalError(c)
		return
	}
	if running > 0 {
		fail(c, http.StatusConflict, "Customer already has an active loan")
		return
	}

	disbursed, _ := time.Parse(dateLayout, dto.DisbursementDate)
	q := quote(dto.PrincipalAmount, dto.TenureValue, dto.TenureUnit)
	schedules := buildSchedule(q, disbursed)

	loan := loanRecord{
		LoanReference:      newLoanReference(),
		CustomerID:         customer.ID,
		LoanOfficerID:      dto.LoanOfficerID,
		PrincipalAmount:    q.PrincipalAmount,
		InterestRate:       q.InterestRate,
		InterestAmount:     q.InterestAmount,
		TotalLoanAmount:    q.TotalAmount,
		DisbursementCost:   dto.DisbursementCost,
		DisbursementMethod: string(dto.DisbursementMethod),
		TenureValue:        dto.TenureValue,
		TenureUnit:         string(dto.TenureUnit),
		InstallmentAmount:  q.InstallmentAmount,
		LoanStatus:         string(models.LoanActive),
		ApplicationDate:    s.today(),
		DisbursementDate:   dto.DisbursementDate,
		DueDate:            schedules[len(schedules)-1].DueDate,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&loan).Error; err != nil {
			return err
		}
		for i := range schedules {
			schedules[i].LoanID = loan.ID
		}
		return tx.Create(&schedules).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create loan")
		internalError(c)
		return
	}

	s.logger.Info().Int64("loan_id", loan.ID).Str("reference", loan.LoanReference).Msg("Loan created")

	created, ok := s.findLoan(c, loan.ID)
	if !ok {
		return
	}
	wrapped(c, http.StatusCreated, "Loan created successfully", computeLedger(created, s.today()).toDetail(created))
}

// newLoanReference uses the random tail of a ULID so references made in the
// same millisecond still differ
func newLoanReference() string {
	id := ulid.Make().String()
	return "KL-" + id[len(id)-8:]
}

func (s *Server) calculateInstallment(c *gin.Context) {
	var req models.LoanCalculatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	wrapped(c, http.StatusOK, "", quote(req.PrincipalAmount, req.TenureValue, req.TenureUnit))
}

// calculateTopUp prices the outstanding balance plus the top-up as a new loan
func (s *Server) calculateTopUp(c *gin.Context) {
	var req models.LoanTopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	loan, ok := s.findLoan(c, req.LoanID)
	if !ok {
		return
	}
	detail := computeLedger(loan, s.today()).toDetail(loan)
	if detail.RemainingToSeventyPercent > 0 {
		fail(c, http.StatusBadRequest, "Loan must be at least 70% repaid before a top-up")
		return
	}

	outstanding := 0.0
	if detail.OutstandingBalance != nil {
		outstanding = *detail.OutstandingBalance
	}
	wrapped(c, http.StatusOK, "", quote(outstanding+req.TopUpAmount, req.TenureValue, req.TenureUnit))
}
