package mockapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kassolend/console/internal/models"
)

// InitialOfficerPassword is the password a newly registered loan officer
// signs in with until they change it
const InitialOfficerPassword = "changeme123"

type officerCounts struct {
	LoanOfficerID int64
	Count         int
}

// countByOfficer groups model's rows by loan officer
func (s *Server) countByOfficer(model any) (map[int64]int, error) {
	var rows []officerCounts
	err := s.db.Model(model).
		Select("loan_officer_id, COUNT(*) AS count").
		Group("loan_officer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(rows))
	for _, r := range rows {
		out[r.LoanOfficerID] = r.Count
	}
	return out, nil
}

// listLoanOfficers answers a wrapped array
func (s *Server) listLoanOfficers(c *gin.Context) {
	var accounts []accountRecord
	if err := s.db.Where("role = ?", string(models.RoleLoanOfficer)).Order("first_name, last_name").Find(&accounts).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list loan officers")
		internalError(c)
		return
	}

	customers, err := s.countByOfficer(&customerRecord{})
	if err != nil {
		internalError(c)
		return
	}
	loans, err := s.countByOfficer(&loanRecord{})
	if err != nil {
		internalError(c)
		return
	}

	out := make([]models.LoanOfficer, len(accounts))
	for i := range accounts {
		out[i] = accounts[i].toOfficer(customers[accounts[i].ID], loans[accounts[i].ID])
	}
	wrapped(c, http.StatusOK, "", out)
}

// getLoanOfficer answers a bare object
func (s *Server) getLoanOfficer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var account accountRecord
	err := s.db.Where("id = ? AND role = ?", id, string(models.RoleLoanOfficer)).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "Loan officer not found")
			return
		}
		internalError(c)
		return
	}

	var customers, loans int64
	s.db.Model(&customerRecord{}).Where("loan_officer_id = ?", id).Count(&customers)
	s.db.Model(&loanRecord{}).Where("loan_officer_id = ?", id).Count(&loans)
	c.JSON(http.StatusOK, account.toOfficer(int(customers), int(loans)))
}

// @Summary Register loan officer
// @Description The officer signs in with InitialOfficerPassword until they change it
// @Tags loan-officers
// @Router /api/loan-officers [post]
func (s *Server) createLoanOfficer(c *gin.Context) {
	var dto models.CreateLoanOfficerDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(dto); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var count int64
	if err := s.db.Model(&accountRecord{}).Where("LOWER(username) = LOWER(?)", dto.Username).Count(&count).Error; err != nil {
		internalError(c)
		return
	}
	if count > 0 {
		fail(c, http.StatusConflict, "Username is already taken")
		return
	}

	hash, err := s.hashPassword(InitialOfficerPassword)
	if err != nil {
		internalError(c)
		return
	}

	account := accountRecord{
		Username:     dto.Username,
		FirstName:    dto.FirstName,
		MiddleName:   dto.MiddleName,
		LastName:     dto.LastName,
		OtherNames:   dto.OtherNames,
		PhoneNumber:  dto.PhoneNumber,
		Role:         string(models.RoleLoanOfficer),
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.db.Create(&account).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create loan officer")
		internalError(c)
		return
	}

	s.logger.Info().
		Int64("loan_officer_id", account.ID).
		Str("created_by", currentAccount(c).Username).
		Msg("Loan officer created")

	wrapped(c, http.StatusCreated, "Loan officer created successfully", account.toOfficer(0, 0))
}
