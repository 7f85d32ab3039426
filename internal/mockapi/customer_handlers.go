package mockapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kassolend/console/internal/models"
)

// customerSortColumns maps accepted sortBy values to columns
var customerSortColumns = map[string]string{
	"customerId":  "id",
	"firstName":   "first_name",
	"lastName":    "last_name",
	"fullName":    "full_name",
	"dateCreated": "created_at",
	"status":      "status",
}

// pageParams reads the 0-indexed page and size query parameters
func pageParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page"))
	size, _ = strconv.Atoi(c.Query("size"))
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 100 {
		size = models.DefaultPageSize
	}
	return page, size
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

// findCustomer loads a customer visible to the caller, writing a 404 if none
func (s *Server) findCustomer(c *gin.Context, id int64) (*customerRecord, bool) {
	var customer customerRecord
	err := s.db.Scopes(scopeToOfficer(c)).Where("id = ?", id).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "Customer not found")
			return nil, false
		}
		s.logger.Error().Err(err).Int64("customer_id", id).Msg("Failed to find customer")
		internalError(c)
		return nil, false
	}
	return &customer, true
}

// @Summary List customers
// @Description Answers a bare Spring page
// @Tags customers
// @Router /api/customers [get]
func (s *Server) listCustomers(c *gin.Context) {
	page, size := pageParams(c)

	query := s.db.Model(&customerRecord{}).Scopes(scopeToOfficer(c))
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR id_number LIKE ? OR phone_number LIKE ?", like, like, like)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count customers")
		internalError(c)
		return
	}

	column, ok := customerSortColumns[c.Query("sortBy")]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(c.Query("sortOrder"), "asc") {
		direction = "ASC"
	}

	var records []customerRecord
	err := query.Order(fmt.Sprintf("%s %s, id %s", column, direction, direction)).
		Offset(page * size).Limit(size).Find(&records).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list customers")
		internalError(c)
		return
	}

	content := make([]models.Customer, len(records))
	for i := range records {
		content[i] = records[i].toModel()
	}
	c.JSON(http.StatusOK, newSpringPage(content, total, page, size))
}

// searchCustomers answers a bare array
func (s *Server) searchCustomers(c *gin.Context) {
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	if q == "" {
		c.JSON(http.StatusOK, []models.Customer{})
		return
	}

	like := "%" + q + "%"
	var records []customerRecord
	err := s.db.Scopes(scopeToOfficer(c)).
		Where("LOWER(full_name) LIKE ? OR id_number LIKE ? OR phone_number LIKE ?", like, like, like).
		Order("full_name").Limit(50).Find(&records).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to search customers")
		internalError(c)
		return
	}

	out := make([]models.Customer, len(records))
	for i := range records {
		out[i] = records[i].toModel()
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getCustomer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	customer, ok := s.findCustomer(c, id)
	if !ok {
		return
	}
	wrapped(c, http.StatusOK, "", customer.toModel())
}

// bindCustomer decodes and validates a customer body
func bindCustomer(c *gin.Context) (models.CreateCustomerDTO, bool) {
	var dto models.CreateCustomerDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return dto, false
	}
	if err := models.Validate(dto); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return dto, false
	}
	return dto, true
}

// officerExists reports whether id names an active loan officer
func (s *Server) officerExists(id int64) (bool, error) {
	var count int64
	err := s.db.Model(&accountRecord{}).
		Where("id = ? AND role = ? AND active = ?", id, string(models.RoleLoanOfficer), true).
		Count(&count).Error
	return count > 0, err
}

// @Summary Create customer
// @Tags customers
// @Router /api/customers [post]
func (s *Server) createCustomer(c *gin.Context) {
	dto, ok := bindCustomer(c)
	if !ok {
		return
	}

	account := currentAccount(c)
	if account.Role == string(models.RoleLoanOfficer) {
		dto.LoanOfficerID = account.ID
	}
	if exists, err := s.officerExists(dto.LoanOfficerID); err != nil {
		s.logger.Error().Err(err).Msg("Failed to check loan officer")
		internalError(c)
		return
	} else if !exists {
		fail(c, http.StatusBadRequest, "Loan officer not found")
		return
	}

	var count int64
	if err := s.db.Model(&customerRecord{}).Where("id_number = ?", dto.IDNumber).Count(&count).Error; err != nil {
		internalError(c)
		return
	}
	if count > 0 {
		fail(c, http.StatusConflict, "A customer with this ID number already exists")
		return
	}

	// The mobile app PIN starts as the last four digits of the phone number
	pin, err := s.hashPassword(dto.PhoneNumber[len(dto.PhoneNumber)-4:])
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash customer PIN")
		internalError(c)
		return
	}

	customer := customerRecord{Status: "ACTIVE", PasswordHash: pin, CreatedBy: account.Username}
	customer.applyDTO(dto)
	if err := s.db.Create(&customer).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create customer")
		internalError(c)
		return
	}

	s.logger.Info().Int64("customer_id", customer.ID).Str("created_by", account.Username).Msg("Customer created")
	wrapped(c, http.StatusCreated, "Customer created successfully", customer.toModel())
}

func (s *Server) updateCustomer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	customer, ok := s.findCustomer(c, id)
	if !ok {
		return
	}
	dto, ok := bindCustomer(c)
	if !ok {
		return
	}

	customer.applyDTO(dto)
	customer.UpdatedBy = currentAccount(c).Username
	if err := s.db.Save(customer).Error; err != nil {
		s.logger.Error().Err(err).Int64("customer_id", id).Msg("Failed to update customer")
		internalError(c)
		return
	}
	wrapped(c, http.StatusOK, "Customer updated successfully", customer.toModel())
}

// updateCustomerField changes one column named by its wire name
func (s *Server) updateCustomerField(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req models.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	column, known := customerColumns[req.ColumnName]
	if !known {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Field %s cannot be updated", req.ColumnName))
		return
	}
	customer, ok := s.findCustomer(c, id)
	if !ok {
		return
	}

	err := s.db.Model(customer).Updates(map[string]any{
		column:       req.NewValue,
		"updated_by": currentAccount(c).Username,
	}).Error
	if err != nil {
		s.logger.Error().Err(err).Str("column", column).Msg("Failed to update customer field")
		internalError(c)
		return
	}
	wrapped(c, http.StatusOK, "Customer updated successfully", nil)
}

func (s *Server) deleteCustomer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	customer, ok := s.findCustomer(c, id)
	if !ok {
		return
	}

	var loans int64
	if err := s.db.Model(&loanRecord{}).Where("customer_id = ?", id).Count(&loans).Error; err != nil {
		internalError(c)
		return
	}
	if loans > 0 {
		fail(c, http.StatusConflict, "Customer has active loans")
		return
	}

	if err := s.db.Delete(customer).Error; err != nil {
		s.logger.Error().Err(err).Int64("customer_id", id).Msg("Failed to delete customer")
		internalError(c)
		return
	}
	wrapped(c, http.StatusOK, "Customer deleted successfully", nil)
}

func (s *Server) changeCustomerPassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var customer customerRecord
	if err := s.db.Where("id_number = ?", req.IDNumber).First(&customer).Error; err != nil {
		fail(c, http.StatusNotFound, "Customer not found")
		return
	}
	if err := VerifyPassword(req.OldPassword, customer.PasswordHash); err != nil {
		fail(c, http.StatusBadRequest, "Old password is incorrect")
		return
	}

	hash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		internalError(c)
		return
	}
	err = s.db.Model(&customer).Updates(map[string]any{"password_hash": hash, "password_changed": true}).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to change customer password")
		internalError(c)
		return
	}
	wrapped(c, http.StatusOK, "Password changed successfully", nil)
}

// customerActiveLoans answers a wrapped array, or a wrapped message object
// when the customer has no running loan
func (s *Server) customerActiveLoans(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if _, ok := s.findCustomer(c, id); !ok {
		return
	}

	loans, err := s.loadLoans(s.db.Where("customer_id = ? AND loan_status IN ?", id, activeStatuses))
	if err != nil {
		s.logger.Error().Err(err).Int64("customer_id", id).Msg("Failed to load active loans")
		internalError(c)
		return
	}
	if len(loans) == 0 {
		wrapped(c, http.StatusOK, "", gin.H{"message": "Customer has no active loans"})
		return
	}
	wrapped(c, http.StatusOK, "", s.loanDetails(loans))
}
