package loans

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/kassolend/console/internal/models"
	"github.com/kassolend/console/internal/paging"
	"github.com/kassolend/console/internal/transport"
)

// Service issues loan requests through the shared transport
type Service struct {
	api    transport.Doer
	logger zerolog.Logger
}

// NewService creates a new loan service
func NewService(api transport.Doer, logger zerolog.Logger) *Service {
	return &Service{api: api, logger: logger}
}

// List returns a page of loans matching filters
func (s *Service) List(ctx context.Context, filters models.LoanFilters) (models.Page[models.LoanDetail], error) {
	if err := models.Validate(filters); err != nil {
		return models.Page[models.LoanDetail]{}, err
	}

	query := url.Values{}
	if filters.CustomerID != 0 {
		query.Set("customerId", strconv.FormatInt(filters.CustomerID, 10))
	}
	if filters.LoanReference != "" {
		query.Set("loanReference", filters.LoanReference)
	}
	if filters.LoanStatus != "" {
		query.Set("loanStatus", string(filters.LoanStatus))
	}
	if filters.LoanOfficerID != 0 {
		query.Set("loanOfficerId", strconv.FormatInt(filters.LoanOfficerID, 10))
	}
	if filters.FromDate != "" {
		query.Set("fromDate", filters.FromDate)
	}
	if filters.ToDate != "" {
		query.Set("toDate", filters.ToDate)
	}

	page := 0
	if filters.Page != nil {
		page = *filters.Page
	}
	size := models.DefaultPageSize
	if filters.Size != nil && *filters.Size > 0 {
		size = *filters.Size
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	raw, err := transport.Get[json.RawMessage](ctx, s.api, "/loans", transport.WithQuery(query))
	if err != nil {
		return models.Page[models.LoanDetail]{}, err
	}
	return paging.Normalize[models.LoanDetail](raw, &page, size, s.logger)
}

// Get returns a single loan
func (s *Service) Get(ctx context.Context, id int64) (*models.LoanDetail, error) {
	return transport.Get[*models.LoanDetail](ctx, s.api, fmt.Sprintf("/loans/%d", id))
}

// Create originates a loan
func (s *Service) Create(ctx context.Context, dto models.CreateLoanDTO) (*models.LoanDetail, error) {
	if err := models.Validate(dto); err != nil {
		return nil, err
	}
	return transport.Post[*models.LoanDetail](ctx, s.api, "/loans", dto)
}

// Schedules returns a loan's installment schedule
func (s *Service) Schedules(ctx context.Context, loanID int64) ([]models.LoanSchedule, error) {
	raw, err := transport.Get[json.RawMessage](ctx, s.api, fmt.Sprintf("/loans/%d/schedules", loanID))
	if err != nil {
		return nil, err
	}
	return paging.ExtractList[models.LoanSchedule](raw, "schedules", "content")
}

// Repayments returns the payments received against a loan
func (s *Service) Repayments(ctx context.Context, loanID int64) ([]models.LoanRepayment, error) {
	raw, err := transport.Get[json.RawMessage](ctx, s.api, fmt.Sprintf("/loans/%d/repayments", loanID))
	if err != nil {
		return nil, err
	}
	return paging.ExtractList[models.LoanRepayment](raw, "repayments", "content")
}

// StatementRepayments returns the repayments listed on a loan statement
func (s *Service) StatementRepayments(ctx context.Context, loanID int64) ([]models.LoanRepayment, error) {
	raw, err := transport.Get[json.RawMessage](ctx, s.api, "/loans/loan-repayments",
		transport.WithQuery(url.Values{"loanId": {strconv.FormatInt(loanID, 10)}}))
	if err != nil {
		return nil, err
	}
	return paging.ExtractList[models.LoanRepayment](raw, "data", "content")
}

// Calculate prices a prospective loan
func (s *Service) Calculate(ctx context.Context, req models.LoanCalculatorRequest) (*models.LoanCalculatorResponse, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	return transport.Post[*models.LoanCalculatorResponse](ctx, s.api, "/loan-calculator/installment", req)
}

// CalculateTopUp prices a top-up on an existing loan
func (s *Service) CalculateTopUp(ctx context.Context, req models.LoanTopUpRequest) (*models.LoanCalculatorResponse, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	return transport.Post[*models.LoanCalculatorResponse](ctx, s.api, "/loan-calculator/top-up", req)
}

// CustomerActiveLoans returns a customer's running loans. A non-list answer
// is treated as none.
func (s *Service) CustomerActiveLoans(ctx context.Context, customerID int64) ([]models.LoanDetail, error) {
	raw, err := transport.Get[json.RawMessage](ctx, s.api, fmt.Sprintf("/customers/%d/active-loans", customerID))
	if err != nil {
		return nil, err
	}
	return paging.ExtractList[models.LoanDetail](raw)
}

// Summary looks a loan up by its reference. It returns nil if none matches.
func (s *Service) Summary(ctx context.Context, loanReference string) (*models.LoanDetail, error) {
	raw, err := transport.Get[json.RawMessage](ctx, s.api, "/loans",
		transport.WithQuery(url.Values{"loanReference": {loanReference}}))
	if err != nil {
		return nil, err
	}
	list, err := paging.ExtractList[models.LoanDetail](raw, "content", "data")
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}
