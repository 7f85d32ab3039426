package officers

import (
	"context"
	"fmt"

	"github.com/kassolend/console/internal/models"
	"github.com/kassolend/console/internal/transport"
)

// Service issues loan officer requests through the shared transport
type Service struct {
	api transport.Doer
}

// NewService creates a new loan officer service
func NewService(api transport.Doer) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context) ([]models.LoanOfficer, error) {
	return transport.Get[[]models.LoanOfficer](ctx, s.api, "/loan-officers")
}

func (s *Service) Get(ctx context.Context, id int64) (*models.LoanOfficer, error) {
	return transport.Get[*models.LoanOfficer](ctx, s.api, fmt.Sprintf("/loan-officers/%d", id))
}

func (s *Service) Create(ctx context.Context, dto models.CreateLoanOfficerDTO) (*models.LoanOfficer, error) {
	if err := models.Validate(dto); err != nil {
		return nil, err
	}
	return transport.Post[*models.LoanOfficer](ctx, s.api, "/loan-officers", dto)
}
