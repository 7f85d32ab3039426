package customers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/kassolend/console/internal/models"
	"github.com/kassolend/console/internal/paging"
	"github.com/kassolend/console/internal/transport"
)

// Service issues customer requests through the shared transport
type Service struct {
	api    transport.Doer
	logger zerolog.Logger
}

// NewService creates a new customer service
func NewService(api transport.Doer, logger zerolog.Logger) *Service {
	return &Service{api: api, logger: logger}
}

// List returns a page of customers
func (s *Service) List(ctx context.Context, params models.PaginationParams) (models.Page[models.Customer], error) {
	if err := models.Validate(params); err != nil {
		return models.Page[models.Customer]{}, err
	}

	// The backend uses 0-indexed pages and calls the page size "size"
	query := url.Values{}
	if params.Page != nil {
		query.Set("page", strconv.Itoa(*params.Page))
	}
	if params.Limit != nil {
		query.Set("size", strconv.Itoa(*params.Limit))
	}
	if params.SortBy != "" {
		query.Set("sortBy", params.SortBy)
	}
	if params.SortOrder != "" {
		query.Set("sortOrder", params.SortOrder)
	}
	if params.Status != "" && params.Status != models.AllStatuses {
		query.Set("status", params.Status)
	}
	if params.Search != "" {
		query.Set("search", params.Search)
	}

	raw, err := transport.Get[json.RawMessage](ctx, s.api, "/customers", transport.WithQuery(query))
	if err != nil {
		return models.Page[models.Customer]{}, err
	}

	pageSize := models.DefaultPageSize
	if params.Limit != nil && *params.Limit > 0 {
		pageSize = *params.Limit
	}
	return paging.Normalize[models.Customer](raw, params.Page, pageSize, s.logger)
}

// Get returns a single customer
func (s *Service) Get(ctx context.Context, id int64) (*models.Customer, error) {
	return transport.Get[*models.Customer](ctx, s.api, fmt.Sprintf("/customers/%d", id))
}

// Create registers a new customer
func (s *Service) Create(ctx context.Context, dto models.CreateCustomerDTO) (*models.Customer, error) {
	if err := models.Validate(dto); err != nil {
		return nil, err
	}
	return transport.Post[*models.Customer](ctx, s.api, "/customers", dto)
}

// Update replaces a customer's details
func (s *Service) Update(ctx context.Context, id int64, dto models.CreateCustomerDTO) (*models.Customer, error) {
	if err := models.Validate(dto); err != nil {
		return nil, err
	}
	return transport.Put[*models.Customer](ctx, s.api, fmt.Sprintf("/customers/%d", id), dto)
}

// UpdateField changes a single column of a customer record
func (s *Service) UpdateField(ctx context.Context, id int64, req models.UpdateFieldRequest) error {
	if err := models.Validate(req); err != nil {
		return err
	}
	return s.api.Do(ctx, http.MethodPost, fmt.Sprintf("/customers/%d/update-field", id), req, nil)
}

// Delete removes a customer
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/customers/%d", id), nil, nil)
}

// Search finds customers matching a free-text query
func (s *Service) Search(ctx context.Context, q string) ([]models.Customer, error) {
	return transport.Get[[]models.Customer](ctx, s.api, "/customers/search",
		transport.WithQuery(url.Values{"q": {q}}))
}

// ChangePassword changes a customer's mobile app password
func (s *Service) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	if err := models.Validate(req); err != nil {
		return err
	}
	return s.api.Do(ctx, http.MethodPost, "/customers/change-password", req, nil)
}
