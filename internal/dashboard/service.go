package dashboard

import (
	"context"
	"encoding/json"

	"github.com/kassolend/console/internal/models"
	"github.com/kassolend/console/internal/transport"
)

// Service reads portfolio statistics
type Service struct {
	api transport.Doer
}

func NewService(api transport.Doer) *Service {
	return &Service{api: api}
}

// Stats returns the dashboard headline numbers
func (s *Service) Stats(ctx context.Context) (*models.DashboardStats, error) {
	return transport.Get[*models.DashboardStats](ctx, s.api, "/dashboard/stats")
}

// RecentActivities returns the activity feed. Entries are passed through
// untyped because their shape varies by activity kind.
func (s *Service) RecentActivities(ctx context.Context) ([]json.RawMessage, error) {
	return transport.Get[[]json.RawMessage](ctx, s.api, "/dashboard/activities")
}
