package mockapi

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kassolend/console/internal/models"
)

const activityLimit = 10

// activity is one entry of the dashboard feed
type activity struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CustomerID  int64     `json:"customerId,omitempty"`
	LoanID      int64     `json:"loanId,omitempty"`
	Reference   string    `json:"loanReference,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// dashboardStats answers a bare object
func (s *Server) dashboardStats(c *gin.Context) {
	var stats models.DashboardStats
	var customers, loans, active, pending, defaulted int64

	base := s.db.Scopes(scopeToOfficer(c)).Session(&gorm.Session{})
	base.Model(&customerRecord{}).Count(&customers)
	base.Model(&loanRecord{}).Count(&loans)
	base.Model(&loanRecord{}).Where("loan_status IN ?", activeStatuses).Count(&active)
	base.Model(&loanRecord{}).Where("loan_status = ?", string(models.LoanPending)).Count(&pending)
	base.Model(&loanRecord{}).Where("loan_status = ?", string(models.LoanDefaulted)).Count(&defaulted)

	var disbursed struct{ Total float64 }
	err := base.Model(&loanRecord{}).
		Where("loan_status NOT IN ?", []string{string(models.LoanPending), string(models.LoanRejected)}).
		Select("COALESCE(SUM(principal_amount), 0) AS total").
		Scan(&disbursed).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute dashboard stats")
		internalError(c)
		return
	}

	stats.TotalCustomers = int(customers)
	stats.TotalLoans = int(loans)
	stats.ActiveLoans = int(active)
	stats.PendingApprovals = int(pending)
	stats.DefaultedLoans = int(defaulted)
	stats.TotalDisbursed = round2(disbursed.Total)
	c.JSON(http.StatusOK, stats)
}

// dashboardActivities answers a bare array of the newest customers and loans
func (s *Server) dashboardActivities(c *gin.Context) {
	var customers []customerRecord
	var loans []loanRecord
	s.db.Scopes(scopeToOfficer(c)).Order("created_at DESC").Limit(activityLimit).Find(&customers)
	s.db.Scopes(scopeToOfficer(c)).Preload("Customer").Order("created_at DESC").Limit(activityLimit).Find(&loans)

	feed := make([]activity, 0, len(customers)+len(loans))
	for _, cu := range customers {
		feed = append(feed, activity{
			Type:        "CUSTOMER_CREATED",
			Description: "New customer " + cu.FullName,
			CustomerID:  cu.ID,
			Timestamp:   cu.CreatedAt,
		})
	}
	for _, l := range loans {
		feed = append(feed, activity{
			Type:        "LOAN_CREATED",
			Description: "Loan " + l.LoanReference + " for " + l.Customer.FullName,
			CustomerID:  l.CustomerID,
			LoanID:      l.ID,
			Reference:   l.LoanReference,
			Amount:      l.PrincipalAmount,
			Timestamp:   l.CreatedAt,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool { return feed[i].Timestamp.After(feed[j].Timestamp) })
	if len(feed) > activityLimit {
		feed = feed[:activityLimit]
	}
	c.JSON(http.StatusOK, feed)
}
