package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kassolend/console/internal/auth"
	"github.com/kassolend/console/internal/config"
	"github.com/kassolend/console/internal/credentials"
	"github.com/kassolend/console/internal/customers"
	"github.com/kassolend/console/internal/dashboard"
	"github.com/kassolend/console/internal/loans"
	"github.com/kassolend/console/internal/models"
	"github.com/kassolend/console/internal/officers"
	"github.com/kassolend/console/internal/transport"
)

// newTestServer starts a seeded backend on a throwaway database and returns
// the API root URL
func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	cfg := config.Default().MockAPI
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "mock.db")
	cfg.PasswordCost = bcrypt.MinCost

	srv, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts.URL + "/api"
}

func newClient(baseURL string) *transport.Client {
	cfg := transport.DefaultConfig()
	cfg.BaseURL = baseURL
	return transport.New(cfg, credentials.NewMemoryStore(), transport.WithRedirect(func(string) {}))
}

// signIn returns a client holding a fresh session for username
func signIn(t *testing.T, baseURL, username, password string, userType models.UserType) *transport.Client {
	t.Helper()
	client := newClient(baseURL)
	_, err := auth.NewService(client, zerolog.Nop()).Login(context.Background(),
		models.LoginCredentials{Username: username, Password: password}, userType)
	require.NoError(t, err)
	return client
}

func asAdmin(t *testing.T, baseURL string) *transport.Client {
	return signIn(t, baseURL, DemoUsername, DemoPassword, models.UserTypeAdmin)
}

func requireAPIError(t *testing.T, err error, kind transport.ErrorKind, status int) *transport.Error {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := transport.AsError(err)
	require.True(t, ok, "expected *transport.Error, got %T", err)
	assert.Equal(t, kind, apiErr.Kind)
	assert.Equal(t, status, apiErr.Status)
	return apiErr
}

func newCustomerDTO(officerID int64) models.CreateCustomerDTO {
	return models.CreateCustomerDTO{
		FirstName:          "Grace",
		LastName:           "Muthoni",
		FullName:           "Grace Muthoni",
		IDNumber:           "45678901",
		DateOfBirth:        "1992-02-14",
		Gender:             models.GenderFemale,
		MaritalStatus:      models.MaritalSingle,
		PhoneNumber:        "254745678901",
		EmailAddress:       "grace@example.com",
		ResidentialAddress: "Nyali",
		MobileMoneyNumber:  "254745678901",
		TownOrArea:         "Mombasa",
		LoanOfficerID:      officerID,
	}
}

func seededOfficerID(t *testing.T, client *transport.Client) int64 {
	t.Helper()
	list, err := officers.NewService(client).List(context.Background())
	require.NoError(t, err)
	for _, o := range list {
		if o.Username == DemoOfficerUsername {
			return o.LoanOfficerID
		}
	}
	t.Fatalf("seeded officer %q not listed", DemoOfficerUsername)
	return 0
}

func TestHealth(t *testing.T) {
	_, baseURL := newTestServer(t)

	resp, err := http.Get(strings.TrimSuffix(baseURL, "/api") + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "online", body["status"])
}

func TestSeed_IsIdempotent(t *testing.T) {
	srv, _ := newTestServer(t)

	require.NoError(t, srv.seed())

	var accounts int64
	require.NoError(t, srv.db.Model(&accountRecord{}).Count(&accounts).Error)
	assert.Equal(t, int64(2), accounts)
}

func TestRequestIDIsEchoed(t *testing.T) {
	_, baseURL := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, baseURL+"/customers", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "req-123", resp.Header.Get(requestIDHeader))
}

func TestAdminLogin(t *testing.T) {
	_, baseURL := newTestServer(t)
	client := newClient(baseURL)
	svc := auth.NewService(client, zerolog.Nop())

	res, err := svc.Login(context.Background(),
		models.LoginCredentials{Username: DemoUsername, Password: DemoPassword}, models.UserTypeAdmin)

	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.Equal(t, "admin@demo.com", res.User.Email)
	assert.Positive(t, res.User.ID)
	assert.True(t, svc.IsAuthenticated())

	me, err := svc.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DemoUsername, me.Username)
	assert.Contains(t, me.Permissions, models.PermCreateUser)
}

func TestLoanOfficerLogin(t *testing.T) {
	_, baseURL := newTestServer(t)
	client := newClient(baseURL)

	res, err := auth.NewService(client, zerolog.Nop()).Login(context.Background(),
		models.LoginCredentials{Username: DemoOfficerUsername, Password: DemoOfficerPassword}, models.UserTypeLoanOfficer)

	require.NoError(t, err)
	assert.Equal(t, models.RoleLoanOfficer, res.User.Role)
	assert.Equal(t, "Peter", res.User.FirstName)
	assert.Equal(t, "Otieno", res.User.LastName)
}

func TestLogin_Rejections(t *testing.T) {
	_, baseURL := newTestServer(t)

	tests := []struct {
		name     string
		username string
		password string
		userType models.UserType
	}{
		{"wrong password", DemoUsername, "nope", models.UserTypeAdmin},
		{"unknown user", "ghost", "ghost", models.UserTypeAdmin},
		{"admin at officer endpoint", DemoUsername, DemoPassword, models.UserTypeLoanOfficer},
		{"officer at admin endpoint", DemoOfficerUsername, DemoOfficerPassword, models.UserTypeAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(baseURL)
			_, err := auth.NewService(client, zerolog.Nop()).Login(context.Background(),
				models.LoginCredentials{Username: tt.username, Password: tt.password}, tt.userType)

			// Sign-in failures are ordinary errors, not forced logouts
			apiErr := requireAPIError(t, err, transport.KindResponse, http.StatusUnauthorized)
			assert.Equal(t, msgBadCredentials, apiErr.Message)
			assert.False(t, client.Guard().Active())
		})
	}
}

func TestLogout_RevokesSessionEverywhere(t *testing.T) {
	_, baseURL := newTestServer(t)
	ctx := context.Background()

	first := asAdmin(t, baseURL)
	token, err := first.Store().Token()
	require.NoError(t, err)

	// A second process holding the same token
	second := newClient(baseURL)
	require.NoError(t, second.Store().SaveToken(token))

	_, err = customers.NewService(second, zerolog.Nop()).List(ctx, models.PaginationParams{})
	require.NoError(t, err)

	require.NoError(t, auth.NewService(first, zerolog.Nop()).Logout(ctx))

	_, err = customers.NewService(second, zerolog.Nop()).List(ctx, models.PaginationParams{})
	apiErr := requireAPIError(t, err, transport.KindUnauthorized, http.StatusUnauthorized)
	assert.Equal(t, "Session has been revoked", apiErr.Message)

	remaining, err := second.Store().Token()
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.True(t, second.Guard().Active())
}

func TestCustomers(t *testing.T) {
	_, baseURL := newTestServer(t)
	ctx := context.Background()
	admin := asAdmin(t, baseURL)
	svc := customers.NewService(admin, zerolog.Nop())

	page, err := svc.List(ctx, models.PaginationParams{Page: models.IntPtr(0), Limit: models.IntPtr(2), SortBy: "fullName", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Brian Kiprop", page.Data[0].FullName)

	page, err = svc.List(ctx, models.PaginationParams{Search: "achieng", Status: models.AllStatuses})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Mary Achieng", page.Data[0].FullName)

	created, err := svc.Create(ctx, newCustomerDTO(seededOfficerID(t, admin)))
	require.NoError(t, err)
	assert.Positive(t, created.CustomerID)
	assert.Equal(t, "ACTIVE", created.Status)
	require.NotNil(t, created.CreatedBy)
	assert.Equal(t, DemoUsername, *created.CreatedBy)

	_, err = svc.Create(ctx, newCustomerDTO(seededOfficerID(t, admin)))
	apiErr := requireAPIError(t, err, transport.KindResponse, http.StatusConflict)
	assert.Equal(t, "A customer with this ID number already exists", apiErr.Message)

	found, err := svc.Search(ctx, "muthoni")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, created.CustomerID, found[0].CustomerID)

	require.NoError(t, svc.UpdateField(ctx, created.CustomerID, models.UpdateFieldRequest{
		ColumnName: "townOrArea", NewValue: "Malindi", UpdatedBy: 1,
	}))
	got, err := svc.Get(ctx, created.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, "Malindi", got.TownOrArea)

	require.NoError(t, svc.ChangePassword(ctx, models.ChangePasswordRequest{
		IDNumber: created.IDNumber, OldPassword: "8901", NewPassword: "4321",
	}))

	require.NoError(t, svc.Delete(ctx, created.CustomerID))
	_, err = svc.Get(ctx, created.CustomerID)
	requireAPIError(t, err, transport.KindResponse, http.StatusNotFound)
}

func TestCustomers_DeleteBlockedByLoans(t *testing.T) {
	_, baseURL := newTestServer(t)
	ctx := context.Background()
	svc := customers.NewService(asAdmin(t, baseURL), zerolog.Nop())

	found, err := svc.Search(ctx, "wanjiru")
	require.NoError(t, err)
	require.Len(t, found, 1)

	err = svc.Delete(ctx, found[0].CustomerID)
	apiErr := requireAPIError(t, err, transport.KindResponse, http.StatusConflict)
	assert.Equal(t, "Customer has active loans", apiErr.Message)
}

func TestLoans(t *testing.T) {
	_, baseURL := newTestServer(t)
	ctx := context.Background()
	admin := asAdmin(t, baseURL)
	svc := loans.NewService(admin, zerolog.Nop())

	page, err := svc.List(ctx, models.LoanFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Data, 2)

	var jane models.LoanDetail
	for _, l := range page.Data {
		if l.CustomerName == "Jane Wanjiru" {
			jane = l
		}
	}
	require.NotZero(t, jane.LoanID)
	assert.Equal(t, 12000.0, jane.TotalLoanAmount)
	assert.Equal(t, 3000.0, jane.TotalRepaid)
	assert.Equal(t, 3000.0, jane.Arrears)
	assert.Equal(t, "Peter Otieno", jane.LoanOfficerName)
	assert.True(t, strings.HasPrefix(jane.LoanReference, "KL-"))

	detail, err := svc.Get(ctx, jane.LoanID)
	require.NoError(t, err)
	assert.Equal(t, jane.LoanReference, detail.LoanReference)

	schedules, err := svc.Schedules(ctx, jane.LoanID)
	require.NoError(t, err)
	require.Len(t, schedules, 4)
	assert.Equal(t, "PAID", schedules[0].Status)
	assert.Equal(t, "OVERDUE", schedules[1].Status)

	repayments, err := svc.Repayments(ctx, jane.LoanID)
	require.NoError(t, err)
	require.Len(t, repayments, 1)
	assert.Equal(t, 3000.0, repayments[0].Amount)
	assert.NotEmpty(t, repayments[0].MpesaReference)

	statement, err := svc.StatementRepayments(ctx, jane.LoanID)
	require.NoError(t, err)
	assert.Len(t, statement, 1)

	summary, err := svc.Summary(ctx, jane.LoanReference)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, jane.LoanID, summary.LoanID)

	missing, err := svc.Summary(ctx, "KL-NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)

	active, err := svc.CustomerActiveLoans(ctx, jane.CustomerID)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	_, err = svc.CalculateTopUp(ctx, models.LoanTopUpRequest{
		LoanID: jane.LoanID, TopUpAmount: 5000, TenureValue: 2, TenureUnit: models.TenureMonths,
	})
	apiErr := requireAPIError(t, err, transport.KindResponse, http.StatusBadRequest)
	assert.Contains(t, apiErr.Message, "70%")
}

func TestLoans_CreateForCustomerWithoutLoan(t *testing.T) {
	srv, baseURL := newTestServer(t)
	ctx := context.Background()
	admin := asAdmin(t, baseURL)
	loanSvc := loans.NewService(admin, zerolog.Nop())

	found, err := customers.NewService(admin, zerolog.Nop()).Search(ctx, "achieng")
	require.NoError(t, err)
	require.Len(t, found, 1)
	mary := found[0]

	active, err := loanSvc.CustomerActiveLoans(ctx, mary.CustomerID)
	require.NoError(t, err)
	assert.Empty(t, active)

	dto := models.CreateLoanDTO{
		CustomerID:         mary.CustomerID,
		PrincipalAmount:    5000,
		TenureValue:        2,
		TenureUnit:         models.TenureMonths,
		DisbursementDate:   srv.today(),
		DisbursementMethod: models.DisbursementMpesa,
		LoanOfficerID:      mary.LoanOfficerID,
	}
	loan, err := loanSvc.Create(ctx, dto)
	require.NoError(t, err)
	assert.Equal(t, 6000.0, loan.TotalLoanAmount)
	assert.Equal(t, 3000.0, loan.InstallmentAmount)
	assert.Equal(t, models.LoanActive, loan.LoanStatus)

	_, err = loanSvc.Create(ctx, dto)
	apiErr := requireAPIError(t, err, transport.KindResponse, http.StatusConflict)
	assert.Equal(t, "Customer already has an active loan", apiErr.Message)

	page, err := loanSvc.List(ctx, models.LoanFilters{CustomerID: mary.CustomerID})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestLoanCalculator(t *testing.T) {
	_, baseURL := newTestServer(t)

	q, err := loans.NewService(asAdmin(t, baseURL), zerolog.Nop()).Calculate(context.Background(),
		models.LoanCalculatorRequest{PrincipalAmount: 10000, TenureValue: 4, TenureUnit: models.TenureWeeks})

	require.NoError(t, err)
	assert.Equal(t, 12000.0, q.TotalAmount)
	assert.Equal(t, 3000.0, q.InstallmentAmount)
	assert.Equal(t, 4, q.NumberOfInstallments)
}

func TestLoanOfficers(t *testing.T) {
	_, baseURL := newTestServer(t)
	ctx := context.Background()
	admin := asAdmin(t, baseURL)
	svc := officers.NewService(admin)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Peter Otieno", list[0].FullName)
	assert.Equal(t, 3, list[0].CustomersCount)
	assert.Equal(t, 2, list[0].LoansCount)

	created, err := svc.Create(ctx, models.CreateLoanOfficerDTO{
		FirstName: "Ann", LastName: "Njeri", Username: "anjeri", PhoneNumber: "254700111222",
	})
	require.NoError(t, err)
	assert.False(t, created.PasswordChanged)

	got, err := svc.Get(ctx, created.LoanOfficerID)
	require.NoError(t, err)
	assert.Equal(t, "anjeri", got.Username)

	_, err = svc.Create(ctx, models.CreateLoanOfficerDTO{
		FirstName: "Ann", LastName: "Other", Username: "ANJERI", PhoneNumber: "254700111333",
	})
	requireAPIError(t, err, transport.KindResponse, http.StatusConflict)

	// The new officer signs in with the initial password
	signIn(t, baseURL, "anjeri", InitialOfficerPassword, models.UserTypeLoanOfficer)
}

func TestLoanOfficerSeesOnlyOwnPortfolio(t *testing.T) {
	_, baseURL := newTestServer(t)
	ctx := context.Background()
	admin := asAdmin(t, baseURL)

	other, err := officers.NewService(admin).Create(ctx, models.CreateLoanOfficerDTO{
		FirstName: "Ann", LastName: "Njeri", Username: "anjeri", PhoneNumber: "254700111222",
	})
	require.NoError(t, err)
	theirs, err := customers.NewService(admin, zerolog.Nop()).Create(ctx, newCustomerDTO(other.LoanOfficerID))
	require.NoError(t, err)

	officer := signIn(t, baseURL, DemoOfficerUsername, DemoOfficerPassword, models.UserTypeLoanOfficer)
	svc := customers.NewService(officer, zerolog.Nop())

	page, err := svc.List(ctx, models.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	_, err = svc.Get(ctx, theirs.CustomerID)
	requireAPIError(t, err, transport.KindResponse, http.StatusNotFound)

	// Officers cannot manage other officers
	_, err = officers.NewService(officer).List(ctx)
	requireAPIError(t, err, transport.KindResponse, http.StatusForbidden)

	stats, err := dashboard.NewService(officer).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCustomers)
}

func TestDashboard(t *testing.T) {
	_, baseURL := newTestServer(t)
	ctx := context.Background()
	svc := dashboard.NewService(asAdmin(t, baseURL))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCustomers)
	assert.Equal(t, 2, stats.TotalLoans)
	assert.Equal(t, 2, stats.ActiveLoans)
	assert.Equal(t, 30000.0, stats.TotalDisbursed)
	assert.Zero(t, stats.DefaultedLoans)

	activities, err := svc.RecentActivities(ctx)
	require.NoError(t, err)
	assert.Len(t, activities, 5)

	var first map[string]any
	require.NoError(t, json.Unmarshal(activities[0], &first))
	assert.Contains(t, first, "type")
	assert.Contains(t, first, "timestamp")
}
