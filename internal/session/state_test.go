package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassolend/console/internal/models"
)

type fakeAuth struct {
	user          *models.User
	authenticated bool
	logoutErr     error
	logouts       int
}

func (f *fakeAuth) StoredUser() *models.User { return f.user }
func (f *fakeAuth) IsAuthenticated() bool    { return f.authenticated }

func (f *fakeAuth) Logout(context.Context) error {
	f.logouts++
	f.user = nil
	f.authenticated = false
	return f.logoutErr
}

func officer() *models.User {
	return &models.User{ID: 2, Username: "potieno", Role: models.RoleLoanOfficer}
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name          string
		auth          *fakeAuth
		authenticated bool
	}{
		{name: "stored user and credential", auth: &fakeAuth{user: officer(), authenticated: true}, authenticated: true},
		{name: "user without credential", auth: &fakeAuth{user: officer()}, authenticated: false},
		{name: "credential without user", auth: &fakeAuth{authenticated: true}, authenticated: true},
		{name: "nothing stored", auth: &fakeAuth{}, authenticated: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState(tt.auth)
			assert.True(t, state.IsLoading())

			state.Initialize()

			assert.False(t, state.IsLoading())
			assert.Equal(t, tt.authenticated, state.IsAuthenticated())
			if !tt.authenticated {
				assert.Nil(t, state.User())
			}
		})
	}
}

func TestInitialize_CredentialWithoutUserHasNoPermissions(t *testing.T) {
	state := NewState(&fakeAuth{authenticated: true})
	state.Initialize()

	assert.True(t, state.IsAuthenticated())
	assert.Nil(t, state.User())
	assert.False(t, state.HasPermission(models.PermViewCustomer))
	assert.False(t, state.HasRole(models.RoleAdmin))
}

func TestLogout_ClearsStateEvenOnError(t *testing.T) {
	auth := &fakeAuth{user: officer(), authenticated: true, logoutErr: errors.New("backend down")}
	state := NewState(auth)
	state.Initialize()
	require.True(t, state.IsAuthenticated())

	err := state.Logout(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, auth.logouts)
	assert.False(t, state.IsAuthenticated())
	assert.Nil(t, state.User())
	assert.False(t, state.IsLoading())
}

func TestSetUserAndError(t *testing.T) {
	state := NewState(&fakeAuth{})

	state.SetError("Invalid username or password")
	assert.Equal(t, "Invalid username or password", state.Err())
	assert.False(t, state.IsAuthenticated())

	state.SetUser(officer())
	assert.True(t, state.IsAuthenticated())
	assert.Empty(t, state.Err())

	state.Expire()
	assert.False(t, state.IsAuthenticated())
}

func TestPermissions(t *testing.T) {
	state := NewState(&fakeAuth{})

	assert.False(t, state.HasPermission(models.PermViewLoan), "signed out holds nothing")
	assert.False(t, state.HasAllPermissions())

	user := officer()
	user.Permissions = []models.Permission{models.PermExportData}
	state.SetUser(user)

	// From the role table
	assert.True(t, state.HasPermission(models.PermCreateLoan))
	assert.False(t, state.HasPermission(models.PermApproveLoan))
	// Granted directly
	assert.True(t, state.HasPermission(models.PermExportData))

	assert.True(t, state.HasAnyPermission(models.PermApproveLoan, models.PermViewCustomer))
	assert.False(t, state.HasAnyPermission(models.PermApproveLoan, models.PermManageRoles))
	assert.True(t, state.HasAllPermissions(models.PermViewLoan, models.PermExportData))
	assert.False(t, state.HasAllPermissions(models.PermViewLoan, models.PermDeleteUser))
	assert.True(t, state.HasAllPermissions())

	assert.True(t, state.HasRole(models.RoleAdmin, models.RoleLoanOfficer))
	assert.False(t, state.HasRole(models.RoleSuperAdmin))
}
