package officers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassolend/console/internal/models"
	"github.com/kassolend/console/internal/transport/transporttest"
)

func TestList(t *testing.T) {
	backend := transporttest.NewBackend(t, http.StatusOK,
		`{"success":true,"data":[{"loanOfficerId":2,"fullName":"Peter Otieno","active":true}]}`)
	svc := NewService(backend.Client())

	officers, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/loan-officers", backend.Last().Path)
	require.Len(t, officers, 1)
	assert.Equal(t, "Peter Otieno", officers[0].FullName)
	assert.True(t, officers[0].Active)
}

func TestGet(t *testing.T) {
	backend := transporttest.NewBackend(t, http.StatusOK, `{"loanOfficerId":2,"username":"potieno"}`)
	svc := NewService(backend.Client())

	officer, err := svc.Get(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, "/loan-officers/2", backend.Last().Path)
	assert.Equal(t, "potieno", officer.Username)
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name    string
		dto     models.CreateLoanOfficerDTO
		wantErr string
	}{
		{
			name: "valid",
			dto: models.CreateLoanOfficerDTO{
				FirstName:   "Peter",
				LastName:    "Otieno",
				Username:    "potieno",
				PhoneNumber: "254722000111",
			},
		},
		{
			name: "local phone format",
			dto: models.CreateLoanOfficerDTO{
				FirstName:   "Peter",
				LastName:    "Otieno",
				Username:    "potieno",
				PhoneNumber: "0722000111",
			},
			wantErr: "PhoneNumber must be a phone number",
		},
		{
			name:    "missing username",
			dto:     models.CreateLoanOfficerDTO{FirstName: "Peter", LastName: "Otieno", PhoneNumber: "254722000111"},
			wantErr: "Username is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := transporttest.NewBackend(t, http.StatusCreated, `{"success":true,"data":{"loanOfficerId":9}}`)
			svc := NewService(backend.Client())

			officer, err := svc.Create(context.Background(), tt.dto)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Zero(t, backend.Hits())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, http.MethodPost, backend.Last().Method)
			assert.Equal(t, int64(9), officer.LoanOfficerID)
		})
	}
}
