package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCustomer() CreateCustomerDTO {
	return CreateCustomerDTO{
		FirstName:          "Amina",
		LastName:           "Otieno",
		FullName:           "Amina Otieno",
		IDNumber:           "12345678",
		DateOfBirth:        "1990-04-12",
		Gender:             GenderFemale,
		MaritalStatus:      MaritalSingle,
		PhoneNumber:        "254712345678",
		EmailAddress:       "amina@example.com",
		ResidentialAddress: "Kisumu Rd 4",
		MobileMoneyNumber:  "254712345678",
		TownOrArea:         "Kisumu",
		LoanOfficerID:      3,
	}
}

func TestValidate_CustomerAccepted(t *testing.T) {
	require.NoError(t, Validate(validCustomer()))
}

func TestValidate_CustomerRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateCustomerDTO)
		wantMsg string
	}{
		{"bad phone", func(c *CreateCustomerDTO) { c.PhoneNumber = "0712345678" }, "PhoneNumber must be a phone number"},
		{"bad alternative phone", func(c *CreateCustomerDTO) { c.AlternativePhoneNumber = "12" }, "AlternativePhoneNumber must be a phone number"},
		{"short id", func(c *CreateCustomerDTO) { c.IDNumber = "123" }, "IDNumber must be a 7 or 8 digit ID number"},
		{"missing name", func(c *CreateCustomerDTO) { c.FirstName = "" }, "FirstName is required"},
		{"bad gender", func(c *CreateCustomerDTO) { c.Gender = "X" }, "Gender must be one of"},
		{"bad birth date", func(c *CreateCustomerDTO) { c.DateOfBirth = "12/04/1990" }, "DateOfBirth must be a date"},
		{"bad email", func(c *CreateCustomerDTO) { c.EmailAddress = "nope" }, "EmailAddress must be a valid email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dto := validCustomer()
			tt.mutate(&dto)
			err := Validate(dto)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_LoanRequest(t *testing.T) {
	loan := CreateLoanDTO{
		CustomerID:         1,
		PrincipalAmount:    5000,
		TenureValue:        4,
		TenureUnit:         TenureWeeks,
		DisbursementDate:   "2026-10-01",
		DisbursementMethod: DisbursementMpesa,
		LoanOfficerID:      2,
	}
	require.NoError(t, Validate(loan))

	loan.TenureUnit = "YEARS"
	loan.PrincipalAmount = 0
	err := Validate(loan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TenureUnit")
	assert.Contains(t, err.Error(), "PrincipalAmount")
}
