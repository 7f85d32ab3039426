package models

// UserRole is the role the backend assigns to a console user
type UserRole string

const (
	RoleSuperAdmin  UserRole = "SUPER_ADMIN"
	RoleAdmin       UserRole = "ADMIN"
	RoleLoanOfficer UserRole = "LOAN_OFFICER"
	RoleReadOnly    UserRole = "READ_ONLY"
	RoleCustomer    UserRole = "CUSTOMER"
)

// Permission names a single action a user may perform
type Permission string

const (
	PermCreateCustomer    Permission = "CREATE_CUSTOMER"
	PermViewCustomer      Permission = "VIEW_CUSTOMER"
	PermEditCustomer      Permission = "EDIT_CUSTOMER"
	PermDeleteCustomer    Permission = "DELETE_CUSTOMER"
	PermCreateLoan        Permission = "CREATE_LOAN"
	PermViewLoan          Permission = "VIEW_LOAN"
	PermEditLoan          Permission = "EDIT_LOAN"
	PermDeleteLoan        Permission = "DELETE_LOAN"
	PermApproveLoan       Permission = "APPROVE_LOAN"
	PermDisburseLoan      Permission = "DISBURSE_LOAN"
	PermCreateUser        Permission = "CREATE_USER"
	PermViewUser          Permission = "VIEW_USER"
	PermEditUser          Permission = "EDIT_USER"
	PermDeleteUser        Permission = "DELETE_USER"
	PermManageRoles       Permission = "MANAGE_ROLES"
	PermManagePermissions Permission = "MANAGE_PERMISSIONS"
	PermViewReports       Permission = "VIEW_REPORTS"
	PermExportData        Permission = "EXPORT_DATA"
)

// AllPermissions lists every permission, in declaration order
var AllPermissions = []Permission{
	PermCreateCustomer, PermViewCustomer, PermEditCustomer, PermDeleteCustomer,
	PermCreateLoan, PermViewLoan, PermEditLoan, PermDeleteLoan,
	PermApproveLoan, PermDisburseLoan,
	PermCreateUser, PermViewUser, PermEditUser, PermDeleteUser,
	PermManageRoles, PermManagePermissions,
	PermViewReports, PermExportData,
}

// RolePermissions is the static permission table each role inherits
var RolePermissions = map[UserRole][]Permission{
	RoleSuperAdmin: AllPermissions,
	RoleAdmin: {
		PermCreateCustomer, PermViewCustomer, PermEditCustomer, PermDeleteCustomer,
		PermCreateLoan, PermViewLoan, PermEditLoan, PermDeleteLoan,
		PermApproveLoan, PermDisburseLoan,
		PermCreateUser, PermViewUser, PermEditUser,
		PermViewReports, PermExportData,
	},
	RoleLoanOfficer: {
		PermCreateCustomer, PermViewCustomer, PermEditCustomer,
		PermCreateLoan, PermViewLoan, PermEditLoan,
		PermViewReports,
	},
	RoleReadOnly: {
		PermViewCustomer, PermViewLoan, PermViewUser, PermViewReports,
	},
	RoleCustomer: {
		PermViewCustomer, PermViewLoan,
	},
}

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "SINGLE"
	MaritalMarried  MaritalStatus = "MARRIED"
	MaritalDivorced MaritalStatus = "DIVORCED"
	MaritalWidowed  MaritalStatus = "WIDOWED"
)

type LoanStatus string

const (
	LoanPending   LoanStatus = "PENDING"
	LoanApproved  LoanStatus = "APPROVED"
	LoanRejected  LoanStatus = "REJECTED"
	LoanDisbursed LoanStatus = "DISBURSED"
	LoanActive    LoanStatus = "ACTIVE"
	LoanCompleted LoanStatus = "COMPLETED"
	LoanDefaulted LoanStatus = "DEFAULTED"
)

type TenureUnit string

const (
	TenureDays   TenureUnit = "DAYS"
	TenureWeeks  TenureUnit = "WEEKS"
	TenureMonths TenureUnit = "MONTHS"
)

type DisbursementMethod string

const (
	DisbursementMpesa        DisbursementMethod = "MPESA"
	DisbursementBankTransfer DisbursementMethod = "BANK_TRANSFER"
	DisbursementCash         DisbursementMethod = "CASH"
)

// UserType selects which login endpoint a console user signs in through
type UserType string

const (
	UserTypeAdmin       UserType = "admin"
	UserTypeLoanOfficer UserType = "loan-officer"
)

// DefaultRole returns the role assumed for a user type when the backend sends none
func (t UserType) DefaultRole() UserRole {
	if t == UserTypeLoanOfficer {
		return RoleLoanOfficer
	}
	return RoleAdmin
}
