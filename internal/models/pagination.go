package models

// DefaultPageSize is used when a caller does not ask for a page size
const DefaultPageSize = 10

// AllStatuses is the status filter value meaning "no filter"
const AllStatuses = "All Status"

// PaginationParams are the list options for customer listings. Pages are
// zero-indexed as the backend expects.
type PaginationParams struct {
	Page      *int
	Limit     *int
	SortBy    string
	SortOrder string `validate:"omitempty,oneof=asc desc"`
	Status    string
	Search    string
}

// LoanFilters are the list options for loan listings
type LoanFilters struct {
	CustomerID    int64
	LoanReference string
	LoanStatus    LoanStatus
	LoanOfficerID int64
	FromDate      string `validate:"omitempty,datetime=2006-01-02"`
	ToDate        string `validate:"omitempty,datetime=2006-01-02"`
	Page          *int
	Size          *int
}

// Page is the uniform paginated result handed to callers regardless of the
// shape the backend used
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// IntPtr is a helper for the optional pagination fields
func IntPtr(v int) *int {
	return &v
}
