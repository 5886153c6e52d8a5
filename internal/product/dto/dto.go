package dto

// ProductFilters is the list query as received from a caller. Unknown
// sort fields and statuses are ignored.
type ProductFilters struct {
	SearchQuery        string
	Category           string
	Status             string
	ActiveOnly         bool
	ExpiringWithinDays int
	SortBy             string // name, category, price, stock, expiry
	SortOrder          string // asc, desc
	Page               int
	PageSize           int
}
