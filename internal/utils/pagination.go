package utils

import "github.com/yukikurage/issue-tracker-api/internal/query"

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// NewPaginationResponse describes the page q selected out of total matches
func NewPaginationResponse(q *query.Query, total int64) PaginationResponse {
	return PaginationResponse{
		Page:  q.Page,
		Limit: q.Limit,
		Total: total,
	}
}
