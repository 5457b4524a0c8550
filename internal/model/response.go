package model

import "github.com/ridwanfathin/vetclinic-billing-service/internal/domain"

// PaginationResponse represents pagination metadata
type PaginationResponse struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

// FromDomain copies domain pagination metadata
func (p *PaginationResponse) FromDomain(d domain.Pagination) {
	p.TotalItems = d.TotalItems
	p.TotalPages = d.TotalPages
	p.CurrentPage = d.CurrentPage
	p.Limit = d.Limit
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// TokenResponse is returned when a development token is minted
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}
