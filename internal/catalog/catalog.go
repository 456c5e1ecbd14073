// Package catalog defines the artwork records shown by the viewer and the
// contract for fetching them one page at a time.
package catalog

import (
	"context"
	"errors"
)

// ErrInvalidPage is returned for page numbers below 1.
var ErrInvalidPage = errors.New("catalog: page number must be >= 1")

// Record is one artwork. ID is stable and unique across the whole catalog.
type Record struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	PlaceOfOrigin string `json:"place_of_origin"`
	ArtistDisplay string `json:"artist_display"`
	Inscriptions  string `json:"inscriptions"`
	DateStart     int    `json:"date_start"`
	DateEnd       int    `json:"date_end"`
}

// Page is one server-side page of records plus the size of the whole catalog.
type Page struct {
	Number     int      `json:"number"`
	Limit      int      `json:"limit"`
	Records    []Record `json:"records"`
	TotalCount int      `json:"total_count"`
}

// Provider fetches pages of records. Page numbers are 1-based; a page past the
// end of the catalog yields no records rather than an error.
type Provider interface {
	FetchPage(ctx context.Context, pageNumber, limit int) (Page, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, pageNumber, limit int) (Page, error)

func (f ProviderFunc) FetchPage(ctx context.Context, pageNumber, limit int) (Page, error) {
	return f(ctx, pageNumber, limit)
}

// PageCount returns how many pages of size rowsPerPage cover total records.
func PageCount(total, rowsPerPage int) int {
	if total <= 0 || rowsPerPage <= 0 {
		return 0
	}
	return (total + rowsPerPage - 1) / rowsPerPage
}
