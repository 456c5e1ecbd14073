package repository

import (
	"time"

	"github.com/jask/artview/internal/catalog"
)

// CachedPage represents a page_cache row.
type CachedPage struct {
	Source     string
	PageNumber int
	Limit      int
	TotalCount int
	Records    []catalog.Record
	FetchedAt  time.Time
}
