package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/jask/artview/internal/catalog"
)

// PageRepo stores raw page responses keyed by source, page number and limit.
type PageRepo struct {
	db *sql.DB
}

func NewPageRepo(db *sql.DB) *PageRepo { return &PageRepo{db: db} }

func (r *PageRepo) Upsert(ctx context.Context, p CachedPage) error {
	payload, err := gojson.Marshal(p.Records)
	if err != nil {
		return fmt.Errorf("encode page %d: %w", p.PageNumber, err)
	}
	fetched := p.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO page_cache(source, page_number, page_limit, total_count, payload, fetched_at)
	VALUES(?, ?, ?, ?, ?, ?)
	ON CONFLICT(source, page_number, page_limit) DO UPDATE SET
	 total_count=excluded.total_count, payload=excluded.payload, fetched_at=excluded.fetched_at;
	`, p.Source, p.PageNumber, p.Limit, p.TotalCount, payload, fetched.UTC())
	return err
}

// Get returns the cached page or nil when there is none.
func (r *PageRepo) Get(ctx context.Context, source string, pageNumber, limit int) (*CachedPage, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT source, page_number, page_limit, total_count, payload, fetched_at
	FROM page_cache WHERE source = ? AND page_number = ? AND page_limit = ?`, source, pageNumber, limit)
	var (
		p       CachedPage
		payload []byte
	)
	if err := row.Scan(&p.Source, &p.PageNumber, &p.Limit, &p.TotalCount, &payload, &p.FetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := gojson.Unmarshal(payload, &p.Records); err != nil {
		return nil, fmt.Errorf("decode cached page %d: %w", pageNumber, err)
	}
	if p.Records == nil {
		p.Records = []catalog.Record{}
	}
	return &p, nil
}

// DeleteOlderThan drops rows fetched before cutoff and returns how many went.
func (r *PageRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM page_cache WHERE fetched_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PageRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM page_cache`).Scan(&n)
	return n, err
}
