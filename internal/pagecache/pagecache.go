// Package pagecache holds the single page of records currently on screen.
//
// Every navigation replaces the page wholesale. Loads are split into Begin
// (on the event loop), Request.Fetch (off it) and Apply (back on it); each
// Begin takes a new sequence number and Apply drops any result whose number
// is no longer current, so a slow response for a page the user already left
// can never overwrite a newer one.
package pagecache

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jask/artview/internal/catalog"
)

// Cache is owned by one event loop and is not safe for concurrent use.
type Cache struct {
	provider catalog.Provider
	limit    int
	log      *zap.Logger

	seq     uint64
	cancel  context.CancelFunc
	loading bool

	page catalog.Page
}

// New returns an empty cache fetching limit records per page from provider.
// A nil logger disables error reporting.
func New(provider catalog.Provider, limit int, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{provider: provider, limit: limit, log: log}
}

// Request is one in-flight page load.
type Request struct {
	Seq        uint64
	PageNumber int
	Limit      int
	ctx        context.Context
}

// Result is what a Request produced.
type Result struct {
	Seq        uint64
	PageNumber int
	Page       catalog.Page
	Err        error
}

// Begin marks the cache as loading pageNumber and supersedes any earlier
// request, cancelling its context.
func (c *Cache) Begin(ctx context.Context, pageNumber int) Request {
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	c.loading = true
	rctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	return Request{Seq: c.seq, PageNumber: pageNumber, Limit: c.limit, ctx: rctx}
}

// Fetch calls the provider. It does not touch the cache and may run on any
// goroutine.
func (r Request) Fetch(p catalog.Provider) Result {
	ctx := r.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	res := Result{Seq: r.Seq, PageNumber: r.PageNumber}
	if r.PageNumber < 1 {
		res.Err = fmt.Errorf("load page %d: %w", r.PageNumber, catalog.ErrInvalidPage)
		return res
	}
	page, err := p.FetchPage(ctx, r.PageNumber, r.Limit)
	if err != nil {
		res.Err = fmt.Errorf("load page %d: %w", r.PageNumber, err)
		return res
	}
	res.Page = page
	return res
}

// Fetch runs req against the cache's own provider.
func (c *Cache) Fetch(req Request) Result {
	return req.Fetch(c.provider)
}

// Apply stores res if it answers the latest request and reports whether it
// did. Stale results are dropped without touching any state. A failed
// result clears the loading flag and keeps the previous page and total.
func (c *Cache) Apply(res Result) bool {
	if res.Seq != c.seq {
		c.log.Debug("discarding stale page response",
			zap.Int("page", res.PageNumber),
			zap.Uint64("seq", res.Seq),
			zap.Uint64("current_seq", c.seq))
		return false
	}
	c.loading = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if res.Err != nil {
		if errors.Is(res.Err, context.Canceled) {
			c.log.Debug("page load cancelled",
				zap.Int("page", res.PageNumber),
				zap.Uint64("seq", res.Seq))
			return true
		}
		c.log.Error("page load failed",
			zap.Int("page", res.PageNumber),
			zap.Uint64("seq", res.Seq),
			zap.Error(res.Err))
		return true
	}
	page := res.Page
	page.Number = res.PageNumber
	if page.Records == nil {
		page.Records = []catalog.Record{}
	}
	c.page = page
	return true
}

// Load fetches pageNumber synchronously. The returned error is the provider
// failure, already reported to the logger; prior state is kept on failure.
func (c *Cache) Load(ctx context.Context, pageNumber int) error {
	res := c.Fetch(c.Begin(ctx, pageNumber))
	c.Apply(res)
	return res.Err
}

// CurrentRecords returns the active page's records, empty before the first
// successful load.
func (c *Cache) CurrentRecords() []catalog.Record {
	if c.page.Records == nil {
		return []catalog.Record{}
	}
	return c.page.Records
}

// TotalCount is the last known catalog size, 0 before the first successful load.
func (c *Cache) TotalCount() int { return c.page.TotalCount }

// PageNumber is the 1-based number of the page held, 0 before the first
// successful load.
func (c *Cache) PageNumber() int { return c.page.Number }

func (c *Cache) Loading() bool { return c.loading }

func (c *Cache) Limit() int { return c.limit }

// PageCount is ceil(TotalCount / rowsPerPage).
func (c *Cache) PageCount(rowsPerPage int) int {
	return catalog.PageCount(c.page.TotalCount, rowsPerPage)
}
