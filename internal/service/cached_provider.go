package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jask/artview/internal/catalog"
	"github.com/jask/artview/internal/database/repository"
)

// CachedProvider is a read-through cache in front of another provider.
// Entries younger than TTL are served from the page_cache table; older or
// missing ones are fetched and stored. Concurrent fetches of the same page
// share one upstream call, which outlives any caller that gives up on it and
// is bounded by FetchTimeout instead. A storage failure never fails a fetch.
type CachedProvider struct {
	Upstream     catalog.Provider
	Pages        *repository.PageRepo
	Source       string
	TTL          time.Duration
	FetchTimeout time.Duration
	Logger       *zap.Logger

	now   func() time.Time
	group singleflight.Group
}

func (p *CachedProvider) FetchPage(ctx context.Context, pageNumber, limit int) (catalog.Page, error) {
	if pageNumber < 1 {
		return catalog.Page{}, catalog.ErrInvalidPage
	}
	if p.TTL <= 0 || p.Pages == nil {
		return p.Upstream.FetchPage(ctx, pageNumber, limit)
	}

	if err := ctx.Err(); err != nil {
		return catalog.Page{}, fmt.Errorf("fetch page %d: %w", pageNumber, err)
	}
	if cached, err := p.Pages.Get(ctx, p.Source, pageNumber, limit); err != nil {
		p.logger().Warn("page cache read failed", zap.Int("page", pageNumber), zap.Error(err))
	} else if cached != nil && p.clock().Sub(cached.FetchedAt) < p.TTL {
		return catalog.Page{
			Number:     cached.PageNumber,
			Limit:      cached.Limit,
			TotalCount: cached.TotalCount,
			Records:    cached.Records,
		}, nil
	}

	key := p.Source + ":" + strconv.Itoa(pageNumber) + ":" + strconv.Itoa(limit)
	ch := p.group.DoChan(key, func() (interface{}, error) {
		// Shared by every caller of this page, so no single caller's
		// cancellation may end it.
		fctx, cancel := p.sharedContext(ctx)
		defer cancel()
		page, err := p.Upstream.FetchPage(fctx, pageNumber, limit)
		if err != nil {
			return catalog.Page{}, err
		}
		if err := p.Pages.Upsert(fctx, repository.CachedPage{
			Source:     p.Source,
			PageNumber: pageNumber,
			Limit:      limit,
			TotalCount: page.TotalCount,
			Records:    page.Records,
			FetchedAt:  p.clock(),
		}); err != nil {
			p.logger().Warn("page cache write failed", zap.Int("page", pageNumber), zap.Error(err))
		}
		return page, nil
	})

	select {
	case <-ctx.Done():
		return catalog.Page{}, fmt.Errorf("fetch page %d: %w", pageNumber, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return catalog.Page{}, fmt.Errorf("fetch page %d: %w", pageNumber, res.Err)
		}
		return res.Val.(catalog.Page), nil
	}
}

func (p *CachedProvider) sharedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if p.FetchTimeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, p.FetchTimeout)
}

// Size reports how many page responses are stored.
func (p *CachedProvider) Size(ctx context.Context) (int, error) {
	if p.Pages == nil {
		return 0, nil
	}
	return p.Pages.Count(ctx)
}

// Purge drops entries that are past their TTL.
func (p *CachedProvider) Purge(ctx context.Context) (int64, error) {
	if p.Pages == nil || p.TTL <= 0 {
		return 0, nil
	}
	return p.Pages.DeleteOlderThan(ctx, p.clock().Add(-p.TTL))
}

func (p *CachedProvider) clock() time.Time {
	if p.now != nil {
		return p.now().UTC()
	}
	return time.Now().UTC()
}

func (p *CachedProvider) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
