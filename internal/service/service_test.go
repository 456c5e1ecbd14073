package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/artview/internal/catalog"
	"github.com/jask/artview/internal/database"
	"github.com/jask/artview/internal/database/repository"
	"github.com/jask/artview/internal/pagecache"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrationsWithDB(db))
	return db
}

type countingProvider struct {
	calls int32
	err   error
}

func (c *countingProvider) FetchPage(ctx context.Context, pageNumber, limit int) (catalog.Page, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.err != nil {
		return catalog.Page{}, c.err
	}
	return catalog.Page{
		Number:     pageNumber,
		Limit:      limit,
		TotalCount: 40,
		Records:    []catalog.Record{{ID: int64(pageNumber*100 + 1), Title: "t"}},
	}, nil
}

func TestCachedProviderServesFreshEntries(t *testing.T) {
	ctx := context.Background()
	up := &countingProvider{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &CachedProvider{
		Upstream: up,
		Pages:    repository.NewPageRepo(openTestDB(t)),
		Source:   "artic",
		TTL:      time.Minute,
		now:      func() time.Time { return now },
	}

	first, err := p.FetchPage(ctx, 2, 5)
	require.NoError(t, err)
	second, err := p.FetchPage(ctx, 2, 5)
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&up.calls))
	require.Equal(t, first.Records, second.Records)
	require.Equal(t, 40, second.TotalCount)

	now = now.Add(2 * time.Minute)
	_, err = p.FetchPage(ctx, 2, 5)
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&up.calls), "expired entry is refetched")
}

func TestCachedProviderDisabledWithoutTTL(t *testing.T) {
	up := &countingProvider{}
	p := &CachedProvider{Upstream: up, Pages: repository.NewPageRepo(openTestDB(t)), Source: "artic"}
	for i := 0; i < 3; i++ {
		_, err := p.FetchPage(context.Background(), 1, 5)
		require.NoError(t, err)
	}
	require.Equal(t, int32(3), atomic.LoadInt32(&up.calls))
}

func TestCachedProviderPropagatesUpstreamError(t *testing.T) {
	boom := errors.New("boom")
	p := &CachedProvider{
		Upstream: &countingProvider{err: boom},
		Pages:    repository.NewPageRepo(openTestDB(t)),
		Source:   "artic",
		TTL:      time.Minute,
	}
	_, err := p.FetchPage(context.Background(), 1, 5)
	require.ErrorIs(t, err, boom)

	_, err = p.FetchPage(context.Background(), 0, 5)
	require.ErrorIs(t, err, catalog.ErrInvalidPage)
}

// gatedProvider holds fetches of one page until release is closed or the
// fetch's own context ends.
type gatedProvider struct {
	gate    int
	started chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls map[int]int
}

func newGatedProvider(gate int) *gatedProvider {
	return &gatedProvider{
		gate:    gate,
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
		calls:   map[int]int{},
	}
}

func (g *gatedProvider) FetchPage(ctx context.Context, pageNumber, limit int) (catalog.Page, error) {
	g.mu.Lock()
	g.calls[pageNumber]++
	g.mu.Unlock()
	if pageNumber == g.gate {
		g.started <- struct{}{}
		select {
		case <-g.release:
		case <-ctx.Done():
			return catalog.Page{}, ctx.Err()
		}
	}
	return catalog.Page{
		Number:     pageNumber,
		Limit:      limit,
		TotalCount: 40,
		Records:    []catalog.Record{{ID: int64(pageNumber*100 + 1), Title: "t"}},
	}, nil
}

func (g *gatedProvider) callsFor(pageNumber int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[pageNumber]
}

func TestCachedProviderSharesConcurrentFetches(t *testing.T) {
	var (
		calls int32
		ready sync.WaitGroup
	)
	ready.Add(4)
	up := catalog.ProviderFunc(func(ctx context.Context, pageNumber, limit int) (catalog.Page, error) {
		atomic.AddInt32(&calls, 1)
		ready.Wait()
		time.Sleep(50 * time.Millisecond)
		return catalog.Page{Number: pageNumber, Limit: limit, TotalCount: 40,
			Records: []catalog.Record{{ID: 701, Title: "t"}}}, nil
	})
	p := &CachedProvider{
		Upstream: up,
		Pages:    repository.NewPageRepo(openTestDB(t)),
		Source:   "artic",
		TTL:      time.Minute,
	}

	results := make([]catalog.Page, 4)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ready.Done()
			page, err := p.FetchPage(context.Background(), 7, 5)
			assert.NoError(t, err)
			results[i] = page
		}(i)
	}
	wg.Wait()
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, page := range results {
		require.Equal(t, []catalog.Record{{ID: 701, Title: "t"}}, page.Records)
	}
}

func TestCancelledCallerLeavesSharedFetchRunning(t *testing.T) {
	up := newGatedProvider(3)
	p := &CachedProvider{
		Upstream: up,
		Pages:    repository.NewPageRepo(openTestDB(t)),
		Source:   "artic",
		TTL:      time.Minute,
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := p.FetchPage(ctx, 3, 5)
		first <- err
	}()
	<-up.started

	var wg sync.WaitGroup
	pages := make([]catalog.Page, 2)
	for i := range pages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			page, err := p.FetchPage(context.Background(), 3, 5)
			assert.NoError(t, err)
			pages[i] = page
		}(i)
	}

	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(up.release)
	wg.Wait()

	for _, page := range pages {
		require.Equal(t, int64(301), page.Records[0].ID)
	}
	require.Equal(t, 1, up.callsFor(3))
}

func TestNewerRequestSurvivesCancelledSharedFetch(t *testing.T) {
	ctx := context.Background()
	up := newGatedProvider(2)
	p := &CachedProvider{
		Upstream: up,
		Pages:    repository.NewPageRepo(openTestDB(t)),
		Source:   "artic",
		TTL:      time.Minute,
	}
	cache := pagecache.New(p, 5, nil)

	older := cache.Begin(ctx, 2)
	olderDone := make(chan pagecache.Result, 1)
	go func() { olderDone <- cache.Fetch(older) }()
	<-up.started

	// moving to page 1 cancels the page 2 request
	require.True(t, cache.Apply(cache.Fetch(cache.Begin(ctx, 1))))
	stale := <-olderDone
	require.ErrorIs(t, stale.Err, context.Canceled)
	require.False(t, cache.Apply(stale))

	latest := cache.Begin(ctx, 2)
	latestDone := make(chan pagecache.Result, 1)
	go func() { latestDone <- cache.Fetch(latest) }()
	time.Sleep(20 * time.Millisecond)
	close(up.release)

	res := <-latestDone
	require.NoError(t, res.Err)
	require.True(t, cache.Apply(res))
	require.Equal(t, 2, cache.PageNumber())
	require.Equal(t, int64(201), cache.CurrentRecords()[0].ID)
	require.False(t, cache.Loading())
	require.Equal(t, 1, up.callsFor(2))
}

func TestFetchTimeoutBoundsSharedFetch(t *testing.T) {
	up := newGatedProvider(4)
	p := &CachedProvider{
		Upstream:     up,
		Pages:        repository.NewPageRepo(openTestDB(t)),
		Source:       "artic",
		TTL:          time.Minute,
		FetchTimeout: 20 * time.Millisecond,
	}
	_, err := p.FetchPage(context.Background(), 4, 5)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPurgeAndClearCache(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	pages := repository.NewPageRepo(db)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &CachedProvider{Upstream: &countingProvider{}, Pages: pages, Source: "artic", TTL: time.Minute,
		now: func() time.Time { return now }}

	_, err := p.FetchPage(ctx, 1, 5)
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	_, err = p.FetchPage(ctx, 2, 5)
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	purged, err := p.Purge(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)
	size, err := p.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, size)

	m := &MaintenanceService{DB: db}
	require.NoError(t, m.ClearCache(ctx))
	n, err := pages.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	require.Error(t, (&MaintenanceService{}).ClearCache(ctx))
}
