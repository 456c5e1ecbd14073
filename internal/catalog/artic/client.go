// Package artic fetches artwork pages from the Art Institute of Chicago
// public API.
package artic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jask/artview/internal/catalog"
)

const DefaultBaseURL = "https://api.artic.edu/api/v1"

// DefaultMaxResults is how deep the API lets paging go: page*limit may not
// exceed it.
const DefaultMaxResults = 10000

// defaultLimit is the page size the API uses when none is sent.
const defaultLimit = 12

var fields = []string{"id", "title", "place_of_origin", "artist_display", "inscriptions", "date_start", "date_end"}

// Config holds client settings. Zero values fall back to defaults.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
	RequestsPerMinute int
	UserAgent         string
	MaxResults        int
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("artic: http %d", e.Code)
	}
	return fmt.Sprintf("artic: http %d: %s", e.Code, e.Body)
}

// Client implements catalog.Provider over HTTP.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger

	// last reachable total seen, for pages answered without a request
	total atomic.Int64
}

func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 250 * time.Millisecond
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "artview"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return &Client{cfg: cfg, http: httpClient, limiter: limiter, logger: logger}
}

type artworksResponse struct {
	Pagination struct {
		Total       int `json:"total"`
		Limit       int `json:"limit"`
		TotalPages  int `json:"total_pages"`
		CurrentPage int `json:"current_page"`
	} `json:"pagination"`
	Data []artwork `json:"data"`
}

// artwork mirrors the API payload; several fields are nullable upstream.
type artwork struct {
	ID            int64   `json:"id"`
	Title         *string `json:"title"`
	PlaceOfOrigin *string `json:"place_of_origin"`
	ArtistDisplay *string `json:"artist_display"`
	Inscriptions  *string `json:"inscriptions"`
	DateStart     *int    `json:"date_start"`
	DateEnd       *int    `json:"date_end"`
}

func (a artwork) record() catalog.Record {
	return catalog.Record{
		ID:            a.ID,
		Title:         str(a.Title),
		PlaceOfOrigin: str(a.PlaceOfOrigin),
		ArtistDisplay: str(a.ArtistDisplay),
		Inscriptions:  str(a.Inscriptions),
		DateStart:     num(a.DateStart),
		DateEnd:       num(a.DateEnd),
	}
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func num(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

// FetchPage requests one page of artworks. TotalCount is capped at the part
// of the catalog the API will page through, and pages beyond it come back
// empty without a request.
func (c *Client) FetchPage(ctx context.Context, pageNumber, limit int) (catalog.Page, error) {
	if pageNumber < 1 {
		return catalog.Page{}, catalog.ErrInvalidPage
	}
	size := limit
	if size <= 0 {
		size = defaultLimit
	}
	if pageNumber*size > c.cfg.MaxResults {
		c.logger.Debug("page outside the API result window",
			zap.Int("page", pageNumber),
			zap.Int("limit", size),
			zap.Int("max_results", c.cfg.MaxResults))
		return catalog.Page{
			Number:     pageNumber,
			Limit:      size,
			TotalCount: int(c.total.Load()),
			Records:    []catalog.Record{},
		}, nil
	}
	var resp artworksResponse
	err := c.withRetry(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.get(ctx, pageNumber, limit)
		return err
	})
	if err != nil {
		return catalog.Page{}, err
	}
	page := catalog.Page{
		Number:     pageNumber,
		Limit:      limit,
		TotalCount: c.reachable(resp.Pagination.Total, size),
		Records:    make([]catalog.Record, 0, len(resp.Data)),
	}
	if page.Limit <= 0 {
		page.Limit = resp.Pagination.Limit
	}
	for _, a := range resp.Data {
		page.Records = append(page.Records, a.record())
	}
	c.total.Store(int64(page.TotalCount))
	return page, nil
}

// reachable caps total at the last record of the last full page inside the
// result window.
func (c *Client) reachable(total, size int) int {
	limit := (c.cfg.MaxResults / size) * size
	if total > limit {
		return limit
	}
	return total
}

func (c *Client) pageURL(pageNumber, limit int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(pageNumber))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	q.Set("fields", strings.Join(fields, ","))
	return c.cfg.BaseURL + "/artworks?" + q.Encode()
}

func (c *Client) get(ctx context.Context, pageNumber, limit int) (artworksResponse, error) {
	var out artworksResponse
	if err := c.limiter.Wait(ctx); err != nil {
		return out, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(pageNumber, limit), nil)
	if err != nil {
		return out, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	res, err := c.http.Do(req)
	if err != nil {
		return out, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return out, &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := gojson.NewDecoder(res.Body).DecodeContext(ctx, &out); err != nil {
		return out, fmt.Errorf("decode artworks page %d: %w", pageNumber, err)
	}
	return out, nil
}

// withRetry retries transient failures with exponential backoff.
func (c *Client) withRetry(ctx context.Context, operation func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.RetryBackoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || !isRetryable(err) {
			return err
		}

		c.logger.Warn("artworks request failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return lastErr
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
