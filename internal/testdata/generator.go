// Package testdata generates a deterministic artwork catalog for offline use
// and tests.
package testdata

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jask/artview/internal/catalog"
)

var (
	titles   = []string{"Still Life", "River Landscape", "Portrait of a Woman", "Study of Hands", "Harbor at Dusk", "Untitled", "Mountain Pass", "Garden Gate"}
	artists  = []string{"Mary Cassatt", "Winslow Homer", "Katsushika Hokusai", "Georgia O'Keeffe", "Paul Cezanne", "Unknown"}
	origins  = []string{"United States", "France", "Japan", "Netherlands", "Italy", ""}
	captions = []string{"", "", "signed lower right", "dated on reverse", "inscribed in ink"}
)

// Artworks returns n records with ids 1..n. The same seed always yields the
// same catalog.
func Artworks(n int, seed int64) []catalog.Record {
	rng := rand.New(rand.NewSource(seed))
	out := make([]catalog.Record, 0, n)
	for i := 1; i <= n; i++ {
		start := 1500 + rng.Intn(500)
		out = append(out, catalog.Record{
			ID:            int64(i),
			Title:         fmt.Sprintf("%s No. %d", titles[rng.Intn(len(titles))], i),
			PlaceOfOrigin: origins[rng.Intn(len(origins))],
			ArtistDisplay: artists[rng.Intn(len(artists))],
			Inscriptions:  captions[rng.Intn(len(captions))],
			DateStart:     start,
			DateEnd:       start + rng.Intn(5),
		})
	}
	return out
}

// Provider serves a fixed catalog page by page. Delay simulates latency.
type Provider struct {
	Records []catalog.Record
	Delay   time.Duration
}

func NewProvider(n int, seed int64) *Provider {
	return &Provider{Records: Artworks(n, seed)}
}

func (p *Provider) FetchPage(ctx context.Context, pageNumber, limit int) (catalog.Page, error) {
	if pageNumber < 1 {
		return catalog.Page{}, catalog.ErrInvalidPage
	}
	if p.Delay > 0 {
		select {
		case <-ctx.Done():
			return catalog.Page{}, ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	if limit <= 0 {
		limit = 12
	}
	page := catalog.Page{Number: pageNumber, Limit: limit, TotalCount: len(p.Records), Records: []catalog.Record{}}
	start := (pageNumber - 1) * limit
	if start >= len(p.Records) {
		return page, nil
	}
	end := start + limit
	if end > len(p.Records) {
		end = len(p.Records)
	}
	page.Records = append(page.Records, p.Records[start:end]...)
	return page, nil
}
