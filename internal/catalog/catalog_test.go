package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageCount(t *testing.T) {
	cases := []struct {
		total, rows, want int
	}{
		{0, 12, 0},
		{1, 12, 1},
		{12, 12, 1},
		{13, 12, 2},
		{100, 10, 10},
		{5, 0, 0},
		{-3, 4, 0},
	}
	for _, c := range cases {
		require.Equal(t, c.want, PageCount(c.total, c.rows), "total=%d rows=%d", c.total, c.rows)
	}
}

func TestProviderFunc(t *testing.T) {
	var gotPage, gotLimit int
	p := ProviderFunc(func(_ context.Context, n, limit int) (Page, error) {
		gotPage, gotLimit = n, limit
		return Page{Number: n, Limit: limit, TotalCount: 1, Records: []Record{{ID: 7}}}, nil
	})
	page, err := p.FetchPage(context.Background(), 3, 25)
	require.NoError(t, err)
	require.Equal(t, 3, gotPage)
	require.Equal(t, 25, gotLimit)
	require.Equal(t, int64(7), page.Records[0].ID)
}
