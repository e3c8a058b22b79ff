package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPrepareOrderDateOpenDay(t *testing.T) {
	g := NewGuard(newFakeClosures())

	d, err := g.PrepareOrderDate(context.Background(), 1, day("2025-01-15"))
	require.NoError(t, err)
	assert.False(t, d.Shifted)
	assert.Equal(t, day("2025-01-15"), d.Effective)
	assert.Equal(t, day("2025-01-15"), d.Requested)
	assert.Empty(t, d.Reason)
	assert.Equal(t, "masa 4", d.NoteSuffix("masa 4"))
}

func TestPrepareOrderDateClosedDay(t *testing.T) {
	g := NewGuard(newFakeClosures("2025-01-15"))

	d, err := g.PrepareOrderDate(context.Background(), 1, day("2025-01-15"))
	require.NoError(t, err)
	assert.True(t, d.Shifted)
	assert.Equal(t, day("2025-01-16"), d.Effective)
	assert.Equal(t, "Order date automatically moved from 2025-01-15 to 2025-01-16 because 2025-01-15 is closed.", d.Reason)
	assert.Contains(t, d.Reason, "moved from 2025-01-15 to 2025-01-16")

	assert.Equal(t, d.Reason, d.NoteSuffix(""))
	assert.Equal(t, "acil "+d.Reason, d.NoteSuffix("acil"))
}

func TestPrepareOrderDateMovesExactlyOneDay(t *testing.T) {
	g := NewGuard(newFakeClosures("2025-01-15", "2025-01-16"))

	d, err := g.PrepareOrderDate(context.Background(), 1, day("2025-01-15"))
	require.NoError(t, err)
	assert.Equal(t, day("2025-01-16"), d.Effective)
}

func TestPrepareOrderDateIsIdempotent(t *testing.T) {
	for _, closed := range [][]string{nil, {"2025-01-15"}} {
		g := NewGuard(newFakeClosures(closed...))
		first, err := g.PrepareOrderDate(context.Background(), 1, day("2025-01-15"))
		require.NoError(t, err)
		second, err := g.PrepareOrderDate(context.Background(), 1, day("2025-01-15"))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestPrepareOrderDateTruncatesTime(t *testing.T) {
	g := NewGuard(newFakeClosures("2025-01-15"))

	d, err := g.PrepareOrderDate(context.Background(), 1, time.Date(2025, 1, 15, 23, 10, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, day("2025-01-15"), d.Requested)
	assert.Equal(t, day("2025-01-16"), d.Effective)
}

func TestPrepareOrderDateLookupFailure(t *testing.T) {
	closures := newFakeClosures()
	closures.err = errors.New("db down")
	g := NewGuard(closures)

	_, err := g.PrepareOrderDate(context.Background(), 1, day("2025-01-15"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestPrepareOrderDateMonthBoundary(t *testing.T) {
	g := NewGuard(newFakeClosures("2025-01-31"))

	d, err := g.PrepareOrderDate(context.Background(), 1, day("2025-01-31"))
	require.NoError(t, err)
	assert.Equal(t, day("2025-02-01"), d.Effective)
}
