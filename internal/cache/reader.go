package cache

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"financetrack/internal/core"
	"financetrack/internal/sheets"
)

const (
	spendingKey    = "spending"
	trendKeyPrefix = "trend:"
	maxEntries     = 32

	// fillTimeout bounds a shared upstream call, which no single request owns.
	fillTimeout = 10 * time.Second
)

// Reader caches the results of a DashboardReader. Failed queries are not
// cached. Concurrent misses for the same query share one upstream call that
// outlives any one caller's context.
type Reader struct {
	next     sheets.DashboardReader
	spending *LRUCache[[]core.SpendingByCategory]
	trend    *LRUCache[[]core.MonthlyTrend]
	group    singleflight.Group

	// mu orders Invalidate against fills storing their result.
	mu  sync.Mutex
	gen uint64
}

// NewReader wraps next with a cache whose entries live for ttl.
func NewReader(next sheets.DashboardReader, ttl time.Duration) *Reader {
	return &Reader{
		next:     next,
		spending: NewLRUCache[[]core.SpendingByCategory](1, ttl),
		trend:    NewLRUCache[[]core.MonthlyTrend](maxEntries, ttl),
	}
}

// Wrap returns next unchanged when ttl disables caching.
func Wrap(next sheets.DashboardReader, ttl time.Duration) sheets.DashboardReader {
	if ttl <= 0 {
		return next
	}
	return NewReader(next, ttl)
}

// SpendingByCategory implements sheets.DashboardReader.
func (r *Reader) SpendingByCategory(ctx context.Context) ([]core.SpendingByCategory, error) {
	return load(ctx, r, r.spending, spendingKey, r.next.SpendingByCategory)
}

// MonthlyTrend implements sheets.DashboardReader.
func (r *Reader) MonthlyTrend(ctx context.Context, months int) ([]core.MonthlyTrend, error) {
	return load(ctx, r, r.trend, trendKeyPrefix+strconv.Itoa(months), func(ctx context.Context) ([]core.MonthlyTrend, error) {
		return r.next.MonthlyTrend(ctx, months)
	})
}

// load serves key from c or joins the flight filling it. The caller stops
// waiting when its own ctx ends; the flight carries on for the others.
func load[T any](ctx context.Context, r *Reader, c *LRUCache[[]T], key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if rows, ok := c.Get(key); ok {
		return slices.Clone(rows), nil
	}

	gen := r.generation()
	flight := key + "@" + strconv.FormatUint(gen, 10)
	ch := r.group.DoChan(flight, func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()
		rows, err := fetch(fillCtx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if r.gen == gen {
			c.Set(key, rows)
		}
		r.mu.Unlock()
		return rows, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]T)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Reader) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Invalidate drops every cached result. Fills already in flight still
// answer their callers but are not stored.
func (r *Reader) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.spending.Purge()
	r.trend.Purge()
}

// Cleaners returns the underlying caches for registration with a Manager.
func (r *Reader) Cleaners() []Cleaner {
	return []Cleaner{r.spending, r.trend}
}
