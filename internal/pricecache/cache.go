// Package pricecache keeps short-lived token prices in SOL and the
// simulated positions built from them in dry-run mode.
package pricecache

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/observability"
	"solana-volume-bot/internal/storage"
)

// DefaultTTL is how long a fetched price is served without refreshing.
const DefaultTTL = 10 * time.Second

// Source fetches the current price of a token denominated in SOL.
type Source interface {
	Name() string
	Price(ctx context.Context, token string) (float64, error)
}

type entry struct {
	price     float64
	source    string
	fetchedAt time.Time
}

// Config configures Cache.
type Config struct {
	TTL time.Duration
	// AlertThresholdPct triggers a warning when a refresh moves the price
	// by at least this many percent. Zero disables alerts.
	AlertThresholdPct float64
}

// Cache serves token prices, refreshing entries older than the TTL from
// the first source that answers. Concurrent refreshes of one token are not
// coalesced; the last writer wins.
type Cache struct {
	sources []Source
	cfg     Config
	samples storage.PriceSampleStore
	metrics *observability.Metrics
	log     logrus.FieldLogger
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

// CacheOption configures Cache.
type CacheOption func(*Cache)

// WithSampleStore records every refresh in store.
func WithSampleStore(store storage.PriceSampleStore) CacheOption {
	return func(c *Cache) { c.samples = store }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// New creates a cache over sources, tried in order.
func New(cfg Config, log logrus.FieldLogger, sources []Source, opts ...CacheOption) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Cache{
		sources: sources,
		cfg:     cfg,
		metrics: observability.DefaultMetrics,
		log:     log.WithField("component", "pricecache"),
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the price of token in SOL.
func (c *Cache) Get(ctx context.Context, token string) (float64, error) {
	c.mu.RLock()
	e, ok := c.entries[token]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.fetchedAt) < c.cfg.TTL {
		return e.price, nil
	}
	return c.refresh(ctx, token, e, ok)
}

// Peek returns the cached price without refreshing, regardless of age.
func (c *Cache) Peek(token string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[token]
	return e.price, ok
}

func (c *Cache) refresh(ctx context.Context, token string, prev entry, hadPrev bool) (float64, error) {
	var lastErr error
	for _, src := range c.sources {
		price, err := src.Price(ctx, token)
		if err != nil {
			lastErr = err
			c.log.WithFields(logrus.Fields{
				"token":  token,
				"source": src.Name(),
			}).WithError(err).Debug("price source failed")
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			lastErr = fmt.Errorf("%s: non-positive price %v", src.Name(), price)
			continue
		}

		now := c.now()
		c.mu.Lock()
		c.entries[token] = entry{price: price, source: src.Name(), fetchedAt: now}
		c.mu.Unlock()

		if hadPrev {
			c.checkAlert(token, src.Name(), prev.price, price)
		}
		c.record(ctx, token, src.Name(), price, now)
		return price, nil
	}

	if lastErr == nil {
		return 0, fmt.Errorf("%s: %w", token, domain.ErrPriceUnavailable)
	}
	return 0, fmt.Errorf("%s: %w: %v", token, domain.ErrPriceUnavailable, lastErr)
}

func (c *Cache) checkAlert(token, source string, prev, next float64) {
	if c.cfg.AlertThresholdPct <= 0 || prev <= 0 {
		return
	}
	change := (next - prev) / prev * 100
	if math.Abs(change) < c.cfg.AlertThresholdPct {
		return
	}
	c.log.WithFields(logrus.Fields{
		"token":      token,
		"source":     source,
		"prev_price": prev,
		"price":      next,
		"change_pct": change,
	}).Warn("price moved above alert threshold")
	if c.metrics != nil {
		c.metrics.RecordPriceAlert(source)
	}
}

func (c *Cache) record(ctx context.Context, token, source string, price float64, at time.Time) {
	if c.samples == nil {
		return
	}
	sample := &domain.PriceSample{
		Token:       token,
		TimestampMs: at.UnixMilli(),
		Price:       price,
		Source:      source,
	}
	if err := c.samples.InsertBulk(ctx, []*domain.PriceSample{sample}); err != nil {
		c.log.WithField("token", token).WithError(err).Warn("record price sample")
	}
}
