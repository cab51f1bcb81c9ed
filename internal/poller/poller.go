package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"greenhat/internal/models"
	"greenhat/internal/service"
)

// Fetcher is the portal surface the poller needs.
type Fetcher interface {
	FetchSessions(ctx context.Context) ([]models.Session, error)
	FetchPayments(ctx context.Context) ([]models.Payment, error)
	FetchRouters(ctx context.Context) ([]models.Router, error)
	FetchBusinesses(ctx context.Context) ([]models.Business, error)
}

// Cache persists the last good snapshot between restarts. May be nil.
type Cache interface {
	Save(ctx context.Context, snap models.Snapshot) error
	Load(ctx context.Context) (*models.Snapshot, error)
}

// Config holds poller timings.
type Config struct {
	// FetchInterval is the portal poll cadence.
	FetchInterval time.Duration
	// TickInterval is the local recompute cadence. Remaining time is shown
	// in fractional hours, so once a minute is plenty.
	TickInterval time.Duration
}

const (
	defaultFetchInterval = 8 * time.Second
	defaultTickInterval  = 60 * time.Second
)

// Poller is the single scheduled-task abstraction: the fetch ticker, the
// recompute tick and explicit Refresh calls all run on one loop, so a manual
// refresh can never race a timer tick. It is the sole writer of the derived
// snapshot; readers get the value under an RWMutex and slices are always
// replaced wholesale, never mutated in place.
type Poller struct {
	fetcher       Fetcher
	cache         Cache
	logger        *zap.Logger
	clock         service.Clock
	fetchInterval time.Duration
	tickInterval  time.Duration

	mu       sync.RWMutex
	snap     models.Snapshot
	warnings []service.Warning
	haveData bool

	onUpdate  func(models.Snapshot)
	refreshCh chan chan error
}

// New builds the poller. cache may be nil when no redis is configured.
func New(fetcher Fetcher, cache Cache, logger *zap.Logger, cfg Config) *Poller {
	if cfg.FetchInterval <= 0 {
		cfg.FetchInterval = defaultFetchInterval
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	return &Poller{
		fetcher:       fetcher,
		cache:         cache,
		logger:        logger,
		clock:         time.Now,
		fetchInterval: cfg.FetchInterval,
		tickInterval:  cfg.TickInterval,
		refreshCh:     make(chan chan error),
	}
}

// SetClock overrides the time source. Call before Run.
func (p *Poller) SetClock(clock service.Clock) {
	if clock != nil {
		p.clock = clock
	}
}

// OnUpdate registers a callback invoked after every successful refresh and
// recompute tick. Call before Run.
func (p *Poller) OnUpdate(fn func(models.Snapshot)) {
	p.onUpdate = fn
}

// Run drives the loop until ctx is cancelled. Tickers and in-flight work
// are torn down with the context, so no update can land after shutdown.
func (p *Poller) Run(ctx context.Context) error {
	p.loadCached(ctx)

	if err := p.refresh(ctx); err != nil {
		p.logger.Warn("initial portal fetch failed, serving cached snapshot if any", zap.Error(err))
	}

	fetchTicker := time.NewTicker(p.fetchInterval)
	defer fetchTicker.Stop()
	tickTicker := time.NewTicker(p.tickInterval)
	defer tickTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-fetchTicker.C:
			if err := p.refresh(ctx); err != nil {
				p.logger.Warn("portal fetch failed, keeping last good snapshot", zap.Error(err))
			}
		case <-tickTicker.C:
			p.recompute()
		case reply := <-p.refreshCh:
			reply <- p.refresh(ctx)
		}
	}
}

// Refresh routes a manual refresh through the loop and waits for it.
func (p *Poller) Refresh(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case p.refreshCh <- reply:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the last derived snapshot. The bool is false until the
// first successful fetch or cache load.
func (p *Poller) Snapshot() (models.Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap, p.haveData
}

// Warnings returns the malformed-record warnings from the last recompute.
func (p *Poller) Warnings() []service.Warning {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.warnings
}

// RemovePayment drops a payment from the working snapshot. Optimistic local
// removal after a reject command; the next fetch is authoritative.
func (p *Poller) RemovePayment(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.haveData {
		return
	}
	filtered := make([]models.Payment, 0, len(p.snap.Payments))
	for _, payment := range p.snap.Payments {
		if payment.ID != id {
			filtered = append(filtered, payment)
		}
	}
	p.snap.Payments = filtered
}

func (p *Poller) refresh(ctx context.Context) error {
	sessions, err := p.fetcher.FetchSessions(ctx)
	if err != nil {
		return err
	}
	payments, err := p.fetcher.FetchPayments(ctx)
	if err != nil {
		return err
	}
	routers, err := p.fetcher.FetchRouters(ctx)
	if err != nil {
		return err
	}
	// Best effort: non-super tokens get rejected here and that is fine.
	businesses, err := p.fetcher.FetchBusinesses(ctx)
	if err != nil {
		p.logger.Debug("businesses fetch skipped", zap.Error(err))
		businesses = nil
	}

	now := p.clock()
	tracked, warnings := service.RecomputeSessions(sessions, now)
	for _, w := range warnings {
		p.logger.Warn("malformed session record", zap.String("kind", w.Kind), zap.Int64("id", w.ID), zap.String("detail", w.Detail))
	}

	snap := models.Snapshot{
		Sessions:     tracked,
		Payments:     payments,
		Routers:      routers,
		Businesses:   businesses,
		FetchedAt:    now,
		RecomputedAt: now,
	}

	p.mu.Lock()
	p.snap = snap
	p.warnings = warnings
	p.haveData = true
	p.mu.Unlock()

	if p.cache != nil {
		if err := p.cache.Save(ctx, snap); err != nil {
			p.logger.Warn("failed to cache snapshot", zap.Error(err))
		}
	}
	p.notify(snap)
	return nil
}

// recompute re-runs the tracker against the held snapshot with a fresh now.
// A stale read against the last fetch self-corrects at the next poll.
func (p *Poller) recompute() {
	p.mu.Lock()
	if !p.haveData {
		p.mu.Unlock()
		return
	}
	now := p.clock()
	tracked, warnings := service.RecomputeSessions(p.snap.Sessions, now)
	p.snap.Sessions = tracked
	p.snap.RecomputedAt = now
	p.warnings = warnings
	snap := p.snap
	p.mu.Unlock()

	p.notify(snap)
}

func (p *Poller) loadCached(ctx context.Context) {
	if p.cache == nil {
		return
	}
	cached, err := p.cache.Load(ctx)
	if err != nil {
		p.logger.Warn("failed to load cached snapshot", zap.Error(err))
		return
	}
	if cached == nil {
		return
	}

	now := p.clock()
	tracked, warnings := service.RecomputeSessions(cached.Sessions, now)
	cached.Sessions = tracked
	cached.RecomputedAt = now
	cached.Stale = true

	p.mu.Lock()
	p.snap = *cached
	p.warnings = warnings
	p.haveData = true
	p.mu.Unlock()

	p.logger.Info("restored snapshot from cache", zap.Time("fetched_at", cached.FetchedAt))
}

func (p *Poller) notify(snap models.Snapshot) {
	if p.onUpdate != nil {
		p.onUpdate(snap)
	}
}
