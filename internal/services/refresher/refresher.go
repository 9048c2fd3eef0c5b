package refresher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/ScoreBox/internal/cache"
	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/BearBump/ScoreBox/internal/services/reports"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Reports is the part of reports.Service the refresher drives.
type Reports interface {
	ActiveCarriers(ctx context.Context) ([]models.CarrierActivity, error)
	Regenerate(ctx context.Context, carrier string, weeks []models.WeekKey) (*reports.Generated, error)
	DefaultWeeks() []models.WeekKey
	Announce(ctx context.Context, requestID string, gs []*reports.Generated) error
}

var errRateLimited = errors.New("refresh rate limit exceeded")

type failState struct {
	count   int
	nextDue time.Time
}

// Refresher periodically rebuilds the reports of active carriers for the
// default weeks, which refreshes the cache and the archive.
type Refresher struct {
	svc Reports
	rl  cache.Limiter
	log *zap.Logger

	backoff *Backoff
	now     func() time.Time

	interval           time.Duration
	concurrency        int
	rateLimitPerMinute int64

	triggerCh chan struct{}

	failMu   sync.Mutex
	failures map[string]failState

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalRefreshed      atomic.Int64
	totalSkipped        atomic.Int64
	totalErrors         atomic.Int64
	inFlight            atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(svc Reports, rl cache.Limiter, log *zap.Logger) *Refresher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Refresher{
		svc:                svc,
		rl:                 rl,
		log:                log,
		backoff:            NewBackoff(DefaultBackoffConfig()),
		now:                func() time.Time { return time.Now().UTC() },
		interval:           time.Hour,
		concurrency:        4,
		rateLimitPerMinute: 30,
		triggerCh:          make(chan struct{}, 1),
		failures:           make(map[string]failState),
		startedAtUnixNano:  time.Now().UTC().UnixNano(),
	}
}

func (r *Refresher) WithSettings(interval time.Duration, concurrency int, rlPerMin int64) *Refresher {
	if interval > 0 {
		r.interval = interval
	}
	if concurrency > 0 {
		r.concurrency = concurrency
	}
	if rlPerMin > 0 {
		r.rateLimitPerMinute = rlPerMin
	}
	return r
}

func (r *Refresher) WithBackoff(cfg BackoffConfig) *Refresher {
	r.backoff = NewBackoff(cfg)
	return r
}

// Trigger forces an immediate cycle (best-effort, non-blocking).
func (r *Refresher) Trigger() {
	r.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case r.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastCycleAt    *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt  *time.Time `json:"lastTriggerAt,omitempty"`
	TotalRefreshed int64      `json:"totalRefreshed"`
	TotalSkipped   int64      `json:"totalSkipped"`
	TotalErrors    int64      `json:"totalErrors"`
	InFlight       int64      `json:"inFlight"`
	BackingOff     int        `json:"backingOff"`
	LastError      string     `json:"lastError,omitempty"`
}

func (r *Refresher) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, r.startedAtUnixNano).UTC(),
		TotalRefreshed: r.totalRefreshed.Load(),
		TotalSkipped:   r.totalSkipped.Load(),
		TotalErrors:    r.totalErrors.Load(),
		InFlight:       r.inFlight.Load(),
	}
	if n := r.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := r.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	r.failMu.Lock()
	st.BackingOff = len(r.failures)
	r.failMu.Unlock()
	r.lastErrorMu.Lock()
	st.LastError = r.lastError
	r.lastErrorMu.Unlock()
	return st
}

// Run refreshes once at start, then on every tick or trigger.
func (r *Refresher) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	r.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.runOnce(ctx)
		case <-r.triggerCh:
			r.runOnce(ctx)
		}
	}
}

func (r *Refresher) runOnce(ctx context.Context) {
	now := r.now()
	r.lastCycleUnixNano.Store(now.UnixNano())

	active, err := r.svc.ActiveCarriers(ctx)
	if err != nil {
		r.log.Error("list active carriers", zap.Error(err))
		r.setLastError(err)
		return
	}
	weeks := r.svc.DefaultWeeks()

	var (
		mu        sync.Mutex
		generated []*reports.Generated
	)
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup
	for _, c := range active {
		if !r.due(c.Name, now) {
			r.totalSkipped.Add(1)
			continue
		}
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		name := c.Name
		r.inFlight.Add(1)
		go func() {
			defer func() {
				r.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()
			g, err := r.processOne(ctx, name, weeks)
			switch {
			case errors.Is(err, errRateLimited):
				r.totalSkipped.Add(1)
			case err != nil:
				r.totalErrors.Add(1)
				r.setLastError(err)
				r.recordFailure(name)
				r.log.Error("refresh report", zap.String("carrier", name), zap.Error(err))
			default:
				r.recordSuccess(name)
				r.totalRefreshed.Add(1)
				mu.Lock()
				generated = append(generated, g)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(generated) == 0 {
		return
	}
	if err := r.svc.Announce(ctx, "refresh-"+uuid.NewString(), generated); err != nil {
		r.log.Warn("announce refreshed reports", zap.Error(err))
		r.setLastError(err)
	}
}

func (r *Refresher) processOne(ctx context.Context, carrier string, weeks []models.WeekKey) (*reports.Generated, error) {
	if r.rl != nil && r.rateLimitPerMinute > 0 {
		minuteKey := "refresh:" + r.now().Format("200601021504")
		allowed, n, err := r.rl.Allow(ctx, minuteKey, r.rateLimitPerMinute, 70*time.Second)
		if err != nil {
			return nil, err
		}
		if !allowed {
			// Источник перегружен: перевозчик обновится в следующем цикле.
			r.log.Warn("refresh rate limit exceeded", zap.String("carrier", carrier), zap.Int64("count", n))
			return nil, errRateLimited
		}
	}
	return r.svc.Regenerate(ctx, carrier, weeks)
}

func (r *Refresher) due(carrier string, now time.Time) bool {
	r.failMu.Lock()
	defer r.failMu.Unlock()
	st, ok := r.failures[carrier]
	return !ok || !now.Before(st.nextDue)
}

func (r *Refresher) recordFailure(carrier string) {
	r.failMu.Lock()
	defer r.failMu.Unlock()
	st := r.failures[carrier]
	st.count++
	st.nextDue = r.now().Add(r.backoff.Delay(st.count))
	r.failures[carrier] = st
}

func (r *Refresher) recordSuccess(carrier string) {
	r.failMu.Lock()
	defer r.failMu.Unlock()
	delete(r.failures, carrier)
}

func (r *Refresher) setLastError(err error) {
	r.lastErrorMu.Lock()
	r.lastError = err.Error()
	r.lastErrorMu.Unlock()
}
