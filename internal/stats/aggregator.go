package stats

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// defaultTimeout bounds calls to the hit-counting service when none is configured.
const defaultTimeout = 2 * time.Second

// Aggregator annotates events with view counts and records hits. The
// hit-counting service is best effort: failures yield zero views.
type Aggregator struct {
	client  Client
	app     string
	skew    time.Duration
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time

	wg sync.WaitGroup
}

// NewAggregator returns an Aggregator. skew extends the end of every stats
// window; timeout bounds detached hit recording.
func NewAggregator(client Client, app string, skew, timeout time.Duration, log *zap.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Aggregator{
		client:  client,
		app:     app,
		skew:    skew,
		timeout: timeout,
		log:     log,
		now:     time.Now,
	}
}

// Annotate sets Views on every event in place.
func (a *Aggregator) Annotate(ctx context.Context, events []model.Event) {
	ptrs := make([]*model.Event, len(events))
	for i := range events {
		ptrs[i] = &events[i]
	}
	a.annotate(ctx, ptrs)
}

// AnnotateOne sets Views on a single event.
func (a *Aggregator) AnnotateOne(ctx context.Context, e *model.Event) {
	a.annotate(ctx, []*model.Event{e})
}

func (a *Aggregator) annotate(ctx context.Context, events []*model.Event) {
	var (
		start time.Time
		uris  []string
	)
	for _, e := range events {
		e.Views = 0
		if e.PublishedOn == nil {
			continue
		}
		if start.IsZero() || e.PublishedOn.Before(start) {
			start = *e.PublishedOn
		}
		uris = append(uris, e.URI())
	}
	if len(uris) == 0 {
		return
	}

	// Whole minutes keep identical windows cacheable.
	end := a.now().Add(a.skew).Truncate(time.Minute).Add(time.Minute)
	stats, err := a.client.QueryStats(ctx, Query{Start: start, End: end, URIs: uris, Unique: true})
	if err != nil {
		a.log.Warn("view stats unavailable, reporting zero views",
			zap.Int("uris", len(uris)),
			zap.Error(err),
		)
		return
	}

	hits := make(map[int64]int64, len(stats))
	for _, s := range stats {
		id, ok := model.EventIDFromURI(s.URI)
		if !ok {
			continue
		}
		hits[id] += s.Hits
	}
	for _, e := range events {
		if e.PublishedOn != nil {
			e.Views = hits[e.ID]
		}
	}
}

// Record sends a hit without blocking the caller. It outlives ctx's
// cancellation but is bounded by the aggregator's timeout.
func (a *Aggregator) Record(ctx context.Context, uri, ip string) {
	hit := Hit{
		App:       a.app,
		URI:       uri,
		IP:        ip,
		Timestamp: model.DateTime{Time: a.now().UTC()},
	}
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()
		if err := a.client.RecordHit(detached, hit); err != nil {
			a.log.Warn("record hit failed", zap.String("uri", uri), zap.Error(err))
		}
	}()
}

// Wait blocks until every pending Record has finished.
func (a *Aggregator) Wait() {
	a.wg.Wait()
}
