package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/yokaunit/toolbox/internal/api/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Reconciler recomputes the likes counter of one tool.
type Reconciler interface {
	Reconcile(ctx context.Context, slug string) (changed bool, err error)
}

// SlugSource lists every slug for a full pass.
type SlugSource interface {
	Slugs(ctx context.Context) ([]string, error)
}

// Dispatcher routes slugs to a fixed set of workers using consistent hashing,
// so one slug is never reconciled by two workers at once.
type Dispatcher struct {
	workers    []chan string
	reconciler Reconciler
	log        zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, reconciler Reconciler, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:    make([]chan string, numWorkers),
		reconciler: reconciler,
		log:        log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a slug to the worker responsible for it. It never blocks and
// reports false when that worker's buffer is full.
func (d *Dispatcher) Enqueue(slug string) bool {
	idx := d.shardIndex(slug)
	select {
	case d.workers[idx] <- slug:
		metrics.ReconcileQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	default:
		d.log.Warn().Str("slug", slug).Int("worker_id", idx).Msg("reconcile queue full, slug skipped")
		return false
	}
}

// EnqueueAll enqueues every slug of source and returns how many were
// accepted.
func (d *Dispatcher) EnqueueAll(ctx context.Context, source SlugSource) (int, error) {
	slugs, err := source.Slugs(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range slugs {
		if d.Enqueue(s) {
			n++
		}
	}
	return n, nil
}

// Every runs a full pass over source at each interval until ctx is
// cancelled. A non-positive interval disables it.
func (d *Dispatcher) Every(ctx context.Context, interval time.Duration, source SlugSource) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := d.EnqueueAll(ctx, source)
			if err != nil {
				d.log.Error().Err(err).Msg("reconcile pass failed to list slugs")
				continue
			}
			d.log.Info().Int("enqueued", n).Msg("reconcile pass scheduled")
		}
	}
}

// shardIndex maps a slug deterministically to a worker index.
func (d *Dispatcher) shardIndex(slug string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(slug))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case slug, ok := <-ch:
			if !ok {
				return
			}
			metrics.ReconcileQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

			start := time.Now()
			changed, err := d.reconciler.Reconcile(ctx, slug)
			result := "unchanged"
			switch {
			case err != nil:
				result = "error"
				d.log.Error().Err(err).
					Str("slug", slug).
					Int("worker_id", id).
					Msg("likes reconciliation failed")
			case changed:
				result = "changed"
				metrics.LikesReconciledTotal.Inc()
			}
			metrics.ReconcileDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
		}
	}
}
