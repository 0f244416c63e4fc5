// Package visits counts redirect hits in the background. Handlers enqueue
// the short code of every served redirect; a worker drains the queue on a
// ticker and flushes aggregated counts to storage in batches.
package visits

import (
	"context"
	"time"

	"github.com/RussellAbraham/tinyapp/internal/logger"
)

type visitsKeeper interface {
	RegisterVisits(ctx context.Context, visits map[string]int64) error
}

// Tracker accumulates visit events and periodically writes them to storage.
type Tracker struct {
	queue               chan string
	db                  visitsKeeper
	delayBetweenFlushes time.Duration
	errorChannel        chan error
}

// New creates a Tracker flushing every delayBetweenFlushes with the given
// queue capacity.
func New(
	db visitsKeeper,
	channelCapacity int,
	delayBetweenFlushes time.Duration,
) *Tracker {
	return &Tracker{
		db:                  db,
		queue:               make(chan string, channelCapacity),
		delayBetweenFlushes: delayBetweenFlushes,
		errorChannel:        make(chan error, channelCapacity),
	}
}

// Track enqueues one visit for the given short code. When the queue is
// saturated the event is dropped rather than blocking the redirect.
func (t *Tracker) Track(shortCode string) {
	select {
	case t.queue <- shortCode:
	default:
		logger.Log.Debugln("visit queue is full, dropping event for", shortCode)
	}
}

// ListenErrors forwards flush errors to the given callback.
func (t *Tracker) ListenErrors(callback func(error)) {
	go func() {
		for err := range t.errorChannel {
			callback(err)
		}
	}()
}

// flush writes the pending counts. On failure the counts are kept for the
// next attempt.
func (t *Tracker) flush(ctx context.Context, pending map[string]int64) map[string]int64 {
	if len(pending) == 0 {
		return pending
	}

	if err := t.db.RegisterVisits(ctx, pending); err != nil {
		t.errorChannel <- err
		return pending
	}
	logger.Log.Infof("recorded visits for %d short codes", len(pending))

	return map[string]int64{}
}

// Run starts the background worker. On cancellation it drains the queue,
// flushes once more, closes the error channel and stops.
func (t *Tracker) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(t.delayBetweenFlushes)
		defer ticker.Stop()

		pending := map[string]int64{}

		for {
			select {
			case shortCode := <-t.queue:
				pending[shortCode]++
			case <-ticker.C:
				pending = t.flush(ctx, pending)
			case <-ctx.Done():
				for {
					select {
					case shortCode := <-t.queue:
						pending[shortCode]++
					default:
						t.flush(context.Background(), pending)
						close(t.errorChannel)
						return
					}
				}
			}
		}
	}()
}
