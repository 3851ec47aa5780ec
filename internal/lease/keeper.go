// Package lease implements the Lease Keeper (§4.4): a cooperative
// liveness signal distinct from a mutex. While the Dispatcher drives a
// job, a background task refreshes LeasedAtUtc on its own store session
// every refresh interval, independent of the Dispatcher's own writes (§5).
package lease

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Refresher is the narrow store dependency the Keeper needs.
type Refresher interface {
	RefreshLease(ctx context.Context, vodID, leasedBy string) error
}

// Keeper runs one goroutine per active job, refreshing its lease on a
// ticker until Stop is called or ctx is cancelled.
type Keeper struct {
	store    Refresher
	log      *logrus.Entry
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Keeper: its own channel, its own quit signal, one goroutine
// per lease, refreshing a single row's liveness timestamp on a fixed period.
func New(store Refresher, log *logrus.Entry, interval time.Duration) *Keeper {
	return &Keeper{store: store, log: log, interval: interval}
}

// Start begins refreshing vodID's lease as leasedBy, every interval, until
// Stop is called or parent is cancelled. Start returns immediately; the
// refresh loop runs on its own goroutine.
func (k *Keeper) Start(parent context.Context, vodID, leasedBy string) {
	ctx, cancel := context.WithCancel(parent)
	k.cancel = cancel
	k.done = make(chan struct{})

	go func() {
		defer close(k.done)
		ticker := time.NewTicker(k.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := k.store.RefreshLease(ctx, vodID, leasedBy); err != nil {
					k.log.WithError(err).WithField("vod_id", vodID).Warn("lease refresh failed")
				}
			}
		}
	}()
}

// Stop signals the refresh loop to exit and blocks until it has. Safe to
// call even if Start was never called.
func (k *Keeper) Stop() {
	if k.cancel == nil {
		return
	}
	k.cancel()
	<-k.done
}
