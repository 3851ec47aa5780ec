// Package throttle implements the Progress Throttle (§4.5): status
// strings from a Stage Worker arrive at arbitrary rates; persisting every
// one would saturate the Job Store, so only one persisted update is
// allowed per window.
package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DescriptionSaver is the narrow store dependency the Throttle needs.
type DescriptionSaver interface {
	UpdateDescription(ctx context.Context, vodID, description string) error
}

// Throttle persists a new Description for a job only if at least Interval
// has elapsed since the last persisted update for that job. If the
// persist itself fails, the error is swallowed and logged: progress
// display is soft state (§4.5).
type Throttle struct {
	store    DescriptionSaver
	log      *logrus.Entry
	interval time.Duration

	mu       sync.Mutex
	lastSave map[string]time.Time
}

func New(store DescriptionSaver, log *logrus.Entry, interval time.Duration) *Throttle {
	return &Throttle{
		store:    store,
		log:      log,
		interval: interval,
		lastSave: make(map[string]time.Time),
	}
}

// Offer forwards a new status string for vodID, persisting it only if the
// window has elapsed. now is passed in to keep the gate testable without
// real sleeps.
func (t *Throttle) Offer(ctx context.Context, vodID, description string, now time.Time) {
	t.mu.Lock()
	last, seen := t.lastSave[vodID]
	if seen && now.Sub(last) < t.interval {
		t.mu.Unlock()
		return
	}
	t.lastSave[vodID] = now
	t.mu.Unlock()

	if err := t.store.UpdateDescription(ctx, vodID, description); err != nil {
		t.log.WithError(err).WithField("vod_id", vodID).Debug("progress persist failed, continuing")
	}
}

// Reset drops any remembered last-save time for vodID, called once per
// stage transition so a fresh stage's first status is always persisted
// immediately rather than waiting out the previous stage's window.
func (t *Throttle) Reset(vodID string) {
	t.mu.Lock()
	delete(t.lastSave, vodID)
	t.mu.Unlock()
}
