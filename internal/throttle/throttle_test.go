package throttle

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSaver struct {
	saves int
}

func (c *countingSaver) UpdateDescription(ctx context.Context, vodID, description string) error {
	c.saves++
	return nil
}

func silentLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func TestOfferPersistsAtMostOncePerWindow(t *testing.T) {
	// S5: 100 statuses over 1 second, 2-second window => at most 1 persist.
	saver := &countingSaver{}
	th := New(saver, silentLogger(), 2*time.Second)
	ctx := context.Background()
	start := time.Now()

	for i := 0; i < 100; i++ {
		now := start.Add(time.Duration(i) * 10 * time.Millisecond) // spans ~1s
		th.Offer(ctx, "v1", "progress", now)
	}

	assert.LessOrEqual(t, saver.saves, 1)
	assert.GreaterOrEqual(t, saver.saves, 1) // the first status always persists
}

func TestOfferRespectsInvariantFiveBound(t *testing.T) {
	// invariant 5: persisted updates <= ceil(T/2) + 1 across T seconds.
	saver := &countingSaver{}
	interval := 2 * time.Second
	th := New(saver, silentLogger(), interval)
	ctx := context.Background()
	start := time.Now()

	const totalSeconds = 11
	const statusesPerSecond = 20
	for s := 0; s < totalSeconds; s++ {
		for i := 0; i < statusesPerSecond; i++ {
			now := start.Add(time.Duration(s)*time.Second + time.Duration(i)*(time.Second/statusesPerSecond))
			th.Offer(ctx, "v1", "progress", now)
		}
	}

	bound := (totalSeconds+1)/2 + 1 // ceil(T/2) + 1
	assert.LessOrEqual(t, saver.saves, bound)
}

func TestOfferPersistsAgainAfterWindowElapses(t *testing.T) {
	saver := &countingSaver{}
	th := New(saver, silentLogger(), 2*time.Second)
	ctx := context.Background()
	start := time.Now()

	th.Offer(ctx, "v1", "first", start)
	th.Offer(ctx, "v1", "too soon", start.Add(1*time.Second))
	th.Offer(ctx, "v1", "late enough", start.Add(3*time.Second))

	assert.Equal(t, 2, saver.saves)
}

func TestResetAllowsImmediatePersistForNewStage(t *testing.T) {
	saver := &countingSaver{}
	th := New(saver, silentLogger(), 2*time.Second)
	ctx := context.Background()
	start := time.Now()

	th.Offer(ctx, "v1", "stage one", start)
	th.Reset("v1")
	th.Offer(ctx, "v1", "stage two, no wait", start.Add(100*time.Millisecond))

	require.Equal(t, 2, saver.saves)
}
