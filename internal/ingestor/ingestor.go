// Package ingestor implements the periodic VOD discovery task (§2 C7):
// independently of the Dispatcher, it polls for newly available VODs on
// the source platform and writes fresh Pending job rows plus their
// VodMetadata. Talking to the source platform's actual discovery API is
// an external collaborator this package does not own (§1); Discoverer is
// the seam.
package ingestor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kramerology/vod2tube/internal/model"
	"github.com/kramerology/vod2tube/internal/store"
)

// Discoverer finds VODs on the source platform that are not yet known to
// the pipeline. A concrete implementation polls a channel list and the
// source platform's VOD listing API; this package treats it as opaque.
type Discoverer interface {
	DiscoverNew(ctx context.Context) ([]model.VodMetadata, error)
}

// NullDiscoverer always reports no new VODs. Talking to the source
// platform's actual VOD listing API is out of scope (§1); this stands in
// until a concrete Discoverer is wired up against that API.
type NullDiscoverer struct{}

func (NullDiscoverer) DiscoverNew(ctx context.Context) ([]model.VodMetadata, error) {
	return nil, nil
}

// JobCreator is the narrow store dependency the Ingestor needs to check
// for an existing row and create a new one.
type JobCreator interface {
	Get(ctx context.Context, vodID string) (*model.Job, error)
	Create(ctx context.Context, job *model.Job) error
}

// Ingestor runs one ticker-driven goroutine, independent of the
// Dispatcher's own loop, writing directly to the Job Store and
// MetadataStore (§5: "The Ingestor writes independently to C1").
type Ingestor struct {
	Discoverer Discoverer
	Jobs       JobCreator
	Metadata   store.MetadataStore
	Interval   time.Duration
	Log        *logrus.Entry
}

// New builds an Ingestor polling every interval.
func New(discoverer Discoverer, jobs JobCreator, metadata store.MetadataStore, interval time.Duration, log *logrus.Entry) *Ingestor {
	return &Ingestor{Discoverer: discoverer, Jobs: jobs, Metadata: metadata, Interval: interval, Log: log}
}

// Run polls until ctx is cancelled, then returns ctx.Err().
func (i *Ingestor) Run(ctx context.Context) error {
	ticker := time.NewTicker(i.Interval)
	defer ticker.Stop()

	i.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			i.tick(ctx)
		}
	}
}

func (i *Ingestor) tick(ctx context.Context) {
	discovered, err := i.Discoverer.DiscoverNew(ctx)
	if err != nil {
		i.Log.WithError(err).Warn("vod discovery failed, retrying next tick")
		return
	}

	for _, meta := range discovered {
		if err := i.Metadata.Put(ctx, meta); err != nil {
			i.Log.WithError(err).WithField("vod_id", meta.VodID).Warn("failed to persist vod metadata")
		}

		_, err := i.Jobs.Get(ctx, meta.VodID)
		if err == nil {
			continue // already ingested
		}
		if err != store.ErrNotFound {
			i.Log.WithError(err).WithField("vod_id", meta.VodID).Warn("failed to check for existing job")
			continue
		}

		job := &model.Job{VodID: meta.VodID, Stage: model.Pending}
		if err := i.Jobs.Create(ctx, job); err != nil {
			i.Log.WithError(err).WithField("vod_id", meta.VodID).Warn("failed to create job for discovered vod")
		}
	}
}
