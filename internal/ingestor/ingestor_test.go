package ingestor

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/kramerology/vod2tube/internal/model"
	"github.com/kramerology/vod2tube/internal/store"
)

type fakeDiscoverer struct {
	found []model.VodMetadata
}

func (f *fakeDiscoverer) DiscoverNew(ctx context.Context) ([]model.VodMetadata, error) {
	return f.found, nil
}

func silentEntry() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func TestTickCreatesPendingJobAndMetadataForNewVod(t *testing.T) {
	jobs := store.NewMemStore()
	meta := store.NewMemMetadataStore()
	disc := &fakeDiscoverer{found: []model.VodMetadata{{VodID: "v1", ChannelID: "c1", Title: "Stream"}}}
	ing := New(disc, jobs, meta, time.Hour, silentEntry())

	ing.tick(context.Background())

	job, err := jobs.Get(context.Background(), "v1")
	require.NoError(t, err)
	require.Equal(t, model.Pending, job.Stage)

	m, ok, err := meta.Get(context.Background(), "v1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Stream", m.Title)
}

func TestTickDoesNotDuplicateExistingJob(t *testing.T) {
	jobs := store.NewMemStore()
	meta := store.NewMemMetadataStore()
	require.NoError(t, jobs.Create(context.Background(), &model.Job{VodID: "v2", Stage: model.Combining}))

	disc := &fakeDiscoverer{found: []model.VodMetadata{{VodID: "v2", Title: "Already Known"}}}
	ing := New(disc, jobs, meta, time.Hour, silentEntry())

	ing.tick(context.Background())

	job, err := jobs.Get(context.Background(), "v2")
	require.NoError(t, err)
	require.Equal(t, model.Combining, job.Stage, "existing job's stage must not be touched by re-discovery")
}
