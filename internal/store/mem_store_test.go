package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kramerology/vod2tube/internal/model"
)

func TestNextEligibleJobPicksFurthestAlongStage(t *testing.T) {
	// S1: Store = {(a, Pending), (b, PendingRenderingChat), (c, Uploading)}.
	// Expected selection: c.
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, &model.Job{VodID: "a", Stage: model.Pending}))
	require.NoError(t, s.Create(ctx, &model.Job{VodID: "b", Stage: model.PendingRenderingChat}))
	require.NoError(t, s.Create(ctx, &model.Job{VodID: "c", Stage: model.Uploading}))

	job, ok, err := s.NextEligibleJob(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c", job.VodID)
}

func TestNextEligibleJobTieBreaksByVodIDAscending(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, &model.Job{VodID: "zeta", Stage: model.Combining}))
	require.NoError(t, s.Create(ctx, &model.Job{VodID: "alpha", Stage: model.Combining}))

	job, ok, err := s.NextEligibleJob(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alpha", job.VodID)
}

func TestNextEligibleJobIgnoresFailedJobs(t *testing.T) {
	// S2: Store = {(broken, Pending, Failed=true), (go, Pending)}.
	// Expected selection: go.
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, &model.Job{VodID: "broken", Stage: model.Pending, Failed: true}))
	require.NoError(t, s.Create(ctx, &model.Job{VodID: "go", Stage: model.Pending}))

	job, ok, err := s.NextEligibleJob(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "go", job.VodID)
}

func TestNextEligibleJobExcludesUploadedAndEmptyStore(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	_, ok, err := s.NextEligibleJob(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Create(ctx, &model.Job{VodID: "done", Stage: model.Uploaded}))
	_, ok, err = s.NextEligibleJob(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
