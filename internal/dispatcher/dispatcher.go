// Package dispatcher drives jobs through the archival pipeline one stage
// at a time (§4.2). A single Dispatcher runs one job to completion (or to
// its next failure/cancellation point) before selecting the next one; the
// ordering comes from Store.NextEligibleJob, priority and tie-break baked
// into the query.
package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kramerology/vod2tube/internal/failure"
	"github.com/kramerology/vod2tube/internal/lease"
	"github.com/kramerology/vod2tube/internal/model"
	"github.com/kramerology/vod2tube/internal/store"
	"github.com/kramerology/vod2tube/internal/throttle"
	"github.com/kramerology/vod2tube/internal/worker"
)

// Workers bundles the five concrete Stage Workers. Uploader is kept as its
// concrete type, not worker.StageWorker, because the Dispatcher needs
// LastUploadedVideoID after a successful run.
type Workers struct {
	VodDownloader  worker.StageWorker
	ChatDownloader worker.StageWorker
	ChatRenderer   worker.StageWorker
	FinalRenderer  worker.StageWorker
	Uploader       *worker.VideoUploader
}

func (w Workers) forStage(active model.Stage) worker.StageWorker {
	switch active {
	case model.DownloadingVod:
		return w.VodDownloader
	case model.DownloadingChat:
		return w.ChatDownloader
	case model.RenderingChat:
		return w.ChatRenderer
	case model.Combining:
		return w.FinalRenderer
	case model.Uploading:
		return w.Uploader
	default:
		return nil
	}
}

// Dispatcher is the single-loop scheduler described in §4.2.
type Dispatcher struct {
	Store         store.Store
	Workers       Workers
	Failure       *failure.Policy
	Throttle      *throttle.Throttle
	WorkDir       string
	InstanceID    string // leasedBy for every job this Dispatcher drives
	PollInterval  time.Duration
	LeaseInterval time.Duration
	Log           *logrus.Logger
}

// Run polls for eligible work until ctx is cancelled. On each tick it
// selects at most one job and drives it through as many stages as succeed
// consecutively, per §4.2 step 2 ("continues driving the same job through
// consecutive stages without re-querying ... until it hits a stage it
// cannot complete").
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		job, ok, err := d.Store.NextEligibleJob(ctx)
		if err != nil {
			d.Log.WithError(err).Warn("failed to query next eligible job")
			if !sleepOrDone(ctx, d.PollInterval) {
				return ctx.Err()
			}
			continue
		}
		if !ok {
			if !sleepOrDone(ctx, d.PollInterval) {
				return ctx.Err()
			}
			continue
		}

		d.driveJob(ctx, job)
	}
}

// driveJob normalizes job.Stage to its checkpoint, applies a rollback if an
// upstream artifact is missing, and otherwise drives forward one active
// stage at a time until the job reaches Uploaded, fails, or a stage cannot
// complete this tick.
func (d *Dispatcher) driveJob(ctx context.Context, job *model.Job) {
	log := d.Log.WithField("vod_id", job.VodID)

	checkpoint := job.Stage.Checkpoint()
	if target, rolledBack := rollbackTarget(checkpoint, job); rolledBack {
		log.WithFields(logrus.Fields{"from": checkpoint, "to": target}).Info("rolling back to checkpoint with missing artifact")
		job.Stage = target
		if err := d.Store.Save(ctx, job); err != nil {
			log.WithError(err).Warn("failed to persist rollback")
		}
		return
	}
	job.Stage = checkpoint

	for job.Stage != model.Uploaded {
		if !d.runStage(ctx, job, log) {
			return
		}
	}
}

// runStage runs the single active stage paired with job's current
// checkpoint. It returns true if the stage succeeded and job.Stage now
// holds the next checkpoint, false if driving this job must stop here
// (failure, persist error, or cancellation).
func (d *Dispatcher) runStage(ctx context.Context, job *model.Job, log *logrus.Entry) bool {
	checkpoint := job.Stage
	active := checkpoint.Active()
	job.Stage = active
	if err := d.Store.Save(ctx, job); err != nil {
		log.WithError(err).WithField("stage", active).Warn("failed to persist active stage, deferring to next tick")
		job.Stage = checkpoint
		return false
	}

	keeper := lease.New(d.Store, log, d.LeaseInterval)
	keeper.Start(ctx, job.VodID, d.InstanceID)
	defer keeper.Stop()

	w := d.Workers.forStage(active)
	d.Throttle.Reset(job.VodID)
	stream := w.Run(ctx, job.VodID, d.inputsFor(job))
	for status := range stream.Statuses {
		d.Throttle.Offer(ctx, job.VodID, status, time.Now())
	}

	if err := stream.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			log.WithField("stage", active).Info("stage interrupted by shutdown")
			return false
		}
		log.WithError(err).WithField("stage", active).Warn("stage failed")
		d.Failure.Apply(active, job, err)
		return false
	}

	d.recordArtifact(active, job)
	job.Stage = nextCheckpoint(active)
	if err := d.Store.Save(ctx, job); err != nil {
		log.WithError(err).WithField("stage", job.Stage).Warn("failed to persist stage advance, deferring to next tick")
		return false
	}
	return true
}

// nextCheckpoint returns the Pending* checkpoint that follows a
// successfully completed active stage.
func nextCheckpoint(active model.Stage) model.Stage {
	return active + 1
}

func (d *Dispatcher) inputsFor(job *model.Job) worker.Inputs {
	return worker.Inputs{
		VodFilePath:        job.VodFilePath,
		ChatTextFilePath:   job.ChatTextFilePath,
		ChatVideoFilePath:  job.ChatVideoFilePath,
		FinalVideoFilePath: job.FinalVideoFilePath,
	}
}

// recordArtifact stamps the path (or remote id) a successfully completed
// active stage produced, matching the deterministic output paths in
// internal/worker.
func (d *Dispatcher) recordArtifact(active model.Stage, job *model.Job) {
	switch active {
	case model.DownloadingVod:
		job.VodFilePath = worker.VodPath(d.WorkDir, job.VodID)
	case model.DownloadingChat:
		job.ChatTextFilePath = worker.ChatJSONPath(d.WorkDir, job.VodID)
	case model.RenderingChat:
		job.ChatVideoFilePath = worker.ChatVideoPath(d.WorkDir, job.VodID)
	case model.Combining:
		job.FinalVideoFilePath = worker.FinalVideoPath(d.WorkDir, job.VodID)
	case model.Uploading:
		job.UploadedVideoID = d.Workers.Uploader.LastUploadedVideoID()
	}
}

// sleepOrDone waits for d or ctx cancellation, whichever comes first.
// Returns false if ctx was cancelled.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
