package dispatcher

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/kramerology/vod2tube/internal/failure"
	"github.com/kramerology/vod2tube/internal/model"
	"github.com/kramerology/vod2tube/internal/store"
	"github.com/kramerology/vod2tube/internal/throttle"
	"github.com/kramerology/vod2tube/internal/worker"
)

// fakeWorker is a scriptable worker.StageWorker: it emits the given
// statuses, then either succeeds or fails with err.
type fakeWorker struct {
	statuses []string
	err      error
	ran      int
}

func (f *fakeWorker) Run(ctx context.Context, vodID string, inputs worker.Inputs) worker.Stream {
	f.ran++
	return worker.NewStream(ctx, func(send func(string)) error {
		for _, s := range f.statuses {
			send(s)
		}
		return f.err
	})
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newDispatcher(st store.Store, workers Workers) *Dispatcher {
	log := testLogger()
	th := throttle.New(st, logrus.NewEntry(log), time.Millisecond)
	return &Dispatcher{
		Store:         st,
		Workers:       workers,
		Failure:       failure.NewPolicy(st),
		Throttle:      th,
		WorkDir:       "/work",
		InstanceID:    "dispatcher-test",
		PollInterval:  10 * time.Millisecond,
		LeaseInterval: time.Hour, // long enough to never fire during a test
		Log:           log,
	}
}

func allWorkers(vod, chat, render, combine *fakeWorker) Workers {
	return Workers{
		VodDownloader:  vod,
		ChatDownloader: chat,
		ChatRenderer:   render,
		FinalRenderer:  combine,
		Uploader:       worker.NewVideoUploader(&okUploader{}, func(ctx context.Context, vodID string) (model.VodMetadata, bool) { return model.VodMetadata{}, false }),
	}
}

type okUploader struct{}

func (okUploader) Upload(ctx context.Context, filePath string, meta worker.UploadMetadata, onProgress func(string)) (string, error) {
	return "remote-id", nil
}

// S3: a row sitting in PendingRenderingChat with an empty VodFilePath but a
// populated ChatTextFilePath rolls all the way back to Pending, and no
// stage transition happens in the same tick (invariant 4).
func TestDriveJobRollsBackToPendingWhenVodFileMissing(t *testing.T) {
	st := store.NewMemStore()
	job := &model.Job{
		VodID:            "v1",
		Stage:            model.PendingRenderingChat,
		ChatTextFilePath: "/work/chats/v1.json",
	}
	require.NoError(t, st.Create(context.Background(), job))

	vod := &fakeWorker{}
	d := newDispatcher(st, allWorkers(vod, &fakeWorker{}, &fakeWorker{}, &fakeWorker{}))

	fresh, _ := st.Get(context.Background(), "v1")
	d.driveJob(context.Background(), fresh)

	snap, ok := st.Snapshot("v1")
	require.True(t, ok)
	require.Equal(t, model.Pending, snap.Stage)
	require.Equal(t, 0, vod.ran, "rollback must not also start driving the rolled-back stage")
}

// S3 variant: VodFilePath present but ChatTextFilePath missing rolls back
// one stage, to PendingDownloadChat rather than all the way to Pending.
func TestDriveJobRollsBackToPendingDownloadChatWhenChatFileMissing(t *testing.T) {
	st := store.NewMemStore()
	job := &model.Job{
		VodID:       "v2",
		Stage:       model.RenderingChat, // active stage, normalizes to its checkpoint first
		VodFilePath: "/work/vods/v2.mp4",
	}
	require.NoError(t, st.Create(context.Background(), job))

	d := newDispatcher(st, allWorkers(&fakeWorker{}, &fakeWorker{}, &fakeWorker{}, &fakeWorker{}))
	fresh, _ := st.Get(context.Background(), "v2")
	d.driveJob(context.Background(), fresh)

	snap, _ := st.Snapshot("v2")
	require.Equal(t, model.PendingDownloadChat, snap.Stage)
}

// A job with every upstream artifact present drives straight through all
// five stages to Uploaded in one driveJob call (§4.2 step 2).
func TestDriveJobAdvancesThroughAllStagesOnSuccess(t *testing.T) {
	st := store.NewMemStore()
	job := &model.Job{VodID: "v3", Stage: model.Pending}
	require.NoError(t, st.Create(context.Background(), job))

	vod := &fakeWorker{statuses: []string{"downloading"}}
	chat := &fakeWorker{statuses: []string{"fetching chat"}}
	render := &fakeWorker{statuses: []string{"rendering"}}
	combine := &fakeWorker{statuses: []string{"combining"}}
	d := newDispatcher(st, allWorkers(vod, chat, render, combine))

	fresh, _ := st.Get(context.Background(), "v3")
	d.driveJob(context.Background(), fresh)

	snap, _ := st.Snapshot("v3")
	require.Equal(t, model.Uploaded, snap.Stage)
	require.NotEmpty(t, snap.VodFilePath)
	require.NotEmpty(t, snap.ChatTextFilePath)
	require.NotEmpty(t, snap.ChatVideoFilePath)
	require.NotEmpty(t, snap.FinalVideoFilePath)
	require.Equal(t, "remote-id", snap.UploadedVideoID)
	require.Equal(t, 1, vod.ran)
	require.Equal(t, 1, chat.ran)
	require.Equal(t, 1, render.ran)
	require.Equal(t, 1, combine.ran)
}

// S4: a retryable failure on the same stage, repeated across three
// driveJob ticks, promotes the job to permanently Failed on the third.
func TestDriveJobRetryableFailureBecomesPermanentAfterThreshold(t *testing.T) {
	st := store.NewMemStore()
	job := &model.Job{VodID: "v4", Stage: model.Pending}
	require.NoError(t, st.Create(context.Background(), job))

	vod := &fakeWorker{err: errors.New("network blip")}
	d := newDispatcher(st, allWorkers(vod, &fakeWorker{}, &fakeWorker{}, &fakeWorker{}))

	for i := 0; i < 3; i++ {
		fresh, _ := st.Get(context.Background(), "v4")
		d.driveJob(context.Background(), fresh)
	}

	snap, _ := st.Snapshot("v4")
	require.True(t, snap.Failed)
	require.Equal(t, 3, snap.FailCount)
	require.Equal(t, model.DownloadingVod, snap.Stage, "failure policy does not advance the stage")
	require.False(t, snap.Eligible())
}

// A PermanentError fails the job on the first attempt, without waiting
// for the retry threshold.
func TestDriveJobPermanentFailureStopsImmediately(t *testing.T) {
	st := store.NewMemStore()
	job := &model.Job{VodID: "v5", Stage: model.Pending}
	require.NoError(t, st.Create(context.Background(), job))

	vod := &fakeWorker{err: failure.Permanent(errors.New("missing binary"))}
	d := newDispatcher(st, allWorkers(vod, &fakeWorker{}, &fakeWorker{}, &fakeWorker{}))

	fresh, _ := st.Get(context.Background(), "v5")
	d.driveJob(context.Background(), fresh)

	snap, _ := st.Snapshot("v5")
	require.True(t, snap.Failed)
	require.Equal(t, 1, snap.FailCount)
}

// Cancellation mid-stage must not be routed through the Failure Policy:
// the job is left exactly where it was, not failed.
func TestDriveJobCancellationIsNotTreatedAsFailure(t *testing.T) {
	st := store.NewMemStore()
	job := &model.Job{VodID: "v6", Stage: model.Pending}
	require.NoError(t, st.Create(context.Background(), job))

	vod := &fakeWorker{err: context.Canceled}
	d := newDispatcher(st, allWorkers(vod, &fakeWorker{}, &fakeWorker{}, &fakeWorker{}))

	fresh, _ := st.Get(context.Background(), "v6")
	d.driveJob(context.Background(), fresh)

	snap, _ := st.Snapshot("v6")
	require.False(t, snap.Failed)
	require.Equal(t, 0, snap.FailCount)
	require.Equal(t, model.DownloadingVod, snap.Stage)
}
