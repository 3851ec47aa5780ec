// Package failure classifies Stage Worker errors and applies the retry /
// permanent-failure policy (§4.6).
package failure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kramerology/vod2tube/internal/model"
)

// PermanentError marks an error as structurally impossible to succeed on
// retry (e.g. required input missing, credentials absent). Workers return
// one of these, rather than a plain error, to signal the Dispatcher it
// must not retry (§4.3 "Failure surface").
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError.
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err (or anything it wraps) was classified
// permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Saver is the narrow persistence dependency the Policy needs: a
// best-effort, independent save of job state. Implemented by
// internal/store.Store.Save.
type Saver interface {
	Save(ctx context.Context, job *model.Job) error
}

// Policy applies §4.6 when a worker terminates stage Stage with err.
type Policy struct {
	Store     Saver
	Threshold int // FailCount at which a retryable failure becomes permanent; NewPolicy sets 3, main applies Config.MaxRetryableFailures.
}

// NewPolicy builds a Policy with the fixed retry threshold of 3.
func NewPolicy(store Saver) *Policy {
	return &Policy{Store: store, Threshold: 3}
}

// Apply mutates job in place per §4.6 steps 1-3, then persists it on an
// independent, non-cancellable context (step 4) so a cancelled root
// context never prevents recording the failure. It does not advance
// job.Stage (step 5) — the caller leaves the row exactly where it is.
//
// OperationCanceled exits must never reach Apply; callers are expected to
// check errors.Is(err, context.Canceled) first and re-raise unchanged.
func (p *Policy) Apply(stage model.Stage, job *model.Job, err error) {
	job.FailCount++
	job.Description = fmt.Sprintf("Failed at stage '%s': %s", stage, err.Error())

	if IsPermanent(err) || job.FailCount >= p.Threshold {
		job.Failed = true
		job.FailReason = job.Description
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = p.Store.Save(saveCtx, job) // best-effort: failure diagnostics are not allowed to fail loudly.
}
