// Package store persists Job rows and selects the next unit of work. A
// relational store is sufficient (§6); the access pattern is point lookups
// by VodId and a single ordered scan by stage.
package store

import (
	"context"
	"errors"

	"github.com/kramerology/vod2tube/internal/model"
)

// ErrNotFound is returned when a lookup by VodID matches no row.
var ErrNotFound = errors.New("store: job not found")

// Store is the Job Store contract. Every method opens (or is handed) a
// short-lived session, per §5: "accessed via short-lived sessions — one per
// save — to minimize contention and keep transactions small."
type Store interface {
	// NextEligibleJob returns the highest-priority non-failed, non-terminal
	// job (§4.2 step 1): ordered by stage priority descending, VodId
	// ascending as a tie-break. ok is false when no eligible job exists.
	NextEligibleJob(ctx context.Context) (job *model.Job, ok bool, err error)

	// Get fetches a single row by VodID.
	Get(ctx context.Context, vodID string) (*model.Job, error)

	// Save persists the full row. Used by the Dispatcher for stage
	// transitions and by the Failure Policy for failure diagnostics.
	Save(ctx context.Context, job *model.Job) error

	// RefreshLease updates only LeasedBy/LeasedAtUtc for vodID, on its own
	// session, independent of any concurrent Save from the Dispatcher
	// (§5: "must be executed on independent store sessions").
	RefreshLease(ctx context.Context, vodID, leasedBy string) error

	// UpdateDescription persists only the Description field, the narrow
	// write the Progress Throttle performs (§4.5).
	UpdateDescription(ctx context.Context, vodID, description string) error

	// Create inserts a brand-new Pending job row. Used by the Ingestor
	// (§2 C7), an external collaborator this spec models but does not own.
	Create(ctx context.Context, job *model.Job) error
}
