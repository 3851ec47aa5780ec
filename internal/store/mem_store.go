package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kramerology/vod2tube/internal/model"
)

// MemStore is an in-memory Store used by tests and by the scenarios in
// spec.md §8. A single mutex stands in for "independent sessions" here:
// it is cheap enough that serializing Save and RefreshLease through it
// does not reintroduce the contention §5 warns against at real-store scale.
type MemStore struct {
	mu   sync.Mutex
	jobs map[string]model.Job
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{jobs: make(map[string]model.Job)}
}

func (s *MemStore) NextEligibleJob(ctx context.Context) (*model.Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []model.Job
	for _, j := range s.jobs {
		if j.Eligible() {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return nil, false, nil
	}
	// Stage priority descending, VodID ascending tie-break (invariant 1).
	sort.Slice(candidates, func(i, k int) bool {
		if candidates[i].Stage != candidates[k].Stage {
			return candidates[i].Stage > candidates[k].Stage
		}
		return candidates[i].VodID < candidates[k].VodID
	})
	picked := candidates[0]
	return &picked, true, nil
}

func (s *MemStore) Get(ctx context.Context, vodID string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[vodID]
	if !ok {
		return nil, ErrNotFound
	}
	return &j, nil
}

func (s *MemStore) Save(ctx context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.UpdatedAtUTC = time.Now().UTC()
	s.jobs[job.VodID] = *job
	return nil
}

func (s *MemStore) RefreshLease(ctx context.Context, vodID, leasedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[vodID]
	if !ok {
		return ErrNotFound
	}
	j.LeasedBy = leasedBy
	j.LeasedAtUTC = time.Now().UTC()
	s.jobs[vodID] = j
	return nil
}

func (s *MemStore) UpdateDescription(ctx context.Context, vodID, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[vodID]
	if !ok {
		return ErrNotFound
	}
	j.Description = description
	s.jobs[vodID] = j
	return nil
}

func (s *MemStore) Create(ctx context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	job.CreatedAtUTC = now
	job.UpdatedAtUTC = now
	s.jobs[job.VodID] = *job
	return nil
}

// Snapshot returns a copy of a job for test assertions, avoiding a data
// race with the background goroutines under test.
func (s *MemStore) Snapshot(vodID string) (model.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[vodID]
	return j, ok
}

// MemMetadataStore is an in-memory MetadataStore used by tests.
type MemMetadataStore struct {
	mu   sync.Mutex
	rows map[string]model.VodMetadata
}

func NewMemMetadataStore() *MemMetadataStore {
	return &MemMetadataStore{rows: make(map[string]model.VodMetadata)}
}

func (s *MemMetadataStore) Get(ctx context.Context, vodID string) (model.VodMetadata, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[vodID]
	return m, ok, nil
}

func (s *MemMetadataStore) Put(ctx context.Context, meta model.VodMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[meta.VodID] = meta
	return nil
}
