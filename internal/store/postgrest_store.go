package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	postgrest "github.com/supabase-community/postgrest-go"

	"github.com/kramerology/vod2tube/internal/model"
)

const jobsTable = "jobs"

// PostgrestStore talks to a PostgREST-fronted Postgres instance. Every
// exported method builds its own postgrest.Client.From(...) call — there
// is no shared transaction — which is what gives callers the "short-lived
// session per save" property §5 requires.
type PostgrestStore struct {
	newClient func() *postgrest.Client
}

// NewPostgrestStore builds a store against baseURL using apiKey for both
// the apikey and bearer-auth headers PostgREST expects.
func NewPostgrestStore(baseURL, apiKey string) *PostgrestStore {
	headers := map[string]string{
		"apikey":        apiKey,
		"Authorization": fmt.Sprintf("Bearer %s", apiKey),
	}
	return &PostgrestStore{
		newClient: func() *postgrest.Client {
			return postgrest.NewClient(baseURL+"/rest/v1", "", headers)
		},
	}
}

func (s *PostgrestStore) client() *postgrest.Client {
	return s.newClient()
}

func (s *PostgrestStore) NextEligibleJob(ctx context.Context) (*model.Job, bool, error) {
	var rows []jobRow
	body, _, err := s.client().From(jobsTable).
		Select("*", "", false).
		Eq("failed", "false").
		Neq("stage_priority", fmt.Sprint(int(model.Uploaded))).
		Order("stage_priority", &postgrest.OrderOpts{Ascending: false}).
		Order("vod_id", &postgrest.OrderOpts{Ascending: true}).
		Limit(32, "").
		Execute()
	if err != nil {
		return nil, false, fmt.Errorf("store: query eligible jobs: %w", err)
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, false, fmt.Errorf("store: decode eligible jobs: %w", err)
	}

	// The terminal stage is excluded server-side above so the LIMIT window
	// can never fill up with Uploaded rows (§3 guarantees rows are never
	// deleted, so at scale an in-process-only filter would starve this
	// query once 32+ jobs reach Uploaded). Failed rows are excluded
	// server-side as well; job.Eligible() re-checks both exclusions per
	// row on the decoded jobs.
	for _, r := range rows {
		job := r.toJob()
		if job.Eligible() {
			return job, true, nil
		}
	}
	return nil, false, nil
}

func (s *PostgrestStore) Get(ctx context.Context, vodID string) (*model.Job, error) {
	var rows []jobRow
	body, _, err := s.client().From(jobsTable).
		Select("*", "", false).
		Eq("vod_id", vodID).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("store: get job %s: %w", vodID, err)
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("store: decode job %s: %w", vodID, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].toJob(), nil
}

func (s *PostgrestStore) Save(ctx context.Context, job *model.Job) error {
	job.UpdatedAtUTC = time.Now().UTC()
	row := rowFromJob(job)
	var results []jobRow
	_, err := s.client().From(jobsTable).
		Update(row, "representation", "").
		Eq("vod_id", job.VodID).
		ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("store: save job %s: %w", job.VodID, err)
	}
	return nil
}

func (s *PostgrestStore) RefreshLease(ctx context.Context, vodID, leasedBy string) error {
	update := map[string]interface{}{
		"leased_by":     leasedBy,
		"leased_at_utc": time.Now().UTC(),
	}
	var results []jobRow
	_, err := s.client().From(jobsTable).
		Update(update, "representation", "").
		Eq("vod_id", vodID).
		ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("store: refresh lease for %s: %w", vodID, err)
	}
	return nil
}

func (s *PostgrestStore) UpdateDescription(ctx context.Context, vodID, description string) error {
	update := map[string]interface{}{"description": description}
	var results []jobRow
	_, err := s.client().From(jobsTable).
		Update(update, "representation", "").
		Eq("vod_id", vodID).
		ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("store: update description for %s: %w", vodID, err)
	}
	return nil
}

func (s *PostgrestStore) Create(ctx context.Context, job *model.Job) error {
	now := time.Now().UTC()
	job.CreatedAtUTC = now
	job.UpdatedAtUTC = now
	row := rowFromJob(job)
	var results []jobRow
	_, err := s.client().From(jobsTable).
		Insert(row, false, "representation", "", "").
		ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("store: create job %s: %w", job.VodID, err)
	}
	return nil
}
