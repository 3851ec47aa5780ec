package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	postgrest "github.com/supabase-community/postgrest-go"

	"github.com/kramerology/vod2tube/internal/model"
)

const vodMetadataTable = "vod_metadata"

// MetadataStore persists VodMetadata rows. Separate from Store because the
// pipeline only ever reads this data (§3: "pipeline reads VodMetadata to
// enrich upload titles but does not write it") — only the Ingestor writes
// to it.
type MetadataStore interface {
	Get(ctx context.Context, vodID string) (model.VodMetadata, bool, error)
	Put(ctx context.Context, meta model.VodMetadata) error
}

type metadataRow struct {
	VodID           string    `json:"vod_id"`
	ChannelID       string    `json:"channel_id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	DurationSeconds int       `json:"duration_seconds"`
	CapturedAtUTC   time.Time `json:"captured_at_utc"`
}

func (r metadataRow) toVodMetadata() model.VodMetadata {
	return model.VodMetadata{
		VodID:           r.VodID,
		ChannelID:       r.ChannelID,
		Title:           r.Title,
		URL:             r.URL,
		DurationSeconds: r.DurationSeconds,
		CapturedAtUTC:   r.CapturedAtUTC,
	}
}

func metadataRowFromModel(m model.VodMetadata) metadataRow {
	return metadataRow{
		VodID:           m.VodID,
		ChannelID:       m.ChannelID,
		Title:           m.Title,
		URL:             m.URL,
		DurationSeconds: m.DurationSeconds,
		CapturedAtUTC:   m.CapturedAtUTC,
	}
}

// PostgrestMetadataStore is the PostgREST-backed MetadataStore, built the
// same way as PostgrestStore: one client per call, upsert on write since
// the Ingestor may re-discover the same VOD across polls.
type PostgrestMetadataStore struct {
	newClient func() *postgrest.Client
}

func NewPostgrestMetadataStore(baseURL, apiKey string) *PostgrestMetadataStore {
	headers := map[string]string{
		"apikey":        apiKey,
		"Authorization": fmt.Sprintf("Bearer %s", apiKey),
	}
	return &PostgrestMetadataStore{
		newClient: func() *postgrest.Client {
			return postgrest.NewClient(baseURL+"/rest/v1", "", headers)
		},
	}
}

func (s *PostgrestMetadataStore) Get(ctx context.Context, vodID string) (model.VodMetadata, bool, error) {
	var rows []metadataRow
	body, _, err := s.newClient().From(vodMetadataTable).
		Select("*", "", false).
		Eq("vod_id", vodID).
		Limit(1, "").
		Execute()
	if err != nil {
		return model.VodMetadata{}, false, fmt.Errorf("metadata store: get %s: %w", vodID, err)
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return model.VodMetadata{}, false, fmt.Errorf("metadata store: decode %s: %w", vodID, err)
	}
	if len(rows) == 0 {
		return model.VodMetadata{}, false, nil
	}
	return rows[0].toVodMetadata(), true, nil
}

func (s *PostgrestMetadataStore) Put(ctx context.Context, meta model.VodMetadata) error {
	row := metadataRowFromModel(meta)
	var results []metadataRow
	_, err := s.newClient().From(vodMetadataTable).
		Upsert(row, "", "representation", "").
		ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("metadata store: put %s: %w", meta.VodID, err)
	}
	return nil
}
