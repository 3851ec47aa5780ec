package store

import (
	"time"

	"github.com/kramerology/vod2tube/internal/model"
)

// jobRow is the wire shape of a jobs table row: a flat, json-tagged struct
// dedicated to store marshalling rather than reusing the domain type
// directly. StagePriority is a derived, denormalized column: PostgREST
// has no notion of "order by this Go constant", so the priority used by
// the Dispatcher's selection query (§4.2) is persisted alongside the
// human-readable Stage name.
type jobRow struct {
	VodID              string    `json:"vod_id"`
	Stage              string    `json:"stage"`
	StagePriority      int       `json:"stage_priority"`
	Description        string    `json:"description"`
	VodFilePath        string    `json:"vod_file_path"`
	ChatTextFilePath   string    `json:"chat_text_file_path"`
	ChatVideoFilePath  string    `json:"chat_video_file_path"`
	FinalVideoFilePath string    `json:"final_video_file_path"`
	UploadedVideoID    string    `json:"uploaded_video_id"`
	LeasedBy           string    `json:"leased_by"`
	LeasedAtUTC        time.Time `json:"leased_at_utc"`
	Failed             bool      `json:"failed"`
	FailReason         string    `json:"fail_reason"`
	FailCount          int       `json:"fail_count"`
	CreatedAtUTC       time.Time `json:"created_at_utc,omitempty"`
	UpdatedAtUTC       time.Time `json:"updated_at_utc,omitempty"`
}

var stageByName = func() map[string]model.Stage {
	m := map[string]model.Stage{}
	for s := model.Pending; s <= model.Uploaded; s++ {
		m[s.String()] = s
	}
	return m
}()

func rowFromJob(j *model.Job) jobRow {
	return jobRow{
		VodID:              j.VodID,
		Stage:              j.Stage.String(),
		StagePriority:      int(j.Stage),
		Description:        j.Description,
		VodFilePath:        j.VodFilePath,
		ChatTextFilePath:   j.ChatTextFilePath,
		ChatVideoFilePath:  j.ChatVideoFilePath,
		FinalVideoFilePath: j.FinalVideoFilePath,
		UploadedVideoID:    j.UploadedVideoID,
		LeasedBy:           j.LeasedBy,
		LeasedAtUTC:        j.LeasedAtUTC,
		Failed:             j.Failed,
		FailReason:         j.FailReason,
		FailCount:          j.FailCount,
		CreatedAtUTC:       j.CreatedAtUTC,
		UpdatedAtUTC:       j.UpdatedAtUTC,
	}
}

func (r jobRow) toJob() *model.Job {
	stage, ok := stageByName[r.Stage]
	if !ok {
		stage = model.Stage(r.StagePriority)
	}
	return &model.Job{
		VodID:              r.VodID,
		Stage:              stage,
		Description:        r.Description,
		VodFilePath:        r.VodFilePath,
		ChatTextFilePath:   r.ChatTextFilePath,
		ChatVideoFilePath:  r.ChatVideoFilePath,
		FinalVideoFilePath: r.FinalVideoFilePath,
		UploadedVideoID:    r.UploadedVideoID,
		LeasedBy:           r.LeasedBy,
		LeasedAtUTC:        r.LeasedAtUTC,
		Failed:             r.Failed,
		FailReason:         r.FailReason,
		FailCount:          r.FailCount,
		CreatedAtUTC:       r.CreatedAtUTC,
		UpdatedAtUTC:       r.UpdatedAtUTC,
	}
}
