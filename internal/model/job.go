// Package model defines the persistent shapes the job pipeline operates on.
package model

import "time"

// Stage is a job's position in the linear archival pipeline. The numeric
// value doubles as dispatcher priority: higher stages win (§4.2).
type Stage int

const (
	Pending Stage = iota
	DownloadingVod
	PendingDownloadChat
	DownloadingChat
	PendingRenderingChat
	RenderingChat
	PendingCombining
	Combining
	PendingUpload
	Uploading
	Uploaded
)

var stageNames = map[Stage]string{
	Pending:              "Pending",
	DownloadingVod:       "DownloadingVod",
	PendingDownloadChat:  "PendingDownloadChat",
	DownloadingChat:      "DownloadingChat",
	PendingRenderingChat: "PendingRenderingChat",
	RenderingChat:        "RenderingChat",
	PendingCombining:     "PendingCombining",
	Combining:            "Combining",
	PendingUpload:        "PendingUpload",
	Uploading:            "Uploading",
	Uploaded:             "Uploaded",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Terminal reports whether a job in this stage needs no further dispatch.
// Failed is a separate out-of-band flag on Job, not a Stage value.
func (s Stage) Terminal() bool {
	return s == Uploaded
}

// IsQuiescent reports whether s is one of the even-indexed Pending*
// checkpoints at which all artifacts produced so far are durable and no
// worker is active. The terminal Uploaded stage (10) is even-valued and
// also reports true, so Checkpoint returns it unchanged.
func (s Stage) IsQuiescent() bool {
	return s%2 == 0
}

// Active returns the paired active stage for a Pending* checkpoint, e.g.
// Pending -> DownloadingVod. Quiescent stages only; the terminal Uploaded
// stage has no active pair and is returned unchanged.
func (s Stage) Active() Stage {
	if s == Uploaded {
		return s
	}
	return s + 1
}

// Checkpoint returns the paired Pending* checkpoint for an active stage,
// e.g. DownloadingVod -> Pending. Resume-after-crash treats any row found
// in an active stage as if it were this checkpoint (§4.1).
func (s Stage) Checkpoint() Stage {
	if s.IsQuiescent() {
		return s
	}
	return s - 1
}

// Job is one row per VOD, keyed by VodId.
type Job struct {
	VodID              string
	Stage              Stage
	Description        string
	VodFilePath        string
	ChatTextFilePath   string
	ChatVideoFilePath  string
	FinalVideoFilePath string
	UploadedVideoID    string
	LeasedBy           string
	LeasedAtUTC        time.Time
	Failed             bool
	FailReason         string
	FailCount          int
	CreatedAtUTC       time.Time
	UpdatedAtUTC       time.Time
}

// Eligible reports whether a job may still be selected for work: not
// permanently failed and not past the terminal stage (invariant 3).
func (j *Job) Eligible() bool {
	return !j.Failed && !j.Stage.Terminal()
}

// VodMetadata is read by the pipeline to enrich upload titles but is never
// written by it; it is populated at ingestion time by the Ingestor.
type VodMetadata struct {
	VodID           string
	ChannelID       string
	Title           string
	URL             string
	DurationSeconds int
	CapturedAtUTC   time.Time
}

// Channel is a source-platform account scanned by the Ingestor. Schema
// only — the pipeline has no behavior tied to it beyond VodMetadata.ChannelID.
type Channel struct {
	ChannelID      string
	DisplayName    string
	SourcePlatform string
}
