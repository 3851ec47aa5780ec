package worker

import (
	"context"
	"fmt"

	"github.com/kramerology/vod2tube/internal/model"
	"github.com/kramerology/vod2tube/internal/sanitize"
)

// UploadMetadata carries the defaults §6 specifies: category gaming,
// privacy private, MadeForKids false, a templated description, and tags
// that include the channel identifier.
type UploadMetadata struct {
	Title        string
	Description  string
	Category     string
	Privacy      string
	MadeForKids  bool
	Tags         []string
}

// Uploader is the OAuth-upload-API collaborator (§1: "talking to an OAuth
// upload API" is not part of this spec). A concrete implementation shells
// to an uploader CLI the way the other workers shell to yt-dlp/ffmpeg.
type Uploader interface {
	Upload(ctx context.Context, filePath string, meta UploadMetadata, onProgress func(string)) (remoteVideoID string, err error)
}

// MetadataLookup resolves the VodMetadata the uploader needs to build a
// title and description (§3: "pipeline reads VodMetadata to enrich upload
// titles but does not write it"). Returns ok=false if no metadata row
// exists; the uploader falls back to a bare, sanitized vodID as the title.
type MetadataLookup func(ctx context.Context, vodID string) (model.VodMetadata, bool)

// VideoUploader uploads finals/{vod_id}_final.mp4 and records the
// resulting remote video id on the job (§4.3).
type VideoUploader struct {
	Uploader Uploader
	Lookup   MetadataLookup

	lastUploadedVideoID string
}

func NewVideoUploader(uploader Uploader, lookup MetadataLookup) *VideoUploader {
	return &VideoUploader{Uploader: uploader, Lookup: lookup}
}

func (w *VideoUploader) Run(ctx context.Context, vodID string, inputs Inputs) Stream {
	return NewStream(ctx, func(send func(string)) error {
		if inputs.FinalVideoFilePath == "" {
			return fmt.Errorf("video uploader requires FinalVideoFilePath")
		}

		meta, ok := w.Lookup(ctx, vodID)
		title := sanitize.Title(vodID)
		description := ""
		channelID := ""
		if ok {
			title = sanitize.Title(meta.Title)
			description = fmt.Sprintf("Originally streamed at %s\nChannel: %s\nCaptured: %s",
				meta.URL, meta.ChannelID, meta.CapturedAtUTC.Format("2006-01-02"))
			channelID = meta.ChannelID
		}

		uploadMeta := UploadMetadata{
			Title:       title,
			Description: description,
			Category:    "gaming",
			Privacy:     "private",
			MadeForKids: false,
			Tags:        tagsFor(channelID),
		}

		send(fmt.Sprintf("uploading %s", inputs.FinalVideoFilePath))
		remoteID, err := w.Uploader.Upload(ctx, inputs.FinalVideoFilePath, uploadMeta, send)
		if err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		send(fmt.Sprintf("uploaded as %s", remoteID))
		w.lastUploadedVideoID = remoteID
		return nil
	})
}

// LastUploadedVideoID is a narrow escape hatch: the Stream contract only
// carries status strings and a terminal error, but the Dispatcher needs
// the remote id to record on the job (§3 UploadedVideoId). Call it only
// after Stream.Wait() has returned nil, by which point the single upload
// goroutine has already written it; the single-job-at-a-time dispatch
// model (§5) means there is never a concurrent Run to race it against.
func (w *VideoUploader) LastUploadedVideoID() string {
	return w.lastUploadedVideoID
}

func tagsFor(channelID string) []string {
	if channelID == "" {
		return nil
	}
	return []string{channelID}
}
