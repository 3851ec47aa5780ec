package worker

import (
	"context"
	"fmt"
	"os"

	"github.com/kramerology/vod2tube/internal/ffmpeg"
)

// VodDownloader downloads the source VOD to vods/{vod_id}.mp4 (§4.3),
// built around the same exec.Command-plus-buffer shape the other shelling
// workers use, reading stdout rather than stderr since that's where a
// yt-dlp-style CLI writes its `--newline` progress. The downloader binary
// itself is an external collaborator per §1 — only its invocation and
// progress parsing live here.
type VodDownloader struct {
	WorkDir   string
	YtDlpPath string
}

// NewVodDownloader builds a VodDownloader rooted at workDir, writing to
// vods/{vod_id}.mp4 under it.
func NewVodDownloader(workDir, ytDlpPath string) *VodDownloader {
	return &VodDownloader{WorkDir: workDir, YtDlpPath: ytDlpPath}
}

func (w *VodDownloader) Run(ctx context.Context, vodID string, _ Inputs) Stream {
	return NewStream(ctx, func(send func(string)) error {
		dest := vodPath(w.WorkDir, vodID)
		if err := os.MkdirAll(dirOf(dest), 0o755); err != nil {
			return fmt.Errorf("prepare vods dir: %w", err)
		}

		// yt-dlp writes to a partial file and renames on completion, giving
		// idempotence for free on restart: an interrupted prior attempt
		// leaves a .part file yt-dlp itself resumes or discards.
		args := []string{
			"--newline",
			"--force-overwrites",
			"-o", dest,
			vodURL(vodID),
		}
		send(fmt.Sprintf("downloading vod %s", vodID))
		return ffmpeg.RunWithStdoutProgress(ctx, w.YtDlpPath, args, func(line string) {
			send(line)
		})
	})
}

// vodURL is the pure mapping from a VodId to the source platform's watch
// URL. The source platform itself is an external collaborator (§1); this
// package only needs a deterministic way to name the download target.
func vodURL(vodID string) string {
	return fmt.Sprintf("https://www.twitch.tv/videos/%s", vodID)
}
