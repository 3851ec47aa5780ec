package worker

import (
	"context"
	"fmt"
	"os"

	"github.com/kramerology/vod2tube/internal/ffmpeg"
)

// FinalRenderer composites the source video and the rendered chat video
// side by side into finals/{vod_id}_final.mp4, selecting the best
// available hardware encoder from the AMD -> NVIDIA -> Intel -> software
// preference list (§4.3): builds an exec.Command around ffmpeg directly
// and captures stderr as the progress stream.
type FinalRenderer struct {
	WorkDir    string
	FfmpegPath string
}

func NewFinalRenderer(workDir, ffmpegPath string) *FinalRenderer {
	return &FinalRenderer{WorkDir: workDir, FfmpegPath: ffmpegPath}
}

func (w *FinalRenderer) Run(ctx context.Context, vodID string, inputs Inputs) Stream {
	return NewStream(ctx, func(send func(string)) error {
		if inputs.VodFilePath == "" {
			return fmt.Errorf("final renderer requires VodFilePath")
		}
		if inputs.ChatVideoFilePath == "" {
			return fmt.Errorf("final renderer requires ChatVideoFilePath")
		}

		dest := finalVideoPath(w.WorkDir, vodID)
		if err := os.MkdirAll(dirOf(dest), 0o755); err != nil {
			return fmt.Errorf("prepare finals dir: %w", err)
		}
		if err := removeIfExists(dest); err != nil {
			return fmt.Errorf("clear stale composite: %w", err)
		}

		encoder := ffmpeg.SelectEncoder(ctx, w.FfmpegPath, ffmpeg.ProbeEncoderAvailable)
		send(fmt.Sprintf("compositing with %s", encoder.Label))

		args := []string{
			"-y",
			"-i", inputs.VodFilePath,
			"-i", inputs.ChatVideoFilePath,
			"-filter_complex",
			"[0:v]scale=-2:720[left];[1:v]scale=-2:720[right];[left][right]hstack=inputs=2[v]",
			"-map", "[v]",
			"-map", "0:a?",
			"-c:v", encoder.Name,
			dest,
		}
		return ffmpeg.RunWithProgress(ctx, w.FfmpegPath, args, func(line string) {
			send(line)
		})
	})
}
