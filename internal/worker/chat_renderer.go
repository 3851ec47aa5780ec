package worker

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/kramerology/vod2tube/internal/ffmpeg"
)

// ChatRenderer renders the downloaded chat log into a side-car video at
// chats/{vod_id}_chat.mp4, matched to the source video's frame rate and
// height (§4.3). Requires VodFilePath (to probe) and ChatTextFilePath (to
// render).
type ChatRenderer struct {
	WorkDir          string
	FfprobePath      string
	ChatRendererPath string
}

func NewChatRenderer(workDir, ffprobePath, chatRendererPath string) *ChatRenderer {
	return &ChatRenderer{WorkDir: workDir, FfprobePath: ffprobePath, ChatRendererPath: chatRendererPath}
}

func (w *ChatRenderer) Run(ctx context.Context, vodID string, inputs Inputs) Stream {
	return NewStream(ctx, func(send func(string)) error {
		if inputs.VodFilePath == "" {
			return fmt.Errorf("chat renderer requires VodFilePath")
		}
		if inputs.ChatTextFilePath == "" {
			return fmt.Errorf("chat renderer requires ChatTextFilePath")
		}

		send("probing source video for frame rate and height")
		info, err := ffmpeg.Probe(ctx, w.FfprobePath, inputs.VodFilePath)
		if err != nil {
			return fmt.Errorf("probe source video: %w", err)
		}

		dest := chatVideoPath(w.WorkDir, vodID)
		if err := os.MkdirAll(dirOf(dest), 0o755); err != nil {
			return fmt.Errorf("prepare chats dir: %w", err)
		}
		if err := removeIfExists(dest); err != nil {
			return fmt.Errorf("clear stale chat render: %w", err)
		}

		args := []string{
			"--input", inputs.ChatTextFilePath,
			"--output", dest,
			"--framerate", strconv.FormatFloat(info.FrameRate, 'f', 3, 64),
			"--height", strconv.Itoa(info.Height),
		}
		send(fmt.Sprintf("rendering chat at %.2ffps, height %d", info.FrameRate, info.Height))
		return ffmpeg.RunWithProgress(ctx, w.ChatRendererPath, args, func(line string) {
			send(line)
		})
	})
}
