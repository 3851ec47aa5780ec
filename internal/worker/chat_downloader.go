package worker

import (
	"context"
	"fmt"
	"os"

	"github.com/kramerology/vod2tube/internal/ffmpeg"
)

// ChatDownloader downloads the VOD's chat log to chats/{vod_id}.json.
type ChatDownloader struct {
	WorkDir            string
	ChatDownloaderPath string
}

func NewChatDownloader(workDir, chatDownloaderPath string) *ChatDownloader {
	return &ChatDownloader{WorkDir: workDir, ChatDownloaderPath: chatDownloaderPath}
}

func (w *ChatDownloader) Run(ctx context.Context, vodID string, _ Inputs) Stream {
	return NewStream(ctx, func(send func(string)) error {
		dest := chatJSONPath(w.WorkDir, vodID)
		if err := os.MkdirAll(dirOf(dest), 0o755); err != nil {
			return fmt.Errorf("prepare chats dir: %w", err)
		}
		// Unlike yt-dlp, a chat-log CLI has no partial-file convention of
		// its own, so idempotence is enforced here: any stale output from
		// a crashed prior attempt is removed before this run starts.
		if err := removeIfExists(dest); err != nil {
			return fmt.Errorf("clear stale chat log: %w", err)
		}

		args := []string{
			"--output", dest,
			"--message_type", "messages",
			vodURL(vodID),
		}
		send(fmt.Sprintf("downloading chat for %s", vodID))
		// The chat-log CLI writes its progress to stdout, not stderr.
		return ffmpeg.RunWithStdoutProgress(ctx, w.ChatDownloaderPath, args, func(line string) {
			send(line)
		})
	})
}
