// Package ffmpeg wraps the ffmpeg/ffprobe binaries the chat renderer,
// final renderer, and video downloader shell out to: an exec.Command-plus-
// stderr-buffer shape generalized to the streaming-progress and
// hardware-encoder-selection needs of §4.3.
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// VideoInfo is the subset of ffprobe's output the chat and final renderers
// need to match the source video's frame rate and height (§4.3).
type VideoInfo struct {
	FrameRate float64
	Height    int
}

type ffprobeStream struct {
	CodecType   string `json:"codec_type"`
	Height      int    `json:"height"`
	FrameRate   string `json:"r_frame_rate"`
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

// Probe runs ffprobe against filePath, pulls the full ffprobe document,
// and extracts frame rate and height from the first video stream — the
// two fields the renderers actually consume.
func Probe(ctx context.Context, ffprobePath, filePath string) (VideoInfo, error) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		filePath,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe failed: %w\nstderr: %s", err, stderr.String())
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return VideoInfo{}, fmt.Errorf("decode ffprobe output: %w", err)
	}

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		return VideoInfo{
			FrameRate: parseRational(s.FrameRate),
			Height:    s.Height,
		}, nil
	}
	return VideoInfo{}, fmt.Errorf("no video stream found in %s", filePath)
}

func parseRational(s string) float64 {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// HardwareEncoder is one candidate video encoder the final renderer may
// select, in preference order (§4.3: "selects the best available hardware
// encoder from a preference list").
type HardwareEncoder struct {
	Name  string // ffmpeg -c:v value, e.g. "h264_amf"
	Label string // human-readable, used in status strings
}

// EncoderPreference is the AMD -> NVIDIA -> Intel -> software fallback
// order §4.3 specifies.
var EncoderPreference = []HardwareEncoder{
	{Name: "h264_amf", Label: "AMD AMF"},
	{Name: "h264_nvenc", Label: "NVIDIA NVENC"},
	{Name: "h264_qsv", Label: "Intel Quick Sync"},
	{Name: "libx264", Label: "software (libx264)"},
}

// EncoderProbe reports whether ffmpeg's compiled-in codec list contains
// encoderName. The final renderer walks EncoderPreference through this
// until one is available.
type EncoderProbe func(ctx context.Context, ffmpegPath, encoderName string) bool

// ProbeEncoderAvailable shells to `ffmpeg -hide_banner -encoders` and
// checks the encoder name is listed. It only checks the listing:
// listed-but-nonfunctional hardware (e.g. no GPU present at runtime) is
// reported available, the renderer's run then fails, and a later attempt
// probes the same list and selects the same encoder again.
func ProbeEncoderAvailable(ctx context.Context, ffmpegPath, encoderName string) bool {
	cmd := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders")
	out, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), encoderName)
}

// SelectEncoder walks EncoderPreference in order and returns the first one
// probe reports available, falling back to libx264 (always compiled in)
// if none of the hardware options are.
func SelectEncoder(ctx context.Context, ffmpegPath string, probe EncoderProbe) HardwareEncoder {
	for _, enc := range EncoderPreference {
		if probe(ctx, ffmpegPath, enc.Name) {
			return enc
		}
	}
	return EncoderPreference[len(EncoderPreference)-1]
}

// RunWithProgress runs a command and forwards each stderr line it emits to
// onLine, the way a Stage Worker turns a child process into a status
// stream. It blocks until the process exits or ctx is cancelled; a
// cancelled context causes CommandContext to kill the process, which is
// how §4.3's cancellation requirement propagates down to the child. Use
// this for ffmpeg/ffprobe, whose progress output is on stderr.
func RunWithProgress(ctx context.Context, name string, args []string, onLine func(string)) error {
	return runStreamingPipe(ctx, name, args, (*exec.Cmd).StderrPipe, onLine)
}

// RunWithStdoutProgress is RunWithProgress's stdout-reading counterpart,
// for CLIs (yt-dlp-style downloaders, chat-log fetchers) that write their
// progress to stdout rather than stderr.
func RunWithStdoutProgress(ctx context.Context, name string, args []string, onLine func(string)) error {
	return runStreamingPipe(ctx, name, args, (*exec.Cmd).StdoutPipe, onLine)
}

func runStreamingPipe(ctx context.Context, name string, args []string, pipe func(*exec.Cmd) (io.ReadCloser, error), onLine func(string)) error {
	cmd := exec.CommandContext(ctx, name, args...)
	reader, err := pipe(cmd)
	if err != nil {
		return fmt.Errorf("attach output pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			onLine(line)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}
