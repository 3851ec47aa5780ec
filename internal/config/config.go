// Package config loads and validates process configuration: store
// connection, filesystem roots, and pipeline timing knobs. Config loading
// itself is out of this spec's scope (§1), but the pipeline still needs a
// typed, validated settings object to construct its components from,
// validated with go-playground/validator struct tags the same way an HTTP
// handler would validate a request body, applied here to startup config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds everything main needs to wire up the Dispatcher, Job Store,
// and workers.
type Config struct {
	// SupabaseURL and SupabaseKey address the PostgREST-fronted Job Store.
	SupabaseURL string `validate:"required,url"`
	SupabaseKey string `validate:"required"`

	// WorkDir is the root of the filesystem layout (§6): vods/, chats/, finals/.
	WorkDir string `validate:"required"`

	// PollInterval is how long the Dispatcher sleeps when no eligible job
	// is found (§4.2 step 2).
	PollInterval time.Duration `validate:"required"`

	// LeaseRefreshInterval is how often the Lease Keeper refreshes
	// LeasedAtUtc (§4.4).
	LeaseRefreshInterval time.Duration `validate:"required"`

	// LeaseStaleAfter is the advisory staleness threshold (§4.4); not
	// consulted for selection by this single-Dispatcher deployment.
	LeaseStaleAfter time.Duration `validate:"required"`

	// ThrottleInterval is the minimum gap between persisted Description
	// updates (§4.5).
	ThrottleInterval time.Duration `validate:"required"`

	// MaxRetryableFailures is the FailCount threshold at which a retryable
	// failure becomes permanent (§4.6); defaults to 3 and can be overridden
	// with VOD2TUBE_MAX_RETRYABLE_FAILURES.
	MaxRetryableFailures int `validate:"required,min=1"`

	// LogLevel is a logrus level name ("debug", "info", ...).
	LogLevel string `validate:"required"`

	// YtDlpPath, FfmpegPath, FfprobePath, and ChatDownloaderPath locate the
	// external binaries the stage workers shell out to. Their invocation is
	// outside this spec (§1); only the path is a pipeline concern.
	YtDlpPath          string `validate:"required"`
	FfmpegPath         string `validate:"required"`
	FfprobePath        string `validate:"required"`
	ChatDownloaderPath string `validate:"required"`
	ChatRendererPath   string `validate:"required"`

	// UploaderBinaryPath locates the CLI the VideoUploader worker shells
	// out to, and UploadCredentialsPath locates the OAuth credentials it
	// passes to that CLI (§1: talking to the upload API itself is external).
	UploaderBinaryPath    string `validate:"required"`
	UploadCredentialsPath string `validate:"required"`
}

// Load reads a .env file (if present) then the process environment,
// applies defaults, and validates the result. A missing .env file is not
// an error — godotenv.Load is best-effort.
func Load(envFile string) (*Config, error) {
	_ = godotenv.Load(envFile)

	cfg := &Config{
		SupabaseURL:          os.Getenv("VOD2TUBE_SUPABASE_URL"),
		SupabaseKey:          os.Getenv("VOD2TUBE_SUPABASE_KEY"),
		WorkDir:              envOrDefault("VOD2TUBE_WORK_DIR", "."),
		PollInterval:         durationOrDefault("VOD2TUBE_POLL_INTERVAL", 30*time.Second),
		LeaseRefreshInterval: durationOrDefault("VOD2TUBE_LEASE_REFRESH_INTERVAL", 2*time.Minute),
		LeaseStaleAfter:      durationOrDefault("VOD2TUBE_LEASE_STALE_AFTER", 10*time.Minute),
		ThrottleInterval:     durationOrDefault("VOD2TUBE_THROTTLE_INTERVAL", 2*time.Second),
		MaxRetryableFailures: intOrDefault("VOD2TUBE_MAX_RETRYABLE_FAILURES", 3),
		LogLevel:             envOrDefault("VOD2TUBE_LOG_LEVEL", "info"),
		YtDlpPath:             envOrDefault("VOD2TUBE_YTDLP_PATH", "yt-dlp"),
		FfmpegPath:            envOrDefault("VOD2TUBE_FFMPEG_PATH", "ffmpeg"),
		FfprobePath:           envOrDefault("VOD2TUBE_FFPROBE_PATH", "ffprobe"),
		ChatDownloaderPath:    envOrDefault("VOD2TUBE_CHAT_DOWNLOADER_PATH", "chat-downloader"),
		ChatRendererPath:      envOrDefault("VOD2TUBE_CHAT_RENDERER_PATH", "chat-renderer"),
		UploaderBinaryPath:    envOrDefault("VOD2TUBE_UPLOADER_BINARY_PATH", "vod2tube-uploader"),
		UploadCredentialsPath: envOrDefault("VOD2TUBE_UPLOAD_CREDENTIALS_PATH", "credentials/upload.json"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func intOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
