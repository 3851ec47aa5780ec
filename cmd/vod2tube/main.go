package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/kramerology/vod2tube/internal/config"
	"github.com/kramerology/vod2tube/internal/dispatcher"
	"github.com/kramerology/vod2tube/internal/failure"
	"github.com/kramerology/vod2tube/internal/ingestor"
	"github.com/kramerology/vod2tube/internal/logging"
	"github.com/kramerology/vod2tube/internal/model"
	"github.com/kramerology/vod2tube/internal/store"
	"github.com/kramerology/vod2tube/internal/throttle"
	"github.com/kramerology/vod2tube/internal/worker"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	instanceID := uuid.NewString()
	logger.WithField("instance_id", instanceID).Info("starting vod2tube")

	jobStore := store.NewPostgrestStore(cfg.SupabaseURL, cfg.SupabaseKey)
	metadataStore := store.NewPostgrestMetadataStore(cfg.SupabaseURL, cfg.SupabaseKey)

	workers := dispatcher.Workers{
		VodDownloader:  worker.NewVodDownloader(cfg.WorkDir, cfg.YtDlpPath),
		ChatDownloader: worker.NewChatDownloader(cfg.WorkDir, cfg.ChatDownloaderPath),
		ChatRenderer:   worker.NewChatRenderer(cfg.WorkDir, cfg.FfprobePath, cfg.ChatRendererPath),
		FinalRenderer:  worker.NewFinalRenderer(cfg.WorkDir, cfg.FfmpegPath),
		Uploader: worker.NewVideoUploader(
			worker.NewCLIUploader(cfg.UploaderBinaryPath, cfg.UploadCredentialsPath),
			metadataLookup(metadataStore),
		),
	}

	d := &dispatcher.Dispatcher{
		Store:         jobStore,
		Workers:       workers,
		Failure:       failure.NewPolicy(jobStore),
		Throttle:      throttle.New(jobStore, logger.WithField("component", "throttle"), cfg.ThrottleInterval),
		WorkDir:       cfg.WorkDir,
		InstanceID:    instanceID,
		PollInterval:  cfg.PollInterval,
		LeaseInterval: cfg.LeaseRefreshInterval,
		Log:           logger,
	}
	d.Failure.Threshold = cfg.MaxRetryableFailures

	ing := ingestor.New(ingestor.NullDiscoverer{}, jobStore, metadataStore, cfg.PollInterval, logger.WithField("component", "ingestor"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() { errCh <- d.Run(ctx) }()
	go func() { errCh <- ing.Run(ctx) }()

	<-ctx.Done()
	logger.Info("shutdown signal received, waiting for in-flight work to unwind")
	for i := 0; i < 2; i++ {
		<-errCh
	}
	logger.Info("vod2tube shut down gracefully")
	os.Exit(0)
}

func metadataLookup(ms store.MetadataStore) worker.MetadataLookup {
	return func(ctx context.Context, vodID string) (model.VodMetadata, bool) {
		meta, ok, err := ms.Get(ctx, vodID)
		if err != nil {
			return model.VodMetadata{}, false
		}
		return meta, ok
	}
}
