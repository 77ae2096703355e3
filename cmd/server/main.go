package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vuqn/pagepost/internal/api"
	"github.com/vuqn/pagepost/internal/config"
	"github.com/vuqn/pagepost/internal/logx"
	"github.com/vuqn/pagepost/internal/poll"
	"github.com/vuqn/pagepost/internal/prefs"
	"github.com/vuqn/pagepost/internal/probe"
	"github.com/vuqn/pagepost/internal/storage"
	"github.com/vuqn/pagepost/internal/submit"
	"github.com/vuqn/pagepost/internal/uploader"
	"github.com/vuqn/pagepost/internal/validate"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		panic(fmt.Sprintf("config error: %v", err))
	}

	log := logx.Setup(logx.Config{
		Service:  "gateway",
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		FilePath: cfg.Log.File,
	})

	var store storage.BlobStore
	switch cfg.Storage.Driver {
	case "s3":
		s3store, err := storage.NewS3Store(context.Background(), cfg.Storage.S3.Bucket, cfg.Storage.S3.Region, log)
		if err != nil {
			log.Fatal().Err(err).Msg("s3 store init failed")
		}
		store = s3store
	default:
		disk := storage.NewDiskStore(cfg.Storage.UploadDir, log)
		store = disk
		if cfg.Storage.RetentionHours > 0 {
			retention := time.Duration(cfg.Storage.RetentionHours) * time.Hour
			go func() {
				for {
					if _, err := disk.Prune(retention); err != nil {
						log.Warn().Err(err).Msg("upload prune failed")
					}
					time.Sleep(time.Hour)
				}
			}()
		}
	}

	prefStore, err := prefs.Load(cfg.Prefs.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load preferences")
	}

	backendTimeout := time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
	prober := probe.New(time.Duration(cfg.Probe.TimeoutSeconds) * time.Second)

	h := &api.Handler{
		Validator: validate.New(prober, log),
		Policies: validate.Policies{
			MaxVideoSizeBytes:     cfg.Limits.MaxVideoSizeMB * 1024 * 1024,
			MinVideoDuration:      cfg.Limits.MinVideoDuration,
			MaxStoryVideoDuration: cfg.Limits.MaxStoryVideoDuration,
			MaxReelVideoDuration:  cfg.Limits.MaxReelVideoDuration,
		},
		Uploader:  uploader.New(store, log),
		Submitter: submit.New(cfg.Backend.BaseURL, backendTimeout, log),
		Poller: poll.New(cfg.Backend.BaseURL,
			time.Duration(cfg.Poll.IntervalSeconds)*time.Second, backendTimeout, log),
		Prefs: prefStore,
		Log:   log,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	api.RegisterHandlers(r, h)

	log.Info().Int("port", cfg.Server.Port).Str("backend", cfg.Backend.BaseURL).Msg("server starting")
	if err := r.Run(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
