package main

import (
    "context"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    redis "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog/log"

    "github.com/local/mediainsight/internal/ai"
    cfgpkg "github.com/local/mediainsight/internal/config"
    "github.com/local/mediainsight/internal/dispatcher"
    "github.com/local/mediainsight/internal/imagerender"
    "github.com/local/mediainsight/internal/limiter"
    logpkg "github.com/local/mediainsight/internal/logger"
    "github.com/local/mediainsight/internal/metrics"
    "github.com/local/mediainsight/internal/statuscheck"
    "github.com/local/mediainsight/internal/storage"
    "github.com/local/mediainsight/internal/store"
    web "github.com/local/mediainsight/internal/web"
)

func main() {
    cfg := cfgpkg.Load()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level: cfg.Logging.Level,
        Pretty: cfg.Logging.Pretty,
        File: cfg.Logging.File,
        MaxSizeMB: cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
        Compress: cfg.Logging.Compress,
        SendToAxiom: cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey: cfg.Axiom.APIKey,
        AxiomOrgID: cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush: cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    metrics.Init()
    ctx := context.Background()

    if cfg.Gemini.APIKey == "" {
        log.Fatal().Msg("GEMINI_API_KEY is required")
    }
    client, err := ai.NewGeminiClient(ctx, cfg.Gemini.APIKey)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to create gemini client")
    }
    lister := ai.NewModelLister(cfg.Gemini.ModelsURL, cfg.Gemini.APIKey)

    // Redis is optional: without it there is no shared cooldown and no journal.
    var (
        rdb     *redis.Client
        journal *store.Journal
        pinger  statuscheck.RedisPinger
    )
    if cfg.Redis.URL != "" {
        rdb, err = store.Connect(ctx, cfg.Redis.URL)
        if err != nil {
            log.Fatal().Err(err).Msg("failed to connect to redis")
        }
        defer rdb.Close()
        journal = store.NewJournal(rdb, cfg.Redis.JournalSize)
        pinger = statuscheck.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
    } else {
        log.Info().Msg("REDIS_URL not set; cooldowns are local only and history is disabled")
    }

    // Media store
    var (
        media  storage.MediaStore
        bucket statuscheck.BucketChecker
    )
    if cfg.Storage.S3Bucket != "" {
        s3s, err := storage.NewS3Store(ctx, storage.S3Options{
            Bucket:    cfg.Storage.S3Bucket,
            Prefix:    cfg.Storage.S3Prefix,
            Region:    cfg.Storage.S3Region,
            Endpoint:  cfg.Storage.S3Endpoint,
            AccessKey: cfg.Storage.S3AccessKey,
            SecretKey: cfg.Storage.S3SecretKey,
            Password:  cfg.Storage.Password,
        })
        if err != nil { log.Fatal().Err(err).Msg("failed to init s3 media store") }
        media, bucket = s3s, s3s
    } else {
        ls, err := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.Password)
        if err != nil { log.Fatal().Err(err).Msg("failed to init local media store") }
        media = ls
    }

    disp := dispatcher.New(dispatcher.Config{
        VisionModel:    cfg.Gemini.VisionModel,
        AudioModel:     cfg.Gemini.AudioModel,
        MediaModel:     cfg.Gemini.MediaModel,
        RequestTimeout: cfg.Limits.RequestTimeout,
        Image: imagerender.Options{
            MaxDimension: cfg.Limits.ImageMaxDimension,
            Quality:      cfg.Limits.JPEGQuality,
            MaxPixels:    cfg.Limits.ImageMaxPixels,
        },
    }, dispatcher.Dependencies{
        Client: client,
        Lister: lister,
        Limiter: limiter.New(rdb, limiter.Options{
            MaxInflight: cfg.Limits.MaxInflightPerModel,
            BaseBackoff: cfg.Limits.CooldownBaseBackoff,
            MaxBackoff:  cfg.Limits.CooldownMaxBackoff,
        }),
        Journal: journal,
        Media:   media,
    })

    checker := statuscheck.New(statuscheck.Options{
        Redis:     pinger,
        Bucket:    bucket,
        LocalDir:  cfg.Storage.LocalDir,
        GeminiKey: cfg.Gemini.APIKey,
        Lister:    lister,
    })

    api := web.New(web.Options{
        Service:        disp,
        Media:          media,
        Status:         checker,
        MaxUploadBytes: cfg.Limits.MaxUploadBytes,
    })

    srv := &http.Server{Addr: ":" + cfg.Port, Handler: api.Handler(), ReadHeaderTimeout: 10 * time.Second}

    go func(){
        log.Info().Msgf("HTTP server listening on :%s", cfg.Port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
    fmt.Println("shutdown complete")
}
