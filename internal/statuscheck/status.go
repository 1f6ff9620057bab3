package statuscheck

import (
    "context"
    "errors"
    "fmt"
    "os"
    "strings"
    "time"

    "github.com/local/mediainsight/internal/ai"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
    Ping(ctx context.Context) error
}

// PingFunc adapts a function to RedisPinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// BucketChecker is implemented by the S3 media store.
type BucketChecker interface {
    HeadBucket(ctx context.Context) error
}

// Checker aggregates health checks for the service's external dependencies.
type Checker struct {
    redis     RedisPinger
    bucket    BucketChecker
    localDir  string
    geminiKey string
    lister    ai.Lister
}

// Options configures the Checker. Nil Redis means the cooldown and journal are off.
// Without a Bucket the local media directory is checked instead.
type Options struct {
    Redis     RedisPinger
    Bucket    BucketChecker
    LocalDir  string
    GeminiKey string
    Lister    ai.Lister
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
    Redis   Status `json:"redis"`
    Storage Status `json:"storage"`
    Gemini  Status `json:"gemini"`
}

// Healthy reports whether every required subsystem is up. Redis is optional.
func (s Summary) Healthy() bool { return s.Storage.OK && s.Gemini.OK }

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
    return &Checker{
        redis:     opts.Redis,
        bucket:    opts.Bucket,
        localDir:  opts.LocalDir,
        geminiKey: strings.TrimSpace(opts.GeminiKey),
        lister:    opts.Lister,
    }
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    return Summary{
        Redis:   c.checkRedis(ctx),
        Storage: c.checkStorage(ctx),
        Gemini:  c.checkGemini(ctx),
    }
}

func (c *Checker) checkRedis(ctx context.Context) Status {
    if c.redis == nil {
        return Status{OK: false, Message: "Not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := c.redis.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkStorage(ctx context.Context) Status {
    if c.bucket != nil {
        ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
        defer cancel()
        if err := c.bucket.HeadBucket(ctx); err != nil {
            return Status{OK: false, Message: trimError(err)}
        }
        return Status{OK: true, Message: "S3 bucket reachable"}
    }
    if c.localDir == "" {
        return Status{OK: false, Message: "Storage not configured"}
    }
    fi, err := os.Stat(c.localDir)
    if err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    if !fi.IsDir() {
        return Status{OK: false, Message: fmt.Sprintf("%s is not a directory", c.localDir)}
    }
    return Status{OK: true, Message: "Local directory"}
}

func (c *Checker) checkGemini(ctx context.Context) Status {
    if c.geminiKey == "" {
        return Status{OK: false, Message: "API key missing"}
    }
    if c.lister == nil {
        return Status{OK: true, Message: "API key set"}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if _, err := c.lister.ListModels(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Available"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    if errors.Is(err, context.DeadlineExceeded) {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}
