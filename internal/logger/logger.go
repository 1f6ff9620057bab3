package logger

import (
    "context"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "time"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
    lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// ServiceName tags every event forwarded to Axiom.
const ServiceName = "mediainsight"

// Options defines logger initialization parameters.
type Options struct {
    Level        string
    Pretty       bool
    Quiet        bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool

    // Axiom
    SendToAxiom  bool
    AxiomAPIKey  string
    AxiomOrgID   string
    AxiomDataset string
    AxiomFlush   time.Duration
}

var (
    global zerolog.Logger
    ax     *axiomShipper
)

// Init sets up global logger: file rotation, optional console, optional Axiom forwarding.
func Init(opts Options) error {
    // Ensure log directory exists
    if opts.File != "" {
        if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
            return fmt.Errorf("create logs dir: %w", err)
        }
    }

    // Build writers
    var writers []io.Writer

    if opts.File != "" {
        writers = append(writers, &lumberjack.Logger{
            Filename:   opts.File,
            MaxSize:    opts.MaxSizeMB,
            MaxBackups: opts.MaxBackups,
            MaxAge:     opts.MaxAgeDays,
            Compress:   opts.Compress,
        })
    }

    switch {
    case opts.Quiet:
    case opts.Pretty:
        writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
    default:
        writers = append(writers, os.Stdout)
    }

    // Optional Axiom writer (info+)
    if opts.SendToAxiom && opts.AxiomAPIKey != "" {
        client, err := newAxiomShipper(opts.AxiomAPIKey, opts.AxiomOrgID, opts.AxiomDataset, opts.AxiomFlush)
        if err != nil {
            // log to stderr and continue without Axiom
            fmt.Fprintf(os.Stderr, "Axiom disabled: %v\n", err)
        } else {
            ax = client
            writers = append(writers, &axiomWriter{client: client})
        }
    }

    out := io.MultiWriter(writers...)

    // Global zerolog config
    zerolog.TimeFieldFormat = time.RFC3339
    lvl, err := zerolog.ParseLevel(opts.Level)
    if err != nil {
        lvl = zerolog.InfoLevel
    }

    global = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
    log.Logger = global
    zerolog.DefaultContextLogger = &global
    return nil
}

// Close flushes any buffered external loggers.
func Close() {
    if ax != nil {
        ax.Close()
        if n := ax.Dropped(); n > 0 {
            fmt.Fprintf(os.Stderr, "axiom: dropped %d events\n", n)
        }
        ax = nil
    }
}

// Get returns the global logger.
func Get() *zerolog.Logger { return &global }

type requestIDKey struct{}

// ContextWithRequest attaches the request id and a logger tagged with it.
// zerolog.Ctx(ctx) returns that logger downstream.
func ContextWithRequest(ctx context.Context, requestID string) context.Context {
    l := global.With().Str("request_id", requestID).Logger()
    ctx = context.WithValue(ctx, requestIDKey{}, requestID)
    return l.WithContext(ctx)
}

// RequestID returns the id set by ContextWithRequest, or "".
func RequestID(ctx context.Context) string {
    id, _ := ctx.Value(requestIDKey{}).(string)
    return id
}
