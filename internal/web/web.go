// Package web exposes the dispatcher over HTTP.
package web

import (
    "context"
    "encoding/json"
    "errors"
    "io"
    "net/http"
    "strconv"
    "time"

    "github.com/gabriel-vasile/mimetype"
    "github.com/google/uuid"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"

    "github.com/local/mediainsight/internal/dispatcher"
    "github.com/local/mediainsight/internal/logger"
    "github.com/local/mediainsight/internal/metrics"
    "github.com/local/mediainsight/internal/statuscheck"
    "github.com/local/mediainsight/internal/storage"
    "github.com/local/mediainsight/internal/store"
)

// Service is the dispatcher surface the handlers need.
type Service interface {
    Analyze(ctx context.Context, in dispatcher.MediaInput) (*dispatcher.Analysis, error)
    GenerateMedia(ctx context.Context, in dispatcher.GenerateInput) (*dispatcher.GenerateResult, error)
    ListModels(ctx context.Context) (json.RawMessage, error)
    Recent(ctx context.Context, limit int) ([]store.Entry, error)
}

// StatusSource produces the /status snapshot.
type StatusSource interface {
    Summary(ctx context.Context) statuscheck.Summary
}

type Options struct {
    Service        Service
    Media          storage.MediaStore
    Status         StatusSource
    MaxUploadBytes int64
}

type Web struct {
    svc       Service
    media     storage.MediaStore
    status    StatusSource
    maxUpload int64
}

func New(opts Options) *Web {
    if opts.MaxUploadBytes <= 0 { opts.MaxUploadBytes = 20 << 20 }
    return &Web{svc: opts.Service, media: opts.Media, status: opts.Status, maxUpload: opts.MaxUploadBytes}
}

func (w *Web) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("GET /health", w.handleHealth)
    mux.HandleFunc("GET /status", w.handleStatus)
    mux.Handle("GET /metrics", metrics.Handler())
    mux.HandleFunc("POST /api/analyze", w.handleAnalyze)
    mux.HandleFunc("POST /api/generate", w.handleGenerate)
    mux.HandleFunc("GET /api/models", w.handleModels)
    mux.HandleFunc("GET /api/history", w.handleHistory)
    mux.HandleFunc("GET /api/media/{name}", w.handleMedia)
}

// Handler returns the routes wrapped with request id tagging and access logging.
func (w *Web) Handler() http.Handler {
    mux := http.NewServeMux()
    w.RegisterRoutes(mux)
    return withRequestLog(mux)
}

func (w *Web) handleHealth(wr http.ResponseWriter, r *http.Request) {
    wr.Header().Set("Content-Type", "text/plain; charset=utf-8")
    _, _ = io.WriteString(wr, "ok")
}

func (w *Web) handleStatus(wr http.ResponseWriter, r *http.Request) {
    if w.status == nil { writeJSON(wr, http.StatusOK, statuscheck.Summary{}); return }
    writeJSON(wr, http.StatusOK, w.status.Summary(r.Context()))
}

func (w *Web) handleAnalyze(wr http.ResponseWriter, r *http.Request) {
    r.Body = http.MaxBytesReader(wr, r.Body, w.maxUpload)
    if err := r.ParseMultipartForm(32 << 20); err != nil {
        var tooBig *http.MaxBytesError
        if errors.As(err, &tooBig) {
            writeError(wr, http.StatusRequestEntityTooLarge, "upload too large", "invalid_request")
            return
        }
        writeError(wr, http.StatusBadRequest, "invalid multipart form", "invalid_request")
        return
    }
    file, hdr, err := r.FormFile("file")
    if err != nil { writeError(wr, http.StatusBadRequest, "missing file", "invalid_request"); return }
    defer file.Close()

    data, err := io.ReadAll(file)
    if err != nil { writeError(wr, http.StatusBadRequest, "failed to read upload", "invalid_request"); return }

    res, err := w.svc.Analyze(r.Context(), dispatcher.MediaInput{
        Data:  data,
        MIME:  hdr.Header.Get("Content-Type"),
        Model: r.FormValue("model"),
    })
    if err != nil { writeFailure(wr, r, err); return }

    if res.Vision != nil {
        writeJSON(wr, http.StatusOK, res.Vision)
        return
    }
    writeJSON(wr, http.StatusOK, res.Audio)
}

func (w *Web) handleGenerate(wr http.ResponseWriter, r *http.Request) {
    var in dispatcher.GenerateInput
    if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&in); err != nil {
        writeError(wr, http.StatusBadRequest, "invalid json body", "invalid_request")
        return
    }
    res, err := w.svc.GenerateMedia(r.Context(), in)
    if err != nil { writeFailure(wr, r, err); return }
    writeJSON(wr, http.StatusOK, res)
}

func (w *Web) handleModels(wr http.ResponseWriter, r *http.Request) {
    models, err := w.svc.ListModels(r.Context())
    if err != nil { writeFailure(wr, r, err); return }
    writeJSON(wr, http.StatusOK, map[string]json.RawMessage{"models": models})
}

func (w *Web) handleHistory(wr http.ResponseWriter, r *http.Request) {
    limit := 20
    if v := r.URL.Query().Get("limit"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n <= 0 { writeError(wr, http.StatusBadRequest, "limit must be a positive integer", "invalid_request"); return }
        limit = n
    }
    entries, err := w.svc.Recent(r.Context(), limit)
    if err != nil { writeFailure(wr, r, err); return }
    if entries == nil { entries = []store.Entry{} }
    writeJSON(wr, http.StatusOK, map[string]any{"entries": entries})
}

func (w *Web) handleMedia(wr http.ResponseWriter, r *http.Request) {
    if w.media == nil { writeError(wr, http.StatusNotFound, "media storage disabled", "not_found"); return }
    data, err := w.media.Load(r.Context(), r.PathValue("name"))
    if err != nil { writeFailure(wr, r, err); return }
    wr.Header().Set("Content-Type", mimetype.Detect(data).String())
    wr.Header().Set("Content-Length", strconv.Itoa(len(data)))
    _, _ = wr.Write(data)
}

type statusRecorder struct {
    http.ResponseWriter
    status int
}

func (s *statusRecorder) WriteHeader(code int) {
    s.status = code
    s.ResponseWriter.WriteHeader(code)
}

func withRequestLog(next http.Handler) http.Handler {
    return http.HandlerFunc(func(wr http.ResponseWriter, r *http.Request) {
        id := r.Header.Get("X-Request-ID")
        if id == "" { id = uuid.NewString() }
        wr.Header().Set("X-Request-ID", id)

        ctx := logger.ContextWithRequest(r.Context(), id)
        rec := &statusRecorder{ResponseWriter: wr, status: http.StatusOK}
        start := time.Now()
        next.ServeHTTP(rec, r.WithContext(ctx))

        ev := zerolog.Ctx(ctx).Info()
        if rec.status >= 500 { ev = zerolog.Ctx(ctx).Error() }
        ev.Str("method", r.Method).
            Str("path", r.URL.Path).
            Int("status", rec.status).
            Dur("elapsed", time.Since(start)).
            Msg("http request")
    })
}

func writeJSON(wr http.ResponseWriter, status int, v any) {
    wr.Header().Set("Content-Type", "application/json")
    wr.WriteHeader(status)
    if err := json.NewEncoder(wr).Encode(v); err != nil {
        log.Error().Err(err).Msg("failed to encode response")
    }
}
