// Package dispatcher runs analysis and generation requests against the
// generative-language upstream, guarding each model with a quota cooldown
// and turning upstream failures into classified errors.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/local/mediainsight/internal/ai"
	"github.com/local/mediainsight/internal/classify"
	"github.com/local/mediainsight/internal/filetype"
	"github.com/local/mediainsight/internal/imagerender"
	"github.com/local/mediainsight/internal/limiter"
	"github.com/local/mediainsight/internal/logger"
	"github.com/local/mediainsight/internal/metrics"
	"github.com/local/mediainsight/internal/storage"
	"github.com/local/mediainsight/internal/store"
)

type Config struct {
	VisionModel    string
	AudioModel     string
	MediaModel     string
	RequestTimeout time.Duration
	Image          imagerender.Options
}

// Dependencies wires the collaborators. Journal and Media may be nil.
type Dependencies struct {
	Client  ai.Client
	Lister  ai.Lister
	Limiter *limiter.Cooldown
	Journal *store.Journal
	Media   storage.MediaStore
}

type Dispatcher struct {
	cfg      Config
	client   ai.Client
	lister   ai.Lister
	limiter  *limiter.Cooldown
	journal  *store.Journal
	media    storage.MediaStore
	detector *filetype.Detector
}

func New(cfg Config, deps Dependencies) *Dispatcher {
	if deps.Limiter == nil {
		deps.Limiter = limiter.New(nil, limiter.Options{})
	}
	return &Dispatcher{
		cfg:      cfg,
		client:   deps.Client,
		lister:   deps.Lister,
		limiter:  deps.Limiter,
		journal:  deps.Journal,
		media:    deps.Media,
		detector: filetype.New(),
	}
}

// call sends one request upstream for op. Every failure comes back as a
// *classify.ClassifiedError.
func (d *Dispatcher) call(ctx context.Context, op string, req ai.Request) (ai.Response, error) {
	l := zerolog.Ctx(ctx).With().Str("op", op).Str("provider", d.client.Name()).Str("model", req.Model).Logger()

	if rem, open := d.limiter.Remaining(ctx, req.Model); open {
		secs := int(math.Ceil(rem.Seconds()))
		metrics.CooldownRejected(req.Model)
		l.Warn().Int("retry_after_s", secs).Msg("model cooling down; not calling upstream")
		return ai.Response{}, classify.QuotaExceeded(fmt.Sprintf("model %s is cooling down after a quota error", req.Model), &secs)
	}

	release, ok := d.limiter.Allow(req.Model)
	if !ok {
		metrics.Saturated(req.Model)
		l.Warn().Msg("inflight limit reached")
		return ai.Response{}, classify.QuotaExceeded("too many concurrent requests for model "+req.Model, nil)
	}
	defer release()

	cctx := ctx
	if d.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, d.cfg.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := d.client.Do(cctx, req)
	dur := time.Since(start)
	if err != nil {
		ce := classify.FromError(err)
		metrics.ObserveUpstream(op, req.Model, string(ce.Kind), dur)
		metrics.IncClassified(string(ce.Kind))
		switch {
		case ce.Retryable():
			if wait := d.limiter.Open(ctx, req.Model, ce.RetryAfterSeconds); wait > 0 {
				metrics.CooldownOpened(req.Model)
				l.Warn().Dur("cooldown", wait).Msg("quota exceeded; cooldown opened")
			}
		case ce.NeedsModelListing():
			ce = d.attachListing(ctx, ce)
		}
		l.Error().Err(err).Str("kind", string(ce.Kind)).Dur("elapsed", dur).Msg("upstream call failed")
		return ai.Response{}, ce
	}

	metrics.ObserveUpstream(op, req.Model, "ok", dur)
	d.limiter.Close(ctx, req.Model)
	l.Info().Dur("elapsed", dur).Int("tokens_in", resp.TokensIn).Int("tokens_out", resp.TokensOut).Msg("upstream call done")
	return resp, nil
}

// attachListing makes one listing call with no deadline and no retry.
// Its failure is attached to ce and never replaces it.
func (d *Dispatcher) attachListing(ctx context.Context, ce *classify.ClassifiedError) *classify.ClassifiedError {
	if d.lister == nil {
		return ce
	}
	models, err := d.lister.ListModels(context.WithoutCancel(ctx))
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("model listing failed")
	}
	return ce.WithListing(models, err)
}

// ListModels returns the upstream model listing.
func (d *Dispatcher) ListModels(ctx context.Context) (json.RawMessage, error) {
	if d.lister == nil {
		return nil, classify.Generic("model listing is not configured")
	}
	models, err := d.lister.ListModels(ctx)
	if err != nil {
		return nil, classify.FromError(err)
	}
	return models, nil
}

// Recent returns journal entries, newest first. Nil when the journal is off.
func (d *Dispatcher) Recent(ctx context.Context, limit int) ([]store.Entry, error) {
	if d.journal == nil {
		return nil, nil
	}
	return d.journal.Recent(ctx, limit)
}

func (d *Dispatcher) record(ctx context.Context, kind, model string, elapsed time.Duration, result any, err error) {
	if d.journal == nil {
		return
	}
	e := store.Entry{
		RequestID:        logger.RequestID(ctx),
		Kind:             kind,
		Model:            model,
		Outcome:          "ok",
		ProcessingTimeMs: elapsed.Milliseconds(),
	}
	if err != nil {
		e.Outcome = "error"
		var ce *classify.ClassifiedError
		if errors.As(err, &ce) {
			e.Outcome = string(ce.Kind)
		}
		e.Error = err.Error()
	} else if result != nil {
		e.Result, _ = json.Marshal(result)
	}
	if werr := d.journal.Record(context.WithoutCancel(ctx), e); werr != nil {
		zerolog.Ctx(ctx).Warn().Err(werr).Msg("journal write failed")
	}
}

func pick(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	return fallback
}
