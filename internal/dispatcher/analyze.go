package dispatcher

import (
	"context"
	"time"

	"github.com/local/mediainsight/internal/ai"
	"github.com/local/mediainsight/internal/filetype"
	"github.com/local/mediainsight/internal/imagerender"
	"github.com/local/mediainsight/internal/metrics"
	"github.com/local/mediainsight/internal/model"
	"github.com/local/mediainsight/internal/parse"
)

// MediaInput is an uploaded file. MIME is the client-declared type and may be empty.
type MediaInput struct {
	Data  []byte
	MIME  string
	Model string
}

// Analysis holds whichever result matches the detected upload kind.
type Analysis struct {
	Kind   filetype.Kind
	Vision *model.VisionAnalysis
	Audio  *model.AudioAnalysis
}

// Analyze routes the upload to image or audio analysis by its content.
func (d *Dispatcher) Analyze(ctx context.Context, in MediaInput) (*Analysis, error) {
	if len(in.Data) == 0 {
		return nil, &ValidationError{Message: "empty upload"}
	}
	info := d.detector.Detect(in.Data, in.MIME)
	in.MIME = info.MIMEType

	switch info.Kind {
	case filetype.KindImage:
		v, err := d.AnalyzeImage(ctx, in)
		if err != nil {
			return nil, err
		}
		return &Analysis{Kind: info.Kind, Vision: &v}, nil
	case filetype.KindAudio:
		a, err := d.AnalyzeAudio(ctx, in)
		if err != nil {
			return nil, err
		}
		return &Analysis{Kind: info.Kind, Audio: &a}, nil
	default:
		return nil, &UnsupportedMediaError{MIMEType: info.MIMEType}
	}
}

// AnalyzeImage downscales the image and asks the vision model for a
// description, categories and a palette.
func (d *Dispatcher) AnalyzeImage(ctx context.Context, in MediaInput) (model.VisionAnalysis, error) {
	modelName := pick(in.Model, d.cfg.VisionModel)
	start := time.Now()

	img := imagerender.Downscale(in.Data, in.MIME, d.cfg.Image)
	metrics.ObserveMedia(string(filetype.KindImage), len(img.Data))

	resp, err := d.call(ctx, "vision", ai.Request{
		Model:     modelName,
		Prompt:    visionPrompt,
		Media:     img.Data,
		MediaMIME: img.MIME,
	})
	if err != nil {
		d.record(ctx, "vision", modelName, time.Since(start), nil, err)
		return model.VisionAnalysis{}, err
	}

	stats := img.Stats
	out := parse.ParseVisionResponse(resp.Text, model.VisionMetadata{
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Model:            modelName,
		ImageStats:       &stats,
	})
	d.record(ctx, "vision", modelName, time.Since(start), out, nil)
	return out, nil
}

// AnalyzeAudio asks the audio model for transcript, language and translation.
func (d *Dispatcher) AnalyzeAudio(ctx context.Context, in MediaInput) (model.AudioAnalysis, error) {
	modelName := pick(in.Model, d.cfg.AudioModel)
	start := time.Now()
	metrics.ObserveMedia(string(filetype.KindAudio), len(in.Data))

	resp, err := d.call(ctx, "audio", ai.Request{
		Model:     modelName,
		Prompt:    audioPrompt,
		Media:     in.Data,
		MediaMIME: in.MIME,
	})
	if err != nil {
		d.record(ctx, "audio", modelName, time.Since(start), nil, err)
		return model.AudioAnalysis{}, err
	}

	out := parse.ParseAudioResponse(resp.TextOrNil(), model.AudioMetadata{
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Model:            modelName,
	})
	d.record(ctx, "audio", modelName, time.Since(start), out, nil)
	return out, nil
}
