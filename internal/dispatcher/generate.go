package dispatcher

import (
	"context"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/local/mediainsight/internal/ai"
	"github.com/local/mediainsight/internal/classify"
	"github.com/local/mediainsight/internal/imagerender"
	"github.com/local/mediainsight/internal/parse"
)

type GenerateInput struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

// GenerateResult is a generated image with the title and description the model gave it.
type GenerateResult struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	MIMEType         string `json:"mimeType"`
	Data             string `json:"data"`
	Name             string `json:"name,omitempty"`
	Location         string `json:"location,omitempty"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	Model            string `json:"model"`
}

// GenerateMedia asks the media model for an image plus a title and description.
// The first returned image is stored when a media store is configured.
func (d *Dispatcher) GenerateMedia(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return nil, &ValidationError{Message: "prompt is required"}
	}
	modelName := pick(in.Model, d.cfg.MediaModel)
	start := time.Now()

	resp, err := d.call(ctx, "generate", ai.Request{
		Model:      modelName,
		Prompt:     generatePrompt(prompt),
		Modalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		d.record(ctx, "generate", modelName, time.Since(start), nil, err)
		return nil, err
	}
	if len(resp.Images) == 0 {
		err := classify.Generic("model returned no media")
		d.record(ctx, "generate", modelName, time.Since(start), nil, err)
		return nil, err
	}

	td := parse.ExtractTitleAndDescription(resp.Text)
	img := resp.Images[0]
	res := &GenerateResult{
		Title:       td.Title,
		Description: td.Description,
		MIMEType:    img.MIMEType,
		Data:        imagerender.EncodeToBase64(img.Data),
		Model:       modelName,
	}

	if d.media != nil {
		name := uuid.NewString() + extensionFor(img.MIMEType)
		loc, err := d.media.Save(ctx, name, img.Data, img.MIMEType)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("name", name).Msg("failed to store generated media")
		} else {
			res.Name = name
			res.Location = loc
		}
	}

	res.ProcessingTimeMs = time.Since(start).Milliseconds()
	d.record(ctx, "generate", modelName, time.Since(start), journalView(res), nil)
	return res, nil
}

// journalView drops the inline payload so journal entries stay small.
func journalView(r *GenerateResult) GenerateResult {
	v := *r
	v.Data = ""
	return v
}

func extensionFor(mimeType string) string {
	if m := mimetype.Lookup(mimeType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return ".bin"
}
