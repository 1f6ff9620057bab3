package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/mediainsight/internal/ai"
	"github.com/local/mediainsight/internal/classify"
	"github.com/local/mediainsight/internal/filetype"
	"github.com/local/mediainsight/internal/imagerender"
	"github.com/local/mediainsight/internal/limiter"
	"github.com/local/mediainsight/internal/storage"
	"github.com/local/mediainsight/internal/store"
)

type fakeClient struct {
	mu    sync.Mutex
	calls []ai.Request
	do    func(ctx context.Context, req ai.Request) (ai.Response, error)
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Do(ctx context.Context, req ai.Request) (ai.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.do(ctx, req)
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeLister struct {
	models json.RawMessage
	err    error
	calls  int
}

func (f *fakeLister) ListModels(ctx context.Context) (json.RawMessage, error) {
	f.calls++
	return f.models, f.err
}

type harness struct {
	d       *Dispatcher
	client  *fakeClient
	lister  *fakeLister
	journal *store.Journal
	media   *storage.LocalStore
}

func newHarness(t *testing.T, maxInflight int, do func(ctx context.Context, req ai.Request) (ai.Response, error)) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	media, err := storage.NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	h := &harness{
		client:  &fakeClient{do: do},
		lister:  &fakeLister{models: json.RawMessage(`[{"name":"models/gemini-2.0-flash"}]`)},
		journal: store.NewJournal(rdb, 50),
		media:   media,
	}
	h.d = New(Config{
		VisionModel:    "vision-m",
		AudioModel:     "audio-m",
		MediaModel:     "media-m",
		RequestTimeout: 5 * time.Second,
		Image:          imagerender.Options{MaxDimension: 1024, Quality: 80},
	}, Dependencies{
		Client:  h.client,
		Lister:  h.lister,
		Limiter: limiter.New(rdb, limiter.Options{MaxInflight: maxInflight}),
		Journal: h.journal,
		Media:   h.media,
	})
	return h
}

func textResponse(text string) func(context.Context, ai.Request) (ai.Response, error) {
	return func(context.Context, ai.Request) (ai.Response, error) {
		return ai.Response{Text: text, HasText: true}, nil
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testWAV() []byte {
	b := []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00\x44\xac\x00\x00\x88\x58\x01\x00\x02\x00\x10\x00data\x00\x00\x00\x00")
	return append(b, make([]byte, 64)...)
}

func TestAnalyze_Image(t *testing.T) {
	h := newHarness(t, 4, textResponse("A red line on black.\n\nAbstract, Minimal\n\n#FF0000, #000000"))
	ctx := context.Background()

	res, err := h.d.Analyze(ctx, MediaInput{Data: testPNG(t, 2048, 1024)})
	require.NoError(t, err)
	require.Equal(t, filetype.KindImage, res.Kind)
	require.NotNil(t, res.Vision)
	assert.Nil(t, res.Audio)

	v := res.Vision
	assert.Equal(t, "A red line on black.", v.Description)
	assert.Equal(t, []string{"Abstract", "Minimal"}, v.Categories)
	assert.Equal(t, []string{"#FF0000", "#000000"}, v.Palette)
	assert.Equal(t, "vision-m", v.Model)
	require.NotNil(t, v.ImageStats)
	require.NotNil(t, v.ImageStats.ResizedWidth)
	assert.Equal(t, 1024, *v.ImageStats.ResizedWidth)
	assert.Equal(t, 512, *v.ImageStats.ResizedHeight)
	assert.Equal(t, 2048, *v.ImageStats.OriginalWidth)

	require.Equal(t, 1, h.client.callCount())
	req := h.client.calls[0]
	assert.Equal(t, "vision-m", req.Model)
	assert.Equal(t, "image/jpeg", req.MediaMIME)
	assert.Equal(t, visionPrompt, req.Prompt)

	entries, err := h.journal.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "vision", entries[0].Kind)
	assert.Equal(t, "ok", entries[0].Outcome)
	assert.NotEmpty(t, entries[0].Result)
}

func TestAnalyze_AudioWithoutText(t *testing.T) {
	h := newHarness(t, 4, func(context.Context, ai.Request) (ai.Response, error) {
		return ai.Response{}, nil
	})

	res, err := h.d.Analyze(context.Background(), MediaInput{Data: testWAV(), Model: "audio-x"})
	require.NoError(t, err)
	require.Equal(t, filetype.KindAudio, res.Kind)
	require.NotNil(t, res.Audio)
	assert.Equal(t, "", res.Audio.Transcript)
	assert.Equal(t, "Unknown", res.Audio.Language)
	assert.Equal(t, "", res.Audio.Translation)
	assert.Equal(t, "audio-x", res.Audio.Model)
	assert.Equal(t, audioPrompt, h.client.calls[0].Prompt)
}

func TestAnalyzeAudio_Labelled(t *testing.T) {
	h := newHarness(t, 4, textResponse("**Transcript:** Bonjour\n\n**Language:** French\n\n**Translation:** Hello\n"))

	a, err := h.d.AnalyzeAudio(context.Background(), MediaInput{Data: testWAV(), MIME: "audio/wav"})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", a.Transcript)
	assert.Equal(t, "French", a.Language)
	assert.Equal(t, "Hello", a.Translation)
	assert.Equal(t, "audio-m", a.Model)
}

func TestAnalyze_Rejects(t *testing.T) {
	h := newHarness(t, 4, textResponse("unused"))
	ctx := context.Background()

	_, err := h.d.Analyze(ctx, MediaInput{})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = h.d.Analyze(ctx, MediaInput{Data: []byte("plain words, nothing else")})
	var uerr *UnsupportedMediaError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "text/plain", uerr.MIMEType)

	assert.Equal(t, 0, h.client.callCount())
}

func TestQuotaOpensCooldown(t *testing.T) {
	h := newHarness(t, 4, func(context.Context, ai.Request) (ai.Response, error) {
		return ai.Response{}, errors.New(`Error 429, Message: You exceeded your current quota. {"retryDelay":"39s"}`)
	})
	ctx := context.Background()
	in := MediaInput{Data: testWAV(), MIME: "audio/wav"}

	_, err := h.d.AnalyzeAudio(ctx, in)
	var ce *classify.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, classify.KindQuotaExceeded, ce.Kind)
	require.NotNil(t, ce.RetryAfterSeconds)
	assert.Equal(t, 39, *ce.RetryAfterSeconds)

	_, err = h.d.AnalyzeAudio(ctx, in)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, classify.KindQuotaExceeded, ce.Kind)
	require.NotNil(t, ce.RetryAfterSeconds)
	assert.Greater(t, *ce.RetryAfterSeconds, 0)
	assert.LessOrEqual(t, *ce.RetryAfterSeconds, 39)
	assert.Equal(t, 1, h.client.callCount())

	// A different model is unaffected.
	_, err = h.d.AnalyzeAudio(ctx, MediaInput{Data: in.Data, MIME: in.MIME, Model: "other"})
	require.Error(t, err)
	assert.Equal(t, 2, h.client.callCount())

	entries, err := h.journal.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "quota_exceeded", entries[0].Outcome)
}

func TestModelNotFound_AttachesListing(t *testing.T) {
	h := newHarness(t, 4, func(context.Context, ai.Request) (ai.Response, error) {
		return ai.Response{}, errors.New("models/nope is not found for API version v1beta")
	})
	ctx := context.Background()

	_, err := h.d.GenerateMedia(ctx, GenerateInput{Prompt: "a cabin", Model: "nope"})
	var ce *classify.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, classify.KindModelNotFound, ce.Kind)
	assert.JSONEq(t, `[{"name":"models/gemini-2.0-flash"}]`, string(ce.AvailableModels))
	assert.Empty(t, ce.ListingError)
	assert.Equal(t, 1, h.lister.calls)

	h.lister.err = errors.New("list models: status 403: denied")
	h.lister.models = nil
	_, err = h.d.GenerateMedia(ctx, GenerateInput{Prompt: "a cabin", Model: "nope"})
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, classify.KindModelNotFound, ce.Kind)
	assert.Nil(t, ce.AvailableModels)
	assert.Equal(t, "list models: status 403: denied", ce.ListingError)
	assert.Equal(t, 2, h.lister.calls)
}

func TestGenericErrorPassesThrough(t *testing.T) {
	h := newHarness(t, 4, func(context.Context, ai.Request) (ai.Response, error) {
		return ai.Response{}, errors.New("internal upstream failure")
	})

	_, err := h.d.AnalyzeImage(context.Background(), MediaInput{Data: testPNG(t, 8, 8), MIME: "image/png"})
	var ce *classify.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, classify.KindGeneric, ce.Kind)
	assert.Equal(t, "internal upstream failure", ce.Message)
	assert.Equal(t, 0, h.lister.calls)
}

func TestInflightLimit(t *testing.T) {
	entered := make(chan struct{})
	unblock := make(chan struct{})
	h := newHarness(t, 1, func(ctx context.Context, req ai.Request) (ai.Response, error) {
		close(entered)
		<-unblock
		return ai.Response{Text: "ok", HasText: true}, nil
	})
	ctx := context.Background()
	in := MediaInput{Data: testWAV(), MIME: "audio/wav"}

	done := make(chan error, 1)
	go func() {
		_, err := h.d.AnalyzeAudio(ctx, in)
		done <- err
	}()
	<-entered

	_, err := h.d.AnalyzeAudio(ctx, in)
	var ce *classify.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, classify.KindQuotaExceeded, ce.Kind)
	assert.Nil(t, ce.RetryAfterSeconds)
	assert.Contains(t, ce.Message, "too many concurrent requests")

	close(unblock)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.client.callCount())
}

func TestGenerateMedia(t *testing.T) {
	pngData := testPNG(t, 4, 4)
	h := newHarness(t, 4, func(ctx context.Context, req ai.Request) (ai.Response, error) {
		return ai.Response{
			Text:    "**Title:** Cabin at Sunset\n**Description:** A cozy cabin glowing at dusk.",
			HasText: true,
			Images:  []ai.Blob{{Data: pngData, MIMEType: "image/png"}},
		}, nil
	})
	ctx := context.Background()

	res, err := h.d.GenerateMedia(ctx, GenerateInput{Prompt: "  a cabin at sunset "})
	require.NoError(t, err)
	assert.Equal(t, "Cabin at Sunset", res.Title)
	assert.Equal(t, "A cozy cabin glowing at dusk.", res.Description)
	assert.Equal(t, "image/png", res.MIMEType)
	assert.Equal(t, imagerender.EncodeToBase64(pngData), res.Data)
	assert.Equal(t, "media-m", res.Model)
	assert.Regexp(t, `\.png$`, res.Name)
	assert.NotEmpty(t, res.Location)

	stored, err := h.media.Load(ctx, res.Name)
	require.NoError(t, err)
	assert.Equal(t, pngData, stored)

	req := h.client.calls[0]
	assert.Equal(t, []string{"TEXT", "IMAGE"}, req.Modalities)
	assert.Contains(t, req.Prompt, "a cabin at sunset")
	assert.Nil(t, req.Media)

	entries, err := h.journal.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, string(entries[0].Result), res.Data)
}

func TestGenerateMedia_Fallbacks(t *testing.T) {
	h := newHarness(t, 4, textResponse("just words"))
	ctx := context.Background()

	_, err := h.d.GenerateMedia(ctx, GenerateInput{Prompt: "   "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, h.client.callCount())

	_, err = h.d.GenerateMedia(ctx, GenerateInput{Prompt: "x"})
	var ce *classify.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, classify.KindGeneric, ce.Kind)
}

func TestListModels(t *testing.T) {
	h := newHarness(t, 4, textResponse("unused"))
	got, err := h.d.ListModels(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"models/gemini-2.0-flash"}]`, string(got))

	bare := New(Config{}, Dependencies{Client: h.client})
	_, err = bare.ListModels(context.Background())
	assert.Error(t, err)
	entries, err := bare.Recent(context.Background(), 5)
	assert.NoError(t, err)
	assert.Nil(t, entries)
}
