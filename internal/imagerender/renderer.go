package imagerender

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/local/mediainsight/internal/model"
)

// Options controls upload downscaling.
type Options struct {
	MaxDimension int   // longest side after scaling
	Quality      int   // JPEG quality for re-encoded images
	MaxPixels    int64 // images above this pixel count are sent without decoding
}

// DefaultMaxPixels bounds the decoded size to roughly 256 MB of RGBA.
const DefaultMaxPixels = 64_000_000

// Result is the image actually sent upstream plus its stats.
type Result struct {
	Data  []byte
	MIME  string
	Stats model.ImageStats
}

// Downscale shrinks an image so its longest side is at most MaxDimension and
// re-encodes it as JPEG. Images already within bounds are passed through untouched.
// Undecodable images are passed through too, with only the byte sizes in Stats.
// Dimensions are read from the header first, so in-bounds and oversized images
// are never fully decoded.
func Downscale(data []byte, mimeType string, opts Options) Result {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = 1024
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 85
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	passthrough := Result{
		Data:  data,
		MIME:  mimeType,
		Stats: model.ImageStats{OriginalSizeBytes: len(data), ResizedSizeBytes: len(data)},
	}

	width, height, err := GetImageDimensions(data)
	if err != nil {
		log.Warn().Err(err).Str("mime", mimeType).Msg("image header unreadable; sending original")
		return passthrough
	}
	passthrough.Stats.SetOriginal(width, height)

	newW, newH := fitWithin(width, height, opts.MaxDimension)
	if newW == width && newH == height {
		passthrough.Stats.SetResized(width, height)
		return passthrough
	}
	if int64(width)*int64(height) > opts.MaxPixels {
		log.Warn().Int("width", width).Int("height", height).Int64("max_pixels", opts.MaxPixels).Msg("image too large to decode; sending original")
		passthrough.Stats.SetResized(width, height)
		return passthrough
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Warn().Err(err).Str("mime", mimeType).Msg("image decode failed; sending original")
		passthrough.Stats.SetResized(width, height)
		return passthrough
	}

	// JPEG has no alpha; transparent areas become white.
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		log.Warn().Err(err).Msg("jpeg encode failed; sending original")
		passthrough.Stats.SetResized(width, height)
		return passthrough
	}

	out := Result{
		Data:  buf.Bytes(),
		MIME:  "image/jpeg",
		Stats: passthrough.Stats,
	}
	out.Stats.ResizedSizeBytes = buf.Len()
	out.Stats.SetResized(newW, newH)

	log.Debug().
		Str("format", format).
		Int("width", width).
		Int("height", height).
		Int("resized_width", newW).
		Int("resized_height", newH).
		Int("size", len(data)).
		Int("resized_size", buf.Len()).
		Msg("downscaled upload")

	return out
}

// fitWithin scales (w, h) down so the longest side is at most maxDim, keeping the ratio.
func fitWithin(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		nh := h * maxDim / w
		if nh < 1 {
			nh = 1
		}
		return maxDim, nh
	}
	nw := w * maxDim / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxDim
}

// EncodeToBase64 converts binary data to base64 string
func EncodeToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// GetImageDimensions reads dimensions without decoding the full image.
func GetImageDimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
