package model

// ImageStats describes the upload before and after server-side downscaling.
// Dimension and aspect ratio fields stay nil when the image could not be decoded.
type ImageStats struct {
	OriginalSizeBytes   int      `json:"originalSizeBytes"`
	ResizedSizeBytes    int      `json:"resizedSizeBytes"`
	OriginalWidth       *int     `json:"originalWidth,omitempty"`
	OriginalHeight      *int     `json:"originalHeight,omitempty"`
	ResizedWidth        *int     `json:"resizedWidth,omitempty"`
	ResizedHeight       *int     `json:"resizedHeight,omitempty"`
	OriginalAspectRatio *float64 `json:"originalAspectRatio,omitempty"`
	ResizedAspectRatio  *float64 `json:"resizedAspectRatio,omitempty"`
}

// SetOriginal records the source dimensions and derives the aspect ratio.
func (s *ImageStats) SetOriginal(width, height int) {
	s.OriginalWidth, s.OriginalHeight = &width, &height
	s.OriginalAspectRatio = AspectRatio(s.OriginalWidth, s.OriginalHeight)
}

// SetResized records the downscaled dimensions and derives the aspect ratio.
func (s *ImageStats) SetResized(width, height int) {
	s.ResizedWidth, s.ResizedHeight = &width, &height
	s.ResizedAspectRatio = AspectRatio(s.ResizedWidth, s.ResizedHeight)
}

// AspectRatio returns width/height, or nil unless both are known and height is non-zero.
func AspectRatio(width, height *int) *float64 {
	if width == nil || height == nil || *height == 0 {
		return nil
	}
	r := float64(*width) / float64(*height)
	return &r
}

// VisionMetadata is attached to a parsed vision response by the caller.
type VisionMetadata struct {
	ProcessingTimeMs int64
	Model            string
	ImageStats       *ImageStats
}

// VisionAnalysis is the typed form of an image description response.
type VisionAnalysis struct {
	Description      string      `json:"description"`
	Categories       []string    `json:"categories"`
	Palette          []string    `json:"palette"`
	ProcessingTimeMs int64       `json:"processingTimeMs"`
	Model            string      `json:"model"`
	ImageStats       *ImageStats `json:"imageStats,omitempty"`
}

// AudioMetadata is attached to a parsed audio response by the caller.
type AudioMetadata struct {
	ProcessingTimeMs int64
	Model            string
}

// AudioAnalysis is the typed form of a transcription response.
type AudioAnalysis struct {
	Transcript       string `json:"transcript"`
	Language         string `json:"language"`
	Translation      string `json:"translation"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	Model            string `json:"model"`
}

// TitleDescription is extracted from the text accompanying generated media.
type TitleDescription struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
