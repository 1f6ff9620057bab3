package parse

import (
	"strings"

	"github.com/local/mediainsight/internal/model"
)

const visionSegments = 3

// ParseVisionResponse splits a vision answer into description, categories and palette.
// The upstream prompt asks for exactly three sections; extra sections are ignored and
// missing ones leave categories and palette empty.
func ParseVisionResponse(text string, meta model.VisionMetadata) model.VisionAnalysis {
	out := model.VisionAnalysis{
		Categories:       []string{},
		Palette:          []string{},
		ProcessingTimeMs: meta.ProcessingTimeMs,
		Model:            meta.Model,
		ImageStats:       meta.ImageStats,
	}

	segments := strings.Split(NormalizeLines(text), "\n")
	out.Description = segments[0]
	if len(segments) < visionSegments {
		return out
	}
	out.Categories = splitList(segments[1])
	out.Palette = splitList(segments[2])
	return out
}

// splitList splits a comma separated line, trimming tokens and dropping empty ones.
func splitList(line string) []string {
	parts := strings.Split(line, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
