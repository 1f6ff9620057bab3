package parse

import (
	"strings"

	"github.com/local/mediainsight/internal/model"
)

const (
	// UnknownLanguage is reported when the upstream returned no text at all.
	UnknownLanguage = "Unknown"
	// TranscriptOnlyLanguage is reported when the answer holds only a transcript.
	TranscriptOnlyLanguage = "English"
)

// audioState names the shape of an audio answer, decided from the line count
// and whether the last line is blank. There is no more reliable signal.
type audioState int

const (
	// shortNoLanguage: fewer than three lines, line 0 is the transcript.
	shortNoLanguage audioState = iota
	// noPreamble3: exactly three lines, positional.
	noPreamble3
	// preambleThenTriple: a conversational first line, then three fields.
	preambleThenTriple
	// trailingBlankTriple: more than three lines ending in a blank one, positional.
	trailingBlankTriple
)

func (s audioState) String() string {
	switch s {
	case shortNoLanguage:
		return "short_no_language"
	case noPreamble3:
		return "no_preamble_3"
	case preambleThenTriple:
		return "preamble_then_triple"
	case trailingBlankTriple:
		return "trailing_blank_triple"
	default:
		return "unknown"
	}
}

func classifyAudioLines(lines []string) audioState {
	n := len(lines)
	switch {
	case n < 3:
		return shortNoLanguage
	case n == 3:
		return noPreamble3
	case strings.TrimSpace(lines[n-1]) != "":
		return preambleThenTriple
	default:
		return trailingBlankTriple
	}
}

// ParseAudioResponse splits a transcription answer into transcript, language and
// translation. A nil text means the upstream produced no text part.
func ParseAudioResponse(text *string, meta model.AudioMetadata) model.AudioAnalysis {
	out := model.AudioAnalysis{
		Language:         UnknownLanguage,
		ProcessingTimeMs: meta.ProcessingTimeMs,
		Model:            meta.Model,
	}
	if text == nil {
		return out
	}

	lines := audioLines(*text)
	field := func(i int) string { return strings.TrimSpace(StripLabel(lines[i])) }

	switch classifyAudioLines(lines) {
	case shortNoLanguage:
		out.Transcript = field(0)
		out.Language = TranscriptOnlyLanguage
	case noPreamble3, trailingBlankTriple:
		out.Transcript, out.Language, out.Translation = field(0), field(1), field(2)
	case preambleThenTriple:
		// Labels are kept verbatim once a preamble has been detected.
		out.Transcript = strings.TrimSpace(lines[1])
		out.Language = strings.TrimSpace(lines[2])
		out.Translation = strings.TrimSpace(lines[3])
	}
	return out
}

// audioLines normalizes the answer and drops the trailing newline that would
// otherwise show up as an empty final line.
func audioLines(text string) []string {
	return strings.Split(strings.TrimRight(NormalizeLines(text), "\n"), "\n")
}
