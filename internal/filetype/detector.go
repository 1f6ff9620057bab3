package filetype

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Kind is the analysis route for an upload.
type Kind string

const (
	KindImage       Kind = "image"
	KindAudio       Kind = "audio"
	KindUnsupported Kind = "unsupported"
)

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	Kind        Kind
	Supported   bool
	Description string
}

// Detector handles upload type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the upload type from its content. declared is the client-supplied
// Content-Type and is only used to disambiguate containers that hold either audio or video.
func (d *Detector) Detect(data []byte, declared string) *FileTypeInfo {
	mtype := mimetype.Detect(data)
	mimeType := baseMIME(mtype.String())
	extension := mtype.Extension()

	log.Debug().Str("mime", mimeType).Str("ext", extension).Str("declared", declared).Msg("detected upload type")

	// Browser recorders produce webm/mp4 containers that sniff as video.
	if override, ok := audioContainer(mimeType, baseMIME(declared)); ok {
		log.Debug().Str("original", mimeType).Str("override", override).Msg("treating container as audio")
		mimeType = override
	}

	info := &FileTypeInfo{
		MIMEType:  mimeType,
		Extension: extension,
	}
	d.classify(info)
	return info
}

// classify determines which analysis route handles the upload
func (d *Detector) classify(info *FileTypeInfo) {
	mimeType := info.MIMEType

	switch {
	case mimeType == "image/svg+xml":
		info.Kind = KindUnsupported
		info.Supported = false
		info.Description = "Vector image"

	case strings.HasPrefix(mimeType, "image/"):
		info.Kind = KindImage
		info.Supported = true
		info.Description = "Image file"

	case strings.HasPrefix(mimeType, "audio/"), mimeType == "application/ogg":
		info.Kind = KindAudio
		info.Supported = true
		info.Description = "Audio file"

	default:
		info.Kind = KindUnsupported
		info.Supported = false
		info.Description = fmt.Sprintf("Unsupported file type: %s", mimeType)
	}
}

func audioContainer(detected, declared string) (string, bool) {
	if !strings.HasPrefix(declared, "audio/") {
		return "", false
	}
	switch detected {
	case "video/webm":
		return "audio/webm", true
	case "video/mp4":
		return "audio/mp4", true
	case "video/ogg":
		return "audio/ogg", true
	}
	return "", false
}

func baseMIME(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
