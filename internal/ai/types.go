package ai

import (
	"context"
	"encoding/json"
)

// Request represents one generation call against the upstream model.
type Request struct {
	Model     string
	Prompt    string
	Media     []byte // inline media sent before the prompt
	MediaMIME string
	// Modalities requested in the answer, e.g. "TEXT", "IMAGE". Empty means text only.
	Modalities []string
}

// Blob is binary media returned by the upstream.
type Blob struct {
	Data     []byte
	MIMEType string
}

type Response struct {
	Text      string
	HasText   bool // false when no text part came back at all
	Images    []Blob
	TokensIn  int
	TokensOut int
}

// TextOrNil returns the text, or nil when the upstream produced none.
func (r Response) TextOrNil() *string {
	if !r.HasText {
		return nil
	}
	t := r.Text
	return &t
}

// Client interface for generative model providers.
type Client interface {
	Name() string
	Do(ctx context.Context, req Request) (Response, error)
}

// Lister fetches the upstream's model listing.
type Lister interface {
	ListModels(ctx context.Context) (json.RawMessage, error)
}
