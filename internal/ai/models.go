package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const DefaultModelsURL = "https://generativelanguage.googleapis.com/v1beta/models"

// ModelLister fetches the upstream model listing with a bearer credential.
// One attempt, no retry; the HTTP client carries no timeout of its own.
type ModelLister struct {
	http   *http.Client
	url    string
	apiKey string
}

func NewModelLister(url, apiKey string) *ModelLister {
	if url == "" {
		url = DefaultModelsURL
	}
	return &ModelLister{http: &http.Client{}, url: url, apiKey: apiKey}
}

// ListModels returns the "models" array of the listing, or the whole body when the
// listing has another shape.
func (l *ModelLister) ListModels(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build models request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+l.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read models response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg := ErrorMessage(body); msg != "" {
			return nil, fmt.Errorf("list models: status %d: %s", resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("list models: status %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("list models: invalid json body")
	}
	if models := gjson.GetBytes(body, "models"); models.Exists() {
		return json.RawMessage(models.Raw), nil
	}
	return json.RawMessage(body), nil
}

// ErrorMessage extracts error.message from a Google API error body.
func ErrorMessage(body []byte) string {
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return strings.TrimSpace(msg.String())
	}
	return ""
}
