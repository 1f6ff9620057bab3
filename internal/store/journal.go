package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Entry is one analysis or generation outcome.
type Entry struct {
	ID               string          `json:"id"`
	RequestID        string          `json:"requestId,omitempty"`
	Kind             string          `json:"kind"`
	Model            string          `json:"model"`
	Outcome          string          `json:"outcome"`
	ProcessingTimeMs int64           `json:"processingTimeMs"`
	CreatedAt        time.Time       `json:"createdAt"`
	Result           json.RawMessage `json:"result,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// Journal keeps the most recent entries in a capped Redis list, newest first.
type Journal struct {
	client *redis.Client
	key    string
	size   int64
}

func NewJournal(client *redis.Client, size int) *Journal {
	if size <= 0 {
		size = 200
	}
	return &Journal{client: client, key: "mediainsight:journal", size: int64(size)}
}

// Record stores e, filling ID and CreatedAt when empty.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	pipe := j.client.TxPipeline()
	pipe.LPush(ctx, j.key, b)
	pipe.LTrim(ctx, j.key, 0, j.size-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("journal write: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. Unreadable entries are skipped.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || int64(limit) > j.size {
		limit = int(j.size)
	}
	raw, err := j.client.LRange(ctx, j.key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("journal read: %w", err)
	}
	out := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
