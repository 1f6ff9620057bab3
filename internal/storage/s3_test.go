package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves path-style PUT, GET and HEAD for a single bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]http.Header
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = b
		f.meta[r.URL.Path] = r.Header.Clone()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		b, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		_, _ = w.Write(b)
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeS3Store(t *testing.T, password string) (*S3Store, *fakeS3) {
	t.Helper()
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	fake := &fakeS3{objects: map[string][]byte{}, meta: map[string]http.Header{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3Store(context.Background(), S3Options{
		Bucket:    "media-bucket",
		Prefix:    "media/",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "AKIDTEST",
		SecretKey: "secret",
		Password:  password,
	})
	require.NoError(t, err)
	return s, fake
}

func TestS3Store_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, fake := newFakeS3Store(t, "pw")

	loc, err := s.Save(ctx, "x.png", []byte("image-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "s3://media-bucket/media/x.png", loc)

	stored := fake.objects["/media-bucket/media/x.png"]
	require.NotEmpty(t, stored)
	assert.True(t, isSealed(stored))
	assert.Equal(t, "true", fake.meta["/media-bucket/media/x.png"].Get("X-Amz-Meta-Encrypted"))

	got, err := s.Load(ctx, "x.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), got)

	_, err = s.Load(ctx, "nope.png")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.HeadBucket(ctx))
}

func TestS3Store_InvalidName(t *testing.T) {
	s, _ := newFakeS3Store(t, "")
	_, err := s.Save(context.Background(), "../x", []byte("a"), "image/png")
	assert.ErrorIs(t, err, ErrInvalidName)
}
