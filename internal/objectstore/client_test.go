package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	endpoint := strings.TrimPrefix(srv.URL, "http://")
	c, err := New(Config{
		Endpoint:  endpoint,
		Region:    "us-east-1",
		Bucket:    "recordings",
		AccessKey: "key",
		SecretKey: "secret",
		UseTLS:    false,
	})
	require.NoError(t, err)

	return c
}

func TestClient_Put_SmallFile(t *testing.T) {
	t.Parallel()

	var gotPath, gotMeta string

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMeta = r.Header.Get("X-Amz-Meta-Stream")
		w.WriteHeader(http.StatusOK)
	})

	dir := t.TempDir()
	path := filepath.Join(dir, "segment_000.mp4")
	require.NoError(t, os.WriteFile(path, []byte("small"), 0o600))

	err := c.Put(context.Background(), path, "cam1/2026-07-31/20260731_120000/segment_000.mp4", Metadata{
		Stream:     "cam1",
		Session:    "20260731_120000",
		RecordedAt: "2026-07-31T12:00:05Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "/recordings/cam1/2026-07-31/20260731_120000/segment_000.mp4", gotPath)
	assert.Equal(t, "cam1", gotMeta)
}

func TestClient_Put_ServerError(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<Error><Code>InternalError</Code><Message>boom</Message></Error>`))
	})

	dir := t.TempDir()
	path := filepath.Join(dir, "segment_000.mp4")
	require.NoError(t, os.WriteFile(path, []byte("small"), 0o600))

	err := c.Put(context.Background(), path, "cam1/2026-07-31/s/segment_000.mp4", Metadata{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPut)
}

func TestClient_Put_MissingLocalFile(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach the server when the local file is missing")
	})

	err := c.Put(context.Background(), "/no/such/file", "key", Metadata{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPut)
}
