package jobs

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

	"github.com/fooni/hy3d/types"
)

func TestHTTPDownloader_Fetch(t *testing.T) {
	body := []byte("glTF binary payload")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write(body)
	}))
	defer srv.Close()

	d := NewHTTPDownloader(0, nil)
	path, err := d.Fetch(context.Background(), srv.URL+"/model.glb", ".glb")
	require.NoError(t, err)
	defer os.Remove(path)

	assert.True(t, strings.HasSuffix(path, ".glb"))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "hy3d_"))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestHTTPDownloader_FetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewHTTPDownloader(0, nil)
	path, err := d.Fetch(context.Background(), srv.URL, ".glb")
	require.Error(t, err)
	assert.Empty(t, path)
	assert.True(t, types.IsCode(err, types.ErrTransport))
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPDownloader_FetchConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	d := NewHTTPDownloader(0, nil)
	_, err := d.Fetch(context.Background(), srv.URL, ".glb")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrTransport))
}

func TestHTTPDownloader_FetchCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := NewHTTPDownloader(0, nil)
	_, err := d.Fetch(ctx, srv.URL, ".glb")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrTransport))
}

func TestCopyImporter_Import(t *testing.T) {
	src := filepath.Join(t.TempDir(), "download.glb")
	require.NoError(t, os.WriteFile(src, []byte("model bytes"), 0o600))

	dir := t.TempDir()
	imp := NewCopyImporter(dir, "robot", nil)
	require.NoError(t, imp.Import(context.Background(), src, types.FormatGLB))

	got, err := os.ReadFile(filepath.Join(dir, "robot.glb"))
	require.NoError(t, err)
	assert.Equal(t, []byte("model bytes"), got)
}

func TestCopyImporter_RejectsUnknownFormat(t *testing.T) {
	imp := NewCopyImporter(t.TempDir(), "robot", nil)
	err := imp.Import(context.Background(), "missing", types.ResultFormat("STL"))
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrImport))
}

func TestCopyImporter_MissingSource(t *testing.T) {
	imp := NewCopyImporter(t.TempDir(), "robot", nil)
	err := imp.Import(context.Background(), filepath.Join(t.TempDir(), "nope.glb"), types.FormatGLB)
	require.Error(t, err)
}
