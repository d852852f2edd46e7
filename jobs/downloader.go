package jobs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fooni/hy3d/internal/tlsutil"
	"github.com/fooni/hy3d/types"
)

// Downloader fetches a result URL to a local temporary file. The suffix
// hint carries the requested output format so the importer can key off
// the extension.
type Downloader interface {
	Fetch(ctx context.Context, url, suffix string) (string, error)
}

// HTTPDownloader is the default Downloader.
type HTTPDownloader struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPDownloader creates a downloader with the given timeout
// (60s when zero).
func NewHTTPDownloader(timeout time.Duration, logger *zap.Logger) *HTTPDownloader {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPDownloader{
		client: tlsutil.SecureHTTPClient(timeout),
		logger: logger.With(zap.String("component", "downloader")),
	}
}

// Fetch downloads url into a fresh temp file and returns its path. The
// temp file is removed on every failure path; on success the caller
// owns it.
func (d *HTTPDownloader) Fetch(ctx context.Context, url, suffix string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", types.NewError(types.ErrTransport, "invalid download URL").WithCause(err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", types.NewError(types.ErrTransport, "download failed").WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", types.Errorf(types.ErrTransport, "download failed: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", fmt.Sprintf("hy3d_%s_*%s", uuid.NewString()[:8], suffix))
	if err != nil {
		return "", types.NewError(types.ErrInternal, "failed to create temp file").WithCause(err)
	}
	path := tmp.Name()

	written, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", types.NewError(types.ErrTransport, "download failed").WithCause(err).WithRetryable(true)
	}

	d.logger.Info("result downloaded",
		zap.String("path", path),
		zap.Int64("bytes", written))
	return path, nil
}
