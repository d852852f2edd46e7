package jobs

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fooni/hy3d/types"
)

// Importer loads a downloaded model file into the host document. The
// host application supplies the real implementation; format values
// outside the supported set are a configuration error.
type Importer interface {
	Import(ctx context.Context, path string, format types.ResultFormat) error
}

// CopyImporter is the CLI's importer: it copies the result into a
// target directory under a stable name.
type CopyImporter struct {
	Dir    string
	Name   string
	logger *zap.Logger
}

// NewCopyImporter creates an importer writing into dir as name (the
// format suffix is appended).
func NewCopyImporter(dir, name string, logger *zap.Logger) *CopyImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CopyImporter{Dir: dir, Name: name, logger: logger.With(zap.String("component", "importer"))}
}

// Import implements Importer.
func (c *CopyImporter) Import(ctx context.Context, path string, format types.ResultFormat) error {
	if _, ok := types.ParseResultFormat(string(format)); !ok {
		return types.Errorf(types.ErrImport, "unsupported format: %s", format)
	}
	if err := ctx.Err(); err != nil {
		return types.NewError(types.ErrImport, "import canceled").WithCause(err)
	}

	src, err := os.Open(path)
	if err != nil {
		return types.NewError(types.ErrImport, "failed to open downloaded file").WithCause(err)
	}
	defer src.Close()

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return types.NewError(types.ErrImport, "failed to create output directory").WithCause(err)
	}
	name := c.Name
	if name == "" {
		name = "result"
	}
	target := filepath.Join(c.Dir, name+format.Suffix())

	dst, err := os.Create(target)
	if err != nil {
		return types.NewError(types.ErrImport, "failed to create output file").WithCause(err)
	}
	_, err = io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(target)
		return types.NewError(types.ErrImport, "failed to write output file").WithCause(err)
	}

	c.logger.Info("model imported", zap.String("target", target))
	return nil
}
