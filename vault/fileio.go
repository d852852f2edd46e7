package vault

import (
	"os"
	"path/filepath"

	"github.com/fooni/hy3d/types"
)

// writeSecureFile writes data with owner-only permissions using a
// write-to-temp then rename sequence, so a partially written file is
// never visible under the final name.
func writeSecureFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return types.NewError(types.ErrInternal, "failed to create vault directory").WithCause(err)
	}
	// MkdirAll is a no-op on an existing dir; tighten it regardless.
	_ = os.Chmod(dir, 0o700)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return types.NewError(types.ErrInternal, "failed to create temp file").WithCause(err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}
	if err := tmp.Chmod(0o600); err != nil {
		cleanup()
		return types.NewError(types.ErrInternal, "failed to restrict temp file").WithCause(err)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return types.NewError(types.ErrInternal, "failed to write temp file").WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return types.NewError(types.ErrInternal, "failed to flush temp file").WithCause(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return types.NewError(types.ErrInternal, "failed to replace file").WithCause(err)
	}
	return nil
}
