package vault

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fooni/hy3d/types"
)

func (v *Vault) passwordPath() string    { return filepath.Join(v.dir, passwordFile) }
func (v *Vault) passwordKeyPath() string { return filepath.Join(v.dir, passwordKeyFile) }

// SavePasswordToDisk persists the password XOR-obfuscated against a
// fresh random key file. This is a convenience so the user does not have
// to retype the password; it is not a security boundary against anyone
// who can read both files.
func (v *Vault) SavePasswordToDisk(password string) error {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return types.NewError(types.ErrInternal, "random source failed").WithCause(err)
	}
	obfuscated := xorWithKey([]byte(password), key)
	if err := writeSecureFile(v.passwordKeyPath(), key); err != nil {
		return err
	}
	if err := writeSecureFile(v.passwordPath(), obfuscated); err != nil {
		return err
	}
	v.logger.Info("password persisted to disk with obfuscation")
	return nil
}

// LoadPasswordFromDisk recovers the obfuscated password. Returns ""
// with no error when neither file is present.
func (v *Vault) LoadPasswordFromDisk() (string, error) {
	obfuscated, err := os.ReadFile(v.passwordPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", types.NewError(types.ErrFormat, "failed to read password file").WithCause(err)
	}
	key, err := os.ReadFile(v.passwordKeyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", types.NewError(types.ErrFormat, "failed to read password key file").WithCause(err)
	}
	if len(obfuscated) == 0 || len(key) == 0 {
		return "", nil
	}
	recovered := xorWithKey(obfuscated, key)
	if !utf8.Valid(recovered) {
		return "", types.NewError(types.ErrFormat, "stored password could not be decoded")
	}
	v.logger.Info("password loaded from disk obfuscation store")
	return string(recovered), nil
}

// ClearDiskPassword removes both password files. Best effort.
func (v *Vault) ClearDiskPassword() {
	for _, path := range []string{v.passwordPath(), v.passwordKeyPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			v.logger.Debug("failed to remove password file", zap.String("path", path), zap.Error(err))
		}
	}
}

func xorWithKey(data, key []byte) []byte {
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ key[i%len(key)]
	}
	return out
}
