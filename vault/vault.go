package vault

import (
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fooni/hy3d/types"
)

// Encrypted file layout:
//
//	MAGIC(4) | VERSION(1) | FLAG(1) | SALT(16) | NONCE(12) | CIPHERTEXT | TAG(16)
const (
	fileVersion byte = 1
	saltSize         = 16
	nonceSize        = 12
	tagSize          = 16
)

var fileMagic = []byte("FOON")

const minFileSize = 4 + 1 + 1 + saltSize + nonceSize + tagSize

// File names inside the vault directory.
const (
	secretFileName  = "secret.enc"
	passwordFile    = ".pwd"
	passwordKeyFile = ".pwd.key"
)

// StoredSecret is the decrypted credential pair.
type StoredSecret struct {
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
}

// Vault encrypts and decrypts the credential pair and manages the
// session and password caches.
type Vault struct {
	dir    string
	cipher CipherStrategy
	logger *zap.Logger

	session sessionCache
}

// Option configures a Vault.
type Option func(*Vault)

// WithCipher overrides the capability-detected cipher strategy used for
// new encryptions. Decryption always follows the file's flag byte.
func WithCipher(c CipherStrategy) Option {
	return func(v *Vault) { v.cipher = c }
}

// New creates a Vault rooted at dir. An empty dir falls back to
// ~/.config/fooni.
func New(dir string, logger *zap.Logger, opts ...Option) *Vault {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		dir = DefaultDir()
	}
	v := &Vault{
		dir:    dir,
		cipher: DetectCipher(),
		logger: logger.With(zap.String("component", "vault")),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// DefaultDir returns the per-user vault directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".fooni")
	}
	return filepath.Join(home, ".config", "fooni")
}

// Dir returns the vault directory.
func (v *Vault) Dir() string { return v.dir }

func (v *Vault) secretPath() string { return filepath.Join(v.dir, secretFileName) }

// Encrypt seals plaintext under a password with fresh random salt and
// nonce, producing the binary file record.
func (v *Vault) Encrypt(plaintext []byte, password string) ([]byte, error) {
	salt := make([]byte, saltSize)
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, types.NewError(types.ErrInternal, "random source failed").WithCause(err)
	}
	if _, err := rand.Read(nonce); err != nil {
		return nil, types.NewError(types.ErrInternal, "random source failed").WithCause(err)
	}

	key, err := DeriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	ciphertext, tag, err := v.cipher.Seal(key, nonce, plaintext)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, 0, minFileSize+len(ciphertext))
	blob = append(blob, fileMagic...)
	blob = append(blob, fileVersion, v.cipher.Flag())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)
	blob = append(blob, tag...)
	return blob, nil
}

// Decrypt verifies and opens a file record produced by Encrypt. The
// cipher strategy is chosen by the file's flag byte, not the Vault's
// configured one.
func (v *Vault) Decrypt(blob []byte, password string) ([]byte, error) {
	if len(blob) < minFileSize {
		return nil, types.NewError(types.ErrFormat, "secret file is truncated")
	}
	if string(blob[:4]) != string(fileMagic) {
		return nil, types.NewError(types.ErrFormat, "invalid secret file magic header")
	}
	if blob[4] != fileVersion {
		return nil, types.Errorf(types.ErrFormat, "unsupported secret file version %d", blob[4])
	}

	strategy, err := strategyForFlag(blob[5])
	if err != nil {
		return nil, err
	}

	salt := blob[6 : 6+saltSize]
	nonce := blob[6+saltSize : 6+saltSize+nonceSize]
	ciphertext := blob[6+saltSize+nonceSize : len(blob)-tagSize]
	tag := blob[len(blob)-tagSize:]

	key, err := DeriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	return strategy.Open(key, nonce, ciphertext, tag)
}

// SaveSecret encrypts the credential pair and writes it to disk
// atomically with owner-only permissions.
func (v *Vault) SaveSecret(secretID, secretKey, password string) error {
	payload, err := json.Marshal(StoredSecret{SecretID: secretID, SecretKey: secretKey})
	if err != nil {
		return types.NewError(types.ErrInternal, "failed to encode secret payload").WithCause(err)
	}
	blob, err := v.Encrypt(payload, password)
	if err != nil {
		return err
	}
	if err := writeSecureFile(v.secretPath(), blob); err != nil {
		return err
	}
	v.logger.Info("encrypted secret written to disk", zap.String("path", v.secretPath()))
	return nil
}

// LoadSecret reads and decrypts the credential pair from disk.
func (v *Vault) LoadSecret(password string) (*StoredSecret, error) {
	blob, err := os.ReadFile(v.secretPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewError(types.ErrMissingFile, "encrypted secret not found")
		}
		return nil, types.NewError(types.ErrFormat, "failed to read secret file").WithCause(err)
	}

	plaintext, err := v.Decrypt(blob, password)
	if err != nil {
		return nil, err
	}

	var secret StoredSecret
	if err := json.Unmarshal(plaintext, &secret); err != nil {
		return nil, types.NewError(types.ErrFormat, "failed to decode secret payload").WithCause(err)
	}
	secret.SecretID = strings.TrimSpace(secret.SecretID)
	secret.SecretKey = strings.TrimSpace(secret.SecretKey)
	if secret.SecretID == "" || secret.SecretKey == "" {
		return nil, types.NewError(types.ErrFormat, "decrypted payload is missing secret data")
	}
	v.logger.Info("encrypted secret loaded from disk")
	return &secret, nil
}

// HasStoredSecret reports whether an encrypted secret file exists.
func (v *Vault) HasStoredSecret() bool {
	_, err := os.Stat(v.secretPath())
	return err == nil
}

// ClearStoredSecret removes the encrypted secret file. Best effort.
func (v *Vault) ClearStoredSecret() {
	if err := os.Remove(v.secretPath()); err != nil && !os.IsNotExist(err) {
		v.logger.Debug("failed to remove secret file", zap.Error(err))
	}
}
