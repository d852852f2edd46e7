package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/crypto/scrypt"

	"github.com/fooni/hy3d/types"
)

// Cipher flag bytes recorded in the encrypted file header.
const (
	FlagAESGCM byte = 1
	FlagXOR    byte = 2
)

// scrypt cost parameters. Fixed: changing them breaks existing files.
const (
	scryptN      = 1 << 14
	scryptR      = 8
	scryptP      = 1
	derivedKeyLen = 32
)

// DeriveKey derives a fixed-length symmetric key from a password and salt.
// The same password and salt always yield the same key.
func DeriveKey(password string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, derivedKeyLen)
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "key derivation failed").WithCause(err)
	}
	return key, nil
}

// CipherStrategy seals and opens a payload under a derived key. The flag
// byte identifies the strategy inside the encrypted file header.
type CipherStrategy interface {
	Flag() byte
	Seal(key, nonce, plaintext []byte) (ciphertext, tag []byte, err error)
	Open(key, nonce, ciphertext, tag []byte) ([]byte, error)
}

// DetectCipher returns the preferred cipher strategy for this runtime.
func DetectCipher() CipherStrategy {
	return aesGCMCipher{}
}

// NewAESGCMCipher returns the AEAD strategy (flag 1).
func NewAESGCMCipher() CipherStrategy { return aesGCMCipher{} }

// NewXORCipher returns the fallback keyed-stream strategy (flag 2). It
// authenticates with HMAC-SHA256 but offers weaker confidentiality than
// AES-GCM; it exists for compatibility with files written without an AEAD
// primitive available.
func NewXORCipher() CipherStrategy { return xorCipher{} }

// strategyForFlag maps a file flag byte back to a strategy.
func strategyForFlag(flag byte) (CipherStrategy, error) {
	switch flag {
	case FlagAESGCM:
		return aesGCMCipher{}, nil
	case FlagXOR:
		return xorCipher{}, nil
	}
	return nil, types.Errorf(types.ErrUnsupportedCipher, "unknown cipher flag %d in secret file", flag)
}

type aesGCMCipher struct{}

func (aesGCMCipher) Flag() byte { return FlagAESGCM }

func (aesGCMCipher) Seal(key, nonce, plaintext []byte) ([]byte, []byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	// GCM appends the 16-byte tag to the ciphertext.
	split := len(sealed) - tagSize
	return sealed[:split], sealed[split:], nil
}

func (aesGCMCipher) Open(key, nonce, ciphertext, tag []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, types.NewError(types.ErrIntegrity,
			"integrity check failed: incorrect password or corrupted file").WithCause(err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "cipher init failed").WithCause(err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "cipher init failed").WithCause(err)
	}
	return aead, nil
}

type xorCipher struct{}

func (xorCipher) Flag() byte { return FlagXOR }

func (xorCipher) Seal(key, nonce, plaintext []byte) ([]byte, []byte, error) {
	stream := xorStream(key, nonce, len(plaintext))
	ciphertext := make([]byte, len(plaintext))
	for i := range plaintext {
		ciphertext[i] = plaintext[i] ^ stream[i]
	}
	return ciphertext, xorTag(key, nonce, ciphertext), nil
}

func (xorCipher) Open(key, nonce, ciphertext, tag []byte) ([]byte, error) {
	expected := xorTag(key, nonce, ciphertext)
	if !hmac.Equal(expected, tag) {
		return nil, types.NewError(types.ErrIntegrity,
			"integrity check failed: incorrect password or corrupted file")
	}
	stream := xorStream(key, nonce, len(ciphertext))
	plaintext := make([]byte, len(ciphertext))
	for i := range ciphertext {
		plaintext[i] = ciphertext[i] ^ stream[i]
	}
	return plaintext, nil
}

// xorStream expands key+nonce into a keystream of n bytes using
// HMAC-SHA256 over a big-endian block counter.
func xorStream(key, nonce []byte, n int) []byte {
	stream := make([]byte, 0, n+sha256.Size)
	var counter uint32
	for len(stream) < n {
		var counterBytes [4]byte
		binary.BigEndian.PutUint32(counterBytes[:], counter)
		mac := hmac.New(sha256.New, key)
		mac.Write(nonce)
		mac.Write(counterBytes[:])
		stream = mac.Sum(stream)
		counter++
	}
	return stream[:n]
}

// xorTag authenticates nonce and ciphertext, truncated to the common
// tag size so both strategies share the file layout.
func xorTag(key, nonce, ciphertext []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(nonce)
	mac.Write(ciphertext)
	return mac.Sum(nil)[:tagSize]
}
