package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fooni/hy3d/types"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")

	key1, err := DeriveKey("hunter2", salt)
	require.NoError(t, err)
	key2, err := DeriveKey("hunter2", salt)
	require.NoError(t, err)

	assert.Equal(t, key1, key2)
	assert.Len(t, key1, derivedKeyLen)

	key3, err := DeriveKey("hunter3", salt)
	require.NoError(t, err)
	assert.NotEqual(t, key1, key3)
}

func TestCipherStrategies_RoundTrip(t *testing.T) {
	strategies := []CipherStrategy{NewAESGCMCipher(), NewXORCipher()}
	key := make([]byte, derivedKeyLen)
	nonce := make([]byte, nonceSize)

	for _, strategy := range strategies {
		plaintext := []byte(`{"secret_id":"AKID","secret_key":"sk"}`)

		ciphertext, tag, err := strategy.Seal(key, nonce, plaintext)
		require.NoError(t, err)
		assert.Len(t, tag, tagSize)
		assert.NotEqual(t, plaintext, ciphertext)

		recovered, err := strategy.Open(key, nonce, ciphertext, tag)
		require.NoError(t, err)
		assert.Equal(t, plaintext, recovered)
	}
}

func TestCipherStrategies_TamperedTag(t *testing.T) {
	for _, strategy := range []CipherStrategy{NewAESGCMCipher(), NewXORCipher()} {
		key := make([]byte, derivedKeyLen)
		nonce := make([]byte, nonceSize)

		ciphertext, tag, err := strategy.Seal(key, nonce, []byte("payload"))
		require.NoError(t, err)

		tag[0] ^= 0x01
		plaintext, err := strategy.Open(key, nonce, ciphertext, tag)
		assert.Nil(t, plaintext)
		assert.True(t, types.IsCode(err, types.ErrIntegrity))
	}
}

func TestVault_EncryptDecrypt_Property(t *testing.T) {
	for _, tc := range []struct {
		name   string
		cipher CipherStrategy
	}{
		{"aes_gcm", NewAESGCMCipher()},
		{"xor_hmac", NewXORCipher()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			v := New(t.TempDir(), nil, WithCipher(tc.cipher))
			rapid.Check(t, func(rt *rapid.T) {
				plaintext := rapid.SliceOfN(rapid.Byte(), 0, 256).Draw(rt, "plaintext")
				password := rapid.StringMatching(`[ -~]{1,24}`).Draw(rt, "password")

				blob, err := v.Encrypt(plaintext, password)
				if err != nil {
					rt.Fatalf("encrypt failed: %v", err)
				}
				recovered, err := v.Decrypt(blob, password)
				if err != nil {
					rt.Fatalf("decrypt failed: %v", err)
				}
				if string(recovered) != string(plaintext) {
					rt.Fatalf("round trip mismatch: %q != %q", recovered, plaintext)
				}
			})
		})
	}
}

func TestVault_Decrypt_WrongPassword(t *testing.T) {
	for _, cipher := range []CipherStrategy{NewAESGCMCipher(), NewXORCipher()} {
		v := New(t.TempDir(), nil, WithCipher(cipher))

		blob, err := v.Encrypt([]byte("top secret"), "correct horse")
		require.NoError(t, err)

		plaintext, err := v.Decrypt(blob, "battery staple")
		assert.Nil(t, plaintext)
		assert.True(t, types.IsCode(err, types.ErrIntegrity), "flag=%d err=%v", cipher.Flag(), err)
	}
}

func TestVault_Decrypt_TamperEvidence(t *testing.T) {
	// Flipping any single byte in the ciphertext or tag region must
	// surface as an integrity failure, never as silent data.
	for _, cipher := range []CipherStrategy{NewAESGCMCipher(), NewXORCipher()} {
		v := New(t.TempDir(), nil, WithCipher(cipher))

		blob, err := v.Encrypt([]byte("tamper target payload"), "pw")
		require.NoError(t, err)

		payloadStart := 6 + saltSize + nonceSize
		for i := payloadStart; i < len(blob); i++ {
			mutated := append([]byte(nil), blob...)
			mutated[i] ^= 0x80

			plaintext, err := v.Decrypt(mutated, "pw")
			assert.Nil(t, plaintext, "byte %d", i)
			assert.True(t, types.IsCode(err, types.ErrIntegrity), "byte %d err=%v", i, err)
		}
	}
}

func TestVault_Decrypt_FormatErrors(t *testing.T) {
	v := New(t.TempDir(), nil)
	blob, err := v.Encrypt([]byte("x"), "pw")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		code   types.ErrorCode
	}{
		{
			name:   "truncated",
			mutate: func(b []byte) []byte { return b[:minFileSize-1] },
			code:   types.ErrFormat,
		},
		{
			name: "bad magic",
			mutate: func(b []byte) []byte {
				b[0] = 'X'
				return b
			},
			code: types.ErrFormat,
		},
		{
			name: "bad version",
			mutate: func(b []byte) []byte {
				b[4] = 99
				return b
			},
			code: types.ErrFormat,
		},
		{
			name: "unknown cipher flag",
			mutate: func(b []byte) []byte {
				b[5] = 77
				return b
			},
			code: types.ErrUnsupportedCipher,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mutated := tt.mutate(append([]byte(nil), blob...))
			_, err := v.Decrypt(mutated, "pw")
			assert.True(t, types.IsCode(err, tt.code), "err=%v", err)
		})
	}
}

func TestVault_CrossStrategyDecrypt(t *testing.T) {
	// A file written with the fallback cipher must stay readable by a
	// vault configured for AES-GCM: decrypt follows the flag byte.
	dir := t.TempDir()
	writer := New(dir, nil, WithCipher(NewXORCipher()))
	reader := New(dir, nil)

	blob, err := writer.Encrypt([]byte("legacy file"), "pw")
	require.NoError(t, err)

	recovered, err := reader.Decrypt(blob, "pw")
	require.NoError(t, err)
	assert.Equal(t, []byte("legacy file"), recovered)
}
