package vault

import (
	"strings"

	"github.com/fooni/hy3d/types"
)

// SaveRequest captures one user-initiated "save secrets" action.
type SaveRequest struct {
	SecretID         string
	SecretKey        string
	Mode             types.StorageMode
	Password         string
	RememberPassword bool
}

// Store applies a storage mode to the credential pair.
//
// NONE clears every cache: secrets must be retyped each time.
// SESSION caches the pair (and optionally the password) in memory.
// DISK encrypts the pair to disk, caches both in memory, and either
// remembers the password obfuscated on disk or clears the old one.
func (v *Vault) Store(req SaveRequest) error {
	secretID := strings.TrimSpace(req.SecretID)
	secretKey := strings.TrimSpace(req.SecretKey)
	if secretID == "" || secretKey == "" {
		return types.NewError(types.ErrValidation, "secret id and secret key are required")
	}

	switch req.Mode {
	case types.StoreNone:
		v.ClearSessionSecret()
		v.SetSessionPassword("")
		return nil

	case types.StoreSession:
		v.SetSessionSecret(secretID, secretKey)
		v.SetSessionPassword(strings.TrimSpace(req.Password))
		return nil

	case types.StoreDisk:
		password, err := v.ResolvePassword(req.Password)
		if err != nil {
			return err
		}
		if password == "" {
			return types.NewError(types.ErrValidation, "password is required for disk mode")
		}
		if err := v.SaveSecret(secretID, secretKey, password); err != nil {
			return err
		}
		v.SetSessionSecret(secretID, secretKey)
		v.SetSessionPassword(password)
		if req.RememberPassword {
			return v.SavePasswordToDisk(password)
		}
		v.ClearDiskPassword()
		return nil
	}

	return types.Errorf(types.ErrValidation, "unknown storage mode %q", req.Mode)
}

// ResolvePassword returns the first available password: the explicit
// input, then the session cache, then the obfuscated disk cache. An
// empty result with nil error means no password is available.
func (v *Vault) ResolvePassword(input string) (string, error) {
	if password := strings.TrimSpace(input); password != "" {
		return password, nil
	}
	if password := v.GetSessionPassword(); password != "" {
		return password, nil
	}
	return v.LoadPasswordFromDisk()
}

// SelfTest verifies that the stored secret decrypts with the available
// password sources.
func (v *Vault) SelfTest(passwordInput string) error {
	if !v.HasStoredSecret() {
		return types.NewError(types.ErrMissingFile, "no encrypted secret found on disk")
	}
	password, err := v.ResolvePassword(passwordInput)
	if err != nil {
		return err
	}
	if password == "" {
		return types.NewError(types.ErrCredentials, "password not available for decryption")
	}
	_, err = v.LoadSecret(password)
	return err
}
