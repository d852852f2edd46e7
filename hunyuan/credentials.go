package hunyuan

import (
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/fooni/hy3d/types"
	"github.com/fooni/hy3d/vault"
)

// Environment variables recognized for credential resolution. Both must
// be set for the environment source to be used.
const (
	EnvSecretID  = "TENCENTCLOUD_SECRET_ID"
	EnvSecretKey = "TENCENTCLOUD_SECRET_KEY"
)

// Credentials is the fully-populated secret pair used to sign requests.
type Credentials struct {
	SecretID  string
	SecretKey string
}

// CredentialInput carries the user-entered fields consulted during
// resolution.
type CredentialInput struct {
	SecretID  string
	SecretKey string
	// Password unlocks the encrypted disk store when no other source
	// resolves.
	Password string
}

// Resolver resolves credentials from the available sources in a strict
// order: environment, user-entered fields, session cache, encrypted
// disk store. A partially-populated pair never counts.
type Resolver struct {
	vault  *vault.Vault
	logger *zap.Logger
}

// NewResolver creates a credential resolver backed by the given vault.
func NewResolver(v *vault.Vault, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{vault: v, logger: logger.With(zap.String("component", "credentials"))}
}

// Resolve returns the first fully-populated credential pair.
func (r *Resolver) Resolve(input CredentialInput) (Credentials, error) {
	if id, key := os.Getenv(EnvSecretID), os.Getenv(EnvSecretKey); id != "" && key != "" {
		r.logger.Debug("credentials resolved from environment")
		return Credentials{SecretID: id, SecretKey: key}, nil
	}

	if id, key := strings.TrimSpace(input.SecretID), strings.TrimSpace(input.SecretKey); id != "" && key != "" {
		r.logger.Debug("credentials resolved from user input")
		return Credentials{SecretID: id, SecretKey: key}, nil
	}

	if r.vault != nil {
		if secret := r.vault.GetSessionSecret(); secret != nil {
			r.logger.Debug("credentials resolved from session cache")
			return Credentials{SecretID: secret.SecretID, SecretKey: secret.SecretKey}, nil
		}

		if r.vault.HasStoredSecret() {
			password, err := r.vault.ResolvePassword(input.Password)
			if err != nil {
				return Credentials{}, err
			}
			if password != "" {
				secret, err := r.vault.LoadSecret(password)
				if err != nil {
					return Credentials{}, err
				}
				r.logger.Debug("credentials resolved from encrypted disk store")
				return Credentials{SecretID: secret.SecretID, SecretKey: secret.SecretKey}, nil
			}
		}
	}

	return Credentials{}, types.NewError(types.ErrCredentials,
		"API keys missing: set environment variables or fill SecretId/SecretKey")
}
