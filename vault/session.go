package vault

import "sync"

// sessionCache holds the process-lifetime secret and password. It is
// mutex-guarded because user-triggered operations and the background
// poll loop may touch it independently.
type sessionCache struct {
	mu       sync.Mutex
	secret   *StoredSecret
	password string
}

// SetSessionSecret caches the credential pair in memory until the
// process exits. Never persisted.
func (v *Vault) SetSessionSecret(secretID, secretKey string) {
	v.session.mu.Lock()
	v.session.secret = &StoredSecret{SecretID: secretID, SecretKey: secretKey}
	v.session.mu.Unlock()
	v.logger.Info("session secret stored in memory")
}

// GetSessionSecret returns a copy of the cached pair, or nil.
func (v *Vault) GetSessionSecret() *StoredSecret {
	v.session.mu.Lock()
	defer v.session.mu.Unlock()
	if v.session.secret == nil {
		return nil
	}
	copied := *v.session.secret
	return &copied
}

// ClearSessionSecret drops the cached pair.
func (v *Vault) ClearSessionSecret() {
	v.session.mu.Lock()
	v.session.secret = nil
	v.session.mu.Unlock()
	v.logger.Info("session secret cleared")
}

// SetSessionPassword caches the vault password in memory. An empty
// password clears the cache.
func (v *Vault) SetSessionPassword(password string) {
	v.session.mu.Lock()
	v.session.password = password
	v.session.mu.Unlock()
	if password != "" {
		v.logger.Info("session password stored in memory")
	} else {
		v.logger.Info("session password cleared")
	}
}

// GetSessionPassword returns the cached password, if any.
func (v *Vault) GetSessionPassword() string {
	v.session.mu.Lock()
	defer v.session.mu.Unlock()
	return v.session.password
}
