package auth

import (
	"os"
	"time"

	"tkscraper/pkg/config"
)

// EnvironmentStore reads a single read-only account from TKSCRAPER_*
// variables.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// EnvAccountName is the name the environment account is listed under
const EnvAccountName = "env"

// Retrieve returns the environment account when name is empty or
// EnvAccountName.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	sessionID := os.Getenv(config.EnvPrefix + "SESSION_ID")
	if sessionID == "" || (name != "" && name != EnvAccountName) {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Name:         EnvAccountName,
		SessionID:    sessionID,
		MsToken:      os.Getenv(config.EnvPrefix + "MS_TOKEN"),
		TTWebID:      os.Getenv(config.EnvPrefix + "TT_WEBID"),
		UserAgent:    os.Getenv(config.EnvPrefix + "USER_AGENT"),
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
