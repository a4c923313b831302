package secrets

import (
	"errors"

	"github.com/hashicorp/go-hclog"
)

// SecretsManagerType is the type of the secrets backend
type SecretsManagerType string

const (
	// Local on-disk storage
	Local SecretsManagerType = "local"

	// HashiCorp Vault server
	HashicorpVault SecretsManagerType = "hashicorp-vault"
)

// names of the secrets the indexer uses
const (
	// BackendPassword is the search backend's basic-auth password
	BackendPassword = "backend-password"

	// BackendAPIKey is an API key for the search backend, used instead of
	// basic auth when present
	BackendAPIKey = "backend-api-key"
)

// Path is the key under SecretsManagerParams.Extra holding the local
// storage directory
const Path = "path"

var ErrSecretNotFound = errors.New("secret not found")

// SecretsManager defines the base public interface that all
// secret manager implementations should have
type SecretsManager interface {
	// Setup performs secret manager-specific setup
	Setup() error

	// GetSecret gets the secret by name
	GetSecret(name string) ([]byte, error)

	// SetSecret sets the secret to a provided value
	SetSecret(name string, value []byte) error

	// HasSecret checks if the secret is present
	HasSecret(name string) bool

	// RemoveSecret removes the secret from storage
	RemoveSecret(name string) error
}

// SecretsManagerParams defines the environment-specific params
// of the secrets manager
type SecretsManagerParams struct {
	// Logger used for logging specific messages
	Logger hclog.Logger

	// Extra contains additional data needed for the secrets manager to function
	Extra map[string]interface{}
}
