package helper

import (
	"errors"

	"github.com/hashicorp/go-hclog"

	"github.com/chainindex/indexer-infrastructure/secrets"
	"github.com/chainindex/indexer-infrastructure/secrets/hashicorpvault"
	"github.com/chainindex/indexer-infrastructure/secrets/local"
)

// SetupLocalSecretsManager is a helper method for boilerplate local secrets manager setup
func SetupLocalSecretsManager(dataDir string) (secrets.SecretsManager, error) {
	return local.SecretsManagerFactory(
		nil, // Local secrets manager doesn't require a config
		&secrets.SecretsManagerParams{
			Logger: hclog.NewNullLogger(),
			Extra: map[string]interface{}{
				secrets.Path: dataDir,
			},
		},
	)
}

// setupHashicorpVault is a helper method for boilerplate hashicorp vault secrets manager setup
func setupHashicorpVault(
	secretsConfig *secrets.SecretsManagerConfig,
) (secrets.SecretsManager, error) {
	return hashicorpvault.SecretsManagerFactory(
		secretsConfig,
		&secrets.SecretsManagerParams{
			Logger: hclog.NewNullLogger(),
		},
	)
}

// InitSecretsManager returns the secrets manager from the provided config
func InitSecretsManager(secretsConfig *secrets.SecretsManagerConfig) (secrets.SecretsManager, error) {
	switch secretsConfig.Type {
	case secrets.Local:
		return SetupLocalSecretsManager(secretsConfig.Path)
	case secrets.HashicorpVault:
		return setupHashicorpVault(secretsConfig)
	default:
		return nil, errors.New("unsupported secrets manager")
	}
}
