package hashicorpvault

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	vault "github.com/hashicorp/vault/api"

	"github.com/chainindex/indexer-infrastructure/secrets"
)

// VaultSecretsManager is a SecretsManager that
// stores secrets on a HashiCorp Vault instance
type VaultSecretsManager struct {
	// Logger object
	logger hclog.Logger

	// Token used for Vault instance authentication
	token string

	// The Server URL of the Vault instance
	serverURL string

	// The name of the current node, used as the secret path prefix
	name string

	// The namespace under which the secrets are stored
	namespace string

	// The HashiCorp Vault client
	client *vault.Client
}

// SecretsManagerFactory implements the factory method
func SecretsManagerFactory(
	config *secrets.SecretsManagerConfig,
	params *secrets.SecretsManagerParams,
) (secrets.SecretsManager, error) {
	if config.Token == "" {
		return nil, errors.New("no token specified for vault secrets manager")
	}

	if config.ServerURL == "" {
		return nil, errors.New("no server url specified for vault secrets manager")
	}

	if config.Name == "" {
		return nil, errors.New("no node name specified for vault secrets manager")
	}

	vaultManager := &VaultSecretsManager{
		logger:    params.Logger.Named("vault"),
		token:     config.Token,
		serverURL: config.ServerURL,
		name:      config.Name,
		namespace: config.Namespace,
	}

	if err := vaultManager.Setup(); err != nil {
		return nil, err
	}

	return vaultManager, nil
}

// Setup sets up the HashiCorp Vault client
func (v *VaultSecretsManager) Setup() error {
	config := vault.DefaultConfig()
	config.Address = v.serverURL

	client, err := vault.NewClient(config)
	if err != nil {
		return fmt.Errorf("unable to initialize vault client, %w", err)
	}

	client.SetNamespace(v.namespace)
	client.SetToken(v.token)

	v.client = client

	return nil
}

// constructSecretPath builds the kv-v2 data path of the secret
func (v *VaultSecretsManager) constructSecretPath(name string) string {
	return fmt.Sprintf("secret/data/%s/%s", v.name, name)
}

// GetSecret fetches a secret from the Vault server
func (v *VaultSecretsManager) GetSecret(name string) ([]byte, error) {
	secret, err := v.client.Logical().Read(v.constructSecretPath(name))
	if err != nil {
		return nil, fmt.Errorf("unable to read secret from vault, %w", err)
	}

	if secret == nil {
		return nil, secrets.ErrSecretNotFound
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, errors.New("invalid secret data format from vault")
	}

	value, ok := data[name].(string)
	if !ok {
		return nil, secrets.ErrSecretNotFound
	}

	return []byte(value), nil
}

// SetSecret saves a secret to the Vault server
func (v *VaultSecretsManager) SetSecret(name string, value []byte) error {
	_, err := v.client.Logical().Write(v.constructSecretPath(name), map[string]interface{}{
		"data": map[string]interface{}{
			name: string(value),
		},
	})
	if err != nil {
		return fmt.Errorf("unable to store secret to vault, %w", err)
	}

	return nil
}

// HasSecret checks if the secret is present on the Vault server
func (v *VaultSecretsManager) HasSecret(name string) bool {
	_, err := v.GetSecret(name)

	return err == nil
}

// RemoveSecret removes a secret from the Vault server
func (v *VaultSecretsManager) RemoveSecret(name string) error {
	if !v.HasSecret(name) {
		return secrets.ErrSecretNotFound
	}

	_, err := v.client.Logical().Delete(v.constructSecretPath(name))
	if err != nil {
		return fmt.Errorf("unable to remove secret from vault, %w", err)
	}

	return nil
}
