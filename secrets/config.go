package secrets

import (
	"encoding/json"
	"os"

	"github.com/chainindex/indexer-infrastructure/common"
)

// SecretsManagerConfig describes the secrets backend, kept as a single
// json configuration file
type SecretsManagerConfig struct {
	Type      SecretsManagerType `json:"type"`       // Which secrets backend to use
	Token     string             `json:"token"`      // Access token for the vault instance
	ServerURL string             `json:"server_url"` // The URL of the vault instance
	Name      string             `json:"name"`       // Secret path prefix of this service
	Namespace string             `json:"namespace"`  // Vault enterprise namespace
	Path      string             `json:"path"`       // Storage directory of the local backend
}

// WriteConfig writes the current configuration to the specified path
func (c *SecretsManagerConfig) WriteConfig(path string) error {
	jsonBytes, err := json.MarshalIndent(c, "", " ")
	if err != nil {
		return err
	}

	return common.SaveFileSafe(path, jsonBytes, 0660)
}

// ReadConfig reads the SecretsManagerConfig from the specified path
func ReadConfig(path string) (*SecretsManagerConfig, error) {
	configFile, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, readErr
	}

	config := &SecretsManagerConfig{}

	unmarshalErr := json.Unmarshal(configFile, &config)
	if unmarshalErr != nil {
		return nil, unmarshalErr
	}

	return config, nil
}
