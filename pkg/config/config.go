package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/nspcc-dev/statetrie/pkg/core/storage/dbconfig"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the default path to the config file.
const DefaultConfigPath = "./config/statetrie.yml"

// Version is the version of the tool, set at build time.
var Version string

// Config top level struct representing the config.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Default returns the configuration used when no file is given: in-memory
// database with digest verification enabled.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			LogLevel: "info",
			DBConfiguration: dbconfig.DBConfiguration{
				Type: dbconfig.InMemoryDB,
			},
			Trie: Trie{
				NodeCacheSize:  DefaultNodeCacheSize,
				ValueCacheSize: DefaultValueCacheSize,
				VerifyDigests:  true,
			},
		},
	}
}

// Load attempts to load the config from the given path, options missing in
// the file keep their default values.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", path)
	}

	configData, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return LoadBytes(configData)
}

// LoadBytes parses the config from the given YAML data, see Load.
func LoadBytes(configData []byte) (Config, error) {
	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err := decoder.Decode(&config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.ApplicationConfiguration.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}
