package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nspcc-dev/dot-go/pkg/core/storage/dbconfig"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the name of the configuration file looked up by Load.
const DefaultConfigFile = "dot-go.yml"

// Version is the version of the tool, set at build time.
var Version string

// Config top level struct representing the config for the tool.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Load attempts to load the config from the DefaultConfigFile in the given
// directory.
func Load(path string) (Config, error) {
	return LoadFile(filepath.Join(path, DefaultConfigFile))
}

// LoadFile loads config from the provided path. Unknown fields are not
// allowed, missing ones are filled with defaults.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Decode(configData)
}

// Decode parses YAML config data, applies defaults and validates the result.
func Decode(data []byte) (Config, error) {
	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.ApplicationConfiguration.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			DBConfiguration: dbconfig.DBConfiguration{
				Type: "inmemory",
			},
			Trie: Trie{
				NodeCacheSize: DefaultNodeCacheSize,
				Hasher:        DefaultHasher,
			},
		},
	}
}
