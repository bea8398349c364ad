package config

import (
	"fmt"

	"github.com/nspcc-dev/dot-go/pkg/core/storage/dbconfig"
)

// ApplicationConfiguration config specific to the tool.
type ApplicationConfiguration struct {
	// LogLevel is the minimal logged level (debug, info, warn, error),
	// info is used by default.
	LogLevel string `yaml:"LogLevel"`
	LogPath  string `yaml:"LogPath"`
	// LogEncoding is either "console" (default) or "json".
	LogEncoding     string                   `yaml:"LogEncoding"`
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`
	Trie            Trie                     `yaml:"Trie"`
	Pprof           BasicService             `yaml:"Pprof"`
	Prometheus      BasicService             `yaml:"Prometheus"`
}

// Validate checks ApplicationConfiguration for internal consistency and
// returns an error if any invalid settings are found.
func (a *ApplicationConfiguration) Validate() error {
	switch a.LogEncoding {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid LogEncoding: %s", a.LogEncoding)
	}
	switch a.DBConfiguration.Type {
	case "leveldb", "boltdb", "inmemory":
	default:
		return fmt.Errorf("unknown DB type: %q", a.DBConfiguration.Type)
	}
	if err := a.Trie.Validate(); err != nil {
		return fmt.Errorf("invalid Trie configuration: %w", err)
	}
	return nil
}
