package config

import (
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/dot-go/pkg/crypto/hash"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load("./testdata")
	require.NoError(t, err)

	a := cfg.ApplicationConfiguration
	require.Equal(t, "debug", a.LogLevel)
	require.Equal(t, "boltdb", a.DBConfiguration.Type)
	require.Equal(t, "./chains/state.bolt", a.DBConfiguration.BoltDBOptions.FilePath)
	require.Equal(t, Trie{NodeCacheSize: 100, StateVersion: 1, Hasher: hash.Keccak256Name}, a.Trie)
	require.True(t, a.Prometheus.Enabled)
	require.Equal(t, []string{":2112"}, a.Prometheus.Addresses)
}

func TestLoadFile(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
	})
	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadFile("./testdata/unknown_field.yml")
		require.Error(t, err)
	})
}

func TestDecodeDefaults(t *testing.T) {
	cfg, err := Decode(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	cfg, err = Decode([]byte("ApplicationConfiguration:\n  LogLevel: warn\n"))
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.ApplicationConfiguration.LogLevel)
	require.Equal(t, "inmemory", cfg.ApplicationConfiguration.DBConfiguration.Type)
	require.Equal(t, DefaultNodeCacheSize, cfg.ApplicationConfiguration.Trie.NodeCacheSize)
	require.Equal(t, DefaultHasher, cfg.ApplicationConfiguration.Trie.Hasher)
}

func TestApplicationConfiguration_Validate(t *testing.T) {
	valid := Default().ApplicationConfiguration
	require.NoError(t, valid.Validate())

	testCases := map[string]func(a *ApplicationConfiguration){
		"log encoding":   func(a *ApplicationConfiguration) { a.LogEncoding = "xml" },
		"db type":        func(a *ApplicationConfiguration) { a.DBConfiguration.Type = "redis" },
		"negative cache": func(a *ApplicationConfiguration) { a.Trie.NodeCacheSize = -1 },
		"state version":  func(a *ApplicationConfiguration) { a.Trie.StateVersion = 2 },
		"unknown hasher": func(a *ApplicationConfiguration) { a.Trie.Hasher = "sha256" },
	}
	for name, f := range testCases {
		t.Run(name, func(t *testing.T) {
			a := Default().ApplicationConfiguration
			f(&a)
			require.Error(t, a.Validate())
		})
	}
}
