package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/statetrie/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

const testConfigPath = "../../config"

func TestLoad(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
	})

	t.Run("default file", func(t *testing.T) {
		cfg, err := Load(filepath.Join(testConfigPath, "statetrie.yml"))
		require.NoError(t, err)
		a := cfg.ApplicationConfiguration
		require.Equal(t, dbconfig.LevelDB, a.DBConfiguration.Type)
		require.Equal(t, "./chains/state", a.DBConfiguration.LevelDBOptions.DataDirectoryPath)
		require.Equal(t, 10000, a.Trie.NodeCacheSize)
		require.True(t, a.Trie.VerifyDigests)
		require.False(t, a.Prometheus.Enabled)
		require.Equal(t, []string{":2112"}, a.Prometheus.Addresses)
		require.Equal(t, []string{":2113"}, a.Pprof.Addresses)
	})

	t.Run("unit test config", func(t *testing.T) {
		cfg, err := Load(filepath.Join(testConfigPath, "statetrie.unit_testdb.yml"))
		require.NoError(t, err)
		require.Equal(t, dbconfig.InMemoryDB, cfg.ApplicationConfiguration.DBConfiguration.Type)
		require.True(t, cfg.ApplicationConfiguration.Trie.CompressValues)
	})

	t.Run("defaults kept", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "cfg.yml")
		require.NoError(t, os.WriteFile(p, []byte("ApplicationConfiguration:\n  LogLevel: debug\n"), 0o644))
		cfg, err := Load(p)
		require.NoError(t, err)
		require.Equal(t, "debug", cfg.ApplicationConfiguration.LogLevel)
		require.Equal(t, dbconfig.InMemoryDB, cfg.ApplicationConfiguration.DBConfiguration.Type)
		require.Equal(t, DefaultNodeCacheSize, cfg.ApplicationConfiguration.Trie.NodeCacheSize)
		require.True(t, cfg.ApplicationConfiguration.Trie.VerifyDigests)
	})
}

func TestLoadBytesInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"unknown field":  "ApplicationConfiguration:\n  Unknown: 1\n",
		"bad yaml":       "ApplicationConfiguration: [",
		"bad db type":    "ApplicationConfiguration:\n  DBConfiguration:\n    Type: redis\n",
		"negative cache": "ApplicationConfiguration:\n  Trie:\n    NodeCacheSize: -1\n",
		"no prom addrs":  "ApplicationConfiguration:\n  Prometheus:\n    Enabled: true\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadBytes([]byte(data))
			require.Error(t, err)
		})
	}
}

func TestBasicService_GetAddresses(t *testing.T) {
	s := BasicService{Addresses: []string{":2112", "localhost:2113", ":2112"}}
	require.Equal(t, []string{":2112", "localhost:2113"}, s.GetAddresses())
	require.Empty(t, BasicService{}.GetAddresses())
}
