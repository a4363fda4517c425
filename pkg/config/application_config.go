package config

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/core/storage/dbconfig"
)

// Default cache sizes in entries.
const (
	DefaultNodeCacheSize  = 10000
	DefaultValueCacheSize = 1000
)

// ApplicationConfiguration config specific to the tool.
type ApplicationConfiguration struct {
	LogLevel        string                   `yaml:"LogLevel"`
	LogPath         string                   `yaml:"LogPath"`
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`
	Trie            Trie                     `yaml:"Trie"`
	Prometheus      BasicService             `yaml:"Prometheus"`
	Pprof           BasicService             `yaml:"Pprof"`
}

// Trie contains trie storage settings.
type Trie struct {
	// NodeCacheSize is the number of encoded nodes kept in memory, zero
	// disables caching.
	NodeCacheSize int `yaml:"NodeCacheSize"`
	// ValueCacheSize is the number of values kept in memory, zero disables
	// caching.
	ValueCacheSize int `yaml:"ValueCacheSize"`
	// VerifyDigests enables hash checks for everything read from and
	// written to the store.
	VerifyDigests bool `yaml:"VerifyDigests"`
	// CompressValues enables lz4 compression of stored values.
	CompressValues bool `yaml:"CompressValues"`
}

// Validate checks ApplicationConfiguration for internal consistency and returns
// an error if any invalid settings are found.
func (a *ApplicationConfiguration) Validate() error {
	switch a.DBConfiguration.Type {
	case dbconfig.LevelDB, dbconfig.BoltDB, dbconfig.InMemoryDB:
	default:
		return fmt.Errorf("invalid DBConfiguration.Type: %q", a.DBConfiguration.Type)
	}
	if a.Trie.NodeCacheSize < 0 || a.Trie.ValueCacheSize < 0 {
		return errors.New("negative Trie cache size")
	}
	if a.Prometheus.Enabled && len(a.Prometheus.Addresses) == 0 {
		return errors.New("no Prometheus addresses specified")
	}
	if a.Pprof.Enabled && len(a.Pprof.Addresses) == 0 {
		return errors.New("no Pprof addresses specified")
	}
	return nil
}
