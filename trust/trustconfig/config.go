// Copyright 2021 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package trustconfig contains the configuration of the trustless ledger service.
package trustconfig

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"

	"github.com/probeum/go-trustless/core"
	"github.com/probeum/go-trustless/params"
)

// Defaults contains default settings for a local ledger.
var Defaults = Config{
	DatabaseCache:   128,
	DatabaseHandles: 256,
	Registry:        params.DefaultRegistryConfig,
	RecordCache:     core.DefaultLedgerConfig.RecordCache,
	SignerCache:     core.DefaultLedgerConfig.SignerCache,
	HTTPHost:        "localhost",
	HTTPPort:        8645,
	HTTPCors:        []string{"localhost"},
	HTTPRateLimit:   50,
	HTTPRateBurst:   100,
}

func init() {
	home := os.Getenv("HOME")
	if home == "" {
		if user, err := user.Current(); err == nil {
			home = user.HomeDir
		}
	}
	switch runtime.GOOS {
	case "darwin":
		Defaults.DataDir = filepath.Join(home, "Library", "Trustless")
	case "windows":
		if localappdata := os.Getenv("LOCALAPPDATA"); localappdata != "" {
			Defaults.DataDir = filepath.Join(localappdata, "Trustless")
		} else {
			Defaults.DataDir = filepath.Join(home, "AppData", "Local", "Trustless")
		}
	default:
		Defaults.DataDir = filepath.Join(home, ".trustless")
	}
}

// Config contains configuration options of the ledger service.
type Config struct {
	// The genesis, which is written if the database is empty. If nil, an
	// empty default genesis is used.
	Genesis *core.Genesis `toml:",omitempty"`

	// Database options. An empty DataDir keeps the ledger in memory.
	DataDir         string
	DatabaseCache   int
	DatabaseHandles int

	// Ledger options
	Registry    *params.RegistryConfig
	RecordCache int
	SignerCache int

	// HTTP API options. An empty host disables the server.
	HTTPHost      string
	HTTPPort      int
	HTTPCors      []string `toml:",omitempty"`
	HTTPRateLimit float64  // Requests per second, zero for unlimited
	HTTPRateBurst int

	// Metrics exposes the metrics registry on /debug/metrics/prometheus.
	Metrics bool
}

// LedgerConfig returns the ledger settings of the configuration.
func (c *Config) LedgerConfig() core.LedgerConfig {
	config := core.DefaultLedgerConfig
	if c.Registry != nil {
		config.Registry = c.Registry
	}
	config.RecordCache = c.RecordCache
	config.SignerCache = c.SignerCache
	return config
}

// ResolvePath returns name inside the data directory, or name itself if it is
// absolute. It is empty for in-memory configurations.
func (c *Config) ResolvePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, name)
}
