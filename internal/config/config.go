// Copyright 2025 Meadowlark Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "vesper.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	DataDir          string            `yaml:"dataDir"          split_words:"true"`
	BindAddr         string            `yaml:"bindAddr"         split_words:"true"`
	ApiPort          uint              `yaml:"apiPort"          split_words:"true"`
	MetricsPort      uint              `yaml:"metricsPort"      split_words:"true"`
	EpochOrigin      int64             `yaml:"epochOrigin"      split_words:"true"`
	EpochWidth       string            `yaml:"epochWidth"       split_words:"true"`
	VaultAccount     string            `yaml:"vaultAccount"     split_words:"true"`
	MinLockEpochs    uint64            `yaml:"minLockEpochs"    split_words:"true"`
	MaxLockEpochs    uint64            `yaml:"maxLockEpochs"    split_words:"true"`
	ProposalDivisor  uint64            `yaml:"proposalDivisor"  split_words:"true"`
	VoteWindowEpochs uint64            `yaml:"voteWindowEpochs" split_words:"true"`
	ShutdownTimeout  string            `yaml:"shutdownTimeout"  split_words:"true"`
	Allocations      map[string]uint64 `yaml:"allocations"`
}

var globalConfig = &Config{
	DataDir:         ".vesper",
	BindAddr:        "0.0.0.0",
	ApiPort:         8080,
	MetricsPort:     12798,
	EpochWidth:      "168h",
	VaultAccount:    "vault",
	ShutdownTimeout: DefaultShutdownTimeout,
}

// LoadConfig loads the config file (if any) as YAML, then overlays
// environment variables on top.
func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		// Check for config file in this path: ~/.vesper/vesper.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".vesper", "vesper.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		// Try to check for /etc/vesper/vesper.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/vesper/vesper.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Overlay config values onto existing defaults
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process("vesper", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	return globalConfig, nil
}

// GetConfig returns the global config
func GetConfig() *Config {
	return globalConfig
}
