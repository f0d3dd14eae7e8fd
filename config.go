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

package vesper

import (
	"errors"
	"log/slog"
	"time"

	"github.com/meadowlark-io/vesper/asset"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultVaultAccount is the account holding escrowed principal
const DefaultVaultAccount = asset.AccountId("vault")

type Config struct {
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	dataDir      string
	epochOrigin  time.Time
	epochWidth   time.Duration
	vaultAccount asset.AccountId
	allocations  map[asset.AccountId]uint64
	// Lock duration bounds in epochs (0 = use default)
	minLockEpochs uint64
	maxLockEpochs uint64
	// Governance parameters (0 = use default)
	minProposePowerDivisor uint64
	voteWindowEpochs       uint64
	// API listen address (empty = disabled)
	apiListenAddress string
	shutdownTimeout  time.Duration
}

// ConfigOptionFunc is a type that represents functions that modify the Node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new node config with the specified options applied.
// The epoch origin defaults to the Unix epoch so epoch numbering is stable
// across restarts without any configuration.
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		epochOrigin:  time.Unix(0, 0),
		vaultAccount: DefaultVaultAccount,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus registerer for metrics
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithDataDir specifies the persistence directory. An empty value uses an
// in-memory database.
func WithDataDir(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithEpochOrigin specifies the fixed start time of epoch 1
func WithEpochOrigin(origin time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.epochOrigin = origin
	}
}

// WithEpochWidth specifies the epoch width. This defaults to one week
func WithEpochWidth(width time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.epochWidth = width
	}
}

// WithVaultAccount specifies the account holding escrowed principal
func WithVaultAccount(account asset.AccountId) ConfigOptionFunc {
	return func(c *Config) {
		c.vaultAccount = account
	}
}

// WithAllocations specifies the initial token balances for the in-process
// token ledger.
func WithAllocations(allocations map[asset.AccountId]uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.allocations = allocations
	}
}

// WithLockBounds specifies the minimum and maximum lock duration in epochs
func WithLockBounds(minEpochs, maxEpochs uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.minLockEpochs = minEpochs
		c.maxLockEpochs = maxEpochs
	}
}

// WithProposalThresholdDivisor specifies the proposal threshold: a proposer
// must hold at least 1/divisor of total voting power.
func WithProposalThresholdDivisor(divisor uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.minProposePowerDivisor = divisor
	}
}

// WithVoteWindowEpochs specifies how many epochs a proposal accepts votes
func WithVoteWindowEpochs(epochs uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.voteWindowEpochs = epochs
	}
}

// WithApiListenAddress specifies the REST API listen address (empty = disabled)
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

func (c *Config) validate() error {
	if c.vaultAccount == "" {
		return errors.New("no vault account defined")
	}
	if _, ok := c.allocations[c.vaultAccount]; ok {
		return errors.New("vault account cannot hold an initial allocation")
	}
	if c.minLockEpochs > 0 && c.maxLockEpochs > 0 &&
		c.minLockEpochs > c.maxLockEpochs {
		return errors.New("minimum lock duration exceeds maximum")
	}
	return nil
}
