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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/meadowlark-io/vesper/api"
	"github.com/meadowlark-io/vesper/asset"
	"github.com/meadowlark-io/vesper/database"
	"github.com/meadowlark-io/vesper/epoch"
	"github.com/meadowlark-io/vesper/event"
	"github.com/meadowlark-io/vesper/governance"
	"github.com/meadowlark-io/vesper/ledger"
)

// EpochEventType is published on the event bus at each epoch boundary
const EpochEventType event.EventType = "epoch.transition"

// EpochEvent carries the epoch that just began
type EpochEvent struct {
	Epoch uint64
	Start time.Time
}

// Node wires the epoch clock, token ledger, stake ledger, governance module,
// persistence, and API into a single runnable unit.
type Node struct {
	config        Config
	logger        *slog.Logger
	eventBus      *event.EventBus
	clock         *epoch.Clock
	ticker        *epoch.Ticker
	tokens        *asset.TokenLedger
	stakeLedger   *ledger.StakeLedger
	governance    *governance.Governance
	db            *database.Database
	api           *api.Api
	shutdownFuncs []func(context.Context) error
	done          chan struct{}
	shutdownOnce  sync.Once
}

// New creates a Node from the given config, assembling the persistence
// layer, token ledger, stake ledger, and governance module. Listeners and
// the epoch ticker are started by Run.
func New(cfg Config) (*Node, error) {
	if cfg.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	n := &Node{
		config:   cfg,
		logger:   cfg.logger,
		eventBus: event.NewEventBus(cfg.promRegistry),
		done:     make(chan struct{}),
	}
	// Persistence
	db, err := database.New(cfg.dataDir, n.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	// Token ledger and epoch clock
	n.tokens = asset.NewTokenLedger(cfg.allocations)
	n.clock = epoch.NewClock(cfg.epochOrigin, cfg.epochWidth)
	// Stake ledger
	stakeLedger, err := ledger.NewStakeLedger(ledger.StakeLedgerConfig{
		Logger:        n.logger,
		EventBus:      n.eventBus,
		PromRegistry:  cfg.promRegistry,
		Clock:         n.clock,
		Asset:         n.tokens.Bind(cfg.vaultAccount),
		Vault:         cfg.vaultAccount,
		Store:         n.db,
		MinLockEpochs: cfg.minLockEpochs,
		MaxLockEpochs: cfg.maxLockEpochs,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load stake ledger: %w", err)
	}
	n.stakeLedger = stakeLedger
	// Governance
	gov, err := governance.NewGovernance(governance.GovernanceConfig{
		Logger:                 n.logger,
		EventBus:               n.eventBus,
		PromRegistry:           cfg.promRegistry,
		Clock:                  n.clock,
		Power:                  n.stakeLedger,
		Store:                  n.db,
		MinProposePowerDivisor: cfg.minProposePowerDivisor,
		VoteWindowEpochs:       cfg.voteWindowEpochs,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load governance: %w", err)
	}
	n.governance = gov
	// Proposals with no side effects beyond the recorded approval
	if err := gov.RegisterExecutor(
		"noop",
		governance.ExecutorFunc(func() error { return nil }),
	); err != nil {
		_ = db.Close()
		return nil, err
	}
	return n, nil
}

// Run starts the epoch ticker and listeners, then blocks until Stop is
// called or the context is cancelled.
func (n *Node) Run(ctx context.Context) error {
	n.shutdownFuncs = append(
		n.shutdownFuncs,
		func(context.Context) error {
			return n.db.Close()
		},
	)
	// Epoch boundary ticker, bridged onto the event bus
	n.ticker = epoch.NewTicker(n.clock, epoch.TickerConfig{
		Logger: n.logger,
	})
	n.ticker.Start(ctx)
	n.shutdownFuncs = append(
		n.shutdownFuncs,
		func(context.Context) error {
			n.ticker.Stop()
			return nil
		},
	)
	tickCh := n.ticker.Subscribe()
	go func() {
		for tick := range tickCh {
			n.stakeLedger.HandleEpochTransition(tick.Epoch)
			n.eventBus.Publish(
				EpochEventType,
				event.NewEvent(
					EpochEventType,
					EpochEvent{
						Epoch: tick.Epoch,
						Start: tick.Start,
					},
				),
			)
		}
	}()
	// API listener
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.ApiConfig{ListenAddress: n.config.apiListenAddress},
			&nodeAdapter{node: n},
			n.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return fmt.Errorf("failed to start API listener: %w", err)
		}
		n.shutdownFuncs = append(n.shutdownFuncs, n.api.Stop)
	}
	n.logger.Info(
		"node started",
		"component", "node",
		"epoch", n.clock.Current(),
	)
	// Wait for shutdown
	select {
	case <-ctx.Done():
		return n.Stop()
	case <-n.done:
		return nil
	}
}

// Stop gracefully shuts the node down. Safe to call more than once
func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	n.logger.Debug("starting graceful shutdown", "component", "node")
	var err error
	// Shutdown functions run in reverse order of registration: outer
	// surfaces first, persistence last
	for i := len(n.shutdownFuncs) - 1; i >= 0; i-- {
		if fnErr := n.shutdownFuncs[i](ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil
	if n.eventBus != nil {
		n.eventBus.Stop()
	}
	n.logger.Debug("graceful shutdown complete", "component", "node")
	close(n.done)
	return err
}

// StakeLedger returns the node's stake ledger
func (n *Node) StakeLedger() *ledger.StakeLedger {
	return n.stakeLedger
}

// Governance returns the node's governance module
func (n *Node) Governance() *governance.Governance {
	return n.governance
}

// Tokens returns the node's token ledger
func (n *Node) Tokens() *asset.TokenLedger {
	return n.tokens
}

// Clock returns the node's epoch clock
func (n *Node) Clock() *epoch.Clock {
	return n.clock
}

// EventBus returns the node's event bus
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}
