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
	"testing"
	"time"

	"github.com/meadowlark-io/vesper/asset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestConfigValidation(t *testing.T) {
	// Vault cannot hold an initial allocation
	_, err := New(NewConfig(
		WithAllocations(map[asset.AccountId]uint64{
			DefaultVaultAccount: 1000,
		}),
	))
	require.Error(t, err)

	// Inverted lock bounds
	_, err = New(NewConfig(WithLockBounds(10, 5)))
	require.Error(t, err)
}

func TestNodeComponentWiring(t *testing.T) {
	n, err := New(NewConfig(
		WithDataDir(t.TempDir()),
		WithAllocations(map[asset.AccountId]uint64{
			"alice": 10_000,
			"bob":   5_000,
		}),
	))
	require.NoError(t, err)
	defer func() {
		_ = n.db.Close()
	}()

	n.Tokens().Approve("alice", DefaultVaultAccount, 10_000)
	require.NoError(t, n.StakeLedger().Lock("alice", 1000, 10))

	power, err := n.StakeLedger().CurrentVotingPower("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), power)
	assert.Equal(t, uint64(9_000), n.Tokens().Balance("alice"))
	assert.Equal(t, uint64(1_000), n.Tokens().Balance(DefaultVaultAccount))

	// Alice holds all voting power, so the proposal threshold is met
	id, err := n.Governance().CreateProposal("alice", "noop")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestNodeStateSurvivesRestart(t *testing.T) {
	dataDir := t.TempDir()
	cfgOpts := []ConfigOptionFunc{
		WithDataDir(dataDir),
		WithAllocations(map[asset.AccountId]uint64{"alice": 10_000}),
	}
	n, err := New(NewConfig(cfgOpts...))
	require.NoError(t, err)
	n.Tokens().Approve("alice", DefaultVaultAccount, 10_000)
	require.NoError(t, n.StakeLedger().Lock("alice", 1000, 10))
	id, err := n.Governance().CreateProposal("alice", "noop")
	require.NoError(t, err)
	require.NoError(t, n.db.Close())

	restarted, err := New(NewConfig(cfgOpts...))
	require.NoError(t, err)
	defer func() {
		_ = restarted.db.Close()
	}()
	power, err := restarted.StakeLedger().CurrentVotingPower("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), power)
	assert.Equal(t, uint64(1000), restarted.StakeLedger().TotalDeposited())
	proposal, err := restarted.Governance().Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, asset.AccountId("alice"), proposal.Proposer)
}

func TestNodeRunLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)
	n, err := New(NewConfig(
		WithDataDir(t.TempDir()),
		WithAllocations(map[asset.AccountId]uint64{"alice": 10_000}),
		WithShutdownTimeout(5 * time.Second),
	))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run(ctx)
	}()
	// Give the ticker and listeners time to come up before shutting down
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("node did not shut down")
	}
}
