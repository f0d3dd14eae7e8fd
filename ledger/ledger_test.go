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

package ledger

import (
	"testing"

	"github.com/meadowlark-io/vesper/asset"
	"github.com/meadowlark-io/vesper/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVault = asset.AccountId("vault")

type fakeClock struct {
	epoch uint64
}

func (c *fakeClock) Current() uint64 {
	return c.epoch
}

type memStore struct {
	records map[string]StakeRecord
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]StakeRecord)}
}

func (s *memStore) PutStake(record StakeRecord) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.records[record.Account] = record
	return nil
}

func (s *memStore) Stakes() ([]StakeRecord, error) {
	ret := make([]StakeRecord, 0, len(s.records))
	for _, record := range s.records {
		ret = append(ret, record)
	}
	return ret, nil
}

func newTestLedger(
	t *testing.T,
	clock *fakeClock,
	allocations map[asset.AccountId]uint64,
) (*StakeLedger, *asset.TokenLedger) {
	t.Helper()
	tokens := asset.NewTokenLedger(allocations)
	for account := range allocations {
		tokens.Approve(account, testVault, tokens.Balance(account))
	}
	l, err := NewStakeLedger(StakeLedgerConfig{
		Clock: clock,
		Asset: tokens.Bind(testVault),
		Vault: testVault,
	})
	require.NoError(t, err)
	return l, tokens
}

func TestLockValidation(t *testing.T) {
	clock := &fakeClock{epoch: 5}
	l, _ := newTestLedger(
		t,
		clock,
		map[asset.AccountId]uint64{"alice": 10_000},
	)

	var durationErr InvalidDurationError
	err := l.Lock("alice", 1000, 3)
	require.ErrorAs(t, err, &durationErr)
	assert.Equal(t, uint64(DefaultMinLockEpochs), durationErr.Min)

	err = l.Lock("alice", 1000, DefaultMaxLockEpochs+1)
	assert.ErrorAs(t, err, &durationErr)

	var amountErr InvalidAmountError
	err = l.Lock("alice", 0, 10)
	assert.ErrorAs(t, err, &amountErr)

	// Nothing was escrowed by the rejected calls
	assert.Equal(t, uint64(0), l.Deposited("alice"))
}

func TestLockMovesPrincipalToVault(t *testing.T) {
	clock := &fakeClock{epoch: 5}
	l, tokens := newTestLedger(
		t,
		clock,
		map[asset.AccountId]uint64{"alice": 10_000},
	)
	require.NoError(t, l.Lock("alice", 1000, 10))

	assert.Equal(t, uint64(9_000), tokens.Balance("alice"))
	assert.Equal(t, uint64(1_000), tokens.Balance(testVault))
	assert.Equal(t, uint64(1_000), l.Deposited("alice"))
	assert.Equal(t, uint64(1_000), l.TotalDeposited())
}

func TestLockDecaySchedule(t *testing.T) {
	clock := &fakeClock{epoch: 5}
	l, _ := newTestLedger(
		t,
		clock,
		map[asset.AccountId]uint64{"alice": 10_000},
	)
	require.NoError(t, l.Lock("alice", 1000, 10))

	power, err := l.CurrentVotingPower("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), power)

	power, err = l.VotingPowerAt("alice", 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), power)

	power, err = l.VotingPowerAt("alice", 15)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), power)

	// Accounts that never locked have zero power
	power, err = l.CurrentVotingPower("nobody")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), power)
}

func TestAggregateMatchesAccountSum(t *testing.T) {
	clock := &fakeClock{epoch: 1}
	l, _ := newTestLedger(t, clock, map[asset.AccountId]uint64{
		"alice": 10_000,
		"bob":   10_000,
		"carol": 10_000,
	})

	accounts := []asset.AccountId{"alice", "bob", "carol"}
	checkInvariant := func(from, to uint64) {
		t.Helper()
		for e := from; e <= to; e++ {
			var sum uint64
			for _, account := range accounts {
				power, err := l.VotingPowerAt(account, e)
				require.NoError(t, err)
				sum += power
			}
			total, err := l.TotalVotingPowerAt(e)
			require.NoError(t, err)
			assert.Equalf(t, sum, total, "aggregate power at epoch %d", e)
		}
		var deposited uint64
		for _, account := range accounts {
			deposited += l.Deposited(account)
		}
		assert.Equal(t, deposited, l.TotalDeposited())
	}

	require.NoError(t, l.Lock("alice", 1000, 10))
	clock.epoch = 3
	require.NoError(t, l.Lock("bob", 4400, 8))
	checkInvariant(3, 20)

	// Partial vest: half of alice's first ramp has decayed by epoch 6
	clock.epoch = 6
	withdrawn, err := l.Unlock("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), withdrawn)
	require.NoError(t, l.Lock("carol", 36, 4))
	require.NoError(t, l.Lock("alice", 700, 5))
	checkInvariant(6, 20)

	// Full expiry: bob's ramp ends at epoch 11, carol's at 10
	clock.epoch = 12
	withdrawn, err = l.Unlock("bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(4400), withdrawn)
	withdrawn, err = l.Unlock("carol")
	require.NoError(t, err)
	assert.Equal(t, uint64(36), withdrawn)
	checkInvariant(12, 20)

	// An unlock with nothing vested leaves the invariant untouched
	withdrawn, err = l.Unlock("carol")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), withdrawn)
	checkInvariant(12, 20)
}

func TestUnlockAfterExpiry(t *testing.T) {
	clock := &fakeClock{epoch: 5}
	l, tokens := newTestLedger(
		t,
		clock,
		map[asset.AccountId]uint64{"alice": 10_000},
	)
	require.NoError(t, l.Lock("alice", 1000, 10))

	// Halfway through the ramp, half the principal has vested out
	clock.epoch = 10
	withdrawn, err := l.Unlock("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), withdrawn)
	assert.Equal(t, uint64(9_500), tokens.Balance("alice"))

	clock.epoch = 15
	withdrawn, err = l.Unlock("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), withdrawn)
	assert.Equal(t, uint64(10_000), tokens.Balance("alice"))
	assert.Equal(t, uint64(0), tokens.Balance(testVault))
	assert.Equal(t, uint64(0), l.Deposited("alice"))
	assert.Equal(t, uint64(0), l.TotalDeposited())

	// Repeating the call withdraws nothing and is not an error
	withdrawn, err = l.Unlock("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), withdrawn)

	// Unknown accounts withdraw nothing
	withdrawn, err = l.Unlock("nobody")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), withdrawn)
}

func TestUnlockDustStaysEscrowed(t *testing.T) {
	// 1000/7 floors to 142, leaving 6 of bias that never decays
	clock := &fakeClock{epoch: 1}
	l, tokens := newTestLedger(
		t,
		clock,
		map[asset.AccountId]uint64{"alice": 10_000},
	)
	require.NoError(t, l.Lock("alice", 1000, 7))

	clock.epoch = 100
	withdrawn, err := l.Unlock("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(994), withdrawn)
	assert.Equal(t, uint64(6), l.Deposited("alice"))
	assert.Equal(t, uint64(6), tokens.Balance(testVault))

	power, err := l.CurrentVotingPower("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(6), power)
}

func TestLockFailedTransferCommitsNothing(t *testing.T) {
	clock := &fakeClock{epoch: 5}
	tokens := asset.NewTokenLedger(map[asset.AccountId]uint64{"alice": 10_000})
	// Allowance below the lock amount forces the escrow transfer to fail
	tokens.Approve("alice", testVault, 500)
	l, err := NewStakeLedger(StakeLedgerConfig{
		Clock: clock,
		Asset: tokens.Bind(testVault),
		Vault: testVault,
	})
	require.NoError(t, err)

	err = l.Lock("alice", 1000, 10)
	var transferErr TransferError
	require.ErrorAs(t, err, &transferErr)
	assert.Equal(t, "lock", transferErr.Op)

	assert.Equal(t, uint64(10_000), tokens.Balance("alice"))
	assert.Equal(t, uint64(0), l.Deposited("alice"))
	assert.Equal(t, uint64(0), l.TotalDeposited())
	power, err := l.CurrentVotingPower("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), power)
}

func TestLedgerEvents(t *testing.T) {
	clock := &fakeClock{epoch: 5}
	tokens := asset.NewTokenLedger(map[asset.AccountId]uint64{"alice": 10_000})
	tokens.Approve("alice", testVault, 10_000)
	eventBus := event.NewEventBus(nil)
	_, lockCh := eventBus.Subscribe(LockEventType)
	_, unlockCh := eventBus.Subscribe(UnlockEventType)
	l, err := NewStakeLedger(StakeLedgerConfig{
		Clock:    clock,
		Asset:    tokens.Bind(testVault),
		Vault:    testVault,
		EventBus: eventBus,
	})
	require.NoError(t, err)

	require.NoError(t, l.Lock("alice", 1000, 10))
	evt := <-lockCh
	lockEvt, ok := evt.Data.(LockEvent)
	require.True(t, ok)
	assert.Equal(t, asset.AccountId("alice"), lockEvt.Account)
	assert.Equal(t, uint64(1000), lockEvt.Amount)
	assert.Equal(t, uint64(5), lockEvt.Epoch)

	clock.epoch = 15
	_, err = l.Unlock("alice")
	require.NoError(t, err)
	evt = <-unlockCh
	unlockEvt, ok := evt.Data.(UnlockEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(1000), unlockEvt.Amount)
}

func TestLedgerStoreRoundTrip(t *testing.T) {
	clock := &fakeClock{epoch: 5}
	tokens := asset.NewTokenLedger(map[asset.AccountId]uint64{
		"alice": 10_000,
		"bob":   10_000,
	})
	tokens.Approve("alice", testVault, 10_000)
	tokens.Approve("bob", testVault, 10_000)
	store := newMemStore()
	l, err := NewStakeLedger(StakeLedgerConfig{
		Clock: clock,
		Asset: tokens.Bind(testVault),
		Vault: testVault,
		Store: store,
	})
	require.NoError(t, err)
	require.NoError(t, l.Lock("alice", 1000, 10))
	require.NoError(t, l.Lock("bob", 440, 8))

	// A fresh ledger over the same store sees identical state
	restored, err := NewStakeLedger(StakeLedgerConfig{
		Clock: clock,
		Asset: tokens.Bind(testVault),
		Vault: testVault,
		Store: store,
	})
	require.NoError(t, err)
	for e := uint64(5); e <= 16; e++ {
		for _, account := range []asset.AccountId{"alice", "bob"} {
			want, err := l.VotingPowerAt(account, e)
			require.NoError(t, err)
			got, err := restored.VotingPowerAt(account, e)
			require.NoError(t, err)
			assert.Equalf(t, want, got, "%s power at epoch %d", account, e)
		}
		wantTotal, err := l.TotalVotingPowerAt(e)
		require.NoError(t, err)
		gotTotal, err := restored.TotalVotingPowerAt(e)
		require.NoError(t, err)
		assert.Equalf(t, wantTotal, gotTotal, "total power at epoch %d", e)
	}
	assert.Equal(t, l.TotalDeposited(), restored.TotalDeposited())
}
