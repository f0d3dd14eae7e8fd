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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/meadowlark-io/vesper/asset"
	"github.com/meadowlark-io/vesper/event"
	"github.com/prometheus/client_golang/prometheus"
)

// EpochSource provides the current epoch number. Satisfied by *epoch.Clock.
type EpochSource interface {
	Current() uint64
}

const (
	// DefaultMinLockEpochs is the shortest allowed lock duration
	DefaultMinLockEpochs = 4
	// DefaultMaxLockEpochs is the longest allowed lock duration: four years
	// of weekly epochs
	DefaultMaxLockEpochs = 4 * 52
)

// StakeLedgerConfig holds configuration for the StakeLedger
type StakeLedgerConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Clock        EpochSource
	Asset        asset.Asset
	Vault        asset.AccountId
	Store        Store
	// Lock duration bounds in epochs (0 = use default)
	MinLockEpochs uint64
	MaxLockEpochs uint64
}

// StakeLedger owns one Stake per account plus the aggregate Stake across all
// accounts. Locked principal is held by the vault account on the external
// asset ledger. Every command is linearized under a single lock: decay line
// replay is not associative across interleaved mutations, so concurrent
// calls must never interleave.
type StakeLedger struct {
	config   StakeLedgerConfig
	logger   *slog.Logger
	eventBus *event.EventBus
	clock    EpochSource
	asset    asset.Asset
	store    Store
	metrics  ledgerMetrics
	accounts map[asset.AccountId]*Stake
	total    *Stake
	mu       sync.RWMutex
}

// NewStakeLedger creates a StakeLedger, restoring any previously persisted
// stakes from the configured store.
func NewStakeLedger(config StakeLedgerConfig) (*StakeLedger, error) {
	if config.Clock == nil {
		return nil, errors.New("no epoch clock provided")
	}
	if config.Asset == nil {
		return nil, errors.New("no asset interface provided")
	}
	if config.MinLockEpochs == 0 {
		config.MinLockEpochs = DefaultMinLockEpochs
	}
	if config.MaxLockEpochs == 0 {
		config.MaxLockEpochs = DefaultMaxLockEpochs
	}
	l := &StakeLedger{
		config:   config,
		eventBus: config.EventBus,
		clock:    config.Clock,
		asset:    config.Asset,
		store:    config.Store,
		accounts: make(map[asset.AccountId]*Stake),
		total:    newStake(config.Clock.Current()),
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		l.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		l.logger = config.Logger
	}
	l.metrics.init(config.PromRegistry)
	if l.store != nil {
		if err := l.restore(); err != nil {
			return nil, fmt.Errorf("restore stakes: %w", err)
		}
	}
	return l, nil
}

func (l *StakeLedger) restore() error {
	records, err := l.store.Stakes()
	if err != nil {
		return err
	}
	for _, record := range records {
		if record.Account == AggregateStakeKey {
			l.total = stakeFromRecord(record)
			continue
		}
		l.accounts[asset.AccountId(record.Account)] = stakeFromRecord(record)
	}
	l.metrics.lockedSupply.Set(float64(l.total.deposited))
	l.metrics.totalPower.Set(float64(l.total.line.Bias))
	l.logger.Info(
		"restored stakes",
		"component", "ledger",
		"accounts", len(l.accounts),
		"locked_supply", l.total.deposited,
	)
	return nil
}

// Lock escrows amount from the account for durationEpochs epochs. The full
// amount counts as voting power immediately and decays linearly to zero by
// amount/durationEpochs (floored) per epoch. All numeric updates are staged
// on copies and only installed after the external asset transfer succeeds,
// so a failure at any point leaves no partial state.
func (l *StakeLedger) Lock(
	account asset.AccountId,
	amount uint64,
	durationEpochs uint64,
) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if durationEpochs < l.config.MinLockEpochs ||
		durationEpochs > l.config.MaxLockEpochs {
		return InvalidDurationError{
			Duration: durationEpochs,
			Min:      l.config.MinLockEpochs,
			Max:      l.config.MaxLockEpochs,
		}
	}
	if amount == 0 || amount > math.MaxInt64 {
		return InvalidAmountError{Amount: amount}
	}
	currentEpoch := l.clock.Current()
	slope := int64(amount / durationEpochs) //nolint:gosec
	// Stage updates on copies so a failure commits nothing
	acctStake := newStake(currentEpoch)
	if existing, ok := l.accounts[account]; ok {
		acctStake = existing.clone()
	}
	totalStake := l.total.clone()
	acctStake.registerLock(currentEpoch, amount, slope, durationEpochs)
	totalStake.registerLock(currentEpoch, amount, slope, durationEpochs)
	if err := acctStake.commitAdvance(currentEpoch); err != nil {
		return err
	}
	if err := totalStake.commitAdvance(currentEpoch); err != nil {
		return err
	}
	// External interaction happens last, before the staged state is installed
	if err := l.asset.TransferFrom(account, l.config.Vault, amount); err != nil {
		return TransferError{Op: "lock", Err: err}
	}
	l.accounts[account] = acctStake
	l.total = totalStake
	l.persist(account, acctStake, totalStake)
	l.metrics.locksTotal.Inc()
	l.metrics.lockedSupply.Set(float64(totalStake.deposited))
	l.metrics.totalPower.Set(float64(totalStake.line.Bias))
	l.logger.Debug(
		"locked stake",
		"component", "ledger",
		"account", account,
		"amount", amount,
		"duration_epochs", durationEpochs,
		"epoch", currentEpoch,
	)
	if l.eventBus != nil {
		l.eventBus.Publish(
			LockEventType,
			event.NewEvent(
				LockEventType,
				LockEvent{
					Account:        account,
					Amount:         amount,
					DurationEpochs: durationEpochs,
					Slope:          slope,
					Epoch:          currentEpoch,
				},
			),
		)
	}
	return nil
}

// Unlock returns the principal whose decay ramps have fully expired back to
// the account and reports the amount withdrawn. Calling it again before more
// locks expire withdraws zero and is not an error.
func (l *StakeLedger) Unlock(account asset.AccountId) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stake, ok := l.accounts[account]
	if !ok {
		// Nothing ever locked, nothing to withdraw
		return 0, nil
	}
	currentEpoch := l.clock.Current()
	acctStake := stake.clone()
	if err := acctStake.commitAdvance(currentEpoch); err != nil {
		return 0, err
	}
	totalStake := l.total.clone()
	if err := totalStake.commitAdvance(currentEpoch); err != nil {
		return 0, err
	}
	if acctStake.line.Bias > acctStake.deposited {
		return 0, fmt.Errorf(
			"%w: bias %d exceeds deposited principal %d",
			ErrArithmeticUnderflow,
			acctStake.line.Bias,
			acctStake.deposited,
		)
	}
	// Principal no longer represented by any remaining decay ramp
	withdrawable := acctStake.deposited - acctStake.line.Bias
	if withdrawable > 0 {
		// Transfer before committing the decrement: a failed transfer must
		// leave the stake record untouched
		if err := l.asset.Transfer(account, withdrawable); err != nil {
			return 0, TransferError{Op: "unlock", Err: err}
		}
		acctStake.deposited -= withdrawable
		totalStake.deposited -= withdrawable
	}
	l.accounts[account] = acctStake
	l.total = totalStake
	l.persist(account, acctStake, totalStake)
	l.metrics.lockedSupply.Set(float64(totalStake.deposited))
	l.metrics.totalPower.Set(float64(totalStake.line.Bias))
	if withdrawable > 0 {
		l.metrics.unlocksTotal.Inc()
		l.logger.Debug(
			"unlocked stake",
			"component", "ledger",
			"account", account,
			"amount", withdrawable,
			"epoch", currentEpoch,
		)
		if l.eventBus != nil {
			l.eventBus.Publish(
				UnlockEventType,
				event.NewEvent(
					UnlockEventType,
					UnlockEvent{
						Account: account,
						Amount:  withdrawable,
						Epoch:   currentEpoch,
					},
				),
			)
		}
	}
	return withdrawable, nil
}

// VotingPowerAt returns the account's voting power at the given epoch
// without mutating any state.
func (l *StakeLedger) VotingPowerAt(
	account asset.AccountId,
	epochNum uint64,
) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	stake, ok := l.accounts[account]
	if !ok {
		return 0, nil
	}
	line, err := stake.LineAt(epochNum)
	if err != nil {
		return 0, err
	}
	return line.Bias, nil
}

// CurrentVotingPower returns the account's voting power at the current epoch
func (l *StakeLedger) CurrentVotingPower(
	account asset.AccountId,
) (uint64, error) {
	return l.VotingPowerAt(account, l.clock.Current())
}

// TotalVotingPowerAt returns the aggregate voting power across all accounts
// at the given epoch.
func (l *StakeLedger) TotalVotingPowerAt(epochNum uint64) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	line, err := l.total.LineAt(epochNum)
	if err != nil {
		return 0, err
	}
	return line.Bias, nil
}

// CurrentTotalVotingPower returns the aggregate voting power at the current
// epoch.
func (l *StakeLedger) CurrentTotalVotingPower() (uint64, error) {
	return l.TotalVotingPowerAt(l.clock.Current())
}

// Deposited returns the principal still locked for the account
func (l *StakeLedger) Deposited(account asset.AccountId) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	stake, ok := l.accounts[account]
	if !ok {
		return 0
	}
	return stake.deposited
}

// TotalDeposited returns the principal still locked across all accounts
func (l *StakeLedger) TotalDeposited() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total.deposited
}

// HandleEpochTransition refreshes the epoch-driven metrics. Called by the
// node when the epoch ticker fires; stake state itself advances lazily on
// the next command.
func (l *StakeLedger) HandleEpochTransition(epochNum uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.metrics.currentEpoch.Set(float64(epochNum))
	line, err := l.total.LineAt(epochNum)
	if err != nil {
		l.logger.Error(
			"failed to compute total power at epoch transition",
			"component", "ledger",
			"epoch", epochNum,
			"error", err,
		)
		return
	}
	l.metrics.totalPower.Set(float64(line.Bias))
}

// persist writes the account and aggregate stakes through to the store.
// Persistence failures are logged rather than failing the already-committed
// operation; the store is a write-through copy of in-memory state.
func (l *StakeLedger) persist(
	account asset.AccountId,
	acctStake *Stake,
	totalStake *Stake,
) {
	if l.store == nil {
		return
	}
	if err := l.store.PutStake(recordFromStake(string(account), acctStake)); err != nil {
		l.logger.Error(
			"failed to persist stake",
			"component", "ledger",
			"account", account,
			"error", err,
		)
	}
	if err := l.store.PutStake(recordFromStake(AggregateStakeKey, totalStake)); err != nil {
		l.logger.Error(
			"failed to persist aggregate stake",
			"component", "ledger",
			"error", err,
		)
	}
}
