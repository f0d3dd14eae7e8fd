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

package asset

import (
	"fmt"
	"sync"
)

// AccountId identifies a holder of the underlying fungible asset. The same
// identifier namespace is used by the stake ledger and governance.
type AccountId string

// Asset is the external asset interface consumed by the stake ledger. A
// handle is bound to a single holder: Transfer moves funds out of that
// holder's balance, TransferFrom moves funds between third parties using
// the holder's allowance. Both conserve total supply and fail (rather than
// silently no-op) on insufficient balance or allowance.
type Asset interface {
	Transfer(to AccountId, amount uint64) error
	TransferFrom(from, to AccountId, amount uint64) error
}

// InsufficientBalanceError is returned when a transfer exceeds the sender's
// balance.
type InsufficientBalanceError struct {
	Account AccountId
	Balance uint64
	Amount  uint64
}

func (e InsufficientBalanceError) Error() string {
	return fmt.Sprintf(
		"insufficient balance: account %s holds %d, transfer of %d requested",
		e.Account,
		e.Balance,
		e.Amount,
	)
}

// InsufficientAllowanceError is returned when a TransferFrom exceeds the
// allowance granted to the spender by the source account.
type InsufficientAllowanceError struct {
	Owner     AccountId
	Spender   AccountId
	Allowance uint64
	Amount    uint64
}

func (e InsufficientAllowanceError) Error() string {
	return fmt.Sprintf(
		"insufficient allowance: %s granted %d to %s, transfer of %d requested",
		e.Owner,
		e.Allowance,
		e.Spender,
		e.Amount,
	)
}

type allowanceKey struct {
	owner   AccountId
	spender AccountId
}

// TokenLedger is an in-memory fungible asset ledger. It exists to give the
// stake ledger a concrete Asset to operate against in tests and in
// single-process deployments; any implementation with standard
// conservation-of-balance semantics can stand in for it.
type TokenLedger struct {
	balances   map[AccountId]uint64
	allowances map[allowanceKey]uint64
	supply     uint64
	mu         sync.Mutex
}

// NewTokenLedger creates a token ledger with the given initial allocations.
// Total supply is the sum of all allocations and is conserved by every
// subsequent operation.
func NewTokenLedger(allocations map[AccountId]uint64) *TokenLedger {
	t := &TokenLedger{
		balances:   make(map[AccountId]uint64),
		allowances: make(map[allowanceKey]uint64),
	}
	for account, amount := range allocations {
		t.balances[account] += amount
		t.supply += amount
	}
	return t
}

// Balance returns the current balance for an account.
func (t *TokenLedger) Balance(account AccountId) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[account]
}

// TotalSupply returns the fixed total supply.
func (t *TokenLedger) TotalSupply() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.supply
}

// Approve grants spender permission to move up to amount out of owner's
// balance via TransferFrom. A second call replaces the previous allowance.
func (t *TokenLedger) Approve(owner, spender AccountId, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allowances[allowanceKey{owner: owner, spender: spender}] = amount
}

// Allowance returns the remaining allowance from owner to spender.
func (t *TokenLedger) Allowance(owner, spender AccountId) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allowances[allowanceKey{owner: owner, spender: spender}]
}

// Bind returns an Asset handle scoped to the given holder. Transfer debits
// the holder; TransferFrom spends the holder's allowance on the source
// account.
func (t *TokenLedger) Bind(holder AccountId) Asset {
	return &boundAsset{ledger: t, holder: holder}
}

func (t *TokenLedger) transfer(from, to AccountId, amount uint64) error {
	balance := t.balances[from]
	if balance < amount {
		return InsufficientBalanceError{
			Account: from,
			Balance: balance,
			Amount:  amount,
		}
	}
	t.balances[from] = balance - amount
	t.balances[to] += amount
	return nil
}

type boundAsset struct {
	ledger *TokenLedger
	holder AccountId
}

func (a *boundAsset) Transfer(to AccountId, amount uint64) error {
	a.ledger.mu.Lock()
	defer a.ledger.mu.Unlock()
	return a.ledger.transfer(a.holder, to, amount)
}

func (a *boundAsset) TransferFrom(from, to AccountId, amount uint64) error {
	a.ledger.mu.Lock()
	defer a.ledger.mu.Unlock()
	key := allowanceKey{owner: from, spender: a.holder}
	allowance := a.ledger.allowances[key]
	if allowance < amount {
		return InsufficientAllowanceError{
			Owner:     from,
			Spender:   a.holder,
			Allowance: allowance,
			Amount:    amount,
		}
	}
	if err := a.ledger.transfer(from, to, amount); err != nil {
		return err
	}
	a.ledger.allowances[key] = allowance - amount
	return nil
}
