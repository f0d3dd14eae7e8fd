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
)

var (
	// ErrArithmeticUnderflow is returned when a decay line replay step would
	// drive the bias below zero. The bias represents conserved locked value,
	// so wrapping here would corrupt accounting; the triggering operation is
	// aborted with no state change instead.
	ErrArithmeticUnderflow = errors.New("arithmetic underflow in line replay")

	// ErrArithmeticOverflow is returned when a replay step or lock
	// registration would overflow the bias accumulator.
	ErrArithmeticOverflow = errors.New("arithmetic overflow in line replay")

	// ErrEpochRegression is returned when a mutating advance targets an epoch
	// earlier than the line's current anchor.
	ErrEpochRegression = errors.New("mutating advance to an earlier epoch")
)

// InvalidDurationError is returned when a lock duration falls outside the
// allowed epoch bounds.
type InvalidDurationError struct {
	Duration uint64
	Min      uint64
	Max      uint64
}

func (e InvalidDurationError) Error() string {
	return fmt.Sprintf(
		"invalid lock duration: %d epochs (allowed range %d-%d)",
		e.Duration,
		e.Min,
		e.Max,
	)
}

// InvalidAmountError is returned when a lock amount cannot be represented in
// the decay line's slope accounting.
type InvalidAmountError struct {
	Amount uint64
}

func (e InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid lock amount: %d", e.Amount)
}

// TransferError is returned when the external asset call reports failure.
// The triggering operation is fully reverted; no stake state is committed.
type TransferError struct {
	Op  string
	Err error
}

func (e TransferError) Error() string {
	return fmt.Sprintf("asset transfer failed during %s: %v", e.Op, e.Err)
}

func (e TransferError) Unwrap() error {
	return e.Err
}
