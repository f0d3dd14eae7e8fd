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

package governance

import (
	"errors"
	"fmt"
)

var (
	// ErrProposalNotFound is returned when the proposal id is unknown
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrVotingClosed is returned when a vote arrives after the voting
	// window has elapsed
	ErrVotingClosed = errors.New("voting window has elapsed")
	// ErrVotingOpen is returned when execution is attempted before the
	// voting window has elapsed
	ErrVotingOpen = errors.New("voting window has not elapsed")
	// ErrNotApproved is returned when execution is attempted on a proposal
	// without a yes majority
	ErrNotApproved = errors.New("proposal does not have a yes majority")
	// ErrAlreadyExecuted is returned when execution is attempted on a
	// proposal that has already been executed
	ErrAlreadyExecuted = errors.New("proposal already executed")
	// ErrUnknownExecutor is returned when a proposal names an executor that
	// has not been registered
	ErrUnknownExecutor = errors.New("unknown executor")
)

// InsufficientPowerError is returned when a proposer's voting power is below
// the share of total power required to create a proposal.
type InsufficientPowerError struct {
	Power    uint64
	Required uint64
}

func (e InsufficientPowerError) Error() string {
	return fmt.Sprintf(
		"insufficient voting power: have %d, need %d",
		e.Power,
		e.Required,
	)
}

// ExecutionFailedError wraps a failure reported by a proposal's executor
type ExecutionFailedError struct {
	ProposalId uint64
	Err        error
}

func (e ExecutionFailedError) Error() string {
	return fmt.Sprintf(
		"execution of proposal %d failed: %s",
		e.ProposalId,
		e.Err,
	)
}

func (e ExecutionFailedError) Unwrap() error {
	return e.Err
}
