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

package api

// ApiNode is the interface the API server uses to query and command the
// node. This decouples the HTTP server from the concrete Node struct and
// enables testing with mock implementations.
type ApiNode interface {
	// CurrentEpoch returns information about the current epoch
	CurrentEpoch() EpochInfo

	// VotingPowerAt returns an account's voting power at an epoch
	VotingPowerAt(account string, epoch uint64) (uint64, error)

	// CurrentVotingPower returns an account's voting power now
	CurrentVotingPower(account string) (uint64, error)

	// TotalVotingPowerAt returns the aggregate voting power at an epoch
	TotalVotingPowerAt(epoch uint64) (uint64, error)

	// CurrentTotalVotingPower returns the aggregate voting power now
	CurrentTotalVotingPower() (uint64, error)

	// Lock escrows an amount for a duration in epochs
	Lock(account string, amount uint64, durationEpochs uint64) error

	// Unlock withdraws expired principal, returning the amount withdrawn
	Unlock(account string) (uint64, error)

	// CreateProposal creates a proposal bound to a registered executor
	CreateProposal(proposer string, executorName string) (uint64, error)

	// Vote casts or changes a vote on a proposal
	Vote(proposalId uint64, voter string, support bool) error

	// ExecuteProposal executes an approved proposal
	ExecuteProposal(proposalId uint64) error

	// Proposal returns a single proposal by id
	Proposal(proposalId uint64) (ProposalInfo, error)

	// Proposals returns all proposals ordered by id
	Proposals() []ProposalInfo
}

// EpochInfo holds epoch data needed by the API
type EpochInfo struct {
	Epoch          uint64
	StartTime      int64
	NextEpochTime  int64
	EpochWidthSecs int64
}

// ProposalInfo holds proposal data needed by the API
type ProposalInfo struct {
	Id            uint64
	Proposer      string
	ExecutorName  string
	Yes           uint64
	No            uint64
	CreationEpoch uint64
	Executed      bool
}
