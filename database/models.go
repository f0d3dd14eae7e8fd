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

package database

// StakeSnapshot is the anchored decay line of one account (or the aggregate,
// stored under the empty account key).
type StakeSnapshot struct {
	ID              uint   `gorm:"primarykey"`
	Account         string `gorm:"uniqueIndex;size:128"`
	Bias            uint64 `gorm:"not null"`
	Slope           int64  `gorm:"not null"`
	LastUpdateEpoch uint64 `gorm:"not null"`
	Deposited       uint64 `gorm:"not null"`
}

// TableName returns the table name
func (StakeSnapshot) TableName() string {
	return "stake_snapshot"
}

// StakeDelta is one epoch's entry in an account's sparse delta maps: the
// slope change taking effect at the epoch and the principal whose decay ramp
// begins there.
type StakeDelta struct {
	ID          uint   `gorm:"primarykey"`
	Account     string `gorm:"uniqueIndex:idx_stake_delta_account_epoch,priority:1;size:128"`
	Epoch       uint64 `gorm:"uniqueIndex:idx_stake_delta_account_epoch,priority:2;not null"`
	SlopeChange int64  `gorm:"not null"`
	Deposit     uint64 `gorm:"not null"`
}

// TableName returns the table name
func (StakeDelta) TableName() string {
	return "stake_delta"
}

// Proposal is a persisted governance proposal. Executors are rebound by name
// at restore time, never serialized.
type Proposal struct {
	ProposalId    uint64 `gorm:"primarykey;autoIncrement:false"`
	Proposer      string `gorm:"size:128;not null"`
	ExecutorName  string `gorm:"size:128;not null"`
	Yes           uint64 `gorm:"not null"`
	No            uint64 `gorm:"not null"`
	CreationEpoch uint64 `gorm:"index;not null"`
	Executed      bool   `gorm:"not null"`
}

// TableName returns the table name
func (Proposal) TableName() string {
	return "proposal"
}

// Ballot is one voter's standing vote on one proposal
type Ballot struct {
	ID         uint   `gorm:"primarykey"`
	ProposalId uint64 `gorm:"uniqueIndex:idx_ballot_proposal_voter,priority:1;not null"`
	Voter      string `gorm:"uniqueIndex:idx_ballot_proposal_voter,priority:2;size:128"`
	Support    bool   `gorm:"not null"`
	Weight     uint64 `gorm:"not null"`
}

// TableName returns the table name
func (Ballot) TableName() string {
	return "ballot"
}

// migrateModels is the list of models to auto-migrate at startup
var migrateModels = []any{
	&StakeSnapshot{},
	&StakeDelta{},
	&Proposal{},
	&Ballot{},
}
