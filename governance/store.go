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

// ProposalRecord is the persistable form of a proposal. Executors are
// rebound by name from the registry on restore; the executor itself is never
// serialized.
type ProposalRecord struct {
	Id            uint64
	Proposer      string
	ExecutorName  string
	Yes           uint64
	No            uint64
	CreationEpoch uint64
	Executed      bool
}

// BallotRecord is the persistable form of a single (proposal, voter) ballot
type BallotRecord struct {
	ProposalId uint64
	Voter      string
	Support    bool
	Weight     uint64
}

// Store is the persistence interface consumed by the governance module.
// Writes happen write-through after each committed operation; the read
// methods are called once at startup to restore state.
type Store interface {
	PutProposal(record ProposalRecord) error
	PutBallot(record BallotRecord) error
	Proposals() ([]ProposalRecord, error)
	Ballots() ([]BallotRecord, error)
}
