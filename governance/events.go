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
	"github.com/meadowlark-io/vesper/asset"
	"github.com/meadowlark-io/vesper/event"
)

const (
	ProposalEventType event.EventType = "governance.proposal"
	VoteEventType     event.EventType = "governance.vote"
	ExecuteEventType  event.EventType = "governance.execute"
)

type ProposalEvent struct {
	Proposer      asset.AccountId
	ExecutorName  string
	ProposalId    uint64
	CreationEpoch uint64
}

type VoteEvent struct {
	Voter      asset.AccountId
	ProposalId uint64
	Support    bool
	Weight     uint64
}

type ExecuteEvent struct {
	ProposalId uint64
	Yes        uint64
	No         uint64
	Epoch      uint64
}
