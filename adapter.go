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
	"github.com/meadowlark-io/vesper/api"
	"github.com/meadowlark-io/vesper/asset"
	"github.com/meadowlark-io/vesper/governance"
)

// nodeAdapter implements api.ApiNode against the concrete Node
type nodeAdapter struct {
	node *Node
}

func (a *nodeAdapter) CurrentEpoch() api.EpochInfo {
	clock := a.node.clock
	current := clock.Current()
	return api.EpochInfo{
		Epoch:          current,
		StartTime:      clock.StartOf(current).Unix(),
		NextEpochTime:  clock.StartOf(current + 1).Unix(),
		EpochWidthSecs: int64(clock.Width().Seconds()),
	}
}

func (a *nodeAdapter) VotingPowerAt(
	account string,
	epoch uint64,
) (uint64, error) {
	return a.node.stakeLedger.VotingPowerAt(asset.AccountId(account), epoch)
}

func (a *nodeAdapter) CurrentVotingPower(account string) (uint64, error) {
	return a.node.stakeLedger.CurrentVotingPower(asset.AccountId(account))
}

func (a *nodeAdapter) TotalVotingPowerAt(epoch uint64) (uint64, error) {
	return a.node.stakeLedger.TotalVotingPowerAt(epoch)
}

func (a *nodeAdapter) CurrentTotalVotingPower() (uint64, error) {
	return a.node.stakeLedger.CurrentTotalVotingPower()
}

func (a *nodeAdapter) Lock(
	account string,
	amount uint64,
	durationEpochs uint64,
) error {
	return a.node.stakeLedger.Lock(
		asset.AccountId(account),
		amount,
		durationEpochs,
	)
}

func (a *nodeAdapter) Unlock(account string) (uint64, error) {
	return a.node.stakeLedger.Unlock(asset.AccountId(account))
}

func (a *nodeAdapter) CreateProposal(
	proposer string,
	executorName string,
) (uint64, error) {
	return a.node.governance.CreateProposal(
		asset.AccountId(proposer),
		executorName,
	)
}

func (a *nodeAdapter) Vote(
	proposalId uint64,
	voter string,
	support bool,
) error {
	return a.node.governance.Vote(proposalId, asset.AccountId(voter), support)
}

func (a *nodeAdapter) ExecuteProposal(proposalId uint64) error {
	return a.node.governance.ExecuteProposal(proposalId)
}

func (a *nodeAdapter) Proposal(proposalId uint64) (api.ProposalInfo, error) {
	proposal, err := a.node.governance.Proposal(proposalId)
	if err != nil {
		return api.ProposalInfo{}, err
	}
	return proposalInfo(proposal), nil
}

func (a *nodeAdapter) Proposals() []api.ProposalInfo {
	proposals := a.node.governance.Proposals()
	ret := make([]api.ProposalInfo, 0, len(proposals))
	for _, proposal := range proposals {
		ret = append(ret, proposalInfo(proposal))
	}
	return ret
}

func proposalInfo(proposal governance.Proposal) api.ProposalInfo {
	return api.ProposalInfo{
		Id:            proposal.Id,
		Proposer:      string(proposal.Proposer),
		ExecutorName:  proposal.ExecutorName,
		Yes:           proposal.Yes,
		No:            proposal.No,
		CreationEpoch: proposal.CreationEpoch,
		Executed:      proposal.Executed,
	}
}
