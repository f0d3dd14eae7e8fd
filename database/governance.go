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

import (
	"fmt"

	"github.com/meadowlark-io/vesper/governance"
	"gorm.io/gorm/clause"
)

// PutProposal upserts one proposal record
func (d *Database) PutProposal(record governance.ProposalRecord) error {
	proposal := Proposal{
		ProposalId:    record.Id,
		Proposer:      record.Proposer,
		ExecutorName:  record.ExecutorName,
		Yes:           record.Yes,
		No:            record.No,
		CreationEpoch: record.CreationEpoch,
		Executed:      record.Executed,
	}
	result := d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "proposal_id"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{"yes", "no", "executed"},
		),
	}).Create(&proposal)
	if result.Error != nil {
		return fmt.Errorf("PutProposal: %w", result.Error)
	}
	return nil
}

// PutBallot upserts one (proposal, voter) ballot record
func (d *Database) PutBallot(record governance.BallotRecord) error {
	ballot := Ballot{
		ProposalId: record.ProposalId,
		Voter:      record.Voter,
		Support:    record.Support,
		Weight:     record.Weight,
	}
	result := d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "proposal_id"},
			{Name: "voter"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"support", "weight"}),
	}).Create(&ballot)
	if result.Error != nil {
		return fmt.Errorf("PutBallot: %w", result.Error)
	}
	return nil
}

// Proposals returns all persisted proposals
func (d *Database) Proposals() ([]governance.ProposalRecord, error) {
	var proposals []Proposal
	result := d.db.Order("proposal_id").Find(&proposals)
	if result.Error != nil {
		return nil, fmt.Errorf("Proposals: query: %w", result.Error)
	}
	ret := make([]governance.ProposalRecord, 0, len(proposals))
	for _, proposal := range proposals {
		ret = append(ret, governance.ProposalRecord{
			Id:            proposal.ProposalId,
			Proposer:      proposal.Proposer,
			ExecutorName:  proposal.ExecutorName,
			Yes:           proposal.Yes,
			No:            proposal.No,
			CreationEpoch: proposal.CreationEpoch,
			Executed:      proposal.Executed,
		})
	}
	return ret, nil
}

// Ballots returns all persisted ballots
func (d *Database) Ballots() ([]governance.BallotRecord, error) {
	var ballots []Ballot
	result := d.db.Find(&ballots)
	if result.Error != nil {
		return nil, fmt.Errorf("Ballots: query: %w", result.Error)
	}
	ret := make([]governance.BallotRecord, 0, len(ballots))
	for _, ballot := range ballots {
		ret = append(ret, governance.BallotRecord{
			ProposalId: ballot.ProposalId,
			Voter:      ballot.Voter,
			Support:    ballot.Support,
			Weight:     ballot.Weight,
		})
	}
	return ret, nil
}
