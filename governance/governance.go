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
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/meadowlark-io/vesper/asset"
	"github.com/meadowlark-io/vesper/event"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultMinProposePowerDivisor requires a proposer to hold at least
	// 1/100 of total voting power
	DefaultMinProposePowerDivisor = 100
	// DefaultVoteWindowEpochs is how many epochs a proposal accepts votes
	// after creation
	DefaultVoteWindowEpochs = 2
)

// EpochSource provides the current epoch number. Satisfied by *epoch.Clock.
type EpochSource interface {
	Current() uint64
}

// PowerSource is the read-only stake query surface consumed by governance.
// Satisfied by *ledger.StakeLedger.
type PowerSource interface {
	VotingPowerAt(account asset.AccountId, epoch uint64) (uint64, error)
	CurrentVotingPower(account asset.AccountId) (uint64, error)
	CurrentTotalVotingPower() (uint64, error)
}

// Executor is the opaque delegated action attached to a proposal. Governance
// never interprets what it does, only whether it reported success.
type Executor interface {
	Execute() error
}

// ExecutorFunc adapts a plain function to the Executor interface
type ExecutorFunc func() error

func (f ExecutorFunc) Execute() error {
	return f()
}

// Proposal is a single governance proposal. The executed flag is a one-way
// transition; there is no explicit state field, the lifecycle is derived
// from (yes > no, window elapsed, executed).
type Proposal struct {
	Id            uint64
	Proposer      asset.AccountId
	ExecutorName  string
	Yes           uint64
	No            uint64
	CreationEpoch uint64
	Executed      bool
}

// Ballot records one voter's standing contribution to one proposal's tally.
// The weight is the amount actually applied, so a later flip removes exactly
// what was added.
type Ballot struct {
	Support bool
	Weight  uint64
}

type ballotKey struct {
	proposalId uint64
	voter      asset.AccountId
}

// GovernanceConfig holds configuration for the governance module
type GovernanceConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Clock        EpochSource
	Power        PowerSource
	Store        Store
	// Proposal threshold and vote window (0 = use default)
	MinProposePowerDivisor uint64
	VoteWindowEpochs       uint64
}

// Governance gates proposal creation on stake-weighted thresholds, tallies
// votes weighted by a pre-creation power snapshot, and executes approved
// proposals through registered executors. Commands are linearized under a
// single lock, mirroring the stake ledger.
type Governance struct {
	config    GovernanceConfig
	logger    *slog.Logger
	eventBus  *event.EventBus
	clock     EpochSource
	power     PowerSource
	store     Store
	metrics   governanceMetrics
	executors map[string]Executor
	proposals map[uint64]*Proposal
	ballots   map[ballotKey]Ballot
	nextId    uint64
	mu        sync.RWMutex
}

// NewGovernance creates a Governance module, restoring any previously
// persisted proposals and ballots from the configured store.
func NewGovernance(config GovernanceConfig) (*Governance, error) {
	if config.Clock == nil {
		return nil, errors.New("no epoch clock provided")
	}
	if config.Power == nil {
		return nil, errors.New("no power source provided")
	}
	if config.MinProposePowerDivisor == 0 {
		config.MinProposePowerDivisor = DefaultMinProposePowerDivisor
	}
	if config.VoteWindowEpochs == 0 {
		config.VoteWindowEpochs = DefaultVoteWindowEpochs
	}
	g := &Governance{
		config:    config,
		eventBus:  config.EventBus,
		clock:     config.Clock,
		power:     config.Power,
		store:     config.Store,
		executors: make(map[string]Executor),
		proposals: make(map[uint64]*Proposal),
		ballots:   make(map[ballotKey]Ballot),
		nextId:    1,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		g.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		g.logger = config.Logger
	}
	g.metrics.init(config.PromRegistry)
	if g.store != nil {
		if err := g.restore(); err != nil {
			return nil, fmt.Errorf("restore proposals: %w", err)
		}
	}
	return g, nil
}

func (g *Governance) restore() error {
	proposals, err := g.store.Proposals()
	if err != nil {
		return err
	}
	var open int
	for _, record := range proposals {
		proposal := &Proposal{
			Id:            record.Id,
			Proposer:      asset.AccountId(record.Proposer),
			ExecutorName:  record.ExecutorName,
			Yes:           record.Yes,
			No:            record.No,
			CreationEpoch: record.CreationEpoch,
			Executed:      record.Executed,
		}
		g.proposals[proposal.Id] = proposal
		if proposal.Id >= g.nextId {
			g.nextId = proposal.Id + 1
		}
		if !proposal.Executed {
			open++
		}
	}
	ballots, err := g.store.Ballots()
	if err != nil {
		return err
	}
	for _, record := range ballots {
		key := ballotKey{
			proposalId: record.ProposalId,
			voter:      asset.AccountId(record.Voter),
		}
		g.ballots[key] = Ballot{
			Support: record.Support,
			Weight:  record.Weight,
		}
	}
	g.metrics.proposalsOpen.Set(float64(open))
	g.logger.Info(
		"restored proposals",
		"component", "governance",
		"proposals", len(g.proposals),
		"ballots", len(g.ballots),
	)
	return nil
}

// RegisterExecutor makes an executor available to proposals under the given
// name. Registration is required before a proposal naming it can be created.
func (g *Governance) RegisterExecutor(name string, executor Executor) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if name == "" {
		return errors.New("empty executor name")
	}
	if _, ok := g.executors[name]; ok {
		return fmt.Errorf("executor %q already registered", name)
	}
	g.executors[name] = executor
	return nil
}

// CreateProposal creates a proposal bound to a registered executor. The
// proposer must hold at least 1/MinProposePowerDivisor of the current total
// voting power. The proposer's current power is auto-cast as a yes vote.
func (g *Governance) CreateProposal(
	proposer asset.AccountId,
	executorName string,
) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.executors[executorName]; !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownExecutor, executorName)
	}
	power, err := g.power.CurrentVotingPower(proposer)
	if err != nil {
		return 0, fmt.Errorf("query proposer power: %w", err)
	}
	total, err := g.power.CurrentTotalVotingPower()
	if err != nil {
		return 0, fmt.Errorf("query total power: %w", err)
	}
	// power * divisor >= total, evaluated as a ceiling division so the
	// multiplication cannot overflow
	required := total / g.config.MinProposePowerDivisor
	if total%g.config.MinProposePowerDivisor != 0 {
		required++
	}
	if power < required {
		return 0, InsufficientPowerError{
			Power:    power,
			Required: required,
		}
	}
	currentEpoch := g.clock.Current()
	proposal := &Proposal{
		Id:            g.nextId,
		Proposer:      proposer,
		ExecutorName:  executorName,
		Yes:           power,
		CreationEpoch: currentEpoch,
	}
	g.nextId++
	g.proposals[proposal.Id] = proposal
	// The auto-cast vote is recorded with the weight actually applied so a
	// later flip adjusts the tally exactly
	ballot := Ballot{Support: true, Weight: power}
	g.ballots[ballotKey{proposalId: proposal.Id, voter: proposer}] = ballot
	g.persistProposal(proposal)
	g.persistBallot(proposal.Id, proposer, ballot)
	g.metrics.proposalsTotal.Inc()
	g.metrics.proposalsOpen.Inc()
	g.logger.Info(
		"created proposal",
		"component", "governance",
		"proposal_id", proposal.Id,
		"proposer", proposer,
		"executor", executorName,
		"epoch", currentEpoch,
	)
	if g.eventBus != nil {
		g.eventBus.Publish(
			ProposalEventType,
			event.NewEvent(
				ProposalEventType,
				ProposalEvent{
					Proposer:      proposer,
					ExecutorName:  executorName,
					ProposalId:    proposal.Id,
					CreationEpoch: currentEpoch,
				},
			),
		)
	}
	return proposal.Id, nil
}

// Vote casts or changes a vote on a proposal while its voting window is
// open. Vote weight is the voter's power snapshot one epoch before the
// proposal was created, so power acquired after (or for) the proposal cannot
// sway it. Changing a vote removes the prior contribution before applying
// the new one.
func (g *Governance) Vote(
	proposalId uint64,
	voter asset.AccountId,
	support bool,
) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	proposal, ok := g.proposals[proposalId]
	if !ok {
		return fmt.Errorf("%w: %d", ErrProposalNotFound, proposalId)
	}
	currentEpoch := g.clock.Current()
	if currentEpoch >= proposal.CreationEpoch+g.config.VoteWindowEpochs {
		return fmt.Errorf("%w: proposal %d", ErrVotingClosed, proposalId)
	}
	var snapshotEpoch uint64
	if proposal.CreationEpoch > 0 {
		snapshotEpoch = proposal.CreationEpoch - 1
	}
	weight, err := g.power.VotingPowerAt(voter, snapshotEpoch)
	if err != nil {
		return fmt.Errorf("query voter power: %w", err)
	}
	key := ballotKey{proposalId: proposalId, voter: voter}
	if prior, ok := g.ballots[key]; ok {
		if prior.Support {
			proposal.Yes -= prior.Weight
		} else {
			proposal.No -= prior.Weight
		}
	}
	if support {
		proposal.Yes += weight
	} else {
		proposal.No += weight
	}
	ballot := Ballot{Support: support, Weight: weight}
	g.ballots[key] = ballot
	g.persistProposal(proposal)
	g.persistBallot(proposalId, voter, ballot)
	g.metrics.votesTotal.Inc()
	g.logger.Debug(
		"vote cast",
		"component", "governance",
		"proposal_id", proposalId,
		"voter", voter,
		"support", support,
		"weight", weight,
	)
	if g.eventBus != nil {
		g.eventBus.Publish(
			VoteEventType,
			event.NewEvent(
				VoteEventType,
				VoteEvent{
					Voter:      voter,
					ProposalId: proposalId,
					Support:    support,
					Weight:     weight,
				},
			),
		)
	}
	return nil
}

// ExecuteProposal runs the proposal's executor once the voting window has
// elapsed with a yes majority. The executed flag only flips after the
// executor reports success, so a failed execution leaves the proposal
// executable.
func (g *Governance) ExecuteProposal(proposalId uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	proposal, ok := g.proposals[proposalId]
	if !ok {
		return fmt.Errorf("%w: %d", ErrProposalNotFound, proposalId)
	}
	if proposal.Executed {
		return fmt.Errorf("%w: proposal %d", ErrAlreadyExecuted, proposalId)
	}
	currentEpoch := g.clock.Current()
	if currentEpoch < proposal.CreationEpoch+g.config.VoteWindowEpochs {
		return fmt.Errorf("%w: proposal %d", ErrVotingOpen, proposalId)
	}
	if proposal.Yes <= proposal.No {
		return fmt.Errorf(
			"%w: proposal %d (yes %d, no %d)",
			ErrNotApproved,
			proposalId,
			proposal.Yes,
			proposal.No,
		)
	}
	executor, ok := g.executors[proposal.ExecutorName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownExecutor, proposal.ExecutorName)
	}
	if err := executor.Execute(); err != nil {
		return ExecutionFailedError{ProposalId: proposalId, Err: err}
	}
	proposal.Executed = true
	g.persistProposal(proposal)
	g.metrics.executionsTotal.Inc()
	g.metrics.proposalsOpen.Dec()
	g.logger.Info(
		"executed proposal",
		"component", "governance",
		"proposal_id", proposalId,
		"yes", proposal.Yes,
		"no", proposal.No,
		"epoch", currentEpoch,
	)
	if g.eventBus != nil {
		g.eventBus.Publish(
			ExecuteEventType,
			event.NewEvent(
				ExecuteEventType,
				ExecuteEvent{
					ProposalId: proposalId,
					Yes:        proposal.Yes,
					No:         proposal.No,
					Epoch:      currentEpoch,
				},
			),
		)
	}
	return nil
}

// Proposal returns a copy of the proposal with the given id
func (g *Governance) Proposal(proposalId uint64) (Proposal, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	proposal, ok := g.proposals[proposalId]
	if !ok {
		return Proposal{}, fmt.Errorf("%w: %d", ErrProposalNotFound, proposalId)
	}
	return *proposal, nil
}

// Proposals returns copies of all proposals ordered by id
func (g *Governance) Proposals() []Proposal {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ret := make([]Proposal, 0, len(g.proposals))
	for _, proposal := range g.proposals {
		ret = append(ret, *proposal)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Id < ret[j].Id
	})
	return ret
}

// Ballot returns the voter's standing ballot on a proposal, if any
func (g *Governance) Ballot(
	proposalId uint64,
	voter asset.AccountId,
) (Ballot, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ballot, ok := g.ballots[ballotKey{proposalId: proposalId, voter: voter}]
	return ballot, ok
}

func (g *Governance) persistProposal(proposal *Proposal) {
	if g.store == nil {
		return
	}
	record := ProposalRecord{
		Id:            proposal.Id,
		Proposer:      string(proposal.Proposer),
		ExecutorName:  proposal.ExecutorName,
		Yes:           proposal.Yes,
		No:            proposal.No,
		CreationEpoch: proposal.CreationEpoch,
		Executed:      proposal.Executed,
	}
	if err := g.store.PutProposal(record); err != nil {
		g.logger.Error(
			"failed to persist proposal",
			"component", "governance",
			"proposal_id", proposal.Id,
			"error", err,
		)
	}
}

func (g *Governance) persistBallot(
	proposalId uint64,
	voter asset.AccountId,
	ballot Ballot,
) {
	if g.store == nil {
		return
	}
	record := BallotRecord{
		ProposalId: proposalId,
		Voter:      string(voter),
		Support:    ballot.Support,
		Weight:     ballot.Weight,
	}
	if err := g.store.PutBallot(record); err != nil {
		g.logger.Error(
			"failed to persist ballot",
			"component", "governance",
			"proposal_id", proposalId,
			"voter", voter,
			"error", err,
		)
	}
}
