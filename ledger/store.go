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

import "maps"

// AggregateStakeKey is the account key under which the aggregate stake is
// persisted. It is outside the account namespace used by callers.
const AggregateStakeKey = ""

// StakeRecord is the persistable form of a stake: the anchored line plus the
// full sparse delta maps needed to replay it in either direction.
type StakeRecord struct {
	Account         string
	Bias            uint64
	Slope           int64
	LastUpdateEpoch uint64
	Deposited       uint64
	SlopeChanges    map[uint64]int64
	Deposits        map[uint64]uint64
}

// Store is the persistence interface consumed by the stake ledger. Writes
// happen write-through after each committed operation; Stakes is read once
// at startup to restore state.
type Store interface {
	PutStake(record StakeRecord) error
	Stakes() ([]StakeRecord, error)
}

func recordFromStake(account string, s *Stake) StakeRecord {
	return StakeRecord{
		Account:         account,
		Bias:            s.line.Bias,
		Slope:           s.line.Slope,
		LastUpdateEpoch: s.lastUpdateEpoch,
		Deposited:       s.deposited,
		SlopeChanges:    maps.Clone(s.slopeChanges),
		Deposits:        maps.Clone(s.deposits),
	}
}

func stakeFromRecord(record StakeRecord) *Stake {
	s := &Stake{
		line: Line{
			Bias:  record.Bias,
			Slope: record.Slope,
		},
		lastUpdateEpoch: record.LastUpdateEpoch,
		deposited:       record.Deposited,
		slopeChanges:    maps.Clone(record.SlopeChanges),
		deposits:        maps.Clone(record.Deposits),
	}
	if s.slopeChanges == nil {
		s.slopeChanges = make(map[uint64]int64)
	}
	if s.deposits == nil {
		s.deposits = make(map[uint64]uint64)
	}
	return s
}
