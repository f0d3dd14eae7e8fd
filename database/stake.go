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

	"github.com/meadowlark-io/vesper/ledger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PutStake upserts the snapshot and all delta rows for one stake record in a
// single transaction.
func (d *Database) PutStake(record ledger.StakeRecord) error {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		snapshot := StakeSnapshot{
			Account:         record.Account,
			Bias:            record.Bias,
			Slope:           record.Slope,
			LastUpdateEpoch: record.LastUpdateEpoch,
			Deposited:       record.Deposited,
		}
		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account"}},
			DoUpdates: clause.AssignmentColumns(
				[]string{"bias", "slope", "last_update_epoch", "deposited"},
			),
		}).Create(&snapshot)
		if result.Error != nil {
			return fmt.Errorf("upsert snapshot: %w", result.Error)
		}
		for epoch, slopeChange := range record.SlopeChanges {
			delta := StakeDelta{
				Account:     record.Account,
				Epoch:       epoch,
				SlopeChange: slopeChange,
				Deposit:     record.Deposits[epoch],
			}
			result := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "account"},
					{Name: "epoch"},
				},
				DoUpdates: clause.AssignmentColumns(
					[]string{"slope_change", "deposit"},
				),
			}).Create(&delta)
			if result.Error != nil {
				return fmt.Errorf("upsert delta: %w", result.Error)
			}
		}
		// Deposits at epochs with a zero net slope change still need a row
		for epoch, deposit := range record.Deposits {
			if _, ok := record.SlopeChanges[epoch]; ok {
				continue
			}
			delta := StakeDelta{
				Account: record.Account,
				Epoch:   epoch,
				Deposit: deposit,
			}
			result := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "account"},
					{Name: "epoch"},
				},
				DoUpdates: clause.AssignmentColumns(
					[]string{"slope_change", "deposit"},
				),
			}).Create(&delta)
			if result.Error != nil {
				return fmt.Errorf("upsert delta: %w", result.Error)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("PutStake: %w", err)
	}
	return nil
}

// Stakes returns all persisted stake records with their delta maps
func (d *Database) Stakes() ([]ledger.StakeRecord, error) {
	var snapshots []StakeSnapshot
	if result := d.db.Find(&snapshots); result.Error != nil {
		return nil, fmt.Errorf("Stakes: query snapshots: %w", result.Error)
	}
	var deltas []StakeDelta
	if result := d.db.Find(&deltas); result.Error != nil {
		return nil, fmt.Errorf("Stakes: query deltas: %w", result.Error)
	}
	deltasByAccount := make(map[string][]StakeDelta)
	for _, delta := range deltas {
		deltasByAccount[delta.Account] = append(
			deltasByAccount[delta.Account],
			delta,
		)
	}
	ret := make([]ledger.StakeRecord, 0, len(snapshots))
	for _, snapshot := range snapshots {
		record := ledger.StakeRecord{
			Account:         snapshot.Account,
			Bias:            snapshot.Bias,
			Slope:           snapshot.Slope,
			LastUpdateEpoch: snapshot.LastUpdateEpoch,
			Deposited:       snapshot.Deposited,
			SlopeChanges:    make(map[uint64]int64),
			Deposits:        make(map[uint64]uint64),
		}
		for _, delta := range deltasByAccount[snapshot.Account] {
			if delta.SlopeChange != 0 {
				record.SlopeChanges[delta.Epoch] = delta.SlopeChange
			}
			if delta.Deposit != 0 {
				record.Deposits[delta.Epoch] = delta.Deposit
			}
		}
		ret = append(ret, record)
	}
	return ret, nil
}
