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

import (
	"github.com/meadowlark-io/vesper/asset"
	"github.com/meadowlark-io/vesper/event"
)

const (
	LockEventType   event.EventType = "stake.lock"
	UnlockEventType event.EventType = "stake.unlock"
)

type LockEvent struct {
	Account        asset.AccountId
	Amount         uint64
	DurationEpochs uint64
	Slope          int64
	Epoch          uint64
}

type UnlockEvent struct {
	Account asset.AccountId
	Amount  uint64
	Epoch   uint64
}
