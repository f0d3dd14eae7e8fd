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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ledgerMetrics struct {
	locksTotal   prometheus.Counter
	unlocksTotal prometheus.Counter
	lockedSupply prometheus.Gauge
	totalPower   prometheus.Gauge
	currentEpoch prometheus.Gauge
}

func (m *ledgerMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.locksTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "vesper_ledger_locks_total",
		Help: "total lock operations processed",
	})
	m.unlocksTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "vesper_ledger_unlocks_total",
		Help: "total unlock operations that withdrew a non-zero amount",
	})
	m.lockedSupply = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "vesper_ledger_locked_supply",
		Help: "principal currently locked across all accounts",
	})
	m.totalPower = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "vesper_ledger_total_voting_power",
		Help: "aggregate voting power at the last committed epoch",
	})
	m.currentEpoch = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "vesper_ledger_epoch",
		Help: "current epoch number",
	})
}
