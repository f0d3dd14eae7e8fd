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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type governanceMetrics struct {
	proposalsTotal  prometheus.Counter
	votesTotal      prometheus.Counter
	executionsTotal prometheus.Counter
	proposalsOpen   prometheus.Gauge
}

func (m *governanceMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.proposalsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "vesper_governance_proposals_total",
		Help: "total proposals created",
	})
	m.votesTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "vesper_governance_votes_total",
		Help: "total votes cast, including vote changes",
	})
	m.executionsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "vesper_governance_executions_total",
		Help: "total proposals executed successfully",
	})
	m.proposalsOpen = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "vesper_governance_proposals_open",
		Help: "proposals not yet executed",
	})
}
