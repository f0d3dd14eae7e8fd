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

package epoch

import (
	"time"
)

// DefaultWidth is the width of a single epoch. Epochs are the unit of lock
// duration and decay step for the stake ledger.
const DefaultWidth = 7 * 24 * time.Hour

// Clock maps wall-clock time to a monotonically increasing integer epoch.
// Epochs are 1-indexed: the first epoch begins at the origin time. The
// mapping is pure and has no failure modes; times before the origin are
// clamped to epoch 1.
type Clock struct {
	origin  time.Time
	width   time.Duration
	nowFunc func() time.Time
}

// NewClock creates a Clock with the given origin and epoch width. A zero
// width defaults to DefaultWidth (one week).
func NewClock(origin time.Time, width time.Duration) *Clock {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Clock{
		origin:  origin,
		width:   width,
		nowFunc: time.Now,
	}
}

// Origin returns the fixed origin time of epoch 1.
func (c *Clock) Origin() time.Time {
	return c.origin
}

// Width returns the epoch width.
func (c *Clock) Width() time.Duration {
	return c.width
}

// EpochOf returns the epoch containing the given time.
func (c *Clock) EpochOf(t time.Time) uint64 {
	if t.Before(c.origin) {
		return 1
	}
	return uint64(t.Sub(c.origin)/c.width) + 1
}

// Current returns the epoch containing the current wall-clock time.
func (c *Clock) Current() uint64 {
	return c.EpochOf(c.nowFunc())
}

// StartOf returns the time at which the given epoch begins.
func (c *Clock) StartOf(epoch uint64) time.Time {
	if epoch <= 1 {
		return c.origin
	}
	return c.origin.Add(time.Duration(epoch-1) * c.width) //nolint:gosec
}

// UntilNext returns the duration until the next epoch boundary.
func (c *Clock) UntilNext() time.Duration {
	now := c.nowFunc()
	next := c.StartOf(c.EpochOf(now) + 1)
	return next.Sub(now)
}
