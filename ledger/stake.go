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
	"fmt"
	"maps"
	"math"
)

// Line is the (bias, slope) pair describing the total locked value remaining
// at a given epoch and its net per-epoch decay rate. Bias must stay
// non-negative in any valid state; slope is positive while unexpired locks
// are decaying.
type Line struct {
	Bias  uint64
	Slope int64
}

// Stake tracks the decaying voting power of a single account, or of the
// aggregate across all accounts. The line is anchored at lastUpdateEpoch.
// The sparse per-epoch delta maps record when decay ramps begin (deposits,
// positive slope changes) and end (negative slope changes), which lets the
// line be replayed forward or backward to any epoch in time proportional to
// the epoch distance, independent of the number of locks.
type Stake struct {
	line            Line
	lastUpdateEpoch uint64
	deposited       uint64
	slopeChanges    map[uint64]int64
	deposits        map[uint64]uint64
}

func newStake(epoch uint64) *Stake {
	return &Stake{
		lastUpdateEpoch: epoch,
		slopeChanges:    make(map[uint64]int64),
		deposits:        make(map[uint64]uint64),
	}
}

// Line returns the line as anchored at LastUpdateEpoch
func (s *Stake) Line() Line {
	return s.line
}

// LastUpdateEpoch returns the epoch the line is currently anchored at
func (s *Stake) LastUpdateEpoch() uint64 {
	return s.lastUpdateEpoch
}

// Deposited returns the principal still locked, independent of decay
func (s *Stake) Deposited() uint64 {
	return s.deposited
}

func (s *Stake) clone() *Stake {
	return &Stake{
		line:            s.line,
		lastUpdateEpoch: s.lastUpdateEpoch,
		deposited:       s.deposited,
		slopeChanges:    maps.Clone(s.slopeChanges),
		deposits:        maps.Clone(s.deposits),
	}
}

// registerLock records a new decay ramp: the full amount lands in the bias
// at startEpoch and decays by slope per epoch until the ramp ends at
// startEpoch+durationEpochs. The slope change entries for one ramp always
// net to zero across its [start, end) interval. When the anchor already
// covers startEpoch a forward replay will never visit it, so the ramp's
// immediate effect is applied to the anchored line directly; the delta maps
// still carry the entries so backward replay stays exact.
func (s *Stake) registerLock(
	startEpoch uint64,
	amount uint64,
	slope int64,
	durationEpochs uint64,
) {
	s.deposits[startEpoch] += amount
	s.slopeChanges[startEpoch] += slope
	s.slopeChanges[startEpoch+durationEpochs] -= slope
	s.deposited += amount
	if startEpoch <= s.lastUpdateEpoch {
		s.line.Bias += amount
		s.line.Slope += slope
	}
}

// LineAt replays the line to the given epoch without mutating stored state.
// Epochs after the anchor replay forward, epochs before it rewind backward.
func (s *Stake) LineAt(epoch uint64) (Line, error) {
	switch {
	case epoch == s.lastUpdateEpoch:
		return s.line, nil
	case epoch > s.lastUpdateEpoch:
		return s.replayForward(epoch)
	default:
		return s.replayBackward(epoch)
	}
}

// commitAdvance replays the line forward to the given epoch and re-anchors
// it there. Called whenever new deposit/slope-change events are registered so
// that the anchor always reflects the current epoch after any mutation.
func (s *Stake) commitAdvance(epoch uint64) error {
	if epoch < s.lastUpdateEpoch {
		return fmt.Errorf(
			"%w: anchor %d, target %d",
			ErrEpochRegression,
			s.lastUpdateEpoch,
			epoch,
		)
	}
	if epoch == s.lastUpdateEpoch {
		return nil
	}
	line, err := s.replayForward(epoch)
	if err != nil {
		return err
	}
	s.line = line
	s.lastUpdateEpoch = epoch
	return nil
}

// replayForward walks epochs (anchor, target] in increasing order. Deposits
// whose ramps start at epoch i join the bias before that epoch's decay is
// subtracted; slope changes taking effect at i fold in after, so a new
// ramp's slope only decays the bias from the next step onward.
func (s *Stake) replayForward(target uint64) (Line, error) {
	line := s.line
	for i := s.lastUpdateEpoch + 1; i <= target; i++ {
		var err error
		if line.Bias, err = addUnsigned(line.Bias, s.deposits[i]); err != nil {
			return Line{}, fmt.Errorf("forward replay at epoch %d: %w", i, err)
		}
		if line.Bias, err = addSigned(line.Bias, -line.Slope); err != nil {
			return Line{}, fmt.Errorf("forward replay at epoch %d: %w", i, err)
		}
		line.Slope += s.slopeChanges[i]
	}
	return line, nil
}

// replayBackward walks epochs [anchor, target) in decreasing order, undoing
// each forward step exactly: the slope change at i is removed first so the
// pre-step slope is restored to the bias, then the deposit at i is removed.
func (s *Stake) replayBackward(target uint64) (Line, error) {
	line := s.line
	for i := s.lastUpdateEpoch; i > target; i-- {
		line.Slope -= s.slopeChanges[i]
		var err error
		if line.Bias, err = addSigned(line.Bias, line.Slope); err != nil {
			return Line{}, fmt.Errorf("backward replay at epoch %d: %w", i, err)
		}
		if line.Bias, err = subUnsigned(line.Bias, s.deposits[i]); err != nil {
			return Line{}, fmt.Errorf("backward replay at epoch %d: %w", i, err)
		}
	}
	return line, nil
}

func addUnsigned(bias, amount uint64) (uint64, error) {
	if bias > math.MaxUint64-amount {
		return 0, ErrArithmeticOverflow
	}
	return bias + amount, nil
}

func subUnsigned(bias, amount uint64) (uint64, error) {
	if bias < amount {
		return 0, ErrArithmeticUnderflow
	}
	return bias - amount, nil
}

func addSigned(bias uint64, delta int64) (uint64, error) {
	if delta >= 0 {
		return addUnsigned(bias, uint64(delta))
	}
	// Negate via the unsigned domain to stay safe for math.MinInt64
	return subUnsigned(bias, uint64(-(delta+1))+1)
}
