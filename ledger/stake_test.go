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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStakeSingleLockDecay(t *testing.T) {
	s := newStake(5)
	s.registerLock(5, 1000, 100, 10)

	tests := []struct {
		epoch        uint64
		expectedBias uint64
	}{
		{epoch: 5, expectedBias: 1000},
		{epoch: 6, expectedBias: 900},
		{epoch: 10, expectedBias: 500},
		{epoch: 14, expectedBias: 100},
		{epoch: 15, expectedBias: 0},
		{epoch: 20, expectedBias: 0},
	}
	for _, test := range tests {
		line, err := s.LineAt(test.epoch)
		require.NoError(t, err)
		assert.Equalf(
			t,
			test.expectedBias,
			line.Bias,
			"bias at epoch %d",
			test.epoch,
		)
	}
	// Slope returns to zero once the ramp expires
	line, err := s.LineAt(15)
	require.NoError(t, err)
	assert.Equal(t, int64(0), line.Slope)
}

func TestStakeLineAtDoesNotMutate(t *testing.T) {
	s := newStake(5)
	s.registerLock(5, 1000, 100, 10)
	_, err := s.LineAt(12)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), s.LastUpdateEpoch())
	assert.Equal(t, uint64(1000), s.Line().Bias)
}

func TestStakeCommitAdvance(t *testing.T) {
	s := newStake(5)
	s.registerLock(5, 1000, 100, 10)
	require.NoError(t, s.commitAdvance(10))
	assert.Equal(t, uint64(10), s.LastUpdateEpoch())
	assert.Equal(t, uint64(500), s.Line().Bias)
	assert.Equal(t, int64(100), s.Line().Slope)
	// Advancing to the anchor itself is a no-op
	require.NoError(t, s.commitAdvance(10))
	assert.Equal(t, uint64(500), s.Line().Bias)
}

func TestStakeCommitAdvanceRegression(t *testing.T) {
	s := newStake(10)
	err := s.commitAdvance(9)
	assert.ErrorIs(t, err, ErrEpochRegression)
}

func TestStakeReplaySymmetry(t *testing.T) {
	// Overlapping ramps with distinct start and end epochs
	s := newStake(3)
	s.registerLock(3, 1000, 100, 10)
	require.NoError(t, s.commitAdvance(6))
	s.registerLock(6, 440, 55, 8)
	require.NoError(t, s.commitAdvance(9))
	s.registerLock(9, 36, 9, 4)

	// Capture the line at each epoch via forward replay
	forward := make(map[uint64]Line)
	for e := uint64(9); e <= 20; e++ {
		line, err := s.LineAt(e)
		require.NoError(t, err)
		forward[e] = line
	}
	// Re-anchor at the far end and rewind; every epoch must match
	require.NoError(t, s.commitAdvance(20))
	for e := uint64(9); e <= 20; e++ {
		line, err := s.LineAt(e)
		require.NoError(t, err)
		assert.Equalf(t, forward[e], line, "line at epoch %d", e)
	}
}

func TestStakeBackwardReplayBeforeLock(t *testing.T) {
	s := newStake(5)
	s.registerLock(5, 1000, 100, 10)
	require.NoError(t, s.commitAdvance(8))
	line, err := s.LineAt(4)
	require.NoError(t, err)
	assert.Equal(t, Line{Bias: 0, Slope: 0}, line)
}

func TestStakeDustRemainder(t *testing.T) {
	// 1000/7 floors to 142; 7 epochs of decay leave 1000-994=6 behind
	s := newStake(1)
	s.registerLock(1, 1000, 1000/7, 7)
	line, err := s.LineAt(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), line.Bias)
	assert.Equal(t, int64(0), line.Slope)
	// Dust never grows or decays afterward
	line, err = s.LineAt(100)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), line.Bias)
}

func TestStakeUnderflowDetected(t *testing.T) {
	// A slope with no matching expiry entry would drive the bias negative
	s := newStake(1)
	s.deposits[2] = 100
	s.slopeChanges[2] = 100
	_, err := s.LineAt(10)
	assert.ErrorIs(t, err, ErrArithmeticUnderflow)
}

func TestStakeCloneIndependence(t *testing.T) {
	s := newStake(5)
	s.registerLock(5, 1000, 100, 10)
	c := s.clone()
	c.registerLock(5, 500, 50, 10)
	require.NoError(t, c.commitAdvance(7))

	assert.Equal(t, uint64(1000), s.Line().Bias)
	assert.Equal(t, uint64(5), s.LastUpdateEpoch())
	assert.Equal(t, uint64(1000), s.Deposited())
	assert.Equal(t, uint64(1500), c.Deposited())
}

func TestStakeRecordRoundTrip(t *testing.T) {
	s := newStake(5)
	s.registerLock(5, 1000, 100, 10)
	require.NoError(t, s.commitAdvance(8))

	restored := stakeFromRecord(recordFromStake("acct", s))
	for e := uint64(4); e <= 16; e++ {
		want, err := s.LineAt(e)
		require.NoError(t, err)
		got, err := restored.LineAt(e)
		require.NoError(t, err)
		assert.Equalf(t, want, got, "line at epoch %d", e)
	}
	assert.Equal(t, s.Deposited(), restored.Deposited())
}

func TestAddSignedBounds(t *testing.T) {
	got, err := addSigned(10, -10)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)
	_, err = addSigned(9, -10)
	assert.ErrorIs(t, err, ErrArithmeticUnderflow)
}
