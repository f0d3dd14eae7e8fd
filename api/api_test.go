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

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meadowlark-io/vesper/governance"
	"github.com/meadowlark-io/vesper/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode is a canned-response ApiNode for handler tests
type fakeNode struct {
	epoch     EpochInfo
	powers    map[string]map[uint64]uint64
	total     map[uint64]uint64
	proposals map[uint64]ProposalInfo
	lockErr   error
	voteErr   error
	execErr   error
	locks     []LockRequest
	unlocked  uint64
}

func (n *fakeNode) CurrentEpoch() EpochInfo {
	return n.epoch
}

func (n *fakeNode) VotingPowerAt(
	account string,
	epoch uint64,
) (uint64, error) {
	return n.powers[account][epoch], nil
}

func (n *fakeNode) CurrentVotingPower(account string) (uint64, error) {
	return n.powers[account][n.epoch.Epoch], nil
}

func (n *fakeNode) TotalVotingPowerAt(epoch uint64) (uint64, error) {
	return n.total[epoch], nil
}

func (n *fakeNode) CurrentTotalVotingPower() (uint64, error) {
	return n.total[n.epoch.Epoch], nil
}

func (n *fakeNode) Lock(
	account string,
	amount uint64,
	durationEpochs uint64,
) error {
	if n.lockErr != nil {
		return n.lockErr
	}
	n.locks = append(n.locks, LockRequest{
		Account:        account,
		Amount:         amount,
		DurationEpochs: durationEpochs,
	})
	return nil
}

func (n *fakeNode) Unlock(account string) (uint64, error) {
	return n.unlocked, nil
}

func (n *fakeNode) CreateProposal(
	proposer string,
	executorName string,
) (uint64, error) {
	id := uint64(len(n.proposals) + 1)
	n.proposals[id] = ProposalInfo{
		Id:            id,
		Proposer:      proposer,
		ExecutorName:  executorName,
		Yes:           100,
		CreationEpoch: n.epoch.Epoch,
	}
	return id, nil
}

func (n *fakeNode) Vote(
	proposalId uint64,
	voter string,
	support bool,
) error {
	return n.voteErr
}

func (n *fakeNode) ExecuteProposal(proposalId uint64) error {
	return n.execErr
}

func (n *fakeNode) Proposal(proposalId uint64) (ProposalInfo, error) {
	info, ok := n.proposals[proposalId]
	if !ok {
		return ProposalInfo{}, governance.ErrProposalNotFound
	}
	return info, nil
}

func (n *fakeNode) Proposals() []ProposalInfo {
	ret := make([]ProposalInfo, 0, len(n.proposals))
	for _, info := range n.proposals {
		ret = append(ret, info)
	}
	return ret
}

func newTestApi(node *fakeNode) *Api {
	return New(ApiConfig{}, node, nil)
}

func doRequest(
	t *testing.T,
	a *Api,
	method string,
	path string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reqBody)
	w := httptest.NewRecorder()
	a.routes().ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	a := newTestApi(&fakeNode{})
	w := doRequest(t, a, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.IsHealthy)
}

func TestHandleEpoch(t *testing.T) {
	a := newTestApi(&fakeNode{
		epoch: EpochInfo{
			Epoch:          42,
			StartTime:      1_700_000_000,
			NextEpochTime:  1_700_604_800,
			EpochWidthSecs: 604_800,
		},
	})
	w := doRequest(t, a, http.MethodGet, "/api/v1/epoch", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp EpochResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, uint64(42), resp.Epoch)
	assert.Equal(t, int64(604_800), resp.EpochWidthSecs)
}

func TestHandleAccountPower(t *testing.T) {
	a := newTestApi(&fakeNode{
		epoch: EpochInfo{Epoch: 10},
		powers: map[string]map[uint64]uint64{
			"alice": {10: 1000, 12: 800},
		},
	})

	w := doRequest(
		t,
		a,
		http.MethodGet,
		"/api/v1/accounts/alice/power",
		nil,
	)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp PowerResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, uint64(1000), resp.Power)
	assert.Equal(t, uint64(10), resp.Epoch)

	w = doRequest(
		t,
		a,
		http.MethodGet,
		"/api/v1/accounts/alice/power?epoch=12",
		nil,
	)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, uint64(800), resp.Power)

	w = doRequest(
		t,
		a,
		http.MethodGet,
		"/api/v1/accounts/alice/power?epoch=nope",
		nil,
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleTotalPower(t *testing.T) {
	a := newTestApi(&fakeNode{
		epoch: EpochInfo{Epoch: 10},
		total: map[uint64]uint64{10: 10_000, 15: 4_000},
	})
	w := doRequest(t, a, http.MethodGet, "/api/v1/power/total", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp PowerResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, uint64(10_000), resp.Power)

	w = doRequest(t, a, http.MethodGet, "/api/v1/power/total?epoch=15", nil)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, uint64(4_000), resp.Power)
}

func TestHandleLock(t *testing.T) {
	node := &fakeNode{}
	a := newTestApi(node)
	w := doRequest(t, a, http.MethodPost, "/api/v1/locks", LockRequest{
		Account:        "alice",
		Amount:         1000,
		DurationEpochs: 10,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, node.locks, 1)
	assert.Equal(t, uint64(1000), node.locks[0].Amount)

	// Missing account
	w = doRequest(t, a, http.MethodPost, "/api/v1/locks", LockRequest{
		Amount:         1000,
		DurationEpochs: 10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleLockDomainErrors(t *testing.T) {
	node := &fakeNode{
		lockErr: ledger.InvalidDurationError{Duration: 2, Min: 4, Max: 208},
	}
	a := newTestApi(node)
	w := doRequest(t, a, http.MethodPost, "/api/v1/locks", LockRequest{
		Account:        "alice",
		Amount:         1000,
		DurationEpochs: 2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Contains(t, resp.Message, "duration")
}

func TestHandleUnlock(t *testing.T) {
	a := newTestApi(&fakeNode{unlocked: 500})
	w := doRequest(t, a, http.MethodPost, "/api/v1/unlocks", UnlockRequest{
		Account: "alice",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	var resp UnlockResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, uint64(500), resp.Withdrawn)
}

func TestHandleProposalLifecycle(t *testing.T) {
	node := &fakeNode{
		epoch:     EpochInfo{Epoch: 10},
		proposals: make(map[uint64]ProposalInfo),
	}
	a := newTestApi(node)

	w := doRequest(t, a, http.MethodPost, "/api/v1/proposals", ProposalRequest{
		Proposer: "alice",
		Executor: "noop",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	var created ProposalResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, uint64(1), created.Id)
	assert.Equal(t, "noop", created.Executor)

	w = doRequest(t, a, http.MethodGet, "/api/v1/proposals/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, a, http.MethodGet, "/api/v1/proposals", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var list []ProposalResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list, 1)

	w = doRequest(
		t,
		a,
		http.MethodPost,
		"/api/v1/proposals/1/votes",
		VoteRequest{Voter: "bob", Support: true},
	)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, a, http.MethodPost, "/api/v1/proposals/1/execute", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleProposalNotFound(t *testing.T) {
	a := newTestApi(&fakeNode{proposals: make(map[uint64]ProposalInfo)})
	w := doRequest(t, a, http.MethodGet, "/api/v1/proposals/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, a, http.MethodGet, "/api/v1/proposals/nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleExecuteConflicts(t *testing.T) {
	node := &fakeNode{
		proposals: map[uint64]ProposalInfo{
			1: {Id: 1, Executed: true},
		},
		execErr: governance.ErrAlreadyExecuted,
	}
	a := newTestApi(node)
	w := doRequest(t, a, http.MethodPost, "/api/v1/proposals/1/execute", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleVoteWindowClosed(t *testing.T) {
	node := &fakeNode{
		proposals: map[uint64]ProposalInfo{1: {Id: 1}},
		voteErr:   governance.ErrVotingClosed,
	}
	a := newTestApi(node)
	w := doRequest(
		t,
		a,
		http.MethodPost,
		"/api/v1/proposals/1/votes",
		VoteRequest{Voter: "bob", Support: false},
	)
	assert.Equal(t, http.StatusConflict, w.Code)
}
