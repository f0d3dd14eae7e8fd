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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/meadowlark-io/vesper/governance"
	"github.com/meadowlark-io/vesper/internal/version"
	"github.com/meadowlark-io/vesper/ledger"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// writeCommandError maps domain errors onto HTTP statuses: validation
// failures are 400, unknown resources 404, lifecycle conflicts 409, executor
// failures 502, and anything unexpected 500.
func (a *Api) writeCommandError(w http.ResponseWriter, err error) {
	var durationErr ledger.InvalidDurationError
	var amountErr ledger.InvalidAmountError
	var powerErr governance.InsufficientPowerError
	var transferErr ledger.TransferError
	var execErr governance.ExecutionFailedError
	switch {
	case errors.As(err, &durationErr),
		errors.As(err, &amountErr),
		errors.As(err, &powerErr),
		errors.As(err, &transferErr),
		errors.Is(err, governance.ErrUnknownExecutor):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, governance.ErrProposalNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, governance.ErrVotingClosed),
		errors.Is(err, governance.ErrVotingOpen),
		errors.Is(err, governance.ErrNotApproved),
		errors.Is(err, governance.ErrAlreadyExecuted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &execErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		a.logger.Error("command failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func proposalResponse(info ProposalInfo) ProposalResponse {
	return ProposalResponse{
		Id:            info.Id,
		Proposer:      info.Proposer,
		Executor:      info.ExecutorName,
		Yes:           info.Yes,
		No:            info.No,
		CreationEpoch: info.CreationEpoch,
		Executed:      info.Executed,
	}
}

// handleRoot handles GET / and returns API metadata
func (a *Api) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "vesper",
		Version: version.GetVersionString(),
	})
}

// handleHealth handles GET /health
func (a *Api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
}

// handleEpoch handles GET /api/v1/epoch
func (a *Api) handleEpoch(w http.ResponseWriter, _ *http.Request) {
	info := a.node.CurrentEpoch()
	writeJSON(w, http.StatusOK, EpochResponse{
		Epoch:          info.Epoch,
		StartTime:      info.StartTime,
		NextEpochTime:  info.NextEpochTime,
		EpochWidthSecs: info.EpochWidthSecs,
	})
}

// handleAccountPower handles GET /api/v1/accounts/{account}/power with an
// optional epoch query parameter.
func (a *Api) handleAccountPower(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	epoch, ok, err := epochParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid epoch parameter")
		return
	}
	var power uint64
	if ok {
		power, err = a.node.VotingPowerAt(account, epoch)
	} else {
		epoch = a.node.CurrentEpoch().Epoch
		power, err = a.node.CurrentVotingPower(account)
	}
	if err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PowerResponse{
		Account: account,
		Epoch:   epoch,
		Power:   power,
	})
}

// handleTotalPower handles GET /api/v1/power/total with an optional epoch
// query parameter.
func (a *Api) handleTotalPower(w http.ResponseWriter, r *http.Request) {
	epoch, ok, err := epochParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid epoch parameter")
		return
	}
	var power uint64
	if ok {
		power, err = a.node.TotalVotingPowerAt(epoch)
	} else {
		epoch = a.node.CurrentEpoch().Epoch
		power, err = a.node.CurrentTotalVotingPower()
	}
	if err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PowerResponse{
		Epoch: epoch,
		Power: power,
	})
}

// handleLock handles POST /api/v1/locks
func (a *Api) handleLock(w http.ResponseWriter, r *http.Request) {
	var req LockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Account == "" {
		writeError(w, http.StatusBadRequest, "account is required")
		return
	}
	if err := a.node.Lock(req.Account, req.Amount, req.DurationEpochs); err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// handleUnlock handles POST /api/v1/unlocks
func (a *Api) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Account == "" {
		writeError(w, http.StatusBadRequest, "account is required")
		return
	}
	withdrawn, err := a.node.Unlock(req.Account)
	if err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UnlockResponse{
		Account:   req.Account,
		Withdrawn: withdrawn,
	})
}

// handleListProposals handles GET /api/v1/proposals
func (a *Api) handleListProposals(w http.ResponseWriter, _ *http.Request) {
	proposals := a.node.Proposals()
	ret := make([]ProposalResponse, 0, len(proposals))
	for _, info := range proposals {
		ret = append(ret, proposalResponse(info))
	}
	writeJSON(w, http.StatusOK, ret)
}

// handleCreateProposal handles POST /api/v1/proposals
func (a *Api) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req ProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Proposer == "" || req.Executor == "" {
		writeError(w, http.StatusBadRequest, "proposer and executor are required")
		return
	}
	id, err := a.node.CreateProposal(req.Proposer, req.Executor)
	if err != nil {
		a.writeCommandError(w, err)
		return
	}
	info, err := a.node.Proposal(id)
	if err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proposalResponse(info))
}

// handleGetProposal handles GET /api/v1/proposals/{id}
func (a *Api) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, err := proposalIdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal id")
		return
	}
	info, err := a.node.Proposal(id)
	if err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposalResponse(info))
}

// handleVote handles POST /api/v1/proposals/{id}/votes
func (a *Api) handleVote(w http.ResponseWriter, r *http.Request) {
	id, err := proposalIdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal id")
		return
	}
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Voter == "" {
		writeError(w, http.StatusBadRequest, "voter is required")
		return
	}
	if err := a.node.Vote(id, req.Voter, req.Support); err != nil {
		a.writeCommandError(w, err)
		return
	}
	info, err := a.node.Proposal(id)
	if err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposalResponse(info))
}

// handleExecuteProposal handles POST /api/v1/proposals/{id}/execute
func (a *Api) handleExecuteProposal(w http.ResponseWriter, r *http.Request) {
	id, err := proposalIdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal id")
		return
	}
	if err := a.node.ExecuteProposal(id); err != nil {
		a.writeCommandError(w, err)
		return
	}
	info, err := a.node.Proposal(id)
	if err != nil {
		a.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposalResponse(info))
}

func epochParam(r *http.Request) (uint64, bool, error) {
	raw := r.URL.Query().Get("epoch")
	if raw == "" {
		return 0, false, nil
	}
	epoch, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return epoch, true, nil
}

func proposalIdParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(r.PathValue("id"), 10, 64)
}
