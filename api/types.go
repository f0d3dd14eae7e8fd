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

// ErrorResponse is the error body returned by all endpoints
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// RootResponse is returned by GET /
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// EpochResponse is returned by GET /api/v1/epoch
type EpochResponse struct {
	Epoch          uint64 `json:"epoch"`
	StartTime      int64  `json:"start_time"`
	NextEpochTime  int64  `json:"next_epoch_time"`
	EpochWidthSecs int64  `json:"epoch_width_secs"`
}

// PowerResponse is returned by the voting power endpoints
type PowerResponse struct {
	Account string `json:"account,omitempty"`
	Epoch   uint64 `json:"epoch"`
	Power   uint64 `json:"power"`
}

// LockRequest is the body for POST /api/v1/locks
type LockRequest struct {
	Account        string `json:"account"`
	Amount         uint64 `json:"amount"`
	DurationEpochs uint64 `json:"duration_epochs"`
}

// UnlockRequest is the body for POST /api/v1/unlocks
type UnlockRequest struct {
	Account string `json:"account"`
}

// UnlockResponse is returned by POST /api/v1/unlocks
type UnlockResponse struct {
	Account   string `json:"account"`
	Withdrawn uint64 `json:"withdrawn"`
}

// ProposalRequest is the body for POST /api/v1/proposals
type ProposalRequest struct {
	Proposer string `json:"proposer"`
	Executor string `json:"executor"`
}

// ProposalResponse describes one proposal
type ProposalResponse struct {
	Id            uint64 `json:"id"`
	Proposer      string `json:"proposer"`
	Executor      string `json:"executor"`
	Yes           uint64 `json:"yes"`
	No            uint64 `json:"no"`
	CreationEpoch uint64 `json:"creation_epoch"`
	Executed      bool   `json:"executed"`
}

// VoteRequest is the body for POST /api/v1/proposals/{id}/votes
type VoteRequest struct {
	Voter   string `json:"voter"`
	Support bool   `json:"support"`
}
