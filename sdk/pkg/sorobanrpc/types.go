// Copyright © 2025 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
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
package sorobanrpc

import (
	"encoding/json"

	"github.com/kaleido-io/sorobankit/sdk/pkg/sbtypes"
)

type GetHealthResponse struct {
	Status                string `json:"status"`
	LatestLedger          uint32 `json:"latestLedger,omitempty"`
	OldestLedger          uint32 `json:"oldestLedger,omitempty"`
	LedgerRetentionWindow uint32 `json:"ledgerRetentionWindow,omitempty"`
}

type GetNetworkResponse struct {
	FriendbotURL    string `json:"friendbotUrl,omitempty"`
	Passphrase      string `json:"passphrase"`
	ProtocolVersion int    `json:"protocolVersion"`
}

type GetLatestLedgerResponse struct {
	ID              string `json:"id"`
	Sequence        uint32 `json:"sequence"`
	ProtocolVersion int    `json:"protocolVersion"`
}

type GetLedgerEntriesRequest struct {
	Keys []string `json:"keys"`
}

type LedgerEntryResult struct {
	Key                   string `json:"key"`
	XDR                   string `json:"xdr"`
	LastModifiedLedgerSeq uint32 `json:"lastModifiedLedgerSeq,omitempty"`
	LiveUntilLedgerSeq    uint32 `json:"liveUntilLedgerSeq,omitempty"`
}

type GetLedgerEntriesResponse struct {
	Entries      []LedgerEntryResult `json:"entries"`
	LatestLedger uint32              `json:"latestLedger"`
}

// Account is the part of an account ledger entry needed to build transactions
type Account struct {
	ID       string `json:"id"`
	Sequence int64  `json:"sequence,string"`
}

type ResourceConfig struct {
	InstructionLeeway uint64 `json:"instructionLeeway"`
}

type SimulateTransactionRequest struct {
	Transaction    string          `json:"transaction"`
	ResourceConfig *ResourceConfig `json:"resourceConfig,omitempty"`
	AuthMode       string          `json:"authMode,omitempty"`
}

type Cost struct {
	CPUInstructions json.Number `json:"cpuInsns"`
	MemoryBytes     json.Number `json:"memBytes"`
}

// SimulateHostFunctionResult is the outcome of one simulated host function:
// the auth entries it needs, and its return value
type SimulateHostFunctionResult struct {
	Auth []string `json:"auth,omitempty"`
	XDR  string   `json:"xdr"`
}

// RestorePreamble is returned when the simulated transaction touches
// archived ledger entries, which must be restored before it can succeed
type RestorePreamble struct {
	TransactionData string      `json:"transactionData"`
	MinResourceFee  json.Number `json:"minResourceFee"`
}

type LedgerEntryChange struct {
	Type   sbtypes.RawJSON `json:"type"`
	Key    string          `json:"key"`
	Before *string         `json:"before"`
	After  *string         `json:"after"`
}

type SimulateTransactionResponse struct {
	Error           string                       `json:"error,omitempty"`
	TransactionData string                       `json:"transactionData,omitempty"`
	MinResourceFee  json.Number                  `json:"minResourceFee,omitempty"`
	Events          []string                     `json:"events,omitempty"`
	Results         []SimulateHostFunctionResult `json:"results,omitempty"`
	Cost            *Cost                        `json:"cost,omitempty"`
	RestorePreamble *RestorePreamble             `json:"restorePreamble,omitempty"`
	StateChanges    []LedgerEntryChange          `json:"stateChanges,omitempty"`
	LatestLedger    uint32                       `json:"latestLedger"`
}

type SendTransactionRequest struct {
	Transaction string `json:"transaction"`
}

type SendTransactionStatus string

const (
	SendTransactionStatusPending       SendTransactionStatus = "PENDING"
	SendTransactionStatusDuplicate     SendTransactionStatus = "DUPLICATE"
	SendTransactionStatusTryAgainLater SendTransactionStatus = "TRY_AGAIN_LATER"
	SendTransactionStatusError         SendTransactionStatus = "ERROR"
)

type SendTransactionResponse struct {
	Status                SendTransactionStatus `json:"status"`
	Hash                  string                `json:"hash"`
	LatestLedger          uint32                `json:"latestLedger"`
	LatestLedgerCloseTime json.Number           `json:"latestLedgerCloseTime,omitempty"`
	ErrorResultXDR        string                `json:"errorResultXdr,omitempty"`
	DiagnosticEventsXDR   []string              `json:"diagnosticEventsXdr,omitempty"`
}

type GetTransactionRequest struct {
	Hash string `json:"hash"`
}

type TransactionStatus string

const (
	TransactionStatusSuccess  TransactionStatus = "SUCCESS"
	TransactionStatusNotFound TransactionStatus = "NOT_FOUND"
	TransactionStatusFailed   TransactionStatus = "FAILED"
)

type GetTransactionResponse struct {
	Status                TransactionStatus `json:"status"`
	TxHash                string            `json:"txHash,omitempty"`
	LatestLedger          uint32            `json:"latestLedger"`
	LatestLedgerCloseTime json.Number       `json:"latestLedgerCloseTime,omitempty"`
	OldestLedger          uint32            `json:"oldestLedger"`
	OldestLedgerCloseTime json.Number       `json:"oldestLedgerCloseTime,omitempty"`
	ApplicationOrder      int               `json:"applicationOrder,omitempty"`
	FeeBump               bool              `json:"feeBump,omitempty"`
	EnvelopeXDR           string            `json:"envelopeXdr,omitempty"`
	ResultXDR             string            `json:"resultXdr,omitempty"`
	ResultMetaXDR         string            `json:"resultMetaXdr,omitempty"`
	DiagnosticEventsXDR   []string          `json:"diagnosticEventsXdr,omitempty"`
	Ledger                uint32            `json:"ledger,omitempty"`
	CreatedAt             json.Number       `json:"createdAt,omitempty"`
}

type EventFilter struct {
	Type        string     `json:"type,omitempty"`
	ContractIDs []string   `json:"contractIds,omitempty"`
	Topics      [][]string `json:"topics,omitempty"`
}

type EventPagination struct {
	Cursor string `json:"cursor,omitempty"`
	Limit  uint   `json:"limit,omitempty"`
}

type GetEventsRequest struct {
	StartLedger uint32           `json:"startLedger,omitempty"`
	EndLedger   uint32           `json:"endLedger,omitempty"`
	Filters     []EventFilter    `json:"filters"`
	Pagination  *EventPagination `json:"pagination,omitempty"`
}

type EventInfo struct {
	Type                     string   `json:"type"`
	Ledger                   uint32   `json:"ledger"`
	LedgerClosedAt           string   `json:"ledgerClosedAt"`
	ContractID               string   `json:"contractId"`
	ID                       string   `json:"id"`
	PagingToken              string   `json:"pagingToken,omitempty"`
	InSuccessfulContractCall bool     `json:"inSuccessfulContractCall"`
	TxHash                   string   `json:"txHash"`
	Topic                    []string `json:"topic"`
	Value                    string   `json:"value"`
}

type GetEventsResponse struct {
	Events       []EventInfo `json:"events"`
	LatestLedger uint32      `json:"latestLedger"`
	Cursor       string      `json:"cursor,omitempty"`
}
