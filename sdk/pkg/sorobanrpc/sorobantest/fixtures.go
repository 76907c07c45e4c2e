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

// Package sorobantest builds Stellar RPC responses carrying real XDR, for
// unit tests that run against an rpctest.Server
package sorobantest

import (
	"testing"

	"github.com/kaleido-io/sorobankit/sdk/pkg/rpcclient"
	"github.com/kaleido-io/sorobankit/sdk/pkg/rpcclient/rpctest"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sorobanrpc"
	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stellar/go-stellar-sdk/xdr"
	"github.com/stretchr/testify/require"
)

func B64(t *testing.T, v interface{}) string {
	b64, err := xdr.MarshalBase64(v)
	require.NoError(t, err)
	return b64
}

func ContractAddress(t *testing.T, contractID string) xdr.ScAddress {
	raw, err := strkey.Decode(strkey.VersionByteContract, contractID)
	require.NoError(t, err)
	var cid xdr.ContractId
	copy(cid[:], raw)
	return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeContract, ContractId: &cid}
}

func AccountEntry(t *testing.T, address string, seq int64) sorobanrpc.LedgerEntryResult {
	aid, err := xdr.AddressToAccountId(address)
	require.NoError(t, err)
	key := xdr.LedgerKey{Type: xdr.LedgerEntryTypeAccount, Account: &xdr.LedgerKeyAccount{AccountId: aid}}
	data := xdr.LedgerEntryData{
		Type:    xdr.LedgerEntryTypeAccount,
		Account: &xdr.AccountEntry{AccountId: aid, SeqNum: xdr.SequenceNumber(seq), Balance: 100000000},
	}
	return sorobanrpc.LedgerEntryResult{Key: B64(t, key), XDR: B64(t, data), LastModifiedLedgerSeq: 1}
}

func ContractInstanceEntry(t *testing.T, contractID string, wasmHash xdr.Hash) sorobanrpc.LedgerEntryResult {
	addr := ContractAddress(t, contractID)
	instanceKey := xdr.ScVal{Type: xdr.ScValTypeScvLedgerKeyContractInstance}
	data := xdr.LedgerEntryData{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.ContractDataEntry{
			Contract:   addr,
			Key:        instanceKey,
			Durability: xdr.ContractDataDurabilityPersistent,
			Val: xdr.ScVal{
				Type: xdr.ScValTypeScvContractInstance,
				Instance: &xdr.ScContractInstance{
					Executable: xdr.ContractExecutable{
						Type:     xdr.ContractExecutableTypeContractExecutableWasm,
						WasmHash: &wasmHash,
					},
				},
			},
		},
	}
	return sorobanrpc.LedgerEntryResult{XDR: B64(t, data), LastModifiedLedgerSeq: 1}
}

func ContractCodeEntry(t *testing.T, wasmHash xdr.Hash, code []byte) sorobanrpc.LedgerEntryResult {
	data := xdr.LedgerEntryData{
		Type:         xdr.LedgerEntryTypeContractCode,
		ContractCode: &xdr.ContractCodeEntry{Hash: wasmHash, Code: code},
	}
	return sorobanrpc.LedgerEntryResult{XDR: B64(t, data), LastModifiedLedgerSeq: 1}
}

// LedgerEntries responds to getLedgerEntries with fixed entries
func LedgerEntries(entries ...sorobanrpc.LedgerEntryResult) rpctest.Handler {
	return rpctest.Result(&sorobanrpc.GetLedgerEntriesResponse{Entries: entries, LatestLedger: 100})
}

// Account responds to getLedgerEntries with an account at the given sequence
func Account(t *testing.T, address string, seq int64) rpctest.Method {
	return rpctest.Method{Name: "getLedgerEntries", Times: 1, Handler: LedgerEntries(AccountEntry(t, address, seq))}
}

func TransactionData(t *testing.T, resourceFee int64) string {
	return B64(t, xdr.SorobanTransactionData{ResourceFee: xdr.Int64(resourceFee)})
}

// Simulation is a successful simulation result with the given return value and auth entries
func Simulation(t *testing.T, retval xdr.ScVal, auth ...xdr.SorobanAuthorizationEntry) *sorobanrpc.SimulateTransactionResponse {
	authB64 := make([]string, len(auth))
	for i, a := range auth {
		authB64[i] = B64(t, a)
	}
	return &sorobanrpc.SimulateTransactionResponse{
		TransactionData: TransactionData(t, 1000),
		MinResourceFee:  "1000",
		Results:         []sorobanrpc.SimulateHostFunctionResult{{Auth: authB64, XDR: B64(t, retval)}},
		Cost:            &sorobanrpc.Cost{CPUInstructions: "100", MemoryBytes: "200"},
		LatestLedger:    100,
	}
}

// RestoreSimulation is a simulation that reports archived entries
func RestoreSimulation(t *testing.T, retval xdr.ScVal) *sorobanrpc.SimulateTransactionResponse {
	sim := Simulation(t, retval)
	sim.RestorePreamble = &sorobanrpc.RestorePreamble{
		TransactionData: TransactionData(t, 500),
		MinResourceFee:  "500",
	}
	return sim
}

func SimulationError(message string) *sorobanrpc.SimulateTransactionResponse {
	return &sorobanrpc.SimulateTransactionResponse{Error: message, LatestLedger: 100}
}

// ResultMetaV3 is a v3 transaction meta carrying a contract return value
func ResultMetaV3(t *testing.T, retval xdr.ScVal) string {
	return B64(t, xdr.TransactionMeta{
		V:  3,
		V3: &xdr.TransactionMetaV3{SorobanMeta: &xdr.SorobanTransactionMeta{ReturnValue: retval}},
	})
}

func TransactionSuccess(t *testing.T, retval xdr.ScVal) *sorobanrpc.GetTransactionResponse {
	return &sorobanrpc.GetTransactionResponse{
		Status:        sorobanrpc.TransactionStatusSuccess,
		LatestLedger:  101,
		Ledger:        101,
		ResultMetaXDR: ResultMetaV3(t, retval),
	}
}

func TransactionNotFound() *sorobanrpc.GetTransactionResponse {
	return &sorobanrpc.GetTransactionResponse{Status: sorobanrpc.TransactionStatusNotFound, LatestLedger: 100}
}

// ContractErrorEvent is a diagnostic event reporting a contract error code
func ContractErrorEvent(t *testing.T, code uint32) string {
	c := xdr.Uint32(code)
	errVal := xdr.ScVal{Type: xdr.ScValTypeScvError, Error: &xdr.ScError{Type: xdr.ScErrorTypeSceContract, ContractCode: &c}}
	return B64(t, xdr.DiagnosticEvent{
		InSuccessfulContractCall: false,
		Event: xdr.ContractEvent{
			Type: xdr.ContractEventTypeDiagnostic,
			Body: xdr.ContractEventBody{V: 0, V0: &xdr.ContractEventV0{Topics: []xdr.ScVal{}, Data: errVal}},
		},
	})
}

func TransactionFailed(t *testing.T, diagnosticEvents ...string) *sorobanrpc.GetTransactionResponse {
	return &sorobanrpc.GetTransactionResponse{
		Status:              sorobanrpc.TransactionStatusFailed,
		LatestLedger:        101,
		Ledger:              101,
		DiagnosticEventsXDR: diagnosticEvents,
	}
}

// Send responds to sendTransaction with the given status, echoing a fixed hash
func Send(status sorobanrpc.SendTransactionStatus, hash string) rpctest.Handler {
	return func(req *rpcclient.RPCRequest) (int, *rpcclient.RPCResponse) {
		return rpctest.SuccessResponse(req.ID, &sorobanrpc.SendTransactionResponse{
			Status:       status,
			Hash:         hash,
			LatestLedger: 100,
		})
	}
}

func invocation(t *testing.T, contractID, fn string) xdr.SorobanAuthorizedInvocation {
	return xdr.SorobanAuthorizedInvocation{
		Function: xdr.SorobanAuthorizedFunction{
			Type: xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeContractFn,
			ContractFn: &xdr.InvokeContractArgs{
				ContractAddress: ContractAddress(t, contractID),
				FunctionName:    xdr.ScSymbol(fn),
				Args:            []xdr.ScVal{},
			},
		},
		SubInvocations: []xdr.SorobanAuthorizedInvocation{},
	}
}

// AddressAuthEntry is an unsigned auth entry to be signed by an account
func AddressAuthEntry(t *testing.T, address, contractID, fn string, nonce int64) xdr.SorobanAuthorizationEntry {
	aid, err := xdr.AddressToAccountId(address)
	require.NoError(t, err)
	return xdr.SorobanAuthorizationEntry{
		Credentials: xdr.SorobanCredentials{
			Type: xdr.SorobanCredentialsTypeSorobanCredentialsAddress,
			Address: &xdr.SorobanAddressCredentials{
				Address:   xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeAccount, AccountId: &aid},
				Nonce:     xdr.Int64(nonce),
				Signature: xdr.ScVal{Type: xdr.ScValTypeScvVoid},
			},
		},
		RootInvocation: invocation(t, contractID, fn),
	}
}

// SourceAuthEntry is an auth entry covered by the transaction signature
func SourceAuthEntry(t *testing.T, contractID, fn string) xdr.SorobanAuthorizationEntry {
	return xdr.SorobanAuthorizationEntry{
		Credentials:    xdr.SorobanCredentials{Type: xdr.SorobanCredentialsTypeSorobanCredentialsSourceAccount},
		RootInvocation: invocation(t, contractID, fn),
	}
}

// WriteSimulation is a successful simulation of a call that writes to the
// ledger, so it must be signed and sent
func WriteSimulation(t *testing.T, contractID string, retval xdr.ScVal, auth ...xdr.SorobanAuthorizationEntry) *sorobanrpc.SimulateTransactionResponse {
	key, err := sorobanrpc.ContractInstanceKey(t.Context(), contractID)
	require.NoError(t, err)
	sim := Simulation(t, retval, auth...)
	sim.TransactionData = B64(t, xdr.SorobanTransactionData{
		Resources: xdr.SorobanResources{
			Footprint: xdr.LedgerFootprint{
				ReadOnly:  []xdr.LedgerKey{},
				ReadWrite: []xdr.LedgerKey{key},
			},
		},
		ResourceFee: 1000,
	})
	return sim
}
