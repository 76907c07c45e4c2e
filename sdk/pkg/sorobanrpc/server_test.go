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

package sorobanrpc_test

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"testing"

	"github.com/kaleido-io/sorobankit/config/pkg/confutil"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	"github.com/kaleido-io/sorobankit/sdk/pkg/rpcclient"
	"github.com/kaleido-io/sorobankit/sdk/pkg/rpcclient/rpctest"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sorobanrpc"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sorobanrpc/sorobantest"
	"github.com/stellar/go-stellar-sdk/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccount  = "GAAQEAYEAUDAOCAJBIFQYDIOB4IBCEQTCQKRMFYYDENBWHA5DYPSABOV"
	testContract = "CAQCCIRDEQSSMJZIFEVCWLBNFYXTAMJSGM2DKNRXHA4TUOZ4HU7D7V6Z"
)

func newTestServer(t *testing.T, methods ...rpctest.Method) (context.Context, sorobanrpc.Server, *rpctest.Server) {
	ctx := context.Background()
	rs := rpctest.NewServer(t, methods...)
	s, err := sorobanrpc.NewServer(ctx, &sbconf.ClientConfig{
		RPC:       sbconf.HTTPClientConfig{URL: rs.URL},
		AllowHTTP: confutil.P(true),
	})
	require.NoError(t, err)
	return ctx, s, rs
}

func TestNewServerRefusesHTTP(t *testing.T) {
	_, err := sorobanrpc.NewServer(context.Background(), &sbconf.ClientConfig{
		RPC: sbconf.HTTPClientConfig{URL: "http://localhost:8000/soroban/rpc"},
	})
	assert.Regexp(t, "SB010204", err)
}

func TestNewServerNoURL(t *testing.T) {
	_, err := sorobanrpc.NewServer(context.Background(), &sbconf.ClientConfig{})
	assert.Regexp(t, "SB010205", err)
}

func TestNewServerHTTPS(t *testing.T) {
	s, err := sorobanrpc.NewServer(context.Background(), &sbconf.ClientConfig{
		RPC: sbconf.HTTPClientConfig{URL: "https://soroban-testnet.stellar.org"},
	})
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestGetHealthAndNetwork(t *testing.T) {
	ctx, s, rs := newTestServer(t,
		rpctest.Method{Name: "getHealth", Handler: rpctest.Result(&sorobanrpc.GetHealthResponse{Status: "healthy", LatestLedger: 12})},
		rpctest.Method{Name: "getNetwork", Handler: rpctest.Result(&sorobanrpc.GetNetworkResponse{Passphrase: "Test SDF Network ; September 2015", ProtocolVersion: 22})},
		rpctest.Method{Name: "getLatestLedger", Handler: rpctest.Result(&sorobanrpc.GetLatestLedgerResponse{Sequence: 12})},
	)
	health, err := s.GetHealth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)

	network, err := s.GetNetwork(ctx)
	require.NoError(t, err)
	assert.Equal(t, 22, network.ProtocolVersion)

	latest, err := s.GetLatestLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(12), latest.Sequence)

	assert.Equal(t, []string{"getHealth", "getNetwork", "getLatestLedger"}, rs.Calls())
}

func TestGetAccount(t *testing.T) {
	ctx, s, _ := newTestServer(t, rpctest.Method{
		Name: "getLedgerEntries",
		Handler: func(req *rpcclient.RPCRequest) (int, *rpcclient.RPCResponse) {
			var params sorobanrpc.GetLedgerEntriesRequest
			require.NoError(t, json.Unmarshal(req.Params, &params))
			require.Len(t, params.Keys, 1)
			var key xdr.LedgerKey
			require.NoError(t, xdr.SafeUnmarshalBase64(params.Keys[0], &key))
			assert.Equal(t, xdr.LedgerEntryTypeAccount, key.Type)
			return rpctest.SuccessResponse(req.ID, &sorobanrpc.GetLedgerEntriesResponse{
				Entries: []sorobanrpc.LedgerEntryResult{sorobantest.AccountEntry(t, testAccount, 1234)},
			})
		},
	})
	acct, err := s.GetAccount(ctx, testAccount)
	require.NoError(t, err)
	assert.Equal(t, testAccount, acct.ID)
	assert.Equal(t, int64(1234), acct.Sequence)
}

func TestGetAccountNotFound(t *testing.T) {
	ctx, s, _ := newTestServer(t, rpctest.Method{Name: "getLedgerEntries", Handler: sorobantest.LedgerEntries()})
	_, err := s.GetAccount(ctx, testAccount)
	assert.Regexp(t, "SB010206", err)
}

func TestGetAccountInvalidAddress(t *testing.T) {
	ctx, s, rs := newTestServer(t)
	_, err := s.GetAccount(ctx, "not-an-account")
	assert.Regexp(t, "SB010213", err)
	assert.Empty(t, rs.Calls())
}

func TestGetAccountWrongEntryType(t *testing.T) {
	ctx, s, _ := newTestServer(t, rpctest.Method{
		Name:    "getLedgerEntries",
		Handler: sorobantest.LedgerEntries(sorobantest.ContractCodeEntry(t, xdr.Hash{}, []byte{0x00})),
	})
	_, err := s.GetAccount(ctx, testAccount)
	assert.Regexp(t, "SB010214", err)
}

func TestGetAccountBadXDR(t *testing.T) {
	ctx, s, _ := newTestServer(t, rpctest.Method{
		Name:    "getLedgerEntries",
		Handler: sorobantest.LedgerEntries(sorobanrpc.LedgerEntryResult{XDR: "!!!"}),
	})
	_, err := s.GetAccount(ctx, testAccount)
	assert.Regexp(t, "SB010209", err)
}

func TestGetAccountRPCError(t *testing.T) {
	ctx, s, _ := newTestServer(t, rpctest.Method{Name: "getLedgerEntries", Handler: rpctest.Fail("pop")})
	_, err := s.GetAccount(ctx, testAccount)
	assert.Regexp(t, "pop", err)
}

func TestGetContractWasmByContractID(t *testing.T) {
	code := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	wasmHash := xdr.Hash(sha256.Sum256(code))
	ctx, s, rs := newTestServer(t,
		rpctest.Method{Name: "getLedgerEntries", Times: 1, Handler: sorobantest.LedgerEntries(sorobantest.ContractInstanceEntry(t, testContract, wasmHash))},
		rpctest.Method{Name: "getLedgerEntries", Times: 1, Handler: sorobantest.LedgerEntries(sorobantest.ContractCodeEntry(t, wasmHash, code))},
	)
	wasm, err := s.GetContractWasmByContractID(ctx, testContract)
	require.NoError(t, err)
	assert.Equal(t, code, wasm)
	assert.Equal(t, 2, rs.CallCount("getLedgerEntries"))
}

func TestGetContractWasmByContractIDNotFound(t *testing.T) {
	ctx, s, _ := newTestServer(t, rpctest.Method{Name: "getLedgerEntries", Handler: sorobantest.LedgerEntries()})
	_, err := s.GetContractWasmByContractID(ctx, testContract)
	assert.Regexp(t, "SB010207", err)
}

func TestGetContractWasmByContractIDInvalid(t *testing.T) {
	ctx, s, _ := newTestServer(t)
	_, err := s.GetContractWasmByContractID(ctx, testAccount)
	assert.Regexp(t, "SB010212", err)
}

func TestGetContractWasmHash(t *testing.T) {
	wasmHash := xdr.Hash{0x0a, 0x0b}
	ctx, s, _ := newTestServer(t,
		rpctest.Method{Name: "getLedgerEntries", Handler: sorobantest.LedgerEntries(sorobantest.ContractInstanceEntry(t, testContract, wasmHash))},
	)
	h, err := s.GetContractWasmHash(ctx, testContract)
	require.NoError(t, err)
	assert.Equal(t, wasmHash, h)
}

func TestGetContractWasmHashNotWasm(t *testing.T) {
	data := xdr.LedgerEntryData{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.ContractDataEntry{
			Contract:   sorobantest.ContractAddress(t, testContract),
			Key:        xdr.ScVal{Type: xdr.ScValTypeScvLedgerKeyContractInstance},
			Durability: xdr.ContractDataDurabilityPersistent,
			Val: xdr.ScVal{
				Type: xdr.ScValTypeScvContractInstance,
				Instance: &xdr.ScContractInstance{
					Executable: xdr.ContractExecutable{Type: xdr.ContractExecutableTypeContractExecutableStellarAsset},
				},
			},
		},
	}
	ctx, s, _ := newTestServer(t, rpctest.Method{
		Name:    "getLedgerEntries",
		Handler: rpctest.Result(&sorobanrpc.GetLedgerEntriesResponse{Entries: []sorobanrpc.LedgerEntryResult{{XDR: sorobantest.B64(t, data)}}}),
	})
	_, err := s.GetContractWasmHash(ctx, testContract)
	assert.Regexp(t, "SB010210", err)
}

func TestGetContractWasmByHashNotFound(t *testing.T) {
	ctx, s, _ := newTestServer(t, rpctest.Method{Name: "getLedgerEntries", Handler: sorobantest.LedgerEntries()})
	_, err := s.GetContractWasmByHash(ctx, xdr.Hash{0x01})
	assert.Regexp(t, "SB010208.*0100000000", err)
}

func TestContractInstanceKey(t *testing.T) {
	key, err := sorobanrpc.ContractInstanceKey(context.Background(), testContract)
	require.NoError(t, err)
	assert.Equal(t, xdr.LedgerEntryTypeContractData, key.Type)
	assert.Equal(t, xdr.ScValTypeScvLedgerKeyContractInstance, key.ContractData.Key.Type)
	assert.Equal(t, xdr.ContractDataDurabilityPersistent, key.ContractData.Durability)
}

func TestSimulateTransaction(t *testing.T) {
	retval := xdr.ScVal{Type: xdr.ScValTypeScvBool, B: boolPtr(true)}
	ctx, s, _ := newTestServer(t, rpctest.Method{
		Name: "simulateTransaction",
		Handler: func(req *rpcclient.RPCRequest) (int, *rpcclient.RPCResponse) {
			var params sorobanrpc.SimulateTransactionRequest
			require.NoError(t, json.Unmarshal(req.Params, &params))
			assert.Equal(t, "AAAA", params.Transaction)
			return rpctest.SuccessResponse(req.ID, sorobantest.Simulation(t, retval))
		},
	})
	sim, err := s.SimulateTransaction(ctx, "AAAA")
	require.NoError(t, err)
	assert.False(t, sim.IsError())
	assert.False(t, sim.NeedsRestore())
	assert.Equal(t, int64(1000), sim.MinResourceFeeInt())

	txData, err := sim.ParsedTransactionData(ctx)
	require.NoError(t, err)
	assert.Equal(t, xdr.Int64(1000), txData.ResourceFee)

	require.NotNil(t, sim.Result())
	rv, err := sim.Result().ReturnValue(ctx)
	require.NoError(t, err)
	assert.True(t, *rv.B)

	auth, err := sim.Result().AuthEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestSimulateTransactionRestore(t *testing.T) {
	ctx, s, _ := newTestServer(t, rpctest.Method{
		Name:    "simulateTransaction",
		Handler: rpctest.Result(sorobantest.RestoreSimulation(t, xdr.ScVal{Type: xdr.ScValTypeScvVoid})),
	})
	sim, err := s.SimulateTransaction(ctx, "AAAA")
	require.NoError(t, err)
	assert.True(t, sim.NeedsRestore())
	assert.Equal(t, int64(500), sim.RestorePreamble.MinResourceFeeInt())
	txData, err := sim.RestorePreamble.ParsedTransactionData(ctx)
	require.NoError(t, err)
	assert.Equal(t, xdr.Int64(500), txData.ResourceFee)
}

func TestSimulateTransactionError(t *testing.T) {
	ctx, s, _ := newTestServer(t, rpctest.Method{
		Name:    "simulateTransaction",
		Handler: rpctest.Result(sorobantest.SimulationError("HostError: Error(Contract, #1)")),
	})
	sim, err := s.SimulateTransaction(ctx, "AAAA")
	require.NoError(t, err)
	assert.True(t, sim.IsError())
	assert.Nil(t, sim.Result())
}

func TestSendTransaction(t *testing.T) {
	ctx, s, _ := newTestServer(t, rpctest.Method{
		Name:    "sendTransaction",
		Handler: sorobantest.Send(sorobanrpc.SendTransactionStatusPending, "abcd"),
	})
	res, err := s.SendTransaction(ctx, "AAAA")
	require.NoError(t, err)
	assert.Equal(t, sorobanrpc.SendTransactionStatusPending, res.Status)
	assert.Equal(t, "abcd", res.Hash)
	errResult, err := res.ErrorResult(ctx)
	require.NoError(t, err)
	assert.Nil(t, errResult)
}

func TestGetTransactionReturnValue(t *testing.T) {
	u := xdr.Uint32(42)
	ctx, s, _ := newTestServer(t, rpctest.Method{
		Name: "getTransaction",
		Handler: func(req *rpcclient.RPCRequest) (int, *rpcclient.RPCResponse) {
			var params sorobanrpc.GetTransactionRequest
			require.NoError(t, json.Unmarshal(req.Params, &params))
			assert.Equal(t, "abcd", params.Hash)
			return rpctest.SuccessResponse(req.ID, sorobantest.TransactionSuccess(t, xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &u}))
		},
	})
	res, err := s.GetTransaction(ctx, "abcd")
	require.NoError(t, err)
	assert.Equal(t, sorobanrpc.TransactionStatusSuccess, res.Status)
	rv, ok, err := res.ReturnValue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, xdr.Uint32(42), *rv.U32)
}

func TestGetTransactionNotFound(t *testing.T) {
	ctx, s, _ := newTestServer(t, rpctest.Method{Name: "getTransaction", Handler: rpctest.Result(sorobantest.TransactionNotFound())})
	res, err := s.GetTransaction(ctx, "abcd")
	require.NoError(t, err)
	assert.Equal(t, sorobanrpc.TransactionStatusNotFound, res.Status)
	_, ok, err := res.ReturnValue(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetTransactionFailedDiagnostics(t *testing.T) {
	ctx, s, _ := newTestServer(t, rpctest.Method{
		Name:    "getTransaction",
		Handler: rpctest.Result(sorobantest.TransactionFailed(t, sorobantest.ContractErrorEvent(t, 3))),
	})
	res, err := s.GetTransaction(ctx, "abcd")
	require.NoError(t, err)
	events, err := res.DiagnosticEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	data := events[0].Event.Body.V0.Data
	require.Equal(t, xdr.ScValTypeScvError, data.Type)
	assert.Equal(t, xdr.Uint32(3), *data.Error.ContractCode)
}

func TestGetTransactionBadMeta(t *testing.T) {
	ctx, s, _ := newTestServer(t, rpctest.Method{
		Name: "getTransaction",
		Handler: rpctest.Result(&sorobanrpc.GetTransactionResponse{
			Status:        sorobanrpc.TransactionStatusSuccess,
			ResultMetaXDR: "!!!",
		}),
	})
	res, err := s.GetTransaction(ctx, "abcd")
	require.NoError(t, err)
	_, _, err = res.ReturnValue(ctx)
	assert.Regexp(t, "SB010209", err)
}

func TestGetEvents(t *testing.T) {
	topic := xdr.ScSymbol("transfer")
	amount := xdr.Uint32(10)
	ctx, s, _ := newTestServer(t, rpctest.Method{
		Name: "getEvents",
		Handler: func(req *rpcclient.RPCRequest) (int, *rpcclient.RPCResponse) {
			var params map[string]interface{}
			require.NoError(t, json.Unmarshal(req.Params, &params))
			assert.Equal(t, []interface{}{}, params["filters"])
			return rpctest.SuccessResponse(req.ID, &sorobanrpc.GetEventsResponse{
				Events: []sorobanrpc.EventInfo{{
					Type:       "contract",
					ContractID: testContract,
					Topic:      []string{sorobantest.B64(t, xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &topic})},
					Value:      sorobantest.B64(t, xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &amount}),
				}},
				LatestLedger: 100,
			})
		},
	})
	res, err := s.GetEvents(ctx, &sorobanrpc.GetEventsRequest{StartLedger: 1})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	topics, err := res.Events[0].TopicScVals(ctx)
	require.NoError(t, err)
	assert.Equal(t, topic, *topics[0].Sym)
	val, err := res.Events[0].ValueScVal(ctx)
	require.NoError(t, err)
	assert.Equal(t, amount, *val.U32)
}

func boolPtr(b bool) *bool {
	return &b
}
