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

package assembled_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/kaleido-io/sorobankit/config/pkg/confutil"
	"github.com/kaleido-io/sorobankit/sdk/pkg/assembled"
	"github.com/kaleido-io/sorobankit/sdk/pkg/rpcclient"
	"github.com/kaleido-io/sorobankit/sdk/pkg/rpcclient/rpctest"
	"github.com/kaleido-io/sorobankit/sdk/pkg/signer"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sorobanrpc"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sorobanrpc/sorobantest"
	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, sent chan<- xdr.TransactionEnvelope, h rpctest.Handler) rpctest.Handler {
	return func(req *rpcclient.RPCRequest) (int, *rpcclient.RPCResponse) {
		sent <- requestEnvelope(t, req)
		return h(req)
	}
}

func TestSimulateSignSubmitPoll(t *testing.T) {
	ts := newSetup(t)
	sent := make(chan xdr.TransactionEnvelope, 1)
	ts.serve(t,
		ts.account(t, 10, 0),
		rpctest.Method{Name: "simulateTransaction", Handler: func(req *rpcclient.RPCRequest) (int, *rpcclient.RPCResponse) {
			env := requestEnvelope(t, req)
			assert.Equal(t, int32(0), env.V1.Tx.Ext.V)
			assert.Equal(t, xdr.Uint32(100), env.V1.Tx.Fee)
			assert.Empty(t, env.V1.Signatures)
			return rpctest.SuccessResponse(req.ID, sorobantest.WriteSimulation(t, testContract, u32Val(7)))
		}},
		rpctest.Method{Name: "sendTransaction", Handler: capture(t, sent, sorobantest.Send(sorobanrpc.SendTransactionStatusPending, "hash1"))},
		getTransaction(sorobantest.TransactionNotFound(), 1),
		getTransaction(sorobantest.TransactionSuccess(t, u32Val(7)), 0),
	)

	atx, err := assembled.Build(ts.ctx, ts.rpc, ts.options())
	require.NoError(t, err)
	assert.Equal(t, assembled.StateSimulated, atx.State())
	assert.False(t, atx.IsReadCall())
	preview, err := atx.Result(ts.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), preview)

	result, err := atx.SignAndSend(ts.ctx, assembled.SignOptions{})
	require.NoError(t, err)
	assert.Equal(t, preview, result)
	assert.Equal(t, assembled.StateSuccess, atx.State())
	assert.Equal(t, "hash1", atx.Hash())

	env := <-sent
	assert.Equal(t, xdr.SequenceNumber(11), env.V1.Tx.SeqNum)
	assert.Equal(t, xdr.Uint32(1100), env.V1.Tx.Fee)
	assert.Equal(t, int32(1), env.V1.Tx.Ext.V)
	assert.Len(t, env.V1.Signatures, 1)

	assert.Equal(t, []string{
		"getLedgerEntries", "simulateTransaction", "sendTransaction", "getTransaction", "getTransaction",
	}, ts.server.Calls())
	assert.Equal(t, []string{"simulation:success", "submitted:PENDING", "completed:success"}, ts.metrics.Events())
}

func TestRestoreThenResimulate(t *testing.T) {
	ts := newSetup(t)
	sent := make(chan xdr.TransactionEnvelope, 2)
	ts.serve(t,
		ts.account(t, 10, 2),
		ts.account(t, 11, 0),
		simulate(sorobantest.RestoreSimulation(t, u32Val(7)), 1),
		simulate(sorobantest.WriteSimulation(t, testContract, u32Val(7)), 0),
		rpctest.Method{Name: "sendTransaction", Times: 1, Handler: capture(t, sent, sorobantest.Send(sorobanrpc.SendTransactionStatusPending, "restorehash"))},
		rpctest.Method{Name: "sendTransaction", Handler: capture(t, sent, sorobantest.Send(sorobanrpc.SendTransactionStatusPending, "hash2"))},
		getTransaction(sorobantest.TransactionSuccess(t, xdr.ScVal{Type: xdr.ScValTypeScvVoid}), 1),
		getTransaction(sorobantest.TransactionSuccess(t, u32Val(7)), 0),
	)

	atx, err := assembled.Build(ts.ctx, ts.rpc, ts.options())
	require.NoError(t, err)
	assert.Equal(t, assembled.StateSimulated, atx.State())

	restoreEnv := <-sent
	require.Len(t, restoreEnv.V1.Tx.Operations, 1)
	assert.Equal(t, xdr.OperationTypeRestoreFootprint, restoreEnv.V1.Tx.Operations[0].Body.Type)
	assert.Equal(t, xdr.Uint32(600), restoreEnv.V1.Tx.Fee)
	assert.Equal(t, xdr.SequenceNumber(11), restoreEnv.V1.Tx.SeqNum)
	assert.Len(t, restoreEnv.V1.Signatures, 1)

	result, err := atx.SignAndSend(ts.ctx, assembled.SignOptions{})
	require.NoError(t, err)
	assert.Equal(t, uint32(7), result)
	assert.Equal(t, xdr.SequenceNumber(12), (<-sent).V1.Tx.SeqNum)

	assert.Equal(t, []string{
		"getLedgerEntries", "simulateTransaction",
		"getLedgerEntries", "sendTransaction", "getTransaction",
		"getLedgerEntries", "simulateTransaction",
		"sendTransaction", "getTransaction",
	}, ts.server.Calls())
	assert.Equal(t, []string{
		"simulation:restore", "submitted:PENDING", "restoration:success",
		"simulation:success", "submitted:PENDING", "completed:success",
	}, ts.metrics.Events())
}

func TestTryAgainLaterPollsWithoutResend(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(sorobantest.WriteSimulation(t, testContract, u32Val(1)), 0),
		send(sorobanrpc.SendTransactionStatusTryAgainLater, "hash1", 0),
		getTransaction(sorobantest.TransactionNotFound(), 2),
		getTransaction(sorobantest.TransactionSuccess(t, u32Val(1)), 0),
	)
	atx, err := assembled.Build(ts.ctx, ts.rpc, ts.options())
	require.NoError(t, err)
	result, err := atx.SignAndSend(ts.ctx, assembled.SignOptions{})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), result)
	assert.Equal(t, 1, ts.server.CallCount("sendTransaction"))
	assert.Equal(t, 3, ts.server.CallCount("getTransaction"))
}

func TestDuplicateProceedsToPolling(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(sorobantest.WriteSimulation(t, testContract, u32Val(1)), 0),
		send(sorobanrpc.SendTransactionStatusDuplicate, "hash1", 0),
		getTransaction(sorobantest.TransactionSuccess(t, u32Val(1)), 0),
	)
	atx, err := assembled.Build(ts.ctx, ts.rpc, ts.options())
	require.NoError(t, err)
	_, err = atx.SignAndSend(ts.ctx, assembled.SignOptions{})
	require.NoError(t, err)
	assert.Equal(t, assembled.StateSuccess, atx.State())
}

func TestFailedWithContractError(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(sorobantest.WriteSimulation(t, testContract, u32Val(1)), 0),
		send(sorobanrpc.SendTransactionStatusPending, "hash1", 0),
		getTransaction(sorobantest.TransactionFailed(t, sorobantest.ContractErrorEvent(t, 1)), 0),
	)
	atx, err := assembled.Build(ts.ctx, ts.rpc, ts.options())
	require.NoError(t, err)
	_, err = atx.SignAndSend(ts.ctx, assembled.SignOptions{})
	assert.Regexp(t, "SB010309.*Oh no, something went wrong", err)

	var contractErr *assembled.ContractError
	require.True(t, errors.As(err, &contractErr))
	assert.Equal(t, uint32(1), contractErr.Code)
	assert.Equal(t, "Oh no, something went wrong", contractErr.Message)
	var failedErr *assembled.TransactionFailedError
	assert.False(t, errors.As(err, &failedErr))
	assert.Equal(t, assembled.StateFailed, atx.State())
	assert.Equal(t, []string{"simulation:success", "submitted:PENDING", "completed:failed"}, ts.metrics.Events())
}

func TestFailedWithUnknownContractError(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(sorobantest.WriteSimulation(t, testContract, u32Val(1)), 0),
		send(sorobanrpc.SendTransactionStatusPending, "hash1", 0),
		getTransaction(sorobantest.TransactionFailed(t, sorobantest.ContractErrorEvent(t, 99)), 0),
	)
	atx, err := assembled.Build(ts.ctx, ts.rpc, ts.options())
	require.NoError(t, err)
	_, err = atx.SignAndSend(ts.ctx, assembled.SignOptions{})
	assert.Regexp(t, "SB010308", err)

	var failedErr *assembled.TransactionFailedError
	require.True(t, errors.As(err, &failedErr))
	assert.Equal(t, "hash1", failedErr.Hash)
}

func TestPollTimeoutThenRepoll(t *testing.T) {
	ts := newSetup(t)
	var done atomic.Bool
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(sorobantest.WriteSimulation(t, testContract, u32Val(5)), 0),
		send(sorobanrpc.SendTransactionStatusPending, "hash1", 0),
		rpctest.Method{Name: "getTransaction", Handler: func(req *rpcclient.RPCRequest) (int, *rpcclient.RPCResponse) {
			if done.Load() {
				return rpctest.SuccessResponse(req.ID, sorobantest.TransactionSuccess(t, u32Val(5)))
			}
			return rpctest.SuccessResponse(req.ID, sorobantest.TransactionNotFound())
		}},
	)
	opts := ts.options()
	opts.Transaction.Timeout = confutil.P("100ms")
	atx, err := assembled.Build(ts.ctx, ts.rpc, opts)
	require.NoError(t, err)

	_, err = atx.SignAndSend(ts.ctx, assembled.SignOptions{})
	assert.Regexp(t, "SB010310", err)
	var timeoutErr *assembled.TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, "hash1", timeoutErr.Hash)
	assert.Greater(t, timeoutErr.Attempts, 1)
	var failedErr *assembled.TransactionFailedError
	assert.False(t, errors.As(err, &failedErr))
	assert.Equal(t, assembled.StatePolling, atx.State())

	done.Store(true)
	result, err := atx.PollByHash(ts.ctx, atx.Hash())
	require.NoError(t, err)
	assert.Equal(t, uint32(5), result)
	assert.Equal(t, 1, ts.server.CallCount("sendTransaction"))
}

func TestPollContextCanceled(t *testing.T) {
	ts := newSetup(t)
	ctx, cancel := context.WithCancel(ts.ctx)
	defer cancel()
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(sorobantest.WriteSimulation(t, testContract, u32Val(5)), 0),
		send(sorobanrpc.SendTransactionStatusPending, "hash1", 0),
		rpctest.Method{Name: "getTransaction", Handler: func(req *rpcclient.RPCRequest) (int, *rpcclient.RPCResponse) {
			cancel()
			return rpctest.SuccessResponse(req.ID, sorobantest.TransactionNotFound())
		}},
	)
	atx, err := assembled.Build(ctx, ts.rpc, ts.options())
	require.NoError(t, err)
	_, err = atx.SignAndSend(ctx, assembled.SignOptions{})
	assert.Regexp(t, "SB010000", err)
}

func TestSubmissionError(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(sorobantest.WriteSimulation(t, testContract, u32Val(1)), 0),
		rpctest.Method{Name: "sendTransaction", Handler: rpctest.Result(&sorobanrpc.SendTransactionResponse{
			Status:         sorobanrpc.SendTransactionStatusError,
			Hash:           "badhash",
			ErrorResultXDR: "AAAAAAAAAGT////7AAAAAA==",
		})},
	)
	atx, err := assembled.Build(ts.ctx, ts.rpc, ts.options())
	require.NoError(t, err)
	_, err = atx.SignAndSend(ts.ctx, assembled.SignOptions{})
	assert.Regexp(t, "SB010307.*ERROR.*badhash", err)

	var subErr *assembled.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, "ERROR", subErr.Status)
	assert.Equal(t, "AAAAAAAAAGT////7AAAAAA==", subErr.ErrorResultXDR)
	assert.Equal(t, assembled.StateFailed, atx.State())
	assert.Zero(t, ts.server.CallCount("getTransaction"))
}

func TestReadCall(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(sorobantest.Simulation(t, u32Val(3)), 0),
	)
	atx, err := assembled.Build(ts.ctx, ts.rpc, ts.options())
	require.NoError(t, err)
	assert.True(t, atx.IsReadCall())
	result, err := atx.Result(ts.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), result)

	err = atx.Sign(ts.ctx, assembled.SignOptions{})
	assert.Regexp(t, "SB010306", err)

	err = atx.Sign(ts.ctx, assembled.SignOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, assembled.StateSigned, atx.State())
}

func TestReadCallWithoutAccount(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t, simulate(sorobantest.Simulation(t, u32Val(3)), 0))
	opts := ts.options()
	opts.PublicKey = ""
	atx, err := assembled.Build(ts.ctx, ts.rpc, opts)
	require.NoError(t, err)
	result, err := atx.Result(ts.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), result)
	assert.Equal(t, []string{"simulateTransaction"}, ts.server.Calls())

	err = atx.Sign(ts.ctx, assembled.SignOptions{Force: true})
	assert.Regexp(t, "SB010313", err)
}

func TestSimulationErrors(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(sorobantest.SimulationError("HostError: Error(Contract, #1)"), 1),
		simulate(sorobantest.SimulationError("HostError: Error(WasmVm, InvalidAction)"), 1),
	)
	_, err := assembled.Build(ts.ctx, ts.rpc, ts.options())
	var contractErr *assembled.ContractError
	require.True(t, errors.As(err, &contractErr))
	assert.Equal(t, uint32(1), contractErr.Code)

	_, err = assembled.Build(ts.ctx, ts.rpc, ts.options())
	assert.Regexp(t, "SB010301", err)
	var simErr *assembled.SimulationError
	require.True(t, errors.As(err, &simErr))
	assert.Equal(t, "HostError: Error(WasmVm, InvalidAction)", simErr.Message)
}

func TestRestoreDisabled(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t,
		ts.account(t, 10, 3),
		ts.account(t, 11, 0),
		simulate(sorobantest.RestoreSimulation(t, u32Val(7)), 2),
		simulate(sorobantest.WriteSimulation(t, testContract, u32Val(7)), 0),
		send(sorobanrpc.SendTransactionStatusPending, "restorehash", 0),
		getTransaction(sorobantest.TransactionSuccess(t, xdr.ScVal{Type: xdr.ScValTypeScvVoid}), 0),
	)
	opts := ts.options()
	opts.Transaction.Restore = confutil.P(false)
	_, err := assembled.Build(ts.ctx, ts.rpc, opts)
	assert.Regexp(t, "SB010302", err)

	opts.Transaction.Simulate = confutil.P(false)
	atx, err := assembled.Build(ts.ctx, ts.rpc, opts)
	require.NoError(t, err)
	assert.Equal(t, assembled.StateBuilding, atx.State())
	err = atx.Simulate(ts.ctx)
	assert.Regexp(t, "SB010302", err)
	assert.Equal(t, assembled.StateNeedsRestore, atx.State())
	assert.Regexp(t, "SB010302", atx.Sign(ts.ctx, assembled.SignOptions{}))

	require.NoError(t, atx.Restore(ts.ctx))
	assert.Equal(t, assembled.StateSimulated, atx.State())
	assert.Regexp(t, "SB010321", atx.Restore(ts.ctx))
}

func TestRestoreWaitsForSequence(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t,
		ts.account(t, 10, 3),
		ts.account(t, 11, 0),
		simulate(sorobantest.RestoreSimulation(t, u32Val(7)), 1),
		simulate(sorobantest.WriteSimulation(t, testContract, u32Val(7)), 0),
		send(sorobanrpc.SendTransactionStatusPending, "restorehash", 0),
		getTransaction(sorobantest.TransactionSuccess(t, xdr.ScVal{Type: xdr.ScValTypeScvVoid}), 0),
	)
	atx, err := assembled.Build(ts.ctx, ts.rpc, ts.options())
	require.NoError(t, err)
	assert.Equal(t, assembled.StateSimulated, atx.State())
	// build, restore source, one stale read, then the advanced sequence
	assert.Equal(t, 4, ts.server.CallCount("getLedgerEntries"))

	assert.Equal(t, xdr.SequenceNumber(12), atx.Envelope().V1.Tx.SeqNum)
}

func TestRestoreSequenceNeverAdvances(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(sorobantest.RestoreSimulation(t, u32Val(7)), 0),
		send(sorobanrpc.SendTransactionStatusPending, "restorehash", 0),
		getTransaction(sorobantest.TransactionSuccess(t, xdr.ScVal{Type: xdr.ScValTypeScvVoid}), 0),
	)
	_, err := assembled.Build(ts.ctx, ts.rpc, ts.options())
	assert.Regexp(t, "SB010327.*10.*11", err)
	// build, restore source, then three refresh attempts
	assert.Equal(t, 5, ts.server.CallCount("getLedgerEntries"))
	assert.Equal(t, 1, ts.server.CallCount("simulateTransaction"))
	assert.Contains(t, ts.metrics.Events(), "restoration:success")
}

func TestRestorationFailed(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(sorobantest.RestoreSimulation(t, u32Val(7)), 0),
		send(sorobanrpc.SendTransactionStatusPending, "restorehash", 0),
		getTransaction(sorobantest.TransactionFailed(t), 0),
	)
	opts := ts.options()
	opts.Transaction.Simulate = confutil.P(false)
	atx, err := assembled.Build(ts.ctx, ts.rpc, opts)
	require.NoError(t, err)
	err = atx.Simulate(ts.ctx)
	assert.Regexp(t, "SB010303.*SB010308", err)
	var restoreErr *assembled.RestorationFailedError
	require.True(t, errors.As(err, &restoreErr))
	assert.Equal(t, assembled.StateFailed, atx.State())
	assert.Regexp(t, "SB010312", atx.Simulate(ts.ctx))
	assert.Contains(t, ts.metrics.Events(), "restoration:failed")
}

func TestFeeOutOfRange(t *testing.T) {
	ts := newSetup(t)
	bigSim := sorobantest.WriteSimulation(t, testContract, u32Val(7))
	bigSim.MinResourceFee = "4294967200"
	bigRestore := sorobantest.RestoreSimulation(t, u32Val(7))
	bigRestore.RestorePreamble.MinResourceFee = "4294967200"
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(bigSim, 1),
		simulate(bigRestore, 0),
	)
	opts := ts.options()
	opts.Transaction.Simulate = confutil.P(false)
	atx, err := assembled.Build(ts.ctx, ts.rpc, opts)
	require.NoError(t, err)

	err = atx.Simulate(ts.ctx)
	assert.Regexp(t, "SB010326.*100.*4294967200", err)
	assert.Equal(t, assembled.StateBuilding, atx.State())
	_, err = atx.Result(ts.ctx)
	assert.Regexp(t, "SB010300", err)

	err = atx.Simulate(ts.ctx)
	assert.Regexp(t, "SB010303.*SB010326", err)
	assert.Equal(t, assembled.StateFailed, atx.State())
	assert.Zero(t, ts.server.CallCount("sendTransaction"))
}

func TestRestorationWithoutSigner(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(sorobantest.RestoreSimulation(t, u32Val(7)), 0),
	)
	opts := ts.options()
	opts.Signer = nil
	_, err := assembled.Build(ts.ctx, ts.rpc, opts)
	assert.Regexp(t, "SB010303.*SB010304", err)
	var restoreErr *assembled.RestorationFailedError
	assert.True(t, errors.As(err, &restoreErr))
	assert.Zero(t, ts.server.CallCount("sendTransaction"))
}

func TestMultiPartyAuth(t *testing.T) {
	ts := newSetup(t)
	other, err := keypair.Random()
	require.NoError(t, err)
	otherSigner, err := signer.NewKeypairSigner(ts.ctx, other.Seed())
	require.NoError(t, err)
	sent := make(chan xdr.TransactionEnvelope, 1)
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(sorobantest.WriteSimulation(t, testContract, u32Val(1),
			sorobantest.SourceAuthEntry(t, testContract, "hello"),
			sorobantest.AddressAuthEntry(t, other.Address(), testContract, "hello", 7),
		), 0),
		rpctest.Method{Name: "sendTransaction", Handler: capture(t, sent, sorobantest.Send(sorobanrpc.SendTransactionStatusPending, "hash1"))},
		getTransaction(sorobantest.TransactionSuccess(t, u32Val(1)), 0),
	)
	atx, err := assembled.Build(ts.ctx, ts.rpc, ts.options())
	require.NoError(t, err)
	assert.Equal(t, []string{other.Address()}, atx.NeedsNonInvokerSigningBy(false))

	err = atx.Sign(ts.ctx, assembled.SignOptions{})
	assert.Regexp(t, "SB010305.*"+other.Address(), err)

	require.NoError(t, atx.SignAuthEntries(ts.ctx, other.Address(), otherSigner))
	assert.Empty(t, atx.NeedsNonInvokerSigningBy(false))
	assert.Equal(t, []string{other.Address()}, atx.NeedsNonInvokerSigningBy(true))

	_, err = atx.SignAndSend(ts.ctx, assembled.SignOptions{})
	require.NoError(t, err)

	env := <-sent
	auth := env.V1.Tx.Operations[0].Body.InvokeHostFunctionOp.Auth
	require.Len(t, auth, 2)
	creds := auth[1].Credentials.Address
	assert.Equal(t, xdr.Uint32(200), creds.SignatureExpirationLedger)
	assert.Equal(t, xdr.ScValTypeScvVec, creds.Signature.Type)
}

func TestAutoSignAuth(t *testing.T) {
	ts := newSetup(t)
	other, err := keypair.Random()
	require.NoError(t, err)
	otherSigner, err := signer.NewKeypairSigner(ts.ctx, other.Seed())
	require.NoError(t, err)
	ts.serve(t,
		ts.account(t, 10, 0),
		simulate(sorobantest.WriteSimulation(t, testContract, u32Val(1),
			sorobantest.AddressAuthEntry(t, other.Address(), testContract, "hello", 7),
		), 0),
		send(sorobanrpc.SendTransactionStatusPending, "hash1", 0),
		getTransaction(sorobantest.TransactionSuccess(t, u32Val(1)), 0),
	)
	opts := ts.options()
	opts.Transaction.AutoSignAuth = confutil.P(true)

	atx, err := assembled.Build(ts.ctx, ts.rpc, opts)
	require.NoError(t, err)
	err = atx.Sign(ts.ctx, assembled.SignOptions{})
	assert.Regexp(t, "SB010304.*"+other.Address(), err)
	assert.Equal(t, assembled.StateSimulated, atx.State())

	opts.AuthSigners = map[string]assembled.AuthEntrySigner{other.Address(): otherSigner}
	atx, err = assembled.Build(ts.ctx, ts.rpc, opts)
	require.NoError(t, err)
	result, err := atx.SignAndSend(ts.ctx, assembled.SignOptions{})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), result)
	assert.Empty(t, atx.NeedsNonInvokerSigningBy(false))
}

func TestOutOfOrderOperations(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t, ts.account(t, 10, 0))
	opts := ts.options()
	opts.Transaction.Simulate = confutil.P(false)
	atx, err := assembled.Build(ts.ctx, ts.rpc, opts)
	require.NoError(t, err)

	assert.Regexp(t, "SB010300", atx.Sign(ts.ctx, assembled.SignOptions{}))
	_, err = atx.Send(ts.ctx)
	assert.Regexp(t, "SB010311", err)
	_, err = atx.Result(ts.ctx)
	assert.Regexp(t, "SB010300", err)
	assert.Regexp(t, "SB010300", atx.SignAuthEntries(ts.ctx, ts.kp.Address(), ts.signer))
	assert.Regexp(t, "SB010321", atx.Restore(ts.ctx))
}

func TestBuildValidation(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t, ts.account(t, 10, 0))

	opts := ts.options()
	opts.ContractID = ""
	_, err := assembled.Build(ts.ctx, ts.rpc, opts)
	assert.Regexp(t, "SB010401", err)

	opts = ts.options()
	opts.NetworkPassphrase = ""
	_, err = assembled.Build(ts.ctx, ts.rpc, opts)
	assert.Regexp(t, "SB010319", err)

	opts = ts.options()
	opts.ContractID = "CNOTACONTRACT"
	_, err = assembled.Build(ts.ctx, ts.rpc, opts)
	assert.Regexp(t, "SB010009", err)
	assert.Zero(t, ts.server.CallCount("simulateTransaction"))
}

func TestBuildAccountNotFound(t *testing.T) {
	ts := newSetup(t)
	ts.serve(t, rpctest.Method{Name: "getLedgerEntries", Handler: sorobantest.LedgerEntries()})
	_, err := assembled.Build(ts.ctx, ts.rpc, ts.options())
	assert.Regexp(t, "SB010206", err)
}
