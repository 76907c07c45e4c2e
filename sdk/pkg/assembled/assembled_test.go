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
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/kaleido-io/sorobankit/config/pkg/confutil"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	"github.com/kaleido-io/sorobankit/sdk/pkg/assembled"
	"github.com/kaleido-io/sorobankit/sdk/pkg/contractspec"
	"github.com/kaleido-io/sorobankit/sdk/pkg/rpcclient"
	"github.com/kaleido-io/sorobankit/sdk/pkg/rpcclient/rpctest"
	"github.com/kaleido-io/sorobankit/sdk/pkg/signer"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sorobanrpc"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sorobanrpc/sorobantest"
	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/network"
	"github.com/stellar/go-stellar-sdk/xdr"
	"github.com/stretchr/testify/require"
)

const testContract = "CAQCCIRDEQSSMJZIFEVCWLBNFYXTAMJSGM2DKNRXHA4TUOZ4HU7D7V6Z"

type testMetrics struct {
	mux    sync.Mutex
	events []string
}

func (m *testMetrics) record(e string) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.events = append(m.events, e)
}

func (m *testMetrics) Events() []string {
	m.mux.Lock()
	defer m.mux.Unlock()
	return append([]string(nil), m.events...)
}

func (m *testMetrics) SimulationCompleted(outcome string)  { m.record("simulation:" + outcome) }
func (m *testMetrics) RestorationCompleted(outcome string) { m.record("restoration:" + outcome) }
func (m *testMetrics) TransactionSubmitted(status string)  { m.record("submitted:" + status) }
func (m *testMetrics) TransactionCompleted(result string, _ time.Duration) {
	m.record("completed:" + result)
}

type testSetup struct {
	ctx     context.Context
	kp      *keypair.Full
	signer  *signer.KeypairSigner
	rpc     sorobanrpc.Server
	server  *rpctest.Server
	metrics *testMetrics
}

func newSetup(t *testing.T) *testSetup {
	ctx := context.Background()
	kp, err := keypair.Random()
	require.NoError(t, err)
	s, err := signer.NewKeypairSigner(ctx, kp.Seed())
	require.NoError(t, err)
	return &testSetup{ctx: ctx, kp: kp, signer: s, metrics: &testMetrics{}}
}

func (ts *testSetup) serve(t *testing.T, methods ...rpctest.Method) {
	ts.server = rpctest.NewServer(t, methods...)
	rpc, err := sorobanrpc.NewServer(ts.ctx, &sbconf.ClientConfig{
		RPC:       sbconf.HTTPClientConfig{URL: ts.server.URL},
		AllowHTTP: confutil.P(true),
	})
	require.NoError(t, err)
	ts.rpc = rpc
}

// account serves the source account at a sequence number, times times (0 for always)
func (ts *testSetup) account(t *testing.T, seq int64, times int) rpctest.Method {
	return rpctest.Method{
		Name:    "getLedgerEntries",
		Times:   times,
		Handler: sorobantest.LedgerEntries(sorobantest.AccountEntry(t, ts.kp.Address(), seq)),
	}
}

func (ts *testSetup) options() *assembled.Options {
	world := xdr.ScSymbol("world")
	return &assembled.Options{
		NetworkPassphrase: network.TestNetworkPassphrase,
		ContractID:        testContract,
		PublicKey:         ts.kp.Address(),
		Method:            "hello",
		Args:              []xdr.ScVal{{Type: xdr.ScValTypeScvSymbol, Sym: &world}},
		Transaction: sbconf.TransactionConfig{
			Timeout: confutil.P("2s"),
			Poll: sbconf.RetryConfig{
				InitialDelay: confutil.P("1ms"),
				MaxDelay:     confutil.P("5ms"),
				Factor:       confutil.P(2.0),
			},
			AccountRefresh: sbconf.RetryConfigWithMax{
				RetryConfig: sbconf.RetryConfig{
					InitialDelay: confutil.P("1ms"),
					MaxDelay:     confutil.P("5ms"),
					Factor:       confutil.P(2.0),
				},
				MaxAttempts: confutil.P(3),
			},
		},
		ParseResult: func(_ context.Context, v xdr.ScVal) (any, error) {
			return contractspec.ScValToNativeUntyped(v), nil
		},
		ErrorTypes: map[uint32]contractspec.ErrorType{
			1: {Name: "OhNo", Message: "Oh no, something went wrong"},
		},
		Signer:  ts.signer,
		Metrics: ts.metrics,
	}
}

func simulate(sim *sorobanrpc.SimulateTransactionResponse, times int) rpctest.Method {
	return rpctest.Method{Name: "simulateTransaction", Times: times, Handler: rpctest.Result(sim)}
}

func getTransaction(res *sorobanrpc.GetTransactionResponse, times int) rpctest.Method {
	return rpctest.Method{Name: "getTransaction", Times: times, Handler: rpctest.Result(res)}
}

func send(status sorobanrpc.SendTransactionStatus, hash string, times int) rpctest.Method {
	return rpctest.Method{Name: "sendTransaction", Times: times, Handler: sorobantest.Send(status, hash)}
}

func u32Val(v uint32) xdr.ScVal {
	u := xdr.Uint32(v)
	return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &u}
}

func requestEnvelope(t *testing.T, req *rpcclient.RPCRequest) xdr.TransactionEnvelope {
	var params struct {
		Transaction string `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(req.Params, &params))
	var env xdr.TransactionEnvelope
	require.NoError(t, xdr.SafeUnmarshalBase64(params.Transaction, &env))
	return env
}
