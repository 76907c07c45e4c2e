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

package assembled

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/sdk/pkg/contractspec"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sorobanrpc"
	"github.com/stellar/go-stellar-sdk/xdr"
)

type SimulationResultJSON struct {
	Auth   []string `json:"auth"`
	Retval string   `json:"retval,omitempty"`
}

type RestorePreambleJSON struct {
	TransactionData string `json:"transactionData"`
	MinResourceFee  string `json:"minResourceFee"`
}

// TransactionJSON is the serialized form of an in-flight call, from which it
// can be resumed in another process
type TransactionJSON struct {
	ID                        string                `json:"id,omitempty"`
	Method                    string                `json:"method"`
	EnvelopeXDR               string                `json:"envelopeXdr"`
	SimulationResult          *SimulationResultJSON `json:"simulationResult,omitempty"`
	SimulationTransactionData string                `json:"simulationTransactionData,omitempty"`
	MinResourceFee            string                `json:"minResourceFee,omitempty"`
	LatestLedger              uint32                `json:"latestLedger,omitempty"`
	RestorePreamble           *RestorePreambleJSON  `json:"restorePreamble,omitempty"`
	Hash                      string                `json:"hash,omitempty"`
}

func (a *AssembledTransaction) ToXDR() (string, error) {
	return xdr.MarshalBase64(a.Envelope())
}

func (a *AssembledTransaction) ToJSON() ([]byte, error) {
	envB64, err := a.ToXDR()
	if err != nil {
		return nil, err
	}
	j := &TransactionJSON{
		ID:          a.id.String(),
		Method:      a.opts.Method,
		EnvelopeXDR: envB64,
		Hash:        a.hash,
	}
	if sim := a.simulation; sim != nil {
		j.SimulationResult = &SimulationResultJSON{Auth: make([]string, len(sim.auth))}
		for i, entry := range sim.auth {
			if j.SimulationResult.Auth[i], err = xdr.MarshalBase64(entry); err != nil {
				return nil, err
			}
		}
		if sim.retval != nil {
			if j.SimulationResult.Retval, err = xdr.MarshalBase64(*sim.retval); err != nil {
				return nil, err
			}
		}
		if j.SimulationTransactionData, err = xdr.MarshalBase64(sim.transactionData); err != nil {
			return nil, err
		}
		j.MinResourceFee = strconv.FormatInt(sim.minResourceFee, 10)
		j.LatestLedger = sim.latestLedger
	}
	if r := a.restore; r != nil {
		data, err := xdr.MarshalBase64(r.transactionData)
		if err != nil {
			return nil, err
		}
		j.RestorePreamble = &RestorePreambleJSON{
			TransactionData: data,
			MinResourceFee:  strconv.FormatInt(r.minResourceFee, 10),
		}
	}
	return json.Marshal(j)
}

// FromJSON resumes a call serialized with ToJSON. A simulated call can be
// signed and sent straight away, without simulating again.
func FromJSON(ctx context.Context, rpc sorobanrpc.Server, opts *Options, data []byte) (*AssembledTransaction, error) {
	var j TransactionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTxInvalidJSON)
	}
	env, err := parseEnvelope(ctx, j.EnvelopeXDR)
	if err != nil {
		return nil, err
	}

	a := newAssembled(rpc, opts)
	if id, err := uuid.Parse(j.ID); err == nil {
		a.id = id
	}
	ctx = a.logCtx(ctx)
	a.opts.Method = j.Method
	a.hash = j.Hash
	a.raw = a.stripped(env.V1.Tx)

	switch {
	case j.SimulationResult != nil:
		sim := &simulation{latestLedger: j.LatestLedger}
		if err := unmarshalB64(ctx, j.SimulationTransactionData, &sim.transactionData); err != nil {
			return nil, err
		}
		for _, b64 := range j.SimulationResult.Auth {
			var entry xdr.SorobanAuthorizationEntry
			if err := unmarshalB64(ctx, b64, &entry); err != nil {
				return nil, err
			}
			sim.auth = append(sim.auth, entry)
		}
		if j.SimulationResult.Retval != "" {
			sim.retval = &xdr.ScVal{}
			if err := unmarshalB64(ctx, j.SimulationResult.Retval, sim.retval); err != nil {
				return nil, err
			}
		}
		if j.MinResourceFee != "" {
			if sim.minResourceFee, err = strconv.ParseInt(j.MinResourceFee, 10, 64); err != nil {
				return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTxInvalidJSON)
			}
		}
		a.simulation = sim
		a.built = env
		a.state = stateOfSimulated(env)
	case j.RestorePreamble != nil:
		r := &restorePreamble{}
		if err := unmarshalB64(ctx, j.RestorePreamble.TransactionData, &r.transactionData); err != nil {
			return nil, err
		}
		if r.minResourceFee, err = strconv.ParseInt(j.RestorePreamble.MinResourceFee, 10, 64); err != nil {
			return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTxInvalidJSON)
		}
		a.restore = r
		a.state = StateNeedsRestore
	}
	log.L(ctx).Debugf("Resumed transaction for '%s' in state %s", a.opts.Method, a.state)
	return a, nil
}

// FromXDR rebuilds a call from a transaction envelope that invokes a contract
// function. An envelope that carries Soroban resources is treated as simulated.
func FromXDR(ctx context.Context, rpc sorobanrpc.Server, opts *Options, envB64 string) (*AssembledTransaction, error) {
	env, err := parseEnvelope(ctx, envB64)
	if err != nil {
		return nil, err
	}
	tx := env.V1.Tx
	if len(tx.Operations) != 1 || tx.Operations[0].Body.Type != xdr.OperationTypeInvokeHostFunction ||
		tx.Operations[0].Body.InvokeHostFunctionOp.HostFunction.Type != xdr.HostFunctionTypeHostFunctionTypeInvokeContract {
		return nil, i18n.NewError(ctx, sbmsgs.MsgTxNotInvokeContract)
	}
	op := tx.Operations[0].Body.InvokeHostFunctionOp
	invoke := op.HostFunction.InvokeContract

	a := newAssembled(rpc, opts)
	ctx = a.logCtx(ctx)
	a.opts.Method = string(invoke.FunctionName)
	a.opts.Args = invoke.Args
	if contractID, err := contractspec.FormatAddress(ctx, invoke.ContractAddress, "contractId"); err == nil {
		a.opts.ContractID = contractID
	}
	a.raw = a.stripped(tx)
	if tx.Ext.V == 1 && tx.Ext.SorobanData != nil {
		a.simulation = &simulation{
			transactionData: *tx.Ext.SorobanData,
			auth:            append([]xdr.SorobanAuthorizationEntry(nil), op.Auth...),
			minResourceFee:  int64(tx.Ext.SorobanData.ResourceFee),
		}
		a.built = env
		a.state = stateOfSimulated(env)
	}
	log.L(ctx).Debugf("Loaded transaction for '%s' from XDR in state %s", a.opts.Method, a.state)
	return a, nil
}

func stateOfSimulated(env *xdr.TransactionEnvelope) State {
	if len(env.V1.Signatures) > 0 {
		return StateSigned
	}
	return StateSimulated
}

func parseEnvelope(ctx context.Context, b64 string) (*xdr.TransactionEnvelope, error) {
	var env xdr.TransactionEnvelope
	if err := xdr.SafeUnmarshalBase64(b64, &env); err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTxInvalidEnvelope)
	}
	if env.Type != xdr.EnvelopeTypeEnvelopeTypeTx || env.V1 == nil {
		return nil, i18n.NewError(ctx, sbmsgs.MsgTxInvalidEnvelope)
	}
	return &env, nil
}

func unmarshalB64(ctx context.Context, b64 string, v interface{}) error {
	if err := xdr.SafeUnmarshalBase64(b64, v); err != nil {
		return i18n.WrapError(ctx, err, sbmsgs.MsgTxInvalidJSON)
	}
	return nil
}

// stripped removes the simulation results from an assembled transaction, so
// it can be simulated again
func (a *AssembledTransaction) stripped(tx xdr.Transaction) xdr.Transaction {
	tx.Fee = xdr.Uint32(a.baseFee)
	tx.Ext = xdr.TransactionExt{V: 0}
	tx.Operations = append([]xdr.Operation(nil), tx.Operations...)
	for i, op := range tx.Operations {
		if op.Body.Type == xdr.OperationTypeInvokeHostFunction && op.Body.InvokeHostFunctionOp != nil {
			ihf := *op.Body.InvokeHostFunctionOp
			ihf.Auth = nil
			tx.Operations[i].Body.InvokeHostFunctionOp = &ihf
		}
	}
	return tx
}
