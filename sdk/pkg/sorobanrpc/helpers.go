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
	"context"
	"encoding/json"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/stellar/go-stellar-sdk/xdr"
)

func decodeB64[T any](ctx context.Context, b64, typeName string) (*T, error) {
	var v T
	if err := xdr.SafeUnmarshalBase64(b64, &v); err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgRPCInvalidXDR, typeName)
	}
	return &v, nil
}

func decodeDiagnosticEvents(ctx context.Context, events []string) ([]xdr.DiagnosticEvent, error) {
	out := make([]xdr.DiagnosticEvent, 0, len(events))
	for _, b64 := range events {
		e, err := decodeB64[xdr.DiagnosticEvent](ctx, b64, "DiagnosticEvent")
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

func numberOrZero(n json.Number) int64 {
	i, err := n.Int64()
	if err != nil {
		return 0
	}
	return i
}

// IsError is true if the simulation failed. The Error string holds the reason.
func (r *SimulateTransactionResponse) IsError() bool {
	return r.Error != ""
}

// NeedsRestore is true if archived entries must be restored first
func (r *SimulateTransactionResponse) NeedsRestore() bool {
	return r.RestorePreamble != nil && r.RestorePreamble.TransactionData != ""
}

func (r *SimulateTransactionResponse) ParsedTransactionData(ctx context.Context) (*xdr.SorobanTransactionData, error) {
	return decodeB64[xdr.SorobanTransactionData](ctx, r.TransactionData, "SorobanTransactionData")
}

func (r *SimulateTransactionResponse) MinResourceFeeInt() int64 {
	return numberOrZero(r.MinResourceFee)
}

func (r *SimulateTransactionResponse) DiagnosticEvents(ctx context.Context) ([]xdr.DiagnosticEvent, error) {
	return decodeDiagnosticEvents(ctx, r.Events)
}

// Result returns the outcome of the single host function in the
// transaction, or nil if there is none
func (r *SimulateTransactionResponse) Result() *SimulateHostFunctionResult {
	if len(r.Results) == 0 {
		return nil
	}
	return &r.Results[0]
}

func (r *SimulateHostFunctionResult) ReturnValue(ctx context.Context) (*xdr.ScVal, error) {
	return decodeB64[xdr.ScVal](ctx, r.XDR, "ScVal")
}

func (r *SimulateHostFunctionResult) AuthEntries(ctx context.Context) ([]xdr.SorobanAuthorizationEntry, error) {
	out := make([]xdr.SorobanAuthorizationEntry, 0, len(r.Auth))
	for _, b64 := range r.Auth {
		e, err := decodeB64[xdr.SorobanAuthorizationEntry](ctx, b64, "SorobanAuthorizationEntry")
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

func (p *RestorePreamble) ParsedTransactionData(ctx context.Context) (*xdr.SorobanTransactionData, error) {
	return decodeB64[xdr.SorobanTransactionData](ctx, p.TransactionData, "SorobanTransactionData")
}

func (p *RestorePreamble) MinResourceFeeInt() int64 {
	return numberOrZero(p.MinResourceFee)
}

func (r *SendTransactionResponse) ErrorResult(ctx context.Context) (*xdr.TransactionResult, error) {
	if r.ErrorResultXDR == "" {
		return nil, nil
	}
	return decodeB64[xdr.TransactionResult](ctx, r.ErrorResultXDR, "TransactionResult")
}

func (r *SendTransactionResponse) DiagnosticEvents(ctx context.Context) ([]xdr.DiagnosticEvent, error) {
	return decodeDiagnosticEvents(ctx, r.DiagnosticEventsXDR)
}

func (r *GetTransactionResponse) Result(ctx context.Context) (*xdr.TransactionResult, error) {
	if r.ResultXDR == "" {
		return nil, nil
	}
	return decodeB64[xdr.TransactionResult](ctx, r.ResultXDR, "TransactionResult")
}

func (r *GetTransactionResponse) ResultMeta(ctx context.Context) (*xdr.TransactionMeta, error) {
	if r.ResultMetaXDR == "" {
		return nil, nil
	}
	return decodeB64[xdr.TransactionMeta](ctx, r.ResultMetaXDR, "TransactionMeta")
}

// ReturnValue extracts the contract return value from the result meta. The
// boolean is false if the meta carries no Soroban return value.
func (r *GetTransactionResponse) ReturnValue(ctx context.Context) (*xdr.ScVal, bool, error) {
	meta, err := r.ResultMeta(ctx)
	if err != nil || meta == nil {
		return nil, false, err
	}
	switch meta.V {
	case 3:
		if meta.V3 != nil && meta.V3.SorobanMeta != nil {
			rv := meta.V3.SorobanMeta.ReturnValue
			return &rv, true, nil
		}
	case 4:
		if meta.V4 != nil && meta.V4.SorobanMeta != nil && meta.V4.SorobanMeta.ReturnValue != nil {
			return meta.V4.SorobanMeta.ReturnValue, true, nil
		}
	}
	return nil, false, nil
}

// DiagnosticEvents returns the diagnostic events reported alongside the
// transaction, falling back to those embedded in the result meta
func (r *GetTransactionResponse) DiagnosticEvents(ctx context.Context) ([]xdr.DiagnosticEvent, error) {
	if len(r.DiagnosticEventsXDR) > 0 {
		return decodeDiagnosticEvents(ctx, r.DiagnosticEventsXDR)
	}
	meta, err := r.ResultMeta(ctx)
	if err != nil || meta == nil {
		return nil, err
	}
	switch {
	case meta.V == 3 && meta.V3 != nil && meta.V3.SorobanMeta != nil:
		return meta.V3.SorobanMeta.DiagnosticEvents, nil
	case meta.V == 4 && meta.V4 != nil:
		return meta.V4.DiagnosticEvents, nil
	}
	return nil, nil
}

func (e *EventInfo) TopicScVals(ctx context.Context) ([]xdr.ScVal, error) {
	out := make([]xdr.ScVal, len(e.Topic))
	for i, b64 := range e.Topic {
		v, err := decodeB64[xdr.ScVal](ctx, b64, "ScVal")
		if err != nil {
			return nil, err
		}
		out[i] = *v
	}
	return out, nil
}

func (e *EventInfo) ValueScVal(ctx context.Context) (*xdr.ScVal, error) {
	return decodeB64[xdr.ScVal](ctx, e.Value, "ScVal")
}
