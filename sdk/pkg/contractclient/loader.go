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

package contractclient

import (
	"context"
	"encoding/hex"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	"github.com/kaleido-io/sorobankit/sdk/pkg/cache"
	"github.com/kaleido-io/sorobankit/sdk/pkg/contractspec"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sorobanrpc"
	"github.com/stellar/go-stellar-sdk/xdr"
)

// SpecLoader resolves contract specs from the ledger. Specs are cached by
// wasm hash, so every contract deployed from the same wasm shares one.
type SpecLoader struct {
	rpc   sorobanrpc.Server
	specs cache.Cache[xdr.Hash, *contractspec.Spec]
}

func NewSpecLoader(rpc sorobanrpc.Server, conf *sbconf.CacheConfig) *SpecLoader {
	return &SpecLoader{
		rpc:   rpc,
		specs: cache.NewCache[xdr.Hash, *contractspec.Spec](conf, sbconf.SpecCacheDefaults),
	}
}

func ParseWasmHash(ctx context.Context, s string) (xdr.Hash, error) {
	var h xdr.Hash
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(h) {
		return h, i18n.NewError(ctx, sbmsgs.MsgClientInvalidWasmHash, s)
	}
	copy(h[:], b)
	return h, nil
}

func (l *SpecLoader) ByWasmHash(ctx context.Context, wasmHash xdr.Hash) (*contractspec.Spec, error) {
	return l.specs.GetOrLoad(ctx, wasmHash, func(ctx context.Context) (*contractspec.Spec, error) {
		wasm, err := l.rpc.GetContractWasmByHash(ctx, wasmHash)
		if err != nil {
			return nil, err
		}
		log.L(ctx).Infof("Loading spec from %d bytes of wasm %x", len(wasm), wasmHash[:])
		return contractspec.FromWasm(ctx, wasm)
	})
}

func (l *SpecLoader) ByContractID(ctx context.Context, contractID string) (*contractspec.Spec, error) {
	wasmHash, err := l.rpc.GetContractWasmHash(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return l.ByWasmHash(ctx, wasmHash)
}

// FromWasm creates a client from the wasm of the contract deployed at opts.ContractID
func FromWasm(ctx context.Context, wasm []byte, rpc sorobanrpc.Server, opts Options) (*Client, error) {
	spec, err := contractspec.FromWasm(ctx, wasm)
	if err != nil {
		return nil, err
	}
	return New(ctx, spec, rpc, opts)
}

// FromWasmHash creates a client with the spec of uploaded wasm
func (l *SpecLoader) FromWasmHash(ctx context.Context, wasmHash string, opts Options) (*Client, error) {
	h, err := ParseWasmHash(ctx, wasmHash)
	if err != nil {
		return nil, err
	}
	spec, err := l.ByWasmHash(ctx, h)
	if err != nil {
		return nil, err
	}
	return New(ctx, spec, l.rpc, opts)
}

// FromContractID creates a client for opts.ContractID, with the spec of the
// wasm it was deployed from
func (l *SpecLoader) FromContractID(ctx context.Context, opts Options) (*Client, error) {
	if opts.ContractID == "" {
		return nil, i18n.NewError(ctx, sbmsgs.MsgClientNoContractID)
	}
	spec, err := l.ByContractID(ctx, opts.ContractID)
	if err != nil {
		return nil, err
	}
	return New(ctx, spec, l.rpc, opts)
}
