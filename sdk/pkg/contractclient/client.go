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
	"encoding/json"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	"github.com/kaleido-io/sorobankit/sdk/pkg/assembled"
	"github.com/kaleido-io/sorobankit/sdk/pkg/contractspec"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sorobanrpc"
	"github.com/samber/lo"
	"github.com/stellar/go-stellar-sdk/xdr"
)

const constructorName = "__constructor"

// Options apply to every transaction built by a client
type Options struct {
	NetworkPassphrase string
	ContractID        string
	PublicKey         string
	Transaction       sbconf.TransactionConfig
	Signer            assembled.TransactionSigner
	AuthSigners       map[string]assembled.AuthEntrySigner
	Metrics           assembled.Metrics
}

// OptionsFromConfig takes the network, contract, source account and
// transaction defaults from config. Signers are never configured this way.
func OptionsFromConfig(conf *sbconf.ClientConfig) Options {
	return Options{
		NetworkPassphrase: conf.NetworkPassphrase,
		ContractID:        conf.ContractID,
		PublicKey:         conf.PublicKey,
		Transaction:       conf.Transaction,
	}
}

// MethodOption overrides the client options for one call
type MethodOption func(*assembled.Options)

func WithSigner(s assembled.TransactionSigner) MethodOption {
	return func(o *assembled.Options) { o.Signer = s }
}

func WithPublicKey(publicKey string) MethodOption {
	return func(o *assembled.Options) { o.PublicKey = publicKey }
}

func WithAuthSigner(address string, s assembled.AuthEntrySigner) MethodOption {
	return func(o *assembled.Options) {
		signers := make(map[string]assembled.AuthEntrySigner, len(o.AuthSigners)+1)
		for k, v := range o.AuthSigners {
			signers[k] = v
		}
		signers[address] = s
		o.AuthSigners = signers
	}
}

func WithTransaction(tc sbconf.TransactionConfig) MethodOption {
	return func(o *assembled.Options) { o.Transaction = tc }
}

// Method builds (and by default simulates) a call to one contract function.
// Args are keyed by parameter name.
type Method func(ctx context.Context, args map[string]any, opts ...MethodOption) (*assembled.AssembledTransaction, error)

// Client exposes one Method per function of a deployed contract
type Client struct {
	spec    *contractspec.Spec
	rpc     sorobanrpc.Server
	opts    Options
	names   []string
	methods map[string]Method
}

func New(ctx context.Context, spec *contractspec.Spec, rpc sorobanrpc.Server, opts Options) (*Client, error) {
	if spec == nil {
		return nil, i18n.NewError(ctx, sbmsgs.MsgClientNoSpec)
	}
	if opts.ContractID == "" {
		return nil, i18n.NewError(ctx, sbmsgs.MsgClientNoContractID)
	}
	if _, err := contractspec.ParseAddress(ctx, opts.ContractID, "contractId"); err != nil {
		return nil, err
	}
	c := &Client{
		spec:    spec,
		rpc:     rpc,
		opts:    opts,
		methods: map[string]Method{},
	}
	c.names = lo.FilterMap(spec.Funcs(), func(f xdr.ScSpecFunctionV0, _ int) (string, bool) {
		return string(f.Name), f.Name != constructorName
	})
	for _, name := range c.names {
		c.methods[name] = c.method(name)
	}
	log.L(ctx).Debugf("Client for %s has methods %v", opts.ContractID, c.names)
	return c, nil
}

func (c *Client) method(name string) Method {
	return func(ctx context.Context, args map[string]any, opts ...MethodOption) (*assembled.AssembledTransaction, error) {
		vals, err := c.spec.FuncArgsToScVals(ctx, name, args)
		if err != nil {
			return nil, err
		}
		return assembled.Build(ctx, c.rpc, c.assembledOptions(name, vals, opts...))
	}
}

func (c *Client) assembledOptions(name string, args []xdr.ScVal, opts ...MethodOption) *assembled.Options {
	o := &assembled.Options{
		NetworkPassphrase: c.opts.NetworkPassphrase,
		ContractID:        c.opts.ContractID,
		PublicKey:         c.opts.PublicKey,
		Method:            name,
		Args:              args,
		Transaction:       c.opts.Transaction,
		ParseResult: func(ctx context.Context, v xdr.ScVal) (any, error) {
			return c.spec.FuncResToNative(ctx, name, v)
		},
		ErrorTypes:  c.spec.ErrorTypes(),
		Signer:      c.opts.Signer,
		AuthSigners: c.opts.AuthSigners,
		Metrics:     c.opts.Metrics,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (c *Client) Spec() *contractspec.Spec {
	return c.spec
}

func (c *Client) ContractID() string {
	return c.opts.ContractID
}

func (c *Client) RPC() sorobanrpc.Server {
	return c.rpc
}

func (c *Client) Options() Options {
	return c.opts
}

// Methods lists the callable functions in declaration order
func (c *Client) Methods() []string {
	return append([]string(nil), c.names...)
}

func (c *Client) Method(name string) (Method, bool) {
	m, ok := c.methods[name]
	return m, ok
}

// Invoke builds a call to the named function. The transaction is simulated
// (unless disabled), but is not signed or sent.
func (c *Client) Invoke(ctx context.Context, name string, args map[string]any, opts ...MethodOption) (*assembled.AssembledTransaction, error) {
	m, ok := c.methods[name]
	if !ok {
		return nil, i18n.NewError(ctx, sbmsgs.MsgClientMethodNotFound, name)
	}
	return m(ctx, args, opts...)
}

// TxFromJSON resumes a call serialized with ToJSON, decoding its results
// with this client's spec
func (c *Client) TxFromJSON(ctx context.Context, data []byte, opts ...MethodOption) (*assembled.AssembledTransaction, error) {
	var j assembled.TransactionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTxInvalidJSON)
	}
	if _, ok := c.methods[j.Method]; !ok {
		return nil, i18n.NewError(ctx, sbmsgs.MsgClientMethodNotFound, j.Method)
	}
	return assembled.FromJSON(ctx, c.rpc, c.assembledOptions(j.Method, nil, opts...), data)
}

// TxFromXDR rebuilds a call from an envelope that invokes a function of
// this contract
func (c *Client) TxFromXDR(ctx context.Context, envB64 string, opts ...MethodOption) (*assembled.AssembledTransaction, error) {
	var env xdr.TransactionEnvelope
	if err := xdr.SafeUnmarshalBase64(envB64, &env); err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTxInvalidEnvelope)
	}
	name := invokedFunction(&env)
	if _, ok := c.methods[name]; !ok {
		return nil, i18n.NewError(ctx, sbmsgs.MsgClientMethodNotFound, name)
	}
	return assembled.FromXDR(ctx, c.rpc, c.assembledOptions(name, nil, opts...), envB64)
}

func invokedFunction(env *xdr.TransactionEnvelope) string {
	if env.V1 == nil || len(env.V1.Tx.Operations) != 1 {
		return ""
	}
	op := env.V1.Tx.Operations[0].Body.InvokeHostFunctionOp
	if op == nil || op.HostFunction.InvokeContract == nil {
		return ""
	}
	return string(op.HostFunction.InvokeContract.FunctionName)
}
