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
	"time"

	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	"github.com/kaleido-io/sorobankit/sdk/pkg/contractspec"
	"github.com/stellar/go-stellar-sdk/xdr"
)

type State string

const (
	StateBuilding     State = "building"
	StateSimulated    State = "simulated"
	StateNeedsRestore State = "needs_restore"
	StateRestoring    State = "restoring"
	StateSigned       State = "signed"
	StateSubmitted    State = "submitted"
	StatePolling      State = "polling"
	StateSuccess      State = "success"
	StateFailed       State = "failed"
)

type SignTxOpts struct {
	NetworkPassphrase string
	AccountToSign     string
}

type SignAuthOpts struct {
	NetworkPassphrase string
	AccountToSign     string
}

// TransactionSigner signs a base64 transaction envelope, returning the
// signed envelope. Implementations may block for as long as they need, for
// example waiting on a user to approve the signature.
type TransactionSigner interface {
	SignTransaction(ctx context.Context, txB64 string, opts SignTxOpts) (string, error)
}

// AuthEntrySigner signs a base64 SorobanAuthorizationEntry, returning the
// entry with its signature set
type AuthEntrySigner interface {
	SignAuthEntry(ctx context.Context, entryB64 string, opts SignAuthOpts) (string, error)
}

// Metrics receives lifecycle events. All methods must be safe to call from
// any goroutine.
type Metrics interface {
	SimulationCompleted(outcome string)
	RestorationCompleted(outcome string)
	TransactionSubmitted(status string)
	TransactionCompleted(result string, pollDuration time.Duration)
}

// ResultParser converts the return value of the contract function to its
// native form
type ResultParser func(ctx context.Context, v xdr.ScVal) (any, error)

type Options struct {
	NetworkPassphrase string
	ContractID        string
	// source account of the transaction. Read calls can leave this empty,
	// and will be simulated from a placeholder account
	PublicKey string
	Method    string
	Args      []xdr.ScVal
	// unset fields take the values from sbconf.TransactionDefaults
	Transaction sbconf.TransactionConfig
	ParseResult ResultParser
	ErrorTypes  map[uint32]contractspec.ErrorType
	Signer      TransactionSigner
	AuthSigners map[string]AuthEntrySigner
	Metrics     Metrics
}

type SignOptions struct {
	// sign and send even if the call is read only
	Force bool
	// overrides Options.Signer
	Signer TransactionSigner
}
