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
	"crypto/rand"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/sdk/pkg/assembled"
	"github.com/kaleido-io/sorobankit/sdk/pkg/contractspec"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sorobanrpc"
	"github.com/stellar/go-stellar-sdk/hash"
	"github.com/stellar/go-stellar-sdk/network"
	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stellar/go-stellar-sdk/xdr"
)

type DeployOptions struct {
	Options
	// WasmHash is the hex hash of wasm already uploaded to the ledger
	WasmHash string
	// Salt is 32 bytes, and is random if not set
	Salt []byte
	// Deployer defaults to PublicKey
	Deployer string
}

func contractIDPreimage(ctx context.Context, deployer string, salt []byte) (xdr.ContractIdPreimage, error) {
	if len(salt) != 32 {
		return xdr.ContractIdPreimage{}, i18n.NewError(ctx, sbmsgs.MsgClientInvalidSalt, len(salt))
	}
	addr, err := contractspec.ParseAddress(ctx, deployer, "deployer")
	if err != nil {
		return xdr.ContractIdPreimage{}, err
	}
	var s xdr.Uint256
	copy(s[:], salt)
	return xdr.ContractIdPreimage{
		Type:        xdr.ContractIdPreimageTypeContractIdPreimageFromAddress,
		FromAddress: &xdr.ContractIdPreimageFromAddress{Address: addr, Salt: s},
	}, nil
}

// DeployedContractID is the ID a contract will have when deployed on the
// network by deployer with salt
func DeployedContractID(ctx context.Context, networkPassphrase, deployer string, salt []byte) (string, error) {
	cip, err := contractIDPreimage(ctx, deployer, salt)
	if err != nil {
		return "", err
	}
	return contractIDFromPreimage(ctx, networkPassphrase, cip)
}

func contractIDFromPreimage(ctx context.Context, networkPassphrase string, cip xdr.ContractIdPreimage) (string, error) {
	preimage := xdr.HashIdPreimage{
		Type: xdr.EnvelopeTypeEnvelopeTypeContractId,
		ContractId: &xdr.HashIdPreimageContractId{
			NetworkId:          xdr.Hash(network.ID(networkPassphrase)),
			ContractIdPreimage: cip,
		},
	}
	b, err := preimage.MarshalBinary()
	if err != nil {
		return "", i18n.WrapError(ctx, err, sbmsgs.MsgTxInvalidEnvelope)
	}
	id := hash.Hash(b)
	return strkey.Encode(strkey.VersionByteContract, id[:])
}

// Deploy builds a transaction creating a contract from uploaded wasm, passing
// args to its constructor. The result of the transaction is a Client bound to
// the new contract.
func Deploy(ctx context.Context, rpc sorobanrpc.Server, spec *contractspec.Spec, args map[string]any, opts DeployOptions) (*assembled.AssembledTransaction, error) {
	if spec == nil {
		return nil, i18n.NewError(ctx, sbmsgs.MsgClientNoSpec)
	}
	if opts.WasmHash == "" {
		return nil, i18n.NewError(ctx, sbmsgs.MsgClientNoWasmHash)
	}
	wasmHash, err := ParseWasmHash(ctx, opts.WasmHash)
	if err != nil {
		return nil, err
	}
	deployer := opts.Deployer
	if deployer == "" {
		deployer = opts.PublicKey
	}
	if deployer == "" {
		return nil, i18n.NewError(ctx, sbmsgs.MsgClientNoDeployer)
	}
	salt := opts.Salt
	if salt == nil {
		salt = make([]byte, 32)
		if _, err := rand.Read(salt); err != nil {
			return nil, err
		}
	}
	cip, err := contractIDPreimage(ctx, deployer, salt)
	if err != nil {
		return nil, err
	}
	contractID, err := contractIDFromPreimage(ctx, opts.NetworkPassphrase, cip)
	if err != nil {
		return nil, err
	}

	var ctorArgs []xdr.ScVal
	if _, err := spec.GetFunc(ctx, constructorName); err == nil {
		if ctorArgs, err = spec.FuncArgsToScVals(ctx, constructorName, args); err != nil {
			return nil, err
		}
	} else if len(args) > 0 {
		return nil, i18n.NewError(ctx, sbmsgs.MsgClientNoConstructor, len(args))
	}

	clientOpts := opts.Options
	clientOpts.ContractID = contractID
	log.L(ctx).Infof("Deploying wasm %s as contract %s", opts.WasmHash, contractID)

	return assembled.BuildWithHostFunction(ctx, rpc, &assembled.Options{
		NetworkPassphrase: opts.NetworkPassphrase,
		ContractID:        contractID,
		PublicKey:         opts.PublicKey,
		Method:            constructorName,
		Args:              ctorArgs,
		Transaction:       opts.Transaction,
		ParseResult: func(ctx context.Context, v xdr.ScVal) (any, error) {
			if v.Type != xdr.ScValTypeScvAddress || v.Address == nil {
				return nil, i18n.NewError(ctx, sbmsgs.MsgClientDeployResult, v.Type)
			}
			deployed, err := contractspec.FormatAddress(ctx, *v.Address, "result")
			if err != nil {
				return nil, err
			}
			clientOpts.ContractID = deployed
			return New(ctx, spec, rpc, clientOpts)
		},
		ErrorTypes:  spec.ErrorTypes(),
		Signer:      opts.Signer,
		AuthSigners: opts.AuthSigners,
		Metrics:     opts.Metrics,
	}, xdr.HostFunction{
		Type: xdr.HostFunctionTypeHostFunctionTypeCreateContractV2,
		CreateContractV2: &xdr.CreateContractArgsV2{
			ContractIdPreimage: cip,
			Executable: xdr.ContractExecutable{
				Type:     xdr.ContractExecutableTypeContractExecutableWasm,
				WasmHash: &wasmHash,
			},
			ConstructorArgs: ctorArgs,
		},
	})
}
