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
	"encoding/hex"
	"strings"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/config/pkg/confutil"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	"github.com/kaleido-io/sorobankit/sdk/pkg/rpcclient"
	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stellar/go-stellar-sdk/xdr"
)

// Server is the subset of the Stellar RPC API used to simulate, submit and
// track contract transactions
type Server interface {
	GetHealth(ctx context.Context) (*GetHealthResponse, error)
	GetNetwork(ctx context.Context) (*GetNetworkResponse, error)
	GetLatestLedger(ctx context.Context) (*GetLatestLedgerResponse, error)
	GetLedgerEntries(ctx context.Context, keys ...xdr.LedgerKey) (*GetLedgerEntriesResponse, error)
	GetAccount(ctx context.Context, address string) (*Account, error)
	GetContractWasmHash(ctx context.Context, contractID string) (xdr.Hash, error)
	GetContractWasmByContractID(ctx context.Context, contractID string) ([]byte, error)
	GetContractWasmByHash(ctx context.Context, wasmHash xdr.Hash) ([]byte, error)
	SimulateTransaction(ctx context.Context, txEnvelopeB64 string) (*SimulateTransactionResponse, error)
	SendTransaction(ctx context.Context, txEnvelopeB64 string) (*SendTransactionResponse, error)
	GetTransaction(ctx context.Context, hash string) (*GetTransactionResponse, error)
	GetEvents(ctx context.Context, req *GetEventsRequest) (*GetEventsResponse, error)
}

type server struct {
	rpc rpcclient.Client
}

// NewServer connects to the RPC server configured for a client. Plain http
// URLs are refused unless allowHttp is set.
func NewServer(ctx context.Context, conf *sbconf.ClientConfig) (Server, error) {
	if conf.RPC.URL == "" {
		return nil, i18n.NewError(ctx, sbmsgs.MsgRPCNoURL)
	}
	allowHTTP := confutil.Bool(conf.AllowHTTP, *sbconf.ClientDefaults.AllowHTTP)
	if strings.HasPrefix(strings.ToLower(conf.RPC.URL), "http://") && !allowHTTP {
		return nil, i18n.NewError(ctx, sbmsgs.MsgRPCInsecureURL, conf.RPC.URL)
	}
	rpc, err := rpcclient.NewHTTPClient(ctx, &conf.RPC)
	if err != nil {
		return nil, err
	}
	return Wrap(rpc), nil
}

// Wrap builds a Server over an existing JSON/RPC client
func Wrap(rpc rpcclient.Client) Server {
	return &server{rpc: rpc}
}

func (s *server) call(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	if rpcErr := s.rpc.CallRPC(ctx, result, method, params...); rpcErr != nil {
		return rpcErr
	}
	return nil
}

func (s *server) GetHealth(ctx context.Context) (*GetHealthResponse, error) {
	var res GetHealthResponse
	if err := s.call(ctx, &res, "getHealth"); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *server) GetNetwork(ctx context.Context) (*GetNetworkResponse, error) {
	var res GetNetworkResponse
	if err := s.call(ctx, &res, "getNetwork"); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *server) GetLatestLedger(ctx context.Context) (*GetLatestLedgerResponse, error) {
	var res GetLatestLedgerResponse
	if err := s.call(ctx, &res, "getLatestLedger"); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *server) GetLedgerEntries(ctx context.Context, keys ...xdr.LedgerKey) (*GetLedgerEntriesResponse, error) {
	req := &GetLedgerEntriesRequest{Keys: make([]string, len(keys))}
	for i, k := range keys {
		b64, err := xdr.MarshalBase64(k)
		if err != nil {
			return nil, i18n.NewError(ctx, sbmsgs.MsgRPCClientInvalidParam, i, "getLedgerEntries", err)
		}
		req.Keys[i] = b64
	}
	var res GetLedgerEntriesResponse
	if err := s.call(ctx, &res, "getLedgerEntries", rpcclient.ByName(req)); err != nil {
		return nil, err
	}
	return &res, nil
}

// getLedgerEntry fetches a single entry, returning nil if it does not exist
func (s *server) getLedgerEntry(ctx context.Context, key xdr.LedgerKey) (*xdr.LedgerEntryData, error) {
	res, err := s.GetLedgerEntries(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(res.Entries) == 0 {
		return nil, nil
	}
	var data xdr.LedgerEntryData
	if err := xdr.SafeUnmarshalBase64(res.Entries[0].XDR, &data); err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgRPCInvalidXDR, "LedgerEntryData")
	}
	if data.Type != key.Type {
		return nil, i18n.NewError(ctx, sbmsgs.MsgRPCUnexpectedLedgerEntry, data.Type, key.Type)
	}
	return &data, nil
}

// GetAccount returns the current sequence number of an account
func (s *server) GetAccount(ctx context.Context, address string) (*Account, error) {
	aid, err := xdr.AddressToAccountId(address)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgRPCInvalidAccountID, address)
	}
	data, err := s.getLedgerEntry(ctx, xdr.LedgerKey{
		Type:    xdr.LedgerEntryTypeAccount,
		Account: &xdr.LedgerKeyAccount{AccountId: aid},
	})
	if err != nil {
		return nil, err
	}
	if data == nil || data.Account == nil {
		return nil, i18n.NewError(ctx, sbmsgs.MsgRPCAccountNotFound, address)
	}
	return &Account{ID: address, Sequence: int64(data.Account.SeqNum)}, nil
}

// ContractInstanceKey is the ledger key of the instance entry of a contract
func ContractInstanceKey(ctx context.Context, contractID string) (xdr.LedgerKey, error) {
	raw, err := strkey.Decode(strkey.VersionByteContract, contractID)
	if err != nil || len(raw) != 32 {
		return xdr.LedgerKey{}, i18n.NewError(ctx, sbmsgs.MsgRPCInvalidContractID, contractID)
	}
	var cid xdr.ContractId
	copy(cid[:], raw)
	return xdr.LedgerKey{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.LedgerKeyContractData{
			Contract:   xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeContract, ContractId: &cid},
			Key:        xdr.ScVal{Type: xdr.ScValTypeScvLedgerKeyContractInstance},
			Durability: xdr.ContractDataDurabilityPersistent,
		},
	}, nil
}

// GetContractWasmHash returns the hash of the wasm that backs a deployed contract
func (s *server) GetContractWasmHash(ctx context.Context, contractID string) (xdr.Hash, error) {
	key, err := ContractInstanceKey(ctx, contractID)
	if err != nil {
		return xdr.Hash{}, err
	}
	data, err := s.getLedgerEntry(ctx, key)
	if err != nil {
		return xdr.Hash{}, err
	}
	if data == nil || data.ContractData == nil || data.ContractData.Val.Instance == nil {
		return xdr.Hash{}, i18n.NewError(ctx, sbmsgs.MsgRPCContractNotFound, contractID)
	}
	exec := data.ContractData.Val.Instance.Executable
	if exec.Type != xdr.ContractExecutableTypeContractExecutableWasm || exec.WasmHash == nil {
		return xdr.Hash{}, i18n.NewError(ctx, sbmsgs.MsgRPCNotWasmContract, contractID)
	}
	return *exec.WasmHash, nil
}

func (s *server) GetContractWasmByContractID(ctx context.Context, contractID string) ([]byte, error) {
	wasmHash, err := s.GetContractWasmHash(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return s.GetContractWasmByHash(ctx, wasmHash)
}

func (s *server) GetContractWasmByHash(ctx context.Context, wasmHash xdr.Hash) ([]byte, error) {
	data, err := s.getLedgerEntry(ctx, xdr.LedgerKey{
		Type:         xdr.LedgerEntryTypeContractCode,
		ContractCode: &xdr.LedgerKeyContractCode{Hash: wasmHash},
	})
	if err != nil {
		return nil, err
	}
	if data == nil || data.ContractCode == nil {
		return nil, i18n.NewError(ctx, sbmsgs.MsgRPCWasmNotFound, hex.EncodeToString(wasmHash[:]))
	}
	log.L(ctx).Debugf("Fetched %d bytes of wasm for hash %x", len(data.ContractCode.Code), wasmHash[:])
	return data.ContractCode.Code, nil
}

func (s *server) SimulateTransaction(ctx context.Context, txEnvelopeB64 string) (*SimulateTransactionResponse, error) {
	var res SimulateTransactionResponse
	if err := s.call(ctx, &res, "simulateTransaction", rpcclient.ByName(&SimulateTransactionRequest{Transaction: txEnvelopeB64})); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *server) SendTransaction(ctx context.Context, txEnvelopeB64 string) (*SendTransactionResponse, error) {
	var res SendTransactionResponse
	if err := s.call(ctx, &res, "sendTransaction", rpcclient.ByName(&SendTransactionRequest{Transaction: txEnvelopeB64})); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *server) GetTransaction(ctx context.Context, hash string) (*GetTransactionResponse, error) {
	var res GetTransactionResponse
	if err := s.call(ctx, &res, "getTransaction", rpcclient.ByName(&GetTransactionRequest{Hash: hash})); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *server) GetEvents(ctx context.Context, req *GetEventsRequest) (*GetEventsResponse, error) {
	if req.Filters == nil {
		req.Filters = []EventFilter{}
	}
	var res GetEventsResponse
	if err := s.call(ctx, &res, "getEvents", rpcclient.ByName(req)); err != nil {
		return nil, err
	}
	return &res, nil
}
