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

// Package signer signs transactions and authorization entries with a local
// ed25519 keypair
package signer

import (
	"context"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/sdk/pkg/assembled"
	"github.com/stellar/go-stellar-sdk/hash"
	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/network"
	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stellar/go-stellar-sdk/xdr"
)

type KeypairSigner struct {
	kp *keypair.Full
}

var _ assembled.TransactionSigner = (*KeypairSigner)(nil)
var _ assembled.AuthEntrySigner = (*KeypairSigner)(nil)

// NewKeypairSigner parses an S... secret seed
func NewKeypairSigner(ctx context.Context, secret string) (*KeypairSigner, error) {
	kp, err := keypair.ParseFull(secret)
	if err != nil {
		return nil, i18n.NewError(ctx, sbmsgs.MsgSignerInvalidSecret)
	}
	return &KeypairSigner{kp: kp}, nil
}

// Address is the G... account ID of the keypair
func (s *KeypairSigner) Address() string {
	return s.kp.Address()
}

func (s *KeypairSigner) checkAccount(ctx context.Context, account string) error {
	if account != "" && account != s.kp.Address() {
		return i18n.NewError(ctx, sbmsgs.MsgTxMissingSigner, account)
	}
	return nil
}

// SignTransaction adds a decorated signature over the network hash of the
// envelope
func (s *KeypairSigner) SignTransaction(ctx context.Context, txB64 string, opts assembled.SignTxOpts) (string, error) {
	if err := s.checkAccount(ctx, opts.AccountToSign); err != nil {
		return "", err
	}
	var env xdr.TransactionEnvelope
	if err := xdr.SafeUnmarshalBase64(txB64, &env); err != nil {
		return "", i18n.WrapError(ctx, err, sbmsgs.MsgTxInvalidEnvelope)
	}
	txHash, err := network.HashTransactionInEnvelope(env, opts.NetworkPassphrase)
	if err != nil {
		return "", i18n.WrapError(ctx, err, sbmsgs.MsgTxInvalidEnvelope)
	}
	sig, err := s.kp.SignDecorated(txHash[:])
	if err != nil {
		return "", i18n.WrapError(ctx, err, sbmsgs.MsgTxSignerFailed, s.kp.Address())
	}
	switch env.Type {
	case xdr.EnvelopeTypeEnvelopeTypeTx:
		env.V1.Signatures = append(env.V1.Signatures, sig)
	case xdr.EnvelopeTypeEnvelopeTypeTxV0:
		env.V0.Signatures = append(env.V0.Signatures, sig)
	case xdr.EnvelopeTypeEnvelopeTypeTxFeeBump:
		env.FeeBump.Signatures = append(env.FeeBump.Signatures, sig)
	}
	log.L(ctx).Debugf("Signed transaction %x with %s", txHash[:], s.kp.Address())
	return xdr.MarshalBase64(env)
}

// SignAuthEntry signs an address credential entry over the hash of its
// HashIdPreimage, keeping the nonce and expiration already in the entry
func (s *KeypairSigner) SignAuthEntry(ctx context.Context, entryB64 string, opts assembled.SignAuthOpts) (string, error) {
	if err := s.checkAccount(ctx, opts.AccountToSign); err != nil {
		return "", err
	}
	var entry xdr.SorobanAuthorizationEntry
	if err := xdr.SafeUnmarshalBase64(entryB64, &entry); err != nil {
		return "", i18n.WrapError(ctx, err, sbmsgs.MsgTxAuthEntryInvalid, s.kp.Address())
	}
	creds := entry.Credentials.Address
	if entry.Credentials.Type != xdr.SorobanCredentialsTypeSorobanCredentialsAddress || creds == nil {
		// source account credentials are covered by the transaction signature
		return entryB64, nil
	}

	preimage := xdr.HashIdPreimage{
		Type: xdr.EnvelopeTypeEnvelopeTypeSorobanAuthorization,
		SorobanAuthorization: &xdr.HashIdPreimageSorobanAuthorization{
			NetworkId:                 xdr.Hash(network.ID(opts.NetworkPassphrase)),
			Nonce:                     creds.Nonce,
			SignatureExpirationLedger: creds.SignatureExpirationLedger,
			Invocation:                entry.RootInvocation,
		},
	}
	b, err := preimage.MarshalBinary()
	if err != nil {
		return "", i18n.WrapError(ctx, err, sbmsgs.MsgTxAuthEntryInvalid, s.kp.Address())
	}
	payload := hash.Hash(b)
	sig, err := s.kp.Sign(payload[:])
	if err != nil {
		return "", i18n.WrapError(ctx, err, sbmsgs.MsgTxSignerFailed, s.kp.Address())
	}
	publicKey, err := strkey.Decode(strkey.VersionByteAccountID, s.kp.Address())
	if err != nil {
		return "", i18n.WrapError(ctx, err, sbmsgs.MsgTxSignerFailed, s.kp.Address())
	}
	creds.Signature = signatureScVal(publicKey, sig)
	return xdr.MarshalBase64(entry)
}

// signatureScVal is the Vec[Map{public_key, signature}] form that the
// account contract verifies
func signatureScVal(publicKey, sig []byte) xdr.ScVal {
	pk, s := xdr.ScBytes(publicKey), xdr.ScBytes(sig)
	pkSym, sigSym := xdr.ScSymbol("public_key"), xdr.ScSymbol("signature")
	m := &xdr.ScMap{
		{Key: xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &pkSym}, Val: xdr.ScVal{Type: xdr.ScValTypeScvBytes, Bytes: &pk}},
		{Key: xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sigSym}, Val: xdr.ScVal{Type: xdr.ScValTypeScvBytes, Bytes: &s}},
	}
	vec := &xdr.ScVec{{Type: xdr.ScValTypeScvMap, Map: &m}}
	return xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &vec}
}
