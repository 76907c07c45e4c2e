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

package signer

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/tyler-smith/go-bip39"
)

const hardenedOffset = 0x80000000

// StellarAccountPath returns the SEP-0005 derivation path of an account
func StellarAccountPath(index uint32) string {
	return fmt.Sprintf("m/44'/148'/%d'", index)
}

// NewMnemonicSigner derives the keypair at a SEP-0005 account index from a
// BIP-39 mnemonic and optional passphrase
func NewMnemonicSigner(ctx context.Context, mnemonic, passphrase string, index uint32) (*KeypairSigner, error) {
	return NewHDSigner(ctx, mnemonic, passphrase, StellarAccountPath(index))
}

// NewHDSigner derives an ed25519 keypair at an arbitrary hardened path, such
// as m/44'/148'/0'
func NewHDSigner(ctx context.Context, mnemonic, passphrase, path string) (*KeypairSigner, error) {
	seed, err := bip39.NewSeedWithErrorChecking(strings.TrimSpace(mnemonic), passphrase)
	if err != nil {
		return nil, i18n.NewError(ctx, sbmsgs.MsgSignerInvalidMnemonic)
	}
	key, err := derivePath(ctx, seed, path)
	if err != nil {
		return nil, err
	}
	kp, err := keypair.FromRawSeed(key)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgSignerInvalidSecret)
	}
	return &KeypairSigner{kp: kp}, nil
}

// derivePath follows SLIP-0010 for ed25519, where every child is hardened
func derivePath(ctx context.Context, seed []byte, path string) (key [32]byte, err error) {
	segments := strings.Split(strings.ReplaceAll(path, " ", ""), "/")
	if len(segments) < 2 || segments[0] != "m" {
		return key, i18n.NewError(ctx, sbmsgs.MsgSignerDerivationPath, path)
	}
	k, c := slip10([]byte("ed25519 seed"), seed)
	for _, s := range segments[1:] {
		number, isHardened := strings.CutSuffix(s, "'")
		index, err := strconv.ParseUint(number, 10, 32)
		if err != nil || !isHardened || index >= hardenedOffset {
			return key, i18n.NewError(ctx, sbmsgs.MsgSignerDerivationPath, path)
		}
		data := make([]byte, 0, 37)
		data = append(data, 0x00)
		data = append(data, k[:]...)
		data = binary.BigEndian.AppendUint32(data, uint32(index)+hardenedOffset)
		k, c = slip10(c[:], data)
	}
	return k, nil
}

func slip10(hmacKey, data []byte) (k, c [32]byte) {
	mac := hmac.New(sha512.New, hmacKey)
	mac.Write(data)
	i := mac.Sum(nil)
	copy(k[:], i[:32])
	copy(c[:], i[32:])
	return k, c
}
