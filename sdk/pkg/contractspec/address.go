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
package contractspec

import (
	"context"
	"strings"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stellar/go-stellar-sdk/xdr"
)

// ParseAddress converts a G... account or C... contract strkey into an ScAddress
func ParseAddress(ctx context.Context, s, path string) (xdr.ScAddress, error) {
	switch {
	case strings.HasPrefix(s, "G"):
		aid, err := xdr.AddressToAccountId(s)
		if err == nil {
			return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeAccount, AccountId: &aid}, nil
		}
	case strings.HasPrefix(s, "C"):
		raw, err := strkey.Decode(strkey.VersionByteContract, s)
		if err == nil && len(raw) == 32 {
			var cid xdr.ContractId
			copy(cid[:], raw)
			return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeContract, ContractId: &cid}, nil
		}
	}
	return xdr.ScAddress{}, i18n.NewError(ctx, sbmsgs.MsgCodecInvalidAddress, s, path)
}

// FormatAddress returns the strkey form of an ScAddress
func FormatAddress(ctx context.Context, a xdr.ScAddress, path string) (string, error) {
	switch a.Type {
	case xdr.ScAddressTypeScAddressTypeAccount:
		if a.AccountId != nil {
			return a.AccountId.Address(), nil
		}
	case xdr.ScAddressTypeScAddressTypeContract:
		if a.ContractId != nil {
			return strkey.Encode(strkey.VersionByteContract, a.ContractId[:])
		}
	}
	return "", i18n.NewError(ctx, sbmsgs.MsgCodecNilScVal, "address", path)
}

// AddressScVal builds the ScVal for an account or contract strkey
func AddressScVal(ctx context.Context, s string) (xdr.ScVal, error) {
	addr, err := ParseAddress(ctx, s, "address")
	if err != nil {
		return xdr.ScVal{}, err
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &addr}, nil
}
