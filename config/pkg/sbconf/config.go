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
package sbconf

import (
	"context"
	"os"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/config/pkg/confutil"

	"sigs.k8s.io/yaml" // handles the JSON tags on our structs
)

// ClientConfig is the full configuration of a contract client, including
// the RPC connection and the defaults applied to each transaction
type ClientConfig struct {
	RPC               HTTPClientConfig  `json:"rpc"`
	AllowHTTP         *bool             `json:"allowHttp"`
	NetworkPassphrase string            `json:"networkPassphrase"`
	ContractID        string            `json:"contractId"`
	PublicKey         string            `json:"publicKey"`
	Transaction       TransactionConfig `json:"transaction"`
	SpecCache         CacheConfig       `json:"specCache"`
	Log               LogConfig         `json:"log"`
	DB                DBConfig          `json:"db"`
}

var ClientDefaults = &ClientConfig{
	AllowHTTP: confutil.P(false),
}

func ReadAndParseYAMLFile(ctx context.Context, filePath string, config interface{}) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return i18n.NewError(ctx, sbmsgs.MsgConfigFileMissing, filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return i18n.WrapError(ctx, err, sbmsgs.MsgConfigFileReadError, filePath)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return i18n.WrapError(ctx, err, sbmsgs.MsgConfigFileParseError, filePath)
	}
	return nil
}
