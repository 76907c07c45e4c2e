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

import "github.com/kaleido-io/sorobankit/config/pkg/confutil"

// TransactionConfig holds the defaults for each contract invocation, any of
// which can be overridden per call
type TransactionConfig struct {
	// base fee in stroops, added to the resource fee returned by simulation
	BaseFee *uint32 `json:"baseFee"`
	// upper time bound of the transaction, also the limit for polling after submission
	Timeout *string `json:"timeout"`
	// simulate immediately on build
	Simulate *bool `json:"simulate"`
	// restore archived entries automatically when simulation reports them
	Restore *bool `json:"restore"`
	// sign non-invoker auth entries with the configured auth signers while signing
	AutoSignAuth *bool `json:"autoSignAuth"`
	// ledgers after the latest ledger at which auth entry signatures expire
	AuthExpirationLedgers *uint32 `json:"authExpirationLedgers"`
	// backoff between getTransaction polls
	Poll RetryConfig `json:"poll"`
	// re-reads of the source account after a restore, until its sequence
	// reflects the restore transaction
	AccountRefresh RetryConfigWithMax `json:"accountRefresh"`
}

var TransactionDefaults = &TransactionConfig{
	BaseFee:               confutil.P(uint32(100)),
	Timeout:               confutil.P("300s"),
	Simulate:              confutil.P(true),
	Restore:               confutil.P(true),
	AutoSignAuth:          confutil.P(false),
	AuthExpirationLedgers: confutil.P(uint32(100)),
	Poll: RetryConfig{
		InitialDelay: confutil.P("1s"),
		MaxDelay:     confutil.P("10s"),
		Factor:       confutil.P(1.5),
	},
	AccountRefresh: RetryConfigWithMax{
		RetryConfig: RetryConfig{
			InitialDelay: confutil.P("500ms"),
			MaxDelay:     confutil.P("5s"),
			Factor:       confutil.P(2.0),
		},
		MaxAttempts: confutil.P(5),
	},
}
