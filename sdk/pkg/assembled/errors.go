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
	"regexp"
	"strconv"
	"time"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/sdk/pkg/contractspec"
	"github.com/stellar/go-stellar-sdk/xdr"
)

var contractErrorPattern = regexp.MustCompile(`Error\(Contract, #(\d+)\)`)

// SimulationError is returned when the RPC server rejects the simulation
type SimulationError struct {
	Message string
	err     error
}

func (e *SimulationError) Error() string { return e.err.Error() }
func (e *SimulationError) Unwrap() error { return e.err }

// RestorationFailedError is terminal for the transaction that required the
// restore
type RestorationFailedError struct {
	err error
}

func (e *RestorationFailedError) Error() string { return e.err.Error() }
func (e *RestorationFailedError) Unwrap() error { return e.err }

// SubmissionError is returned when sendTransaction reports ERROR
type SubmissionError struct {
	Status         string
	Hash           string
	ErrorResultXDR string
	err            error
}

func (e *SubmissionError) Error() string { return e.err.Error() }
func (e *SubmissionError) Unwrap() error { return e.err }

// TransactionFailedError is returned when the ledger executed the
// transaction, but it failed without a recognized contract error
type TransactionFailedError struct {
	Hash      string
	ResultXDR string
	Result    *xdr.TransactionResult
	err       error
}

func (e *TransactionFailedError) Error() string { return e.err.Error() }
func (e *TransactionFailedError) Unwrap() error { return e.err }

// ContractError is a failure that maps to an error declared by the contract
type ContractError struct {
	Code    uint32
	Message string
	err     error
}

func (e *ContractError) Error() string { return e.err.Error() }
func (e *ContractError) Unwrap() error { return e.err }

// TimeoutError means polling gave up before the transaction reached a final
// status. The transaction might still succeed, and can be polled again with
// PollByHash.
type TimeoutError struct {
	Hash     string
	Attempts int
	Elapsed  time.Duration
	err      error
}

func (e *TimeoutError) Error() string { return e.err.Error() }
func (e *TimeoutError) Unwrap() error { return e.err }

func newContractError(ctx context.Context, code uint32, et contractspec.ErrorType) *ContractError {
	return &ContractError{
		Code:    code,
		Message: et.Message,
		err:     i18n.NewError(ctx, sbmsgs.MsgTxContractError, code, et.Message),
	}
}

// contractErrorFromText finds an Error(Contract, #N) in a host error message
func contractErrorFromText(text string) (uint32, bool) {
	m := contractErrorPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	code, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(code), true
}

// contractErrorFromEvents finds the first contract error value in the topics
// or data of a set of diagnostic events
func contractErrorFromEvents(events []xdr.DiagnosticEvent) (uint32, bool) {
	for _, e := range events {
		if e.Event.Body.V != 0 || e.Event.Body.V0 == nil {
			continue
		}
		body := e.Event.Body.V0
		for _, v := range append(append([]xdr.ScVal{}, body.Topics...), body.Data) {
			if v.Type == xdr.ScValTypeScvError && v.Error != nil &&
				v.Error.Type == xdr.ScErrorTypeSceContract && v.Error.ContractCode != nil {
				return uint32(*v.Error.ContractCode), true
			}
		}
	}
	return 0, false
}
