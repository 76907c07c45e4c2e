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

// Package assembled runs one contract invocation through its lifecycle:
// build, simulate, restore archived state if needed, sign, submit and poll
// for the final result.
package assembled

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/config/pkg/confutil"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	"github.com/kaleido-io/sorobankit/sdk/pkg/contractspec"
	"github.com/kaleido-io/sorobankit/sdk/pkg/retry"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sorobanrpc"
	"github.com/stellar/go-stellar-sdk/xdr"
)

// source for simulating read calls when no public key is configured
const nullAccount = "GAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAWHF"

type simulation struct {
	transactionData xdr.SorobanTransactionData
	auth            []xdr.SorobanAuthorizationEntry
	retval          *xdr.ScVal
	minResourceFee  int64
	latestLedger    uint32
}

type restorePreamble struct {
	transactionData xdr.SorobanTransactionData
	minResourceFee  int64
}

// AssembledTransaction is a single contract call. It is not safe for
// concurrent use, and shares no state with other instances.
type AssembledTransaction struct {
	id   uuid.UUID
	rpc  sorobanrpc.Server
	opts Options

	baseFee               uint32
	timeout               time.Duration
	poll                  *retry.Retry
	accountRefresh        *retry.Retry
	restoreEnabled        bool
	autoSignAuth          bool
	authExpirationLedgers uint32

	state       State
	raw         xdr.Transaction
	built       *xdr.TransactionEnvelope
	simulation  *simulation
	restore     *restorePreamble
	hash        string
	submittedAt time.Time
}

func newAssembled(rpc sorobanrpc.Server, opts *Options) *AssembledTransaction {
	tc, def := &opts.Transaction, sbconf.TransactionDefaults
	return &AssembledTransaction{
		id:                    uuid.New(),
		rpc:                   rpc,
		opts:                  *opts,
		baseFee:               confutil.Uint32Min(tc.BaseFee, 0, *def.BaseFee),
		timeout:               confutil.DurationMin(tc.Timeout, 0, *def.Timeout),
		poll:                  retry.NewRetryIndefinite(&tc.Poll, &def.Poll),
		accountRefresh:        retry.NewRetryLimited(&tc.AccountRefresh, &def.AccountRefresh),
		restoreEnabled:        confutil.Bool(tc.Restore, *def.Restore),
		autoSignAuth:          confutil.Bool(tc.AutoSignAuth, *def.AutoSignAuth),
		authExpirationLedgers: confutil.Uint32Min(tc.AuthExpirationLedgers, 1, *def.AuthExpirationLedgers),
		state:                 StateBuilding,
	}
}

// Build creates a transaction invoking opts.Method on opts.ContractID with the
// already encoded opts.Args, and simulates it unless simulation is disabled
func Build(ctx context.Context, rpc sorobanrpc.Server, opts *Options) (*AssembledTransaction, error) {
	if opts.ContractID == "" {
		return nil, i18n.NewError(ctx, sbmsgs.MsgClientNoContractID)
	}
	contract, err := contractspec.ParseAddress(ctx, opts.ContractID, "contractId")
	if err != nil {
		return nil, err
	}
	return BuildWithHostFunction(ctx, rpc, opts, xdr.HostFunction{
		Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
		InvokeContract: &xdr.InvokeContractArgs{
			ContractAddress: contract,
			FunctionName:    xdr.ScSymbol(opts.Method),
			Args:            opts.Args,
		},
	})
}

// BuildWithHostFunction creates a transaction for an arbitrary host function,
// such as creating a contract
func BuildWithHostFunction(ctx context.Context, rpc sorobanrpc.Server, opts *Options, hf xdr.HostFunction) (*AssembledTransaction, error) {
	if opts.NetworkPassphrase == "" {
		return nil, i18n.NewError(ctx, sbmsgs.MsgTxNoNetworkPassphrase)
	}
	a := newAssembled(rpc, opts)
	ctx = a.logCtx(ctx)

	source, seq, err := a.sourceAccount(ctx)
	if err != nil {
		return nil, err
	}
	a.raw, err = a.newTx(ctx, source, seq, a.baseFee, xdr.Operation{
		Body: xdr.OperationBody{
			Type:                 xdr.OperationTypeInvokeHostFunction,
			InvokeHostFunctionOp: &xdr.InvokeHostFunctionOp{HostFunction: hf},
		},
	})
	if err != nil {
		return nil, err
	}
	log.L(ctx).Debugf("Built transaction for '%s' from %s (seq=%d)", a.opts.Method, source, seq+1)

	if confutil.Bool(opts.Transaction.Simulate, *sbconf.TransactionDefaults.Simulate) {
		if err := a.Simulate(ctx); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *AssembledTransaction) logCtx(ctx context.Context) context.Context {
	return log.WithLogField(ctx, "atx", a.id.String())
}

func (a *AssembledTransaction) setState(ctx context.Context, s State) {
	if a.state != s {
		log.L(ctx).Debugf("State %s -> %s", a.state, s)
		a.state = s
	}
}

func (a *AssembledTransaction) metrics() Metrics {
	if a.opts.Metrics == nil {
		return noopMetrics{}
	}
	return a.opts.Metrics
}

func (a *AssembledTransaction) sourceAccount(ctx context.Context) (string, int64, error) {
	if a.opts.PublicKey == "" {
		return nullAccount, 0, nil
	}
	acct, err := a.rpc.GetAccount(ctx, a.opts.PublicKey)
	if err != nil {
		return "", 0, err
	}
	return acct.ID, acct.Sequence, nil
}

func (a *AssembledTransaction) timeBounds() xdr.Preconditions {
	return xdr.Preconditions{
		Type: xdr.PreconditionTypePrecondTime,
		TimeBounds: &xdr.TimeBounds{
			MinTime: 0,
			MaxTime: xdr.TimePoint(time.Now().Add(a.timeout).Unix()),
		},
	}
}

func (a *AssembledTransaction) newTx(ctx context.Context, source string, seq int64, fee uint32, op xdr.Operation) (xdr.Transaction, error) {
	muxed, err := xdr.AddressToMuxedAccount(source)
	if err != nil {
		return xdr.Transaction{}, i18n.WrapError(ctx, err, sbmsgs.MsgRPCInvalidAccountID, source)
	}
	return xdr.Transaction{
		SourceAccount: muxed,
		Fee:           xdr.Uint32(fee),
		SeqNum:        xdr.SequenceNumber(seq + 1),
		Cond:          a.timeBounds(),
		Memo:          xdr.Memo{Type: xdr.MemoTypeMemoNone},
		Operations:    []xdr.Operation{op},
	}, nil
}

func envelope(tx xdr.Transaction) xdr.TransactionEnvelope {
	return xdr.TransactionEnvelope{
		Type: xdr.EnvelopeTypeEnvelopeTypeTx,
		V1:   &xdr.TransactionV1Envelope{Tx: tx},
	}
}

func (a *AssembledTransaction) ID() string {
	return a.id.String()
}

func (a *AssembledTransaction) State() State {
	return a.state
}

func (a *AssembledTransaction) Method() string {
	return a.opts.Method
}

func (a *AssembledTransaction) ContractID() string {
	return a.opts.ContractID
}

// Hash is the hash returned on submission, if the transaction has been sent
func (a *AssembledTransaction) Hash() string {
	return a.hash
}

// Envelope is the transaction as it would be submitted now: assembled with
// the simulation results, and signed if Sign has been called
func (a *AssembledTransaction) Envelope() xdr.TransactionEnvelope {
	if a.built != nil {
		return *a.built
	}
	return envelope(a.raw)
}

func (a *AssembledTransaction) tx() *xdr.Transaction {
	if a.built != nil {
		return &a.built.V1.Tx
	}
	return &a.raw
}

func (a *AssembledTransaction) invokeOp() *xdr.InvokeHostFunctionOp {
	tx := a.tx()
	if len(tx.Operations) != 1 || tx.Operations[0].Body.Type != xdr.OperationTypeInvokeHostFunction {
		return nil
	}
	return tx.Operations[0].Body.InvokeHostFunctionOp
}

// IsReadCall is true if the call needs no authorization, and writes nothing
// to the ledger. Read calls only need to be simulated.
func (a *AssembledTransaction) IsReadCall() bool {
	if a.built == nil {
		return false
	}
	op := a.invokeOp()
	if op == nil || len(op.Auth) > 0 {
		return false
	}
	ext := a.built.V1.Tx.Ext
	return ext.V == 1 && ext.SorobanData != nil && len(ext.SorobanData.Resources.Footprint.ReadWrite) == 0
}

// Simulate runs the transaction against the current ledger state, to find the
// resources, fees and authorizations it needs, and preview its result
func (a *AssembledTransaction) Simulate(ctx context.Context) error {
	return a.simulate(a.logCtx(ctx), true)
}

func (a *AssembledTransaction) simulate(ctx context.Context, allowRestore bool) error {
	switch a.state {
	case StateBuilding, StateSimulated, StateSigned:
	default:
		return i18n.NewError(ctx, sbmsgs.MsgTxInvalidState, "simulate", a.state)
	}
	envB64, err := xdr.MarshalBase64(envelope(a.raw))
	if err != nil {
		return i18n.WrapError(ctx, err, sbmsgs.MsgTxInvalidEnvelope)
	}
	res, err := a.rpc.SimulateTransaction(ctx, envB64)
	if err != nil {
		return err
	}

	if res.IsError() {
		a.metrics().SimulationCompleted("error")
		a.setState(ctx, StateBuilding)
		return a.simulationError(ctx, res)
	}

	if res.NeedsRestore() {
		data, err := res.RestorePreamble.ParsedTransactionData(ctx)
		if err != nil {
			return err
		}
		a.restore = &restorePreamble{transactionData: *data, minResourceFee: res.RestorePreamble.MinResourceFeeInt()}
		a.built = nil
		a.simulation = nil
		a.metrics().SimulationCompleted("restore")
		a.setState(ctx, StateNeedsRestore)
		log.L(ctx).Infof("Simulation of '%s' requires a restore of archived entries (fee=%d)", a.opts.Method, a.restore.minResourceFee)
		if !allowRestore || !a.restoreEnabled {
			return i18n.NewError(ctx, sbmsgs.MsgTxRestorationRequired)
		}
		return a.Restore(ctx)
	}

	sim, err := parseSimulation(ctx, res)
	if err != nil {
		return err
	}
	built, err := a.assemble(ctx, sim)
	if err != nil {
		a.metrics().SimulationCompleted("error")
		a.setState(ctx, StateBuilding)
		return err
	}
	a.simulation = sim
	a.restore = nil
	a.built = built
	a.metrics().SimulationCompleted("success")
	a.setState(ctx, StateSimulated)
	log.L(ctx).Debugf("Simulated '%s' (minResourceFee=%d auth=%d latestLedger=%d)", a.opts.Method, sim.minResourceFee, len(sim.auth), sim.latestLedger)
	return nil
}

func parseSimulation(ctx context.Context, res *sorobanrpc.SimulateTransactionResponse) (*simulation, error) {
	data, err := res.ParsedTransactionData(ctx)
	if err != nil {
		return nil, err
	}
	sim := &simulation{
		transactionData: *data,
		minResourceFee:  res.MinResourceFeeInt(),
		latestLedger:    res.LatestLedger,
	}
	if r := res.Result(); r != nil {
		if sim.auth, err = r.AuthEntries(ctx); err != nil {
			return nil, err
		}
		if r.XDR != "" {
			if sim.retval, err = r.ReturnValue(ctx); err != nil {
				return nil, err
			}
		}
	}
	return sim, nil
}

// totalFee adds the resource fee from a simulation to the inclusion fee. The
// sum must fit the uint32 fee field of a transaction.
func totalFee(ctx context.Context, baseFee uint32, resourceFee int64) (uint32, error) {
	total := int64(baseFee) + resourceFee
	if resourceFee < 0 || total > math.MaxUint32 {
		return 0, i18n.NewError(ctx, sbmsgs.MsgTxFeeOutOfRange, baseFee, resourceFee, uint32(math.MaxUint32))
	}
	return uint32(total), nil
}

// assemble applies the simulation results to the raw transaction
func (a *AssembledTransaction) assemble(ctx context.Context, sim *simulation) (*xdr.TransactionEnvelope, error) {
	fee, err := totalFee(ctx, a.baseFee, sim.minResourceFee)
	if err != nil {
		return nil, err
	}
	tx := a.raw
	tx.Operations = append([]xdr.Operation(nil), a.raw.Operations...)
	tx.Fee = xdr.Uint32(fee)
	data := sim.transactionData
	tx.Ext = xdr.TransactionExt{V: 1, SorobanData: &data}
	if body := tx.Operations[0].Body; body.Type == xdr.OperationTypeInvokeHostFunction && len(body.InvokeHostFunctionOp.Auth) == 0 {
		ihf := *body.InvokeHostFunctionOp
		ihf.Auth = append([]xdr.SorobanAuthorizationEntry(nil), sim.auth...)
		tx.Operations[0].Body.InvokeHostFunctionOp = &ihf
	}
	env := envelope(tx)
	return &env, nil
}

func (a *AssembledTransaction) simulationError(ctx context.Context, res *sorobanrpc.SimulateTransactionResponse) error {
	code, found := contractErrorFromText(res.Error)
	if !found {
		if events, err := res.DiagnosticEvents(ctx); err == nil {
			code, found = contractErrorFromEvents(events)
		}
	}
	if found {
		if et, ok := a.opts.ErrorTypes[code]; ok {
			return newContractError(ctx, code, et)
		}
	}
	log.L(ctx).Errorf("Simulation of '%s' failed: %s", a.opts.Method, res.Error)
	return &SimulationError{Message: res.Error, err: i18n.NewError(ctx, sbmsgs.MsgTxSimulationFailed, res.Error)}
}

// Restore submits a transaction restoring the archived entries reported by
// simulation, waits for it to succeed, then simulates the original call again
func (a *AssembledTransaction) Restore(ctx context.Context) error {
	ctx = a.logCtx(ctx)
	if a.state != StateNeedsRestore || a.restore == nil {
		return i18n.NewError(ctx, sbmsgs.MsgTxNoRestorePreamble)
	}
	a.setState(ctx, StateRestoring)
	restoredSeq, err := a.runRestore(ctx)
	if err != nil {
		a.metrics().RestorationCompleted("failed")
		a.setState(ctx, StateFailed)
		return &RestorationFailedError{err: i18n.WrapError(ctx, err, sbmsgs.MsgTxRestorationFailed)}
	}
	a.metrics().RestorationCompleted("success")
	a.restore = nil
	a.setState(ctx, StateBuilding)

	seq, err := a.refreshSequence(ctx, restoredSeq)
	if err != nil {
		return err
	}
	a.raw.SeqNum = xdr.SequenceNumber(seq + 1)
	a.raw.Cond = a.timeBounds()
	return a.simulate(ctx, false)
}

// refreshSequence reads the account sequence after a restore, until the RPC
// node reports a sequence at or beyond the one the restore consumed
func (a *AssembledTransaction) refreshSequence(ctx context.Context, consumed int64) (seq int64, err error) {
	err = a.accountRefresh.Do(ctx, func(attempt int) (bool, error) {
		_, current, err := a.sourceAccount(ctx)
		if err != nil {
			return true, err
		}
		if current < consumed {
			return true, i18n.NewError(ctx, sbmsgs.MsgTxSequenceNotAdvanced, a.opts.PublicKey, current, consumed)
		}
		seq = current
		return false, nil
	})
	return seq, err
}

// runRestore returns the sequence number consumed by the restore transaction
func (a *AssembledTransaction) runRestore(ctx context.Context) (int64, error) {
	if a.opts.PublicKey == "" {
		return 0, i18n.NewError(ctx, sbmsgs.MsgTxNoSourceAccount)
	}
	if a.opts.Signer == nil {
		return 0, i18n.NewError(ctx, sbmsgs.MsgTxMissingSigner, a.opts.PublicKey)
	}
	fee, err := totalFee(ctx, a.baseFee, a.restore.minResourceFee)
	if err != nil {
		return 0, err
	}
	source, seq, err := a.sourceAccount(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := a.newTx(ctx, source, seq, fee, xdr.Operation{
		Body: xdr.OperationBody{
			Type:               xdr.OperationTypeRestoreFootprint,
			RestoreFootprintOp: &xdr.RestoreFootprintOp{},
		},
	})
	if err != nil {
		return 0, err
	}
	data := a.restore.transactionData
	tx.Ext = xdr.TransactionExt{V: 1, SorobanData: &data}

	signed, err := a.signEnvelope(ctx, a.opts.Signer, envelope(tx))
	if err != nil {
		return 0, err
	}
	sent, err := a.send(ctx, signed)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	res, err := a.pollUntil(ctx, sent.Hash, start, start.Add(a.timeout))
	if err != nil {
		return 0, err
	}
	if res.Status != sorobanrpc.TransactionStatusSuccess {
		return 0, a.failure(ctx, sent.Hash, res)
	}
	log.L(ctx).Infof("Restored archived entries for '%s' in transaction %s", a.opts.Method, sent.Hash)
	return int64(tx.SeqNum), nil
}

// NeedsNonInvokerSigningBy lists the addresses that must sign auth entries
// before the transaction can be sent. Entries that already carry a signature
// are only included if includeAlreadySigned is set.
func (a *AssembledTransaction) NeedsNonInvokerSigningBy(includeAlreadySigned bool) []string {
	op := a.invokeOp()
	if op == nil {
		return nil
	}
	seen := map[string]bool{}
	var addresses []string
	for _, entry := range op.Auth {
		creds := entry.Credentials.Address
		if entry.Credentials.Type != xdr.SorobanCredentialsTypeSorobanCredentialsAddress || creds == nil {
			continue
		}
		if !includeAlreadySigned && creds.Signature.Type != xdr.ScValTypeScvVoid {
			continue
		}
		addr, err := contractspec.FormatAddress(context.Background(), creds.Address, "auth")
		if err == nil && !seen[addr] {
			seen[addr] = true
			addresses = append(addresses, addr)
		}
	}
	return addresses
}

// accounts sign their own entries, contracts authorize themselves
func unsignedAccounts(addresses []string) []string {
	var accounts []string
	for _, addr := range addresses {
		if !strings.HasPrefix(addr, "C") {
			accounts = append(accounts, addr)
		}
	}
	return accounts
}

func (a *AssembledTransaction) authSigner(address string) AuthEntrySigner {
	if s, ok := a.opts.AuthSigners[address]; ok && s != nil {
		return s
	}
	if address == a.opts.PublicKey {
		if s, ok := a.opts.Signer.(AuthEntrySigner); ok {
			return s
		}
	}
	return nil
}

func (a *AssembledTransaction) latestLedger(ctx context.Context) (uint32, error) {
	if a.simulation != nil && a.simulation.latestLedger > 0 {
		return a.simulation.latestLedger, nil
	}
	res, err := a.rpc.GetLatestLedger(ctx)
	if err != nil {
		return 0, err
	}
	return res.Sequence, nil
}

// SignAuthEntries signs every unsigned auth entry belonging to address. The
// signer is passed each entry with its signature expiration already set. If
// signer is nil, the one configured for the address is used.
func (a *AssembledTransaction) SignAuthEntries(ctx context.Context, address string, signer AuthEntrySigner) error {
	ctx = a.logCtx(ctx)
	switch a.state {
	case StateSimulated:
	case StateBuilding:
		return i18n.NewError(ctx, sbmsgs.MsgTxNotSimulated)
	default:
		return i18n.NewError(ctx, sbmsgs.MsgTxInvalidState, "signAuthEntries", a.state)
	}
	if signer == nil {
		if signer = a.authSigner(address); signer == nil {
			return i18n.NewError(ctx, sbmsgs.MsgTxMissingSigner, address)
		}
	}
	latest, err := a.latestLedger(ctx)
	if err != nil {
		return err
	}
	expiration := xdr.Uint32(latest + a.authExpirationLedgers)

	op := a.invokeOp()
	signed := 0
	for i, entry := range op.Auth {
		creds := entry.Credentials.Address
		if entry.Credentials.Type != xdr.SorobanCredentialsTypeSorobanCredentialsAddress || creds == nil ||
			creds.Signature.Type != xdr.ScValTypeScvVoid {
			continue
		}
		if addr, err := contractspec.FormatAddress(ctx, creds.Address, "auth"); err != nil || addr != address {
			continue
		}
		// work on a copy, as entries are shared with the simulation result
		var toSign xdr.SorobanAuthorizationEntry
		if err := copyXDR(&entry, &toSign); err != nil {
			return i18n.WrapError(ctx, err, sbmsgs.MsgTxAuthEntryInvalid, address)
		}
		toSign.Credentials.Address.SignatureExpirationLedger = expiration
		entryB64, err := xdr.MarshalBase64(toSign)
		if err != nil {
			return i18n.WrapError(ctx, err, sbmsgs.MsgTxAuthEntryInvalid, address)
		}
		signedB64, err := signer.SignAuthEntry(ctx, entryB64, SignAuthOpts{
			NetworkPassphrase: a.opts.NetworkPassphrase,
			AccountToSign:     address,
		})
		if err != nil {
			return i18n.WrapError(ctx, err, sbmsgs.MsgTxSignerFailed, address)
		}
		var result xdr.SorobanAuthorizationEntry
		if err := xdr.SafeUnmarshalBase64(signedB64, &result); err != nil {
			return i18n.WrapError(ctx, err, sbmsgs.MsgTxAuthEntryInvalid, address)
		}
		op.Auth[i] = result
		signed++
	}
	log.L(ctx).Debugf("Signed %d auth entries for %s (expiration=%d)", signed, address, expiration)
	return nil
}

func copyXDR(from interface{ MarshalBinary() ([]byte, error) }, to interface{ UnmarshalBinary([]byte) error }) error {
	b, err := from.MarshalBinary()
	if err != nil {
		return err
	}
	return to.UnmarshalBinary(b)
}

// Sign signs any auth entries it has signers for (with AutoSignAuth), then
// signs the transaction envelope with the primary signer
func (a *AssembledTransaction) Sign(ctx context.Context, opts SignOptions) error {
	ctx = a.logCtx(ctx)
	switch a.state {
	case StateSimulated, StateSigned:
	case StateBuilding:
		return i18n.NewError(ctx, sbmsgs.MsgTxNotSimulated)
	case StateNeedsRestore:
		return i18n.NewError(ctx, sbmsgs.MsgTxRestorationRequired)
	default:
		return i18n.NewError(ctx, sbmsgs.MsgTxInvalidState, "sign", a.state)
	}
	if !opts.Force && a.IsReadCall() {
		return i18n.NewError(ctx, sbmsgs.MsgTxNoSignatureNeeded)
	}
	if a.opts.PublicKey == "" {
		return i18n.NewError(ctx, sbmsgs.MsgTxNoSourceAccount)
	}
	signer := opts.Signer
	if signer == nil {
		signer = a.opts.Signer
	}
	if signer == nil {
		return i18n.NewError(ctx, sbmsgs.MsgTxMissingSigner, a.opts.PublicKey)
	}

	if a.state == StateSimulated {
		if a.autoSignAuth {
			if err := a.signAllAuthEntries(ctx); err != nil {
				return err
			}
		}
		if remaining := unsignedAccounts(a.NeedsNonInvokerSigningBy(false)); len(remaining) > 0 {
			return i18n.NewError(ctx, sbmsgs.MsgTxNeedsMoreSignatures, strings.Join(remaining, ", "))
		}
		// signing can happen long after simulation
		a.built.V1.Tx.Cond = a.timeBounds()
	}

	signed, err := a.signEnvelope(ctx, signer, *a.built)
	if err != nil {
		return err
	}
	a.built = signed
	a.setState(ctx, StateSigned)
	return nil
}

func (a *AssembledTransaction) signAllAuthEntries(ctx context.Context) error {
	pending := unsignedAccounts(a.NeedsNonInvokerSigningBy(false))
	var missing []string
	for _, addr := range pending {
		if a.authSigner(addr) == nil {
			missing = append(missing, addr)
		}
	}
	if len(missing) > 0 {
		return i18n.NewError(ctx, sbmsgs.MsgTxMissingSigner, strings.Join(missing, ", "))
	}
	for _, addr := range pending {
		if err := a.SignAuthEntries(ctx, addr, nil); err != nil {
			return err
		}
	}
	return nil
}

func (a *AssembledTransaction) signEnvelope(ctx context.Context, signer TransactionSigner, env xdr.TransactionEnvelope) (*xdr.TransactionEnvelope, error) {
	envB64, err := xdr.MarshalBase64(env)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTxInvalidEnvelope)
	}
	signedB64, err := signer.SignTransaction(ctx, envB64, SignTxOpts{
		NetworkPassphrase: a.opts.NetworkPassphrase,
		AccountToSign:     a.opts.PublicKey,
	})
	if err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTxSignerFailed, a.opts.PublicKey)
	}
	var signed xdr.TransactionEnvelope
	if err := xdr.SafeUnmarshalBase64(signedB64, &signed); err != nil || signed.V1 == nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTxInvalidEnvelope)
	}
	return &signed, nil
}

func (a *AssembledTransaction) send(ctx context.Context, env *xdr.TransactionEnvelope) (*sorobanrpc.SendTransactionResponse, error) {
	envB64, err := xdr.MarshalBase64(*env)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTxInvalidEnvelope)
	}
	res, err := a.rpc.SendTransaction(ctx, envB64)
	if err != nil {
		return nil, err
	}
	a.metrics().TransactionSubmitted(string(res.Status))
	log.L(ctx).Infof("Sent transaction %s status=%s", res.Hash, res.Status)
	if res.Status == sorobanrpc.SendTransactionStatusError {
		return res, &SubmissionError{
			Status:         string(res.Status),
			Hash:           res.Hash,
			ErrorResultXDR: res.ErrorResultXDR,
			err:            i18n.NewError(ctx, sbmsgs.MsgTxSubmissionFailed, res.Status, res.Hash),
		}
	}
	// PENDING, DUPLICATE and TRY_AGAIN_LATER are all followed by polling, never a resend
	return res, nil
}

// Send submits the signed transaction, without waiting for the result
func (a *AssembledTransaction) Send(ctx context.Context) (*sorobanrpc.SendTransactionResponse, error) {
	ctx = a.logCtx(ctx)
	if a.state != StateSigned {
		return nil, i18n.NewError(ctx, sbmsgs.MsgTxNotSigned)
	}
	res, err := a.send(ctx, a.built)
	if res != nil {
		a.hash = res.Hash
	}
	if err != nil {
		var subErr *SubmissionError
		if errors.As(err, &subErr) {
			a.metrics().TransactionCompleted("submission_error", 0)
			a.setState(ctx, StateFailed)
		}
		return res, err
	}
	a.submittedAt = time.Now()
	a.setState(ctx, StateSubmitted)
	return res, nil
}

// SubmitAndPoll sends the signed transaction, then polls until it succeeds,
// fails, or the timeout passes. The timeout is measured from submission.
func (a *AssembledTransaction) SubmitAndPoll(ctx context.Context) (any, error) {
	if _, err := a.Send(ctx); err != nil {
		return nil, err
	}
	return a.PollByHash(ctx, a.hash)
}

// SignAndSend signs (unless already signed) then submits and polls
func (a *AssembledTransaction) SignAndSend(ctx context.Context, opts SignOptions) (any, error) {
	if a.state != StateSigned {
		if err := a.Sign(ctx, opts); err != nil {
			return nil, err
		}
	}
	return a.SubmitAndPoll(ctx)
}

// PollByHash waits for the final status of a submitted transaction. After a
// timeout it can be called again, and then polls for a further full timeout.
func (a *AssembledTransaction) PollByHash(ctx context.Context, hash string) (any, error) {
	ctx = a.logCtx(ctx)
	start := time.Now()
	if a.state == StateSubmitted && hash == a.hash {
		start = a.submittedAt
	}
	a.hash = hash
	a.setState(ctx, StatePolling)

	res, err := a.pollUntil(ctx, hash, start, start.Add(a.timeout))
	if err != nil {
		var timeoutErr *TimeoutError
		if errors.As(err, &timeoutErr) {
			a.metrics().TransactionCompleted("timeout", time.Since(start))
		}
		return nil, err
	}

	if res.Status == sorobanrpc.TransactionStatusSuccess {
		a.setState(ctx, StateSuccess)
		a.metrics().TransactionCompleted("success", time.Since(start))
		return a.parseSuccess(ctx, res)
	}
	a.setState(ctx, StateFailed)
	a.metrics().TransactionCompleted("failed", time.Since(start))
	return nil, a.failure(ctx, hash, res)
}

func (a *AssembledTransaction) pollUntil(ctx context.Context, hash string, start, deadline time.Time) (*sorobanrpc.GetTransactionResponse, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		res, err := a.rpc.GetTransaction(ctx, hash)
		switch {
		case err != nil:
			lastErr = err
			log.L(ctx).Warnf("Attempt %d to poll transaction %s failed: %s", attempt, hash, err)
		case res.Status == sorobanrpc.TransactionStatusSuccess || res.Status == sorobanrpc.TransactionStatusFailed:
			log.L(ctx).Infof("Transaction %s status=%s ledger=%d attempts=%d", hash, res.Status, res.Ledger, attempt)
			return res, nil
		default:
			log.L(ctx).Debugf("Transaction %s status=%s (attempt=%d)", hash, res.Status, attempt)
		}

		if ctx.Err() != nil {
			return nil, i18n.WrapError(ctx, ctx.Err(), sbmsgs.MsgContextCanceled)
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			elapsed := time.Since(start)
			log.L(ctx).Errorf("Gave up polling transaction %s after %d attempts", hash, attempt)
			return nil, &TimeoutError{
				Hash:     hash,
				Attempts: attempt,
				Elapsed:  elapsed,
				err:      i18n.WrapError(ctx, lastErr, sbmsgs.MsgTxPollTimedOut, attempt, elapsed, hash),
			}
		}
		if err := a.poll.WaitDelayMax(ctx, attempt, remaining); err != nil {
			return nil, err
		}
	}
}

func (a *AssembledTransaction) parseSuccess(ctx context.Context, res *sorobanrpc.GetTransactionResponse) (any, error) {
	rv, ok, err := res.ReturnValue(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		if a.opts.ParseResult != nil {
			return nil, i18n.NewError(ctx, sbmsgs.MsgTxMissingResult, a.hash)
		}
		return nil, nil
	}
	return a.parseResult(ctx, *rv)
}

func (a *AssembledTransaction) parseResult(ctx context.Context, rv xdr.ScVal) (any, error) {
	if a.opts.ParseResult == nil {
		return contractspec.ScValToNativeUntyped(rv), nil
	}
	result, err := a.opts.ParseResult(ctx, rv)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTxResultParseFailed, a.hash)
	}
	return result, nil
}

// failure classifies a FAILED transaction, preferring an error declared by
// the contract over the raw ledger result
func (a *AssembledTransaction) failure(ctx context.Context, hash string, res *sorobanrpc.GetTransactionResponse) error {
	events, err := res.DiagnosticEvents(ctx)
	if err != nil {
		log.L(ctx).Warnf("Unable to decode diagnostic events of %s: %s", hash, err)
	}
	if code, found := contractErrorFromEvents(events); found {
		if et, ok := a.opts.ErrorTypes[code]; ok {
			log.L(ctx).Errorf("Transaction %s failed with contract error %d (%s)", hash, code, et.Name)
			return newContractError(ctx, code, et)
		}
	}
	result, err := res.Result(ctx)
	if err != nil {
		log.L(ctx).Warnf("Unable to decode result of %s: %s", hash, err)
	}
	log.L(ctx).Errorf("Transaction %s failed", hash)
	return &TransactionFailedError{
		Hash:      hash,
		ResultXDR: res.ResultXDR,
		Result:    result,
		err:       i18n.NewError(ctx, sbmsgs.MsgTxFailed, hash),
	}
}

// Result decodes the return value previewed by simulation. This is the
// result of a read call, which does not need to be sent.
func (a *AssembledTransaction) Result(ctx context.Context) (any, error) {
	ctx = a.logCtx(ctx)
	if a.simulation == nil {
		return nil, i18n.NewError(ctx, sbmsgs.MsgTxNotSimulated)
	}
	if a.simulation.retval == nil {
		return nil, i18n.NewError(ctx, sbmsgs.MsgRPCNoResult)
	}
	return a.parseResult(ctx, *a.simulation.retval)
}

type noopMetrics struct{}

func (noopMetrics) SimulationCompleted(string)                 {}
func (noopMetrics) RestorationCompleted(string)                {}
func (noopMetrics) TransactionSubmitted(string)                {}
func (noopMetrics) TransactionCompleted(string, time.Duration) {}
