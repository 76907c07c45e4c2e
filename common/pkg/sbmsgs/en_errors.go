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
package sbmsgs

import (
	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"golang.org/x/text/language"
)

var pde = func(key, translation string, statusHint ...int) i18n.ErrorMessageKey {
	return i18n.PDE(language.AmericanEnglish, key, translation, statusHint...)
}

var (
	// Codec SB0100XX
	MsgContextCanceled            = pde("SB010000", "Context canceled")
	MsgCodecTypeMismatch          = pde("SB010001", "invalid type %s specified for %T value at '%s'", 400)
	MsgCodecNegativeUnsigned      = pde("SB010002", "expected a positive value, got: %s (at '%s')", 400)
	MsgCodecIntegerOutOfRange     = pde("SB010003", "value %s out of range for %s at '%s'", 400)
	MsgCodecInvalidInteger        = pde("SB010004", "invalid integer '%s' for %s at '%s'", 400)
	MsgCodecFloatPrecision        = pde("SB010005", "float value %v cannot be used as %s at '%s' without losing precision", 400)
	MsgCodecBytesNLength          = pde("SB010006", "expected %d bytes at '%s', got %d", 400)
	MsgCodecInvalidBase64         = pde("SB010007", "invalid base64 bytes at '%s'", 400)
	MsgCodecInvalidSymbol         = pde("SB010008", "invalid symbol '%s' at '%s': must be at most 32 characters of [a-zA-Z0-9_]", 400)
	MsgCodecInvalidAddress        = pde("SB010009", "invalid address '%s' at '%s'", 400)
	MsgCodecTupleArity            = pde("SB010010", "expected %d values for tuple at '%s', got %d", 400)
	MsgCodecUnionUnknownCase      = pde("SB010011", "no such union case '%s' in %s at '%s'", 400)
	MsgCodecUnionArity            = pde("SB010012", "union case '%s' at '%s' expects %d values, got %d", 400)
	MsgCodecEnumUnknownValue      = pde("SB010013", "no such enum value %s in %s at '%s'", 400)
	MsgCodecMissingField          = pde("SB010014", "missing required field '%s' of %s at '%s'", 400)
	MsgCodecMapEntry              = pde("SB010015", "invalid map entry %d (key=%v)", 400)
	MsgCodecScValMismatch         = pde("SB010016", "expected %s at '%s', got value of type %s", 400)
	MsgCodecNilScVal              = pde("SB010017", "malformed %s value at '%s' (no content)", 400)
	MsgCodecUnsupportedType       = pde("SB010018", "unsupported type descriptor %s at '%s'", 400)
	MsgCodecInferenceNotSupported = pde("SB010019", "cannot infer a contract value from %T at '%s'", 400)
	MsgCodecUnionMalformed        = pde("SB010020", "malformed union value at '%s': %s", 400)
	MsgCodecDuplicateMapKey       = pde("SB010022", "duplicate map key at '%s': %v", 400)

	// Spec SB0101XX
	MsgSpecNoEntries          = pde("SB010100", "Contract spec must have at least one entry", 400)
	MsgSpecDuplicateEntry     = pde("SB010101", "duplicate spec entry name '%s'", 400)
	MsgSpecInvalidEntry       = pde("SB010102", "invalid spec entry %d", 400)
	MsgSpecEntryNotFound      = pde("SB010103", "no such entry: %s", 404)
	MsgSpecFunctionNotFound   = pde("SB010104", "%s is not a function", 404)
	MsgSpecTypeNotFound       = pde("SB010105", "no user defined type '%s' in spec", 404)
	MsgSpecNotAType           = pde("SB010106", "spec entry '%s' is not a type definition", 400)
	MsgSpecMissingArgument    = pde("SB010107", "missing argument '%s' for function '%s'", 400)
	MsgSpecWasmCompileFailed  = pde("SB010109", "failed to parse contract wasm", 400)
	MsgSpecWasmNoSpecSection  = pde("SB010110", "contract wasm does not contain a '%s' custom section", 400)
	MsgSpecSchemaFailed       = pde("SB010111", "failed to build JSON schema for '%s'", 500)
	MsgSpecDecodeResultFailed = pde("SB010112", "failed to decode result of function '%s'", 500)

	// Soroban RPC SB0102XX
	MsgRPCClientInvalidHTTPURL    = pde("SB010200", "Invalid HTTP URL: %s")
	MsgRPCClientRequestFailed     = pde("SB010201", "Backend RPC request failed: %s")
	MsgRPCClientResultParseFailed = pde("SB010202", "Failed to parse result (expected=%T): %s")
	MsgRPCClientInvalidParam      = pde("SB010203", "Invalid parameter at position %d for method %s: %s")
	MsgRPCInsecureURL             = pde("SB010204", "Refusing to connect to insecure URL '%s' unless allowHttp is enabled")
	MsgRPCNoURL                   = pde("SB010205", "No RPC URL configured")
	MsgRPCAccountNotFound         = pde("SB010206", "Account not found: %s", 404)
	MsgRPCContractNotFound        = pde("SB010207", "Contract instance not found: %s", 404)
	MsgRPCWasmNotFound            = pde("SB010208", "Contract code not found for wasm hash %s", 404)
	MsgRPCInvalidXDR              = pde("SB010209", "Invalid %s XDR returned by RPC server")
	MsgRPCNotWasmContract         = pde("SB010210", "Contract %s is not backed by an uploaded wasm")
	MsgRPCNoResult                = pde("SB010211", "Simulation of transaction returned no results")
	MsgRPCInvalidContractID       = pde("SB010212", "Invalid contract ID '%s'", 400)
	MsgRPCInvalidAccountID        = pde("SB010213", "Invalid account ID '%s'", 400)
	MsgRPCUnexpectedLedgerEntry   = pde("SB010214", "Unexpected ledger entry type %s for key %s")

	// Lifecycle SB0103XX
	MsgTxNotSimulated        = pde("SB010300", "Transaction has not yet been simulated", 409)
	MsgTxSimulationFailed    = pde("SB010301", "Transaction simulation failed: %s", 400)
	MsgTxRestorationRequired = pde("SB010302", "Archived ledger entries must be restored before this transaction can be submitted (restore is disabled)", 409)
	MsgTxRestorationFailed   = pde("SB010303", "Automatic restore of archived ledger entries failed", 500)
	MsgTxMissingSigner       = pde("SB010304", "No signer available for %s", 400)
	MsgTxNeedsMoreSignatures = pde("SB010305", "Transaction requires signatures from %s. See NeedsNonInvokerSigningBy", 409)
	MsgTxNoSignatureNeeded   = pde("SB010306", "This is a read call. It requires no signature or sending. Use Force to sign and send anyway", 400)
	MsgTxSubmissionFailed    = pde("SB010307", "Sending the transaction failed with status %s (hash=%s)", 500)
	MsgTxFailed              = pde("SB010308", "Transaction %s failed", 500)
	MsgTxContractError       = pde("SB010309", "Contract error %d: %s", 400)
	MsgTxPollTimedOut        = pde("SB010310", "Polling timed out after %d attempts in %s for transaction %s", 504)
	MsgTxNotSigned           = pde("SB010311", "Transaction has not been signed", 409)
	MsgTxInvalidState        = pde("SB010312", "Operation '%s' is not valid in state '%s'", 409)
	MsgTxNoSourceAccount     = pde("SB010313", "No public key configured as the transaction source", 400)
	MsgTxInvalidEnvelope     = pde("SB010314", "Invalid transaction envelope", 400)
	MsgTxInvalidJSON         = pde("SB010315", "Invalid serialized transaction", 400)
	MsgTxNotInvokeContract   = pde("SB010316", "Transaction does not invoke a contract function", 400)
	MsgTxSignerFailed        = pde("SB010317", "Signing callback failed for %s", 500)
	MsgTxAuthEntryInvalid    = pde("SB010318", "Invalid authorization entry returned by signer for %s", 400)
	MsgTxNoNetworkPassphrase = pde("SB010319", "No network passphrase configured", 400)
	MsgTxResultParseFailed   = pde("SB010320", "Failed to parse result of transaction %s", 500)
	MsgTxNoRestorePreamble   = pde("SB010321", "Transaction does not need restoration", 409)
	MsgTxMissingResult       = pde("SB010322", "Transaction %s succeeded without a return value", 500)
	MsgSignerInvalidSecret   = pde("SB010323", "Invalid secret key", 400)
	MsgSignerInvalidMnemonic = pde("SB010324", "Invalid BIP-39 mnemonic", 400)
	MsgSignerDerivationPath  = pde("SB010325", "Invalid key derivation path '%s'. Each segment after 'm' must be a hardened index such as 44'", 400)
	MsgTxFeeOutOfRange       = pde("SB010326", "Base fee %d plus resource fee %d is outside the range of a transaction fee (0 to %d)", 400)
	MsgTxSequenceNotAdvanced = pde("SB010327", "Sequence of account %s is %d, which does not yet include restore transaction sequence %d", 409)

	// Client SB0104XX
	MsgClientNoSpec          = pde("SB010400", "No contract spec supplied", 400)
	MsgClientNoContractID    = pde("SB010401", "No contract ID supplied", 400)
	MsgClientMethodNotFound  = pde("SB010402", "Contract has no method '%s'", 404)
	MsgClientNoWasmHash      = pde("SB010403", "A wasm hash is required to deploy a contract", 400)
	MsgClientInvalidSalt     = pde("SB010404", "Salt must be 32 bytes (got %d)", 400)
	MsgClientInvalidWasmHash = pde("SB010405", "Invalid wasm hash '%s'", 400)
	MsgClientNoConstructor   = pde("SB010406", "Contract has no constructor, but %d arguments were supplied", 400)
	MsgClientDeployResult    = pde("SB010407", "Deployment returned a %s rather than a contract address", 500)
	MsgClientNoDeployer      = pde("SB010408", "No deployer address supplied", 400)

	// Config and persistence SB0105XX
	MsgConfigFileMissing      = pde("SB010500", "Config file not found at %s")
	MsgConfigFileReadError    = pde("SB010501", "Failed to read config file %s")
	MsgConfigFileParseError   = pde("SB010502", "Failed to parse config file %s")
	MsgPersistenceInvalidType = pde("SB010503", "Invalid database type '%s'")
	MsgPersistenceInitFailed  = pde("SB010504", "Database initialization failed")
	MsgPersistenceNoDSN       = pde("SB010505", "Database DSN must be configured")
	MsgTxStoreNotFound        = pde("SB010506", "No stored transaction with ID '%s'", 404)
	MsgTxStoreInvalidID       = pde("SB010507", "Invalid stored transaction ID '%s'", 400)

	// TLS SB0106XX
	MsgTLSInvalidCAFile       = pde("SB010600", "Invalid CA certificates file")
	MsgTLSConfigFailed        = pde("SB010601", "Failed to initialize TLS configuration")
	MsgTLSInvalidKeyPairFiles = pde("SB010602", "Invalid certificate and key pair files")

	// CLI SB0107XX
	MsgCLIInvalidArgsJSON    = pde("SB010700", "Arguments must be a JSON object")
	MsgCLINoSecretKey        = pde("SB010701", "Environment variable %s must contain the secret key to sign with, or %s a BIP-39 mnemonic")
	MsgCLIMetricsWriteFailed = pde("SB010702", "Failed to write metrics to %s")
)
