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

package main

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/iancoleman/orderedmap"
	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/sdk/pkg/assembled"
	"github.com/kaleido-io/sorobankit/sdk/pkg/txstore"
	"github.com/spf13/cobra"
)

type invokeFlags struct {
	method string
	args   string
	send   bool
	save   bool
}

func parseArgs(ctx context.Context, s string) (map[string]any, error) {
	args := map[string]any{}
	if s == "" {
		return args, nil
	}
	d := json.NewDecoder(bytes.NewReader([]byte(s)))
	d.UseNumber()
	if err := d.Decode(&args); err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgCLIInvalidArgsJSON)
	}
	return args, nil
}

func txOutput(atx *assembled.AssembledTransaction, storedID string, result any) *orderedmap.OrderedMap {
	o := orderedmap.New()
	o.Set("id", atx.ID())
	o.Set("method", atx.Method())
	o.Set("state", atx.State())
	if atx.Hash() != "" {
		o.Set("hash", atx.Hash())
	}
	if storedID != "" {
		o.Set("stored", storedID)
	}
	o.Set("result", result)
	return o
}

// markState records the outcome of a sent transaction, including failures
func markState(ctx context.Context, store *txstore.Store, atx *assembled.AssembledTransaction) {
	if err := store.MarkState(ctx, atx.ID(), atx.State(), atx.Hash()); err != nil {
		log.L(ctx).Errorf("Failed to record state of %s: %s", atx.ID(), err)
	}
}

func (c *cli) invokeCmd() *cobra.Command {
	var f invokeFlags
	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Call a contract function, previewing the result by simulation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			args, err := parseArgs(ctx, f.args)
			if err != nil {
				return err
			}
			conn, err := c.connect(ctx)
			if err != nil {
				return err
			}
			if f.send {
				if err := conn.withSigner(ctx); err != nil {
					return err
				}
			}
			client, err := conn.loader.FromContractID(ctx, conn.opts)
			if err != nil {
				return err
			}
			atx, err := client.Invoke(ctx, f.method, args)
			if err != nil {
				return err
			}

			var store *txstore.Store
			var storedID string
			if f.save {
				var closeStore func()
				if store, closeStore, err = conn.store(ctx); err != nil {
					return err
				}
				defer closeStore()
				if storedID, err = store.Save(ctx, atx); err != nil {
					return err
				}
			}

			var result any
			if f.send && atx.IsReadCall() {
				log.L(ctx).Infof("'%s' is a read call, returning the simulated result without sending", f.method)
			}
			if f.send && !atx.IsReadCall() {
				result, err = atx.SignAndSend(ctx, assembled.SignOptions{})
				if store != nil {
					markState(ctx, store, atx)
				}
			} else {
				result, err = atx.Result(ctx)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, txOutput(atx, storedID, result))
		},
	}
	c.addConfigFlag(cmd)
	cmd.Flags().StringVarP(&f.method, "method", "m", "", "contract function to call")
	cmd.Flags().StringVarP(&f.args, "args", "a", "", "arguments as a JSON object keyed by parameter name")
	cmd.Flags().BoolVar(&f.send, "send", false, "sign with the key in "+secretKeyEnv+" (or "+mnemonicEnv+") and submit")
	cmd.Flags().BoolVar(&f.save, "save", false, "store the transaction so it can be resumed later")
	_ = cmd.MarkFlagRequired("method")
	return cmd
}

// alreadySent is true for a stored transaction that reached the network, so
// that resuming it must poll rather than send again with a consumed sequence
func alreadySent(st *txstore.StoredTransaction) bool {
	switch assembled.State(st.State) {
	case assembled.StateSubmitted, assembled.StatePolling, assembled.StateSuccess:
		return st.Hash != ""
	}
	return false
}

func (c *cli) resumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume <id>",
		Short: "Sign and submit a stored transaction, or poll for it if it was already submitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := c.connect(ctx)
			if err != nil {
				return err
			}
			store, closeStore, err := conn.store(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			st, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			sent := alreadySent(st)
			if !sent {
				if err := conn.withSigner(ctx); err != nil {
					return err
				}
			}
			conn.opts.ContractID = st.ContractID
			client, err := conn.loader.FromContractID(ctx, conn.opts)
			if err != nil {
				return err
			}
			atx, err := client.TxFromJSON(ctx, []byte(st.JSON))
			if err != nil {
				return err
			}
			var result any
			if sent {
				log.L(ctx).Infof("Transaction %s was submitted as %s, polling for its result", st.ID, st.Hash)
				result, err = atx.PollByHash(ctx, st.Hash)
			} else {
				result, err = atx.SignAndSend(ctx, assembled.SignOptions{})
			}
			markState(ctx, store, atx)
			if err != nil {
				return err
			}
			return printJSON(cmd, txOutput(atx, st.ID, result))
		},
	}
	c.addConfigFlag(cmd)
	return cmd
}
