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
	"context"
	"encoding/json"
	"os"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	"github.com/kaleido-io/sorobankit/sdk/pkg/assembled"
	"github.com/kaleido-io/sorobankit/sdk/pkg/contractclient"
	"github.com/kaleido-io/sorobankit/sdk/pkg/persistence"
	"github.com/kaleido-io/sorobankit/sdk/pkg/signer"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sorobanrpc"
	"github.com/kaleido-io/sorobankit/sdk/pkg/txmetrics"
	"github.com/kaleido-io/sorobankit/sdk/pkg/txstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const (
	secretKeyEnv = "SOROBAN_SECRET_KEY"
	// SEP-0005 account 0 of the mnemonic is used
	mnemonicEnv = "SOROBAN_MNEMONIC"
)

type globalFlags struct {
	logLevel    string
	metricsFile string
	configFile  string
}

type cli struct {
	flags   globalFlags
	metrics txmetrics.TransactionMetrics
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "sorobanctl",
		Short:         "Inspect and call Soroban smart contracts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.EnsureInit()
			if c.flags.logLevel != "" {
				log.SetLevel(c.flags.logLevel)
			}
			c.metrics = txmetrics.InitMetrics(prometheus.NewRegistry())
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.flags.metricsFile == "" {
				return nil
			}
			return c.metrics.WriteToFile(cmd.Context(), c.flags.metricsFile)
		},
	}
	root.PersistentFlags().StringVar(&c.flags.logLevel, "log-level", "", "log level (error, warn, info, debug, trace)")
	root.PersistentFlags().StringVar(&c.flags.metricsFile, "metrics-file", "", "write transaction metrics to this file in prometheus text format on exit")

	root.AddCommand(
		c.specCmd(),
		c.schemaCmd(),
		c.invokeCmd(),
		c.resumeCmd(),
		c.eventsCmd(),
	)
	return root
}

func (c *cli) addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.flags.configFile, "config", "c", "", "client config file (YAML)")
	_ = cmd.MarkFlagRequired("config")
}

func (c *cli) loadConfig(ctx context.Context) (*sbconf.ClientConfig, error) {
	var conf sbconf.ClientConfig
	if err := sbconf.ReadAndParseYAMLFile(ctx, c.flags.configFile, &conf); err != nil {
		return nil, err
	}
	log.InitConfig(&conf.Log)
	if c.flags.logLevel != "" {
		log.SetLevel(c.flags.logLevel)
	}
	return &conf, nil
}

type connection struct {
	conf   *sbconf.ClientConfig
	rpc    sorobanrpc.Server
	loader *contractclient.SpecLoader
	opts   contractclient.Options
}

// connect loads the config and connects to the RPC server it names
func (c *cli) connect(ctx context.Context) (*connection, error) {
	conf, err := c.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	rpc, err := sorobanrpc.NewServer(ctx, conf)
	if err != nil {
		return nil, err
	}
	opts := contractclient.OptionsFromConfig(conf)
	opts.Metrics = c.metrics
	return &connection{
		conf:   conf,
		rpc:    rpc,
		loader: contractclient.NewSpecLoader(rpc, &conf.SpecCache),
		opts:   opts,
	}, nil
}

// withSigner reads the key from the environment, and makes the keypair
// the source account unless one is configured
func (conn *connection) withSigner(ctx context.Context) (err error) {
	var s *signer.KeypairSigner
	switch {
	case os.Getenv(secretKeyEnv) != "":
		s, err = signer.NewKeypairSigner(ctx, os.Getenv(secretKeyEnv))
	case os.Getenv(mnemonicEnv) != "":
		s, err = signer.NewMnemonicSigner(ctx, os.Getenv(mnemonicEnv), "", 0)
	default:
		err = i18n.NewError(ctx, sbmsgs.MsgCLINoSecretKey, secretKeyEnv, mnemonicEnv)
	}
	if err != nil {
		return err
	}
	conn.opts.Signer = s
	if conn.opts.PublicKey == "" {
		conn.opts.PublicKey = s.Address()
	}
	conn.opts.AuthSigners = map[string]assembled.AuthEntrySigner{s.Address(): s}
	return nil
}

func (conn *connection) store(ctx context.Context) (*txstore.Store, func(), error) {
	p, err := persistence.NewPersistence(ctx, &conn.conf.DB)
	if err != nil {
		return nil, nil, err
	}
	s, err := txstore.New(ctx, p)
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	return s, p.Close, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(append(b, '\n'))
	return err
}
