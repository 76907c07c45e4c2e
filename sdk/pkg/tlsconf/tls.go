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
package tlsconf

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
)

// BuildTLSConfig returns nil when TLS is not enabled. Only client side TLS is
// supported, as the RPC server is always remote.
func BuildTLSConfig(ctx context.Context, config *sbconf.TLSConfig) (*tls.Config, error) {
	if !config.Enabled {
		return nil, nil
	}

	rootCAs, err := loadCAs(ctx, config)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTLSConfigFailed)
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		RootCAs:            rootCAs,
		InsecureSkipVerify: config.InsecureSkipHostVerify, //nolint:gosec // explicitly configured
	}

	var cert *tls.Certificate
	switch {
	case config.CertFile != "" && config.KeyFile != "":
		c, err := tls.LoadX509KeyPair(config.CertFile, config.KeyFile)
		if err != nil {
			return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTLSInvalidKeyPairFiles)
		}
		cert = &c
	case config.Cert != "" && config.Key != "":
		c, err := tls.X509KeyPair([]byte(config.Cert), []byte(config.Key))
		if err != nil {
			return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTLSInvalidKeyPairFiles)
		}
		cert = &c
	}
	if cert != nil {
		tlsConfig.GetClientCertificate = func(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
			log.L(ctx).Debugf("Supplying client certificate")
			return cert, nil
		}
	}
	return tlsConfig, nil
}

func loadCAs(ctx context.Context, config *sbconf.TLSConfig) (*x509.CertPool, error) {
	var caBytes []byte
	switch {
	case config.CAFile != "":
		b, err := os.ReadFile(config.CAFile)
		if err != nil {
			return nil, err
		}
		caBytes = b
	case config.CA != "":
		caBytes = []byte(config.CA)
	default:
		return x509.SystemCertPool()
	}
	rootCAs := x509.NewCertPool()
	if !rootCAs.AppendCertsFromPEM(caBytes) {
		return nil, i18n.NewError(ctx, sbmsgs.MsgTLSInvalidCAFile)
	}
	return rootCAs, nil
}
