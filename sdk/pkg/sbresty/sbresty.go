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
package sbresty

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/config/pkg/confutil"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sbtypes"
	"github.com/kaleido-io/sorobankit/sdk/pkg/tlsconf"
	"github.com/sirupsen/logrus"
)

type requestCtxKey struct{}

type requestCtx struct {
	id       string
	start    time.Time
	attempts int
}

func onAfterResponse(_ *resty.Client, resp *resty.Response) error {
	rCtx := resp.Request.Context()
	var elapsed time.Duration
	if rc, ok := rCtx.Value(requestCtxKey{}).(*requestCtx); ok {
		elapsed = time.Since(rc.start)
	}
	level := logrus.DebugLevel
	status := resp.StatusCode()
	if status >= 300 {
		level = logrus.ErrorLevel
	}
	log.L(rCtx).Logf(level, "<== %s %s [%d] (%dms)", resp.Request.Method, resp.Request.URL, status, elapsed.Milliseconds())
	return nil
}

// New creates a resty client from configuration. The base URL is the
// configured URL, so JSON/RPC callers post to the empty path.
func New(ctx context.Context, conf *sbconf.HTTPClientConfig) (*resty.Client, error) {
	def := sbconf.DefaultHTTPConfig

	u, err := url.Parse(conf.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgRPCClientInvalidHTTPURL, conf.URL)
	}
	tlsConf := conf.TLS
	if u.Scheme == "https" {
		tlsConf.Enabled = true
	}
	tlsConfig, err := tlsconf.BuildTLSConfig(ctx, &tlsConf)
	if err != nil {
		return nil, err
	}

	connTimeout := confutil.DurationMin(conf.ConnectionTimeout, 0, *def.ConnectionTimeout)
	client := resty.NewWithClient(&http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   connTimeout,
				KeepAlive: connTimeout,
			}).DialContext,
			TLSClientConfig:   tlsConfig,
			ForceAttemptHTTP2: true,
		},
	})

	baseURL := strings.TrimSuffix(conf.URL, "/")
	client.SetBaseURL(baseURL)
	client.SetTimeout(confutil.DurationMin(conf.RequestTimeout, 0, *def.RequestTimeout))
	log.L(ctx).Debugf("Created REST client to %s", baseURL)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		rCtx := req.Context()
		if rCtx.Value(requestCtxKey{}) == nil {
			rc := &requestCtx{id: sbtypes.ShortID(), start: time.Now()}
			rCtx = log.WithLogField(context.WithValue(rCtx, requestCtxKey{}, rc), "breq", rc.id)
			req.SetContext(rCtx)
		}
		log.L(rCtx).Debugf("==> %s %s%s", req.Method, baseURL, req.URL)
		log.L(rCtx).Tracef("==> (body) %+v", req.Body)
		return nil
	})
	client.OnAfterResponse(onAfterResponse)

	for k, v := range conf.HTTPHeaders {
		client.SetHeader(k, v)
	}
	if conf.Auth.Username != "" && conf.Auth.Password != "" {
		client.SetBasicAuth(conf.Auth.Username, conf.Auth.Password)
	}

	if conf.Retry.Enabled {
		var retryStatusCodes *regexp.Regexp
		if conf.Retry.ErrorStatusCodes != "" {
			retryStatusCodes, err = regexp.Compile(conf.Retry.ErrorStatusCodes)
			if err != nil {
				return nil, i18n.WrapError(ctx, err, sbmsgs.MsgRPCClientInvalidHTTPURL, conf.URL)
			}
		}
		retryCount := confutil.IntMin(conf.Retry.Count, 0, *def.Retry.Count)
		minWait := confutil.DurationMin(conf.Retry.InitialDelay, 0, *def.Retry.InitialDelay)
		maxWait := confutil.DurationMin(conf.Retry.MaximumDelay, 0, *def.Retry.MaximumDelay)
		client.
			SetRetryCount(retryCount).
			SetRetryWaitTime(minWait).
			SetRetryMaxWaitTime(maxWait).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if r == nil || r.IsSuccess() {
					return false
				}
				if r.StatusCode() > 0 && retryStatusCodes != nil && !retryStatusCodes.MatchString(r.Status()) {
					return false
				}
				rCtx := r.Request.Context()
				if rc, ok := rCtx.Value(requestCtxKey{}).(*requestCtx); ok {
					rc.attempts++
					log.L(rCtx).Infof("retry %d/%d (min=%dms/max=%dms) status=%d", rc.attempts, retryCount, minWait.Milliseconds(), maxWait.Milliseconds(), r.StatusCode())
				}
				return true
			})
	}

	return client, nil
}

// WrapRestErr builds an error including a truncated copy of the response body
func WrapRestErr(ctx context.Context, res *resty.Response, err error, key i18n.ErrorMessageKey) error {
	var respData string
	if res != nil {
		respData = res.String()
		if len(respData) > 256 {
			respData = respData[0:256] + "..."
		}
	}
	if err != nil {
		return i18n.WrapError(ctx, err, key, respData)
	}
	return i18n.NewError(ctx, key, respData)
}
