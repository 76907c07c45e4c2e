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
package retry

import (
	"context"
	"time"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/config/pkg/confutil"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
)

// Retry is an exponential backoff, capped at a maximum delay
type Retry struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	factor       float64
	maxAttempts  int
}

func NewRetryIndefinite(conf *sbconf.RetryConfig, defaults ...*sbconf.RetryConfig) *Retry {
	def := &sbconf.GenericRetryDefaults.RetryConfig
	if len(defaults) > 0 {
		def = defaults[0]
	}
	return &Retry{
		initialDelay: confutil.DurationMin(conf.InitialDelay, 0, *def.InitialDelay),
		maxDelay:     confutil.DurationMin(conf.MaxDelay, 0, *def.MaxDelay),
		factor:       confutil.Float64Min(conf.Factor, 1.0, *def.Factor),
	}
}

func NewRetryLimited(conf *sbconf.RetryConfigWithMax, defaults ...*sbconf.RetryConfigWithMax) *Retry {
	def := sbconf.GenericRetryDefaults
	if len(defaults) > 0 {
		def = defaults[0]
	}
	r := NewRetryIndefinite(&conf.RetryConfig, &def.RetryConfig)
	r.maxAttempts = confutil.IntMin(conf.MaxAttempts, 0, *def.MaxAttempts)
	return r
}

// Do invokes the function until it returns no error, says the error is not
// retryable, or the attempts are exhausted
func (r *Retry) Do(ctx context.Context, do func(attempt int) (retryable bool, err error)) error {
	for attempt := 1; ; attempt++ {
		retryable, err := do(attempt)
		if err != nil {
			log.L(ctx).Errorf("%s (attempt=%d)", err, attempt)
		}
		if !retryable || err == nil || (r.maxAttempts > 0 && attempt >= r.maxAttempts) {
			return err
		}
		if err := r.WaitDelay(ctx, attempt); err != nil {
			return err
		}
	}
}

// Delay is the backoff after the given number of failures
func (r *Retry) Delay(failureCount int) time.Duration {
	if failureCount <= 0 {
		return 0
	}
	delay := r.initialDelay
	for i := 1; i < failureCount; i++ {
		delay = time.Duration(float64(delay) * r.factor)
		if delay > r.maxDelay {
			return r.maxDelay
		}
	}
	return delay
}

func (r *Retry) WaitDelay(ctx context.Context, failureCount int) error {
	return r.WaitDelayMax(ctx, failureCount, 0)
}

// WaitDelayMax waits for the backoff delay, but no longer than limit (if non-zero)
func (r *Retry) WaitDelayMax(ctx context.Context, failureCount int, limit time.Duration) error {
	delay := r.Delay(failureCount)
	if limit > 0 && delay > limit {
		delay = limit
	}
	if delay <= 0 {
		return nil
	}
	log.L(ctx).Debugf("Retrying after %.2fs (failures=%d)", delay.Seconds(), failureCount)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return i18n.NewError(ctx, sbmsgs.MsgContextCanceled)
	}
}
