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

package txmetrics

import (
	"context"
	"time"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/sdk/pkg/assembled"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "sorobankit"
	metricsSubsystem = "tx"
)

// TransactionMetrics counts the outcomes of each stage of a contract call
type TransactionMetrics interface {
	assembled.Metrics
	Registry() *prometheus.Registry
	WriteToFile(ctx context.Context, filename string) error
}

type txMetrics struct {
	registry     *prometheus.Registry
	simulations  *prometheus.CounterVec
	restorations *prometheus.CounterVec
	submissions  *prometheus.CounterVec
	results      *prometheus.CounterVec
	pollSeconds  prometheus.Histogram
}

var _ assembled.Metrics = (*txMetrics)(nil)

func InitMetrics(registry *prometheus.Registry) TransactionMetrics {
	m := &txMetrics{registry: registry}

	m.simulations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem, Name: "simulations_total",
		Help: "Transaction simulations by outcome (success, restore, error)",
	}, []string{"outcome"})
	m.restorations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem, Name: "restorations_total",
		Help: "Automatic restores of archived ledger entries by outcome",
	}, []string{"outcome"})
	m.submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem, Name: "submissions_total",
		Help: "Transactions sent, by the status returned by sendTransaction",
	}, []string{"status"})
	m.results = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem, Name: "results_total",
		Help: "Final results of sent transactions",
	}, []string{"result"})
	m.pollSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem, Name: "poll_seconds",
		Help:    "Time from submission to a final result",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300},
	})

	registry.MustRegister(m.simulations, m.restorations, m.submissions, m.results, m.pollSeconds)
	return m
}

func (m *txMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *txMetrics) SimulationCompleted(outcome string) {
	m.simulations.WithLabelValues(outcome).Inc()
}

func (m *txMetrics) RestorationCompleted(outcome string) {
	m.restorations.WithLabelValues(outcome).Inc()
}

func (m *txMetrics) TransactionSubmitted(status string) {
	m.submissions.WithLabelValues(status).Inc()
}

func (m *txMetrics) TransactionCompleted(result string, pollDuration time.Duration) {
	m.results.WithLabelValues(result).Inc()
	if pollDuration > 0 {
		m.pollSeconds.Observe(pollDuration.Seconds())
	}
}

// WriteToFile writes the registry in the text exposition format, for the
// node exporter textfile collector
func (m *txMetrics) WriteToFile(ctx context.Context, filename string) error {
	if err := prometheus.WriteToTextfile(filename, m.registry); err != nil {
		return i18n.WrapError(ctx, err, sbmsgs.MsgCLIMetricsWriteFailed, filename)
	}
	return nil
}
