// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

// Package telemetry exposes Prometheus counters for the stream pipeline.
// Labels are bounded: only the stream name, of which there are two.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "surgegrid_messages_consumed_total",
		Help: "Messages delivered to a consumer, before processing",
	}, []string{"stream"})
	messagesAcked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "surgegrid_messages_acked_total",
		Help: "Messages processed and acknowledged",
	}, []string{"stream"})
	messagesFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "surgegrid_messages_failed_total",
		Help: "Per-message processing failures left un-acked for reclaim",
	}, []string{"stream"})
	messagesReclaimed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "surgegrid_messages_reclaimed_total",
		Help: "Pending messages claimed from an idle consumer",
	}, []string{"stream"})
	batchSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "surgegrid_batch_size",
		Help:    "Distribution of messages per consumed batch",
		Buckets: []float64{1, 2, 4, 8, 10, 16, 32},
	}, []string{"stream"})
	eventsProduced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "surgegrid_events_produced_total",
		Help: "Events appended to a stream",
	}, []string{"stream"})
	produceErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "surgegrid_produce_errors_total",
		Help: "Failed stream appends (retried after backoff)",
	}, []string{"stream"})
)

func init() {
	prometheus.MustRegister(
		messagesConsumed, messagesAcked, messagesFailed, messagesReclaimed,
		batchSize, eventsProduced, produceErrors,
	)
}

// ObserveBatch records one consumed batch and its size.
func ObserveBatch(stream string, size int) {
	if size <= 0 {
		return
	}
	messagesConsumed.WithLabelValues(stream).Add(float64(size))
	batchSize.WithLabelValues(stream).Observe(float64(size))
}

// MessageAcked records one processed-and-acknowledged message.
func MessageAcked(stream string) { messagesAcked.WithLabelValues(stream).Inc() }

// MessageFailed records one per-message failure.
func MessageFailed(stream string) { messagesFailed.WithLabelValues(stream).Inc() }

// MessageReclaimed records one successful claim of a pending message.
func MessageReclaimed(stream string) { messagesReclaimed.WithLabelValues(stream).Inc() }

// EventProduced records one successful stream append.
func EventProduced(stream string) { eventsProduced.WithLabelValues(stream).Inc() }

// ProduceError records one failed stream append.
func ProduceError(stream string) { produceErrors.WithLabelValues(stream).Inc() }
