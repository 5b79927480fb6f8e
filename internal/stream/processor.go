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

// Package stream implements the at-least-once grouped-consumer protocol over
// Redis Streams: consumer-group bootstrap, batched blocking reads, periodic
// reclaim of stuck messages, and per-message acknowledgement. Message
// handling is pluggable through the Handler interface; the aggregator and the
// persister are two handlers over the same loop.
package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"surgegrid/internal/telemetry"
)

// Defaults for the processor knobs, matching the deployed cadence.
const (
	DefaultBatchSize       = 10
	DefaultReclaimInterval = 60 * time.Second
	DefaultReadBlock       = 2000 * time.Millisecond
	DefaultIdleSleep       = 100 * time.Millisecond
	DefaultMinIdle         = 60000 * time.Millisecond
)

// HandleStatus classifies the outcome of processing one message.
type HandleStatus int

const (
	// StatusOK: the message was fully applied and may be acknowledged.
	StatusOK HandleStatus = iota
	// StatusPerMessageFail: this message failed; leave it un-acked so a
	// future reclaim retries it. The batch continues.
	StatusPerMessageFail
	// StatusFatalStore: the store connection is gone; the loop must stop.
	StatusFatalStore
)

// HandleResult is the explicit result value a Handler returns for each
// message. Errors are carried alongside the status rather than thrown.
type HandleResult struct {
	Status HandleStatus
	Err    error
}

// OK is the result for a fully applied message.
func OK() HandleResult { return HandleResult{Status: StatusOK} }

// Fail marks a per-message failure.
func Fail(err error) HandleResult { return HandleResult{Status: StatusPerMessageFail, Err: err} }

// Fatal marks a loop-terminating store failure.
func Fatal(err error) HandleResult { return HandleResult{Status: StatusFatalStore, Err: err} }

// Handler processes a single stream message.
type Handler interface {
	Handle(ctx context.Context, msg redis.XMessage) HandleResult
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg redis.XMessage) HandleResult

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, msg redis.XMessage) HandleResult {
	return f(ctx, msg)
}

// ProcessorConfig identifies one consumer within a consumer group and sets
// the loop cadence.
type ProcessorConfig struct {
	Stream   string
	Group    string
	Consumer string

	BatchSize       int64
	ReclaimInterval time.Duration
	ReadBlock       time.Duration
	IdleSleep       time.Duration
	// MinIdle is how long a pending message must sit idle before this
	// consumer may claim it away from its current owner.
	MinIdle time.Duration
}

// DefaultProcessorConfig returns a config with the default cadence.
func DefaultProcessorConfig(stream, group, consumer string) ProcessorConfig {
	return ProcessorConfig{
		Stream:          stream,
		Group:           group,
		Consumer:        consumer,
		BatchSize:       DefaultBatchSize,
		ReclaimInterval: DefaultReclaimInterval,
		ReadBlock:       DefaultReadBlock,
		IdleSleep:       DefaultIdleSleep,
		MinIdle:         DefaultMinIdle,
	}
}

// Processor drives one consumer against one stream. Multiple processors may
// share a group under distinct consumer names; the server partitions messages
// across them.
type Processor struct {
	client      *redis.Client
	cfg         ProcessorConfig
	handler     Handler
	log         zerolog.Logger
	lastReclaim time.Time
}

// NewProcessor wires a handler into the consumer loop. The caller owns the
// client's lifecycle.
func NewProcessor(client *redis.Client, cfg ProcessorConfig, handler Handler, log zerolog.Logger) *Processor {
	return &Processor{
		client:  client,
		cfg:     cfg,
		handler: handler,
		log: log.With().
			Str("stream", cfg.Stream).
			Str("group", cfg.Group).
			Str("consumer", cfg.Consumer).
			Logger(),
	}
}

// EnsureGroup creates the consumer group anchored at the stream's origin.
// An already existing group is success.
func (p *Processor) EnsureGroup(ctx context.Context) error {
	err := p.client.XGroupCreateMkStream(ctx, p.cfg.Stream, p.cfg.Group, "0").Err()
	if err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			p.log.Info().Msg("consumer group already exists")
			return nil
		}
		return fmt.Errorf("create consumer group: %w", err)
	}
	p.log.Info().Msg("consumer group created")
	return nil
}

// ReclaimStale lists pending entries and claims each one whose idle time
// exceeds MinIdle into this consumer, then redelivers the claimed messages
// to the handler. Outcomes are logged; a reclaim problem never fails the
// caller. Redelivery means an already-applied but un-acked message counts
// again (see CountHandler).
func (p *Processor) ReclaimStale(ctx context.Context) {
	pending, err := p.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: p.cfg.Stream,
		Group:  p.cfg.Group,
		Start:  "-",
		End:    "+",
		Count:  p.cfg.BatchSize,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.log.Error().Err(err).Msg("listing pending messages failed")
		}
		return
	}
	if len(pending) == 0 {
		p.log.Debug().Msg("no pending messages to claim")
		return
	}

	p.log.Info().Int("pending", len(pending)).Msg("claiming pending messages")
	for _, entry := range pending {
		claimed, err := p.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   p.cfg.Stream,
			Group:    p.cfg.Group,
			Consumer: p.cfg.Consumer,
			MinIdle:  p.cfg.MinIdle,
			Messages: []string{entry.ID},
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			p.log.Error().Err(err).Str("message_id", entry.ID).Msg("claim failed")
			continue
		}
		if len(claimed) == 0 {
			// Not idle long enough, or another consumer got there first.
			p.log.Warn().Str("message_id", entry.ID).Msg("message not claimed")
			continue
		}
		telemetry.MessageReclaimed(p.cfg.Stream)
		p.log.Info().Str("message_id", entry.ID).Msg("message claimed")
		if err := p.dispatch(ctx, claimed[0]); err != nil {
			// Reclaim never fails the caller; the broken connection will
			// surface on the next read.
			p.log.Error().Err(err).Msg("store failure during reclaim redelivery")
			return
		}
	}
}

// dispatch runs the handler for one message and acks on success. It is used
// for both fresh and reclaimed deliveries. The returned error is non-nil
// only for fatal store failures.
func (p *Processor) dispatch(ctx context.Context, msg redis.XMessage) error {
	result := p.handler.Handle(ctx, msg)
	switch result.Status {
	case StatusOK:
		if err := p.client.XAck(ctx, p.cfg.Stream, p.cfg.Group, msg.ID).Err(); err != nil {
			// Leave it pending; reclaim will retry the whole message.
			telemetry.MessageFailed(p.cfg.Stream)
			p.log.Error().Err(err).Str("message_id", msg.ID).Msg("ack failed")
			return nil
		}
		telemetry.MessageAcked(p.cfg.Stream)
	case StatusPerMessageFail:
		telemetry.MessageFailed(p.cfg.Stream)
		p.log.Error().Err(result.Err).Str("message_id", msg.ID).Msg("message processing failed")
	case StatusFatalStore:
		return fmt.Errorf("fatal store error on message %s: %w", msg.ID, result.Err)
	}
	return nil
}

// consumeOnce reads one batch and dispatches each message to the handler,
// acknowledging successes individually. A nil return means keep looping; an
// error return is fatal to the loop.
func (p *Processor) consumeOnce(ctx context.Context) error {
	res, err := p.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    p.cfg.Group,
		Consumer: p.cfg.Consumer,
		Streams:  []string{p.cfg.Stream, ">"},
		Count:    p.cfg.BatchSize,
		Block:    p.cfg.ReadBlock,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Read timed out with nothing new.
			p.sleepIdle(ctx)
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("read from stream %s: %w", p.cfg.Stream, err)
	}
	if len(res) == 0 || len(res[0].Messages) == 0 {
		p.sleepIdle(ctx)
		return nil
	}

	msgs := res[0].Messages
	telemetry.ObserveBatch(p.cfg.Stream, len(msgs))
	p.log.Info().Int("count", len(msgs)).Msg("processing batch")

	for _, msg := range msgs {
		if ctx.Err() != nil {
			return nil
		}
		if err := p.dispatch(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// Run drives the consumer until the context is cancelled or a fatal store
// error occurs. It alternates reclaim (when the interval has elapsed) with
// batch consumption.
func (p *Processor) Run(ctx context.Context) error {
	if err := p.EnsureGroup(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("consumer shutting down")
			return nil
		default:
		}

		if time.Since(p.lastReclaim) >= p.cfg.ReclaimInterval {
			p.ReclaimStale(ctx)
			p.lastReclaim = time.Now()
		}

		if err := p.consumeOnce(ctx); err != nil {
			p.log.Error().Err(err).Msg("shutting down")
			return err
		}
	}
}

func (p *Processor) sleepIdle(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(p.cfg.IdleSleep):
	}
}

// RunAll drives the processors concurrently and returns the first fatal
// error, cancelling the others.
func RunAll(ctx context.Context, cancel context.CancelFunc, procs ...*Processor) error {
	errCh := make(chan error, len(procs))
	for _, p := range procs {
		p := p
		go func() { errCh <- p.Run(ctx) }()
	}

	var firstErr error
	for range procs {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	return firstErr
}
