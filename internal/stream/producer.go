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

package stream

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"surgegrid/internal/telemetry"
)

// Generator produces the next event to append. Generators may read and write
// auxiliary state through the client (the driver fleet does).
type Generator func(ctx context.Context, client *redis.Client) (map[string]interface{}, error)

// Producer appends generated events to one stream at a fixed cadence.
type Producer struct {
	client   *redis.Client
	stream   string
	interval time.Duration
	generate Generator
	log      zerolog.Logger
}

// NewProducer builds a producer for the given stream.
func NewProducer(client *redis.Client, streamName string, interval time.Duration, generate Generator, log zerolog.Logger) *Producer {
	return &Producer{
		client:   client,
		stream:   streamName,
		interval: interval,
		generate: generate,
		log:      log.With().Str("stream", streamName).Logger(),
	}
}

// Run produces until the context is cancelled. An append failure backs off
// twice the produce interval and retries the same event, preserving order.
// The interval sleep is a plain sleep: a shutdown signal lets the current
// sleep finish, then the next append is skipped and the loop exits.
func (p *Producer) Run(ctx context.Context) error {
	var pending map[string]interface{}

	for {
		if ctx.Err() != nil {
			p.log.Info().Msg("Producer stopped")
			return nil
		}

		if pending == nil {
			values, err := p.generate(ctx, p.client)
			if err != nil {
				p.log.Error().Err(err).Msg("event generation failed")
				time.Sleep(p.interval)
				continue
			}
			pending = values
		}

		pipe := p.client.Pipeline()
		pipe.XAdd(ctx, &redis.XAddArgs{Stream: p.stream, Values: pending})
		if _, err := pipe.Exec(ctx); err != nil {
			if ctx.Err() != nil {
				p.log.Info().Msg("Producer stopped")
				return nil
			}
			telemetry.ProduceError(p.stream)
			p.log.Error().Err(err).Msg("failed to append to stream, backing off")
			time.Sleep(2 * p.interval)
			continue
		}

		telemetry.EventProduced(p.stream)
		p.log.Info().Interface("data", pending).Msg("event sent")
		pending = nil

		time.Sleep(p.interval)
	}
}
