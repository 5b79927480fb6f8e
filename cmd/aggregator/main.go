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

// The aggregator consumes both event streams and maintains the per-minute
// per-resolution cell counters. A fatal store error exits non-zero so the
// supervisor restarts the process.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	redis "github.com/redis/go-redis/v9"

	"surgegrid/internal/aggregate"
	"surgegrid/internal/config"
	"surgegrid/internal/geo"
	"surgegrid/internal/logging"
	"surgegrid/internal/stream"
)

const (
	driverGroup = "driver_position_consumer_group"
	orderGroup  = "order_consumer_group"
)

func main() {
	consumer := flag.String("consumer", "consumer_1", "Consumer name within the group; give each replica its own")
	flag.Parse()

	log := logging.New("aggregator")

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = stream.WithClient(ctx, cfg.RedisAddr(), log, func(client *redis.Client) error {
		driverProc := stream.NewProcessor(client,
			stream.DefaultProcessorConfig(cfg.DriverStream, driverGroup, *consumer),
			aggregate.NewCountHandler(client, aggregate.DriverCountKey, geo.Resolutions, log),
			log)
		orderProc := stream.NewProcessor(client,
			stream.DefaultProcessorConfig(cfg.OrderStream, orderGroup, *consumer),
			aggregate.NewCountHandler(client, aggregate.OrderCountKey, geo.Resolutions, log),
			log)

		return stream.RunAll(ctx, stop, driverProc, orderProc)
	})
	if err != nil {
		log.Error().Err(err).Msg("aggregator failed")
		os.Exit(1)
	}
}
