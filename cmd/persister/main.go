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

// The persister consumes both event streams and writes raw events to the
// durable columnar store.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	redis "github.com/redis/go-redis/v9"

	"surgegrid/internal/config"
	"surgegrid/internal/logging"
	"surgegrid/internal/persist"
	"surgegrid/internal/stream"
)

const (
	driverPersistGroup = "driver_position_persist_consumer_group"
	orderPersistGroup  = "order_persist_consumer_group"
)

func main() {
	consumer := flag.String("consumer", "persist_consumer_1", "Consumer name within the group; give each replica its own")
	flag.Parse()

	log := logging.New("persister")

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := persist.Open(ctx, cfg.ClickHouseAddr, log)
	if err != nil {
		log.Error().Err(err).Msg("durable store unavailable")
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	err = stream.WithClient(ctx, cfg.RedisAddr(), log, func(client *redis.Client) error {
		driverProc := stream.NewProcessor(client,
			stream.DefaultProcessorConfig(cfg.DriverStream, driverPersistGroup, *consumer),
			persist.NewDriverHandler(store, log),
			log)
		orderProc := stream.NewProcessor(client,
			stream.DefaultProcessorConfig(cfg.OrderStream, orderPersistGroup, *consumer),
			persist.NewOrderHandler(store, log),
			log)

		return stream.RunAll(ctx, stop, driverProc, orderProc)
	})
	if err != nil {
		log.Error().Err(err).Msg("persister failed")
		os.Exit(1)
	}
}
