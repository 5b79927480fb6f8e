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

// The producer seeds the simulated driver fleet and then emits driver
// positions and orders onto their streams at a fixed cadence until
// interrupted.
package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	redis "github.com/redis/go-redis/v9"

	"surgegrid/internal/config"
	"surgegrid/internal/logging"
	"surgegrid/internal/sim"
	"surgegrid/internal/stream"
)

func main() {
	log := logging.New("producer")

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = stream.WithClient(ctx, cfg.RedisAddr(), log, func(client *redis.Client) error {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		if err := sim.SeedFleet(ctx, client, rng); err != nil {
			return err
		}
		log.Info().Int("drivers", sim.TotalDrivers).Msg("driver fleet seeded")

		drivers := stream.NewProducer(client, cfg.DriverStream, cfg.Interval(),
			sim.DriverPositionGenerator(rand.New(rand.NewSource(time.Now().UnixNano()))), log)
		orders := stream.NewProducer(client, cfg.OrderStream, cfg.Interval(),
			sim.OrderGenerator(rand.New(rand.NewSource(time.Now().UnixNano()+1))), log)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = drivers.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			_ = orders.Run(ctx)
		}()
		wg.Wait()
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("producer failed")
		os.Exit(1)
	}
}
