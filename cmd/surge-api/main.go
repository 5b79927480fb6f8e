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

// The surge-api serves the windowed driver/order counts and the derived
// surge prices over HTTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"surgegrid/internal/aggregate"
	"surgegrid/internal/api"
	"surgegrid/internal/config"
	"surgegrid/internal/logging"
	"surgegrid/internal/pricing"
	"surgegrid/internal/stream"
)

func main() {
	log := logging.New("surge-api")

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := stream.Connect(ctx, cfg.RedisAddr(), log)
	if err != nil {
		log.Error().Err(err).Msg("store unavailable")
		os.Exit(1)
	}
	defer func() { _ = client.Close() }()

	drivers := aggregate.NewWindowedQuery(client, aggregate.DriverCountKey, cfg.TimeWindowMinutes)
	orders := aggregate.NewWindowedQuery(client, aggregate.OrderCountKey, cfg.TimeWindowMinutes)
	calc := pricing.NewCalculator(cfg.BasePrice, drivers, orders)

	server := api.NewServer(drivers, orders, calc, log).HTTPServer(cfg.HTTPAddr)

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("surge API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}
