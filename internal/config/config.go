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

// Package config loads process configuration from the environment.
// Defaults are applied first and then overridden by environment variables,
// so every binary can run against a local Redis with no configuration at all.
package config

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds the knobs shared by the producer, consumer and API processes.
type Config struct {
	RedisHost string `koanf:"REDIS_HOST"`
	RedisPort int    `koanf:"REDIS_PORT"`

	// Stream names. The env names predate this service and are kept for
	// compatibility with existing deployments.
	DriverStream string `koanf:"REDIS_STREAM"`
	OrderStream  string `koanf:"ORDER_REDIS_STREAM"`

	// ProduceInterval is the pause between produced events, in seconds.
	ProduceInterval float64 `koanf:"PRODUCE_INTERVAL"`

	HTTPAddr       string `koanf:"HTTP_ADDR"`
	ClickHouseAddr string `koanf:"CLICKHOUSE_ADDR"`

	// BasePrice is the per-cell baseline before the surge multiplier.
	BasePrice float64 `koanf:"BASE_PRICE"`

	// TimeWindowMinutes is the rolling window W for count queries.
	TimeWindowMinutes int `koanf:"TIME_WINDOW_MINUTES"`
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		RedisHost:         "localhost",
		RedisPort:         6379,
		DriverStream:      "driver_position_stream",
		OrderStream:       "order_stream",
		ProduceInterval:   1.0,
		HTTPAddr:          ":8080",
		ClickHouseAddr:    "localhost:9000",
		BasePrice:         10.0,
		TimeWindowMinutes: 5,
	}
}

// Load builds a Config from defaults overridden by environment variables.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result: &cfg,
			// Env values arrive as strings; coerce them into ints and floats.
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.TimeWindowMinutes <= 0 {
		return Config{}, fmt.Errorf("TIME_WINDOW_MINUTES must be positive, got %d", cfg.TimeWindowMinutes)
	}
	return cfg, nil
}

// RedisAddr returns the host:port endpoint of the key-value store.
func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// Interval returns ProduceInterval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.ProduceInterval * float64(time.Second))
}
