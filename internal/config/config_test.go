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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, "driver_position_stream", cfg.DriverStream)
	assert.Equal(t, "order_stream", cfg.OrderStream)
	assert.Equal(t, time.Second, cfg.Interval())
	assert.Equal(t, 10.0, cfg.BasePrice)
	assert.Equal(t, 5, cfg.TimeWindowMinutes)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("PRODUCE_INTERVAL", "0.25")
	t.Setenv("TIME_WINDOW_MINUTES", "10")
	t.Setenv("BASE_PRICE", "12.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr())
	assert.Equal(t, 250*time.Millisecond, cfg.Interval())
	assert.Equal(t, 10, cfg.TimeWindowMinutes)
	assert.Equal(t, 12.5, cfg.BasePrice)
}

func TestLoad_RejectsNonPositiveWindow(t *testing.T) {
	t.Setenv("TIME_WINDOW_MINUTES", "0")

	_, err := Load()
	assert.Error(t, err)
}
