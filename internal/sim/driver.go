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

// Package sim generates synthetic driver-position and order events bounded
// to the Belo Horizonte central area.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	redis "github.com/redis/go-redis/v9"

	"surgegrid/internal/event"
	"surgegrid/internal/stream"
)

// Bounding box for Belo Horizonte's central area.
const (
	LatMin = -20.0047113796
	LatMax = -19.7890619963
	LonMin = -44.0986149944
	LonMax = -43.860692326
)

// TotalDrivers is the simulated fleet size.
const TotalDrivers = 1000

// driftPerSecond scales the random walk: roughly ten meters of latitude per
// second of elapsed time.
const driftPerSecond = 1e-5

// driverState is the per-driver position record kept in the key-value store
// between produce ticks.
type driverState struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Unix is the wall-clock seconds of the last update.
	Unix float64 `json:"timestamp"`
}

func driverKey(id int) string {
	return fmt.Sprintf("driver:%d", id)
}

// SeedFleet places every driver uniformly inside the bounding box and stores
// the states in a single pipeline. Call once before producing.
func SeedFleet(ctx context.Context, client *redis.Client, rng *rand.Rand) error {
	now := float64(time.Now().UnixNano()) / float64(time.Second)
	pipe := client.Pipeline()
	for i := 0; i < TotalDrivers; i++ {
		state := driverState{
			Latitude:  LatMin + rng.Float64()*(LatMax-LatMin),
			Longitude: LonMin + rng.Float64()*(LonMax-LonMin),
			Unix:      now,
		}
		raw, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("marshal driver state: %w", err)
		}
		pipe.Set(ctx, driverKey(i), raw, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("seed driver fleet: %w", err)
	}
	return nil
}

// DriverPositionGenerator returns a generator that picks a random driver,
// walks its position proportionally to the elapsed time, and emits the new
// position. Drivers that drift past the box edge are steered back inward.
func DriverPositionGenerator(rng *rand.Rand) stream.Generator {
	return func(ctx context.Context, client *redis.Client) (map[string]interface{}, error) {
		id := rng.Intn(TotalDrivers)

		raw, err := client.Get(ctx, driverKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("load driver %d state: %w", id, err)
		}
		var state driverState
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			return nil, fmt.Errorf("decode driver %d state: %w", id, err)
		}

		now := float64(time.Now().UnixNano()) / float64(time.Second)
		elapsed := now - state.Unix

		state.Latitude += steer(state.Latitude, LatMin, LatMax, rng) * elapsed * driftPerSecond
		state.Longitude += steer(state.Longitude, LonMin, LonMax, rng) * elapsed * driftPerSecond
		state.Unix = now

		updated, err := json.Marshal(state)
		if err != nil {
			return nil, fmt.Errorf("marshal driver state: %w", err)
		}
		if err := client.Set(ctx, driverKey(id), updated, 0).Err(); err != nil {
			return nil, fmt.Errorf("store driver %d state: %w", id, err)
		}

		d := event.DriverPosition{
			DriverID:  fmt.Sprintf("%d", id),
			Latitude:  state.Latitude,
			Longitude: state.Longitude,
			Timestamp: time.Now().UTC(),
		}
		return d.Fields(), nil
	}
}

// steer picks the walk direction: random inside the box, inward at either
// edge.
func steer(pos, min, max float64, rng *rand.Rand) float64 {
	switch {
	case pos < min:
		return 1
	case pos > max:
		return -1
	default:
		if rng.Intn(2) == 0 {
			return -1
		}
		return 1
	}
}
