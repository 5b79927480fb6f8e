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

package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"surgegrid/internal/event"
	"surgegrid/internal/stream"
)

// Order values are uniform in this range.
const (
	orderValueMin = 10.0
	orderValueMax = 500.0
)

// OrderGenerator returns a generator emitting orders at uniform positions in
// the bounding box with fresh uuid identifiers.
func OrderGenerator(rng *rand.Rand) stream.Generator {
	return func(_ context.Context, _ *redis.Client) (map[string]interface{}, error) {
		o := event.Order{
			OrderID:    uuid.New().String(),
			CustomerID: uuid.New().String(),
			OrderValue: orderValueMin + rng.Float64()*(orderValueMax-orderValueMin),
			Latitude:   LatMin + rng.Float64()*(LatMax-LatMin),
			Longitude:  LonMin + rng.Float64()*(LonMax-LonMin),
			Timestamp:  time.Now().UTC(),
		}
		return o.Fields(), nil
	}
}
