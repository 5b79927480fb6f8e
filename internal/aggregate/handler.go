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

// Package aggregate maintains the per-minute per-resolution cell counters and
// reconstructs windowed views from them.
package aggregate

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"surgegrid/internal/event"
	"surgegrid/internal/geo"
	"surgegrid/internal/stream"
)

// Counter key prefixes, one per event kind. A counter is never shared
// across kinds.
const (
	DriverCountKey = "driver_count_by_region"
	OrderCountKey  = "order_count_by_region"
)

// BucketKey builds the composite counter key {prefix}:{YYYY-MM-DDTHH:MM}:{resolution}.
func BucketKey(prefix, timeKey string, resolution int) string {
	return fmt.Sprintf("%s:%s:%d", prefix, timeKey, resolution)
}

// CountHandler is the aggregator specialization of the stream processor. For
// each message it fans the event out into one minute-bucket counter per
// configured resolution, in a single MULTI/EXEC transaction so a concurrent
// reader never sees the event applied at one resolution but not the others.
//
// Delivery is at-least-once and increments are not deduplicated by message
// id: a message replayed after a reclaim increments its counters again. This
// is a known limitation, accepted to keep the hot path to one round trip.
type CountHandler struct {
	client      *redis.Client
	prefix      string
	resolutions []int
	log         zerolog.Logger
}

// NewCountHandler builds an aggregator for one counter prefix. Increments
// are issued in the order resolutions are listed.
func NewCountHandler(client *redis.Client, prefix string, resolutions []int, log zerolog.Logger) *CountHandler {
	return &CountHandler{
		client:      client,
		prefix:      prefix,
		resolutions: resolutions,
		log:         log.With().Str("prefix", prefix).Logger(),
	}
}

// Handle parses the event strictly, derives its cells, and increments the
// counter for every resolution. The minute bucket comes from the event's own
// timestamp, so late arrivals land in their historical bucket.
func (h *CountHandler) Handle(ctx context.Context, msg redis.XMessage) stream.HandleResult {
	point, err := event.ParsePoint(msg.Values)
	if err != nil {
		return stream.Fail(fmt.Errorf("parse message: %w", err))
	}

	cells := geo.CellsFor(point.Latitude, point.Longitude, h.resolutions)

	pipe := h.client.TxPipeline()
	for _, res := range h.resolutions {
		key := BucketKey(h.prefix, point.TimeKey, res)
		h.log.Debug().Str("key", key).Str("cell", cells[res]).Msg("incrementing counter")
		pipe.HIncrBy(ctx, key, cells[res], 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		// Leave the message un-acked; the next reclaim retries it.
		return stream.Fail(fmt.Errorf("increment counters: %w", err))
	}
	return stream.OK()
}
