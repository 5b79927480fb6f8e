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

package aggregate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// minuteLayout formats a time into the counter key's minute component.
const minuteLayout = "2006-01-02T15:04"

// WindowedQuery reconstructs per-cell totals over the last W minutes for one
// counter prefix. The window is anchored at wall-clock now, read once per
// call; events older than W minutes have fallen out of the view.
type WindowedQuery struct {
	client *redis.Client
	prefix string
	window int

	// now is swapped in tests to pin the window.
	now func() time.Time
}

// NewWindowedQuery builds a query over the given prefix and window length in
// minutes.
func NewWindowedQuery(client *redis.Client, prefix string, windowMinutes int) *WindowedQuery {
	return &WindowedQuery{
		client: client,
		prefix: prefix,
		window: windowMinutes,
		now:    time.Now,
	}
}

// timeKeys returns the W contiguous minute keys ending at now, newest first.
// Keys are generated whether or not their buckets exist.
func (q *WindowedQuery) timeKeys(now time.Time) []string {
	keys := make([]string, q.window)
	for i := 0; i < q.window; i++ {
		keys[i] = now.UTC().Add(-time.Duration(i) * time.Minute).Format(minuteLayout)
	}
	return keys
}

// CellCounts sums the window's buckets per cell at the given resolution.
// Buckets absent from the store contribute zero and never error.
func (q *WindowedQuery) CellCounts(ctx context.Context, resolution int) (map[string]int64, error) {
	keys := q.timeKeys(q.now())

	pipe := q.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, timeKey := range keys {
		cmds[i] = pipe.HGetAll(ctx, BucketKey(q.prefix, timeKey, resolution))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("read counter buckets: %w", err)
	}

	totals := make(map[string]int64)
	for _, cmd := range cmds {
		for cell, raw := range cmd.Val() {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("counter value for cell %s: %w", cell, err)
			}
			totals[cell] += n
		}
	}
	return totals, nil
}

// CellCount sums the window's buckets for a single cell. A cell absent from
// every bucket counts as zero.
func (q *WindowedQuery) CellCount(ctx context.Context, resolution int, cellID string) (int64, error) {
	keys := q.timeKeys(q.now())

	pipe := q.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, timeKey := range keys {
		cmds[i] = pipe.HGet(ctx, BucketKey(q.prefix, timeKey, resolution), cellID)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, fmt.Errorf("read counter buckets: %w", err)
	}

	var total int64
	for _, cmd := range cmds {
		raw, err := cmd.Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("read counter for cell %s: %w", cellID, err)
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("counter value for cell %s: %w", cellID, err)
		}
		total += n
	}
	return total, nil
}
