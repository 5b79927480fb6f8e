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
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queryAt pins the query's clock.
func queryAt(client *redis.Client, prefix string, window int, now time.Time) *WindowedQuery {
	q := NewWindowedQuery(client, prefix, window)
	q.now = func() time.Time { return now }
	return q
}

func seedBucket(t *testing.T, client *redis.Client, prefix, timeKey string, res int, cell string, n int64) {
	t.Helper()
	require.NoError(t, client.HIncrBy(context.Background(), BucketKey(prefix, timeKey, res), cell, n).Err())
}

func TestCellCounts_SumsWindow(t *testing.T) {
	_, client := testClient(t)
	now := time.Date(2024, 5, 1, 12, 34, 30, 0, time.UTC)

	seedBucket(t, client, DriverCountKey, "2024-05-01T12:34", 7, "cellA", 2)
	seedBucket(t, client, DriverCountKey, "2024-05-01T12:32", 7, "cellA", 3)
	seedBucket(t, client, DriverCountKey, "2024-05-01T12:30", 7, "cellA", 5)
	seedBucket(t, client, DriverCountKey, "2024-05-01T12:33", 7, "cellB", 1)
	// Outside the 5-minute window.
	seedBucket(t, client, DriverCountKey, "2024-05-01T12:29", 7, "cellA", 100)
	// Wrong resolution.
	seedBucket(t, client, DriverCountKey, "2024-05-01T12:34", 8, "cellA", 100)

	q := queryAt(client, DriverCountKey, 5, now)
	counts, err := q.CellCounts(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, map[string]int64{"cellA": 10, "cellB": 1}, counts)
}

func TestCellCounts_MissingBucketsAreZero(t *testing.T) {
	_, client := testClient(t)
	q := queryAt(client, DriverCountKey, 5, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	counts, err := q.CellCounts(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestCellCounts_WindowOfOne(t *testing.T) {
	_, client := testClient(t)
	now := time.Date(2024, 5, 1, 12, 34, 59, 0, time.UTC)

	seedBucket(t, client, OrderCountKey, "2024-05-01T12:34", 7, "cellA", 4)
	seedBucket(t, client, OrderCountKey, "2024-05-01T12:33", 7, "cellA", 9)

	q := queryAt(client, OrderCountKey, 1, now)
	counts, err := q.CellCounts(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"cellA": 4}, counts)
}

// An out-of-order event credited to an older minute still shows up in a
// window that covers that minute.
func TestCellCounts_LateEventStillVisible(t *testing.T) {
	_, client := testClient(t)
	now := time.Date(2024, 5, 1, 12, 34, 0, 0, time.UTC)

	// Event timestamped three minutes ago, applied just now.
	seedBucket(t, client, OrderCountKey, "2024-05-01T12:31", 7, "cellA", 1)

	q := queryAt(client, OrderCountKey, 5, now)
	counts, err := q.CellCounts(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"cellA": 1}, counts)
}

func TestCellCount_SingleCell(t *testing.T) {
	_, client := testClient(t)
	now := time.Date(2024, 5, 1, 12, 34, 0, 0, time.UTC)

	seedBucket(t, client, DriverCountKey, "2024-05-01T12:34", 7, "cellA", 2)
	seedBucket(t, client, DriverCountKey, "2024-05-01T12:33", 7, "cellA", 1)
	seedBucket(t, client, DriverCountKey, "2024-05-01T12:33", 7, "cellB", 7)

	q := queryAt(client, DriverCountKey, 5, now)

	got, err := q.CellCount(context.Background(), 7, "cellA")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)

	missing, err := q.CellCount(context.Background(), 7, "cellZ")
	require.NoError(t, err)
	assert.Equal(t, int64(0), missing)
}

func TestTimeKeys_Contiguous(t *testing.T) {
	_, client := testClient(t)
	now := time.Date(2024, 5, 1, 0, 2, 10, 0, time.UTC)

	q := queryAt(client, DriverCountKey, 5, now)
	keys := q.timeKeys(now)

	// Contiguous minutes crossing midnight, newest first.
	assert.Equal(t, []string{
		"2024-05-01T00:02",
		"2024-05-01T00:01",
		"2024-05-01T00:00",
		"2024-04-30T23:59",
		"2024-04-30T23:58",
	}, keys)
}
