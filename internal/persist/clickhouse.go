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

// Package persist writes raw events to the durable columnar store. The
// counters in Redis serve the live window; these tables keep everything.
package persist

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/rs/zerolog"

	"surgegrid/internal/event"
)

// conn is the slice of the ClickHouse driver the store needs. driver.Conn
// satisfies it; tests substitute a recorder.
type conn interface {
	Exec(ctx context.Context, query string, args ...interface{}) error
	Ping(ctx context.Context) error
	Close() error
}

// Store persists driver positions and orders to ClickHouse.
type Store struct {
	conn conn
	log  zerolog.Logger
}

// Open connects to ClickHouse, verifies the connection, and creates the
// tables if they do not exist.
func Open(ctx context.Context, addr string, log zerolog.Logger) (*Store, error) {
	c, err := clickhouse.Open(&clickhouse.Options{Addr: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse at %s: %w", addr, err)
	}

	s := &Store{conn: c, log: log}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	log.Info().Str("addr", addr).Msg("connected to clickhouse")
	return s, nil
}

// initSchema creates the event tables. MergeTree ordered by event time keeps
// inserts cheap and range scans by time natural.
func (s *Store) initSchema(ctx context.Context) error {
	driverTable := `
	CREATE TABLE IF NOT EXISTS driver_positions (
		driver_id String,
		latitude  Float64,
		longitude Float64,
		timestamp DateTime('UTC')
	) ENGINE = MergeTree()
	ORDER BY (timestamp, driver_id)`

	orderTable := `
	CREATE TABLE IF NOT EXISTS orders (
		order_id    String,
		customer_id String,
		order_value Float64,
		latitude    Float64,
		longitude   Float64,
		timestamp   DateTime('UTC')
	) ENGINE = MergeTree()
	ORDER BY (timestamp, order_id)`

	for _, ddl := range []string{driverTable, orderTable} {
		if err := s.conn.Exec(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}

// InsertDriverPosition writes one driver position row. Replays under
// at-least-once delivery produce duplicate rows, which downstream queries
// tolerate.
func (s *Store) InsertDriverPosition(ctx context.Context, d event.DriverPosition) error {
	err := s.conn.Exec(ctx,
		`INSERT INTO driver_positions (driver_id, latitude, longitude, timestamp) VALUES (?, ?, ?, ?)`,
		d.DriverID, d.Latitude, d.Longitude, d.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert driver position %s: %w", d.DriverID, err)
	}
	return nil
}

// InsertOrder writes one order row.
func (s *Store) InsertOrder(ctx context.Context, o event.Order) error {
	err := s.conn.Exec(ctx,
		`INSERT INTO orders (order_id, customer_id, order_value, latitude, longitude, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		o.OrderID, o.CustomerID, o.OrderValue, o.Latitude, o.Longitude, o.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.OrderID, err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
