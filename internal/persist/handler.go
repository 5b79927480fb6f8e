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

package persist

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"surgegrid/internal/event"
	"surgegrid/internal/stream"
)

// DriverHandler is the persister specialization of the stream processor for
// driver positions: decode, insert one row, ack. Insert failures are
// per-message and retried on reclaim.
type DriverHandler struct {
	store *Store
	log   zerolog.Logger
}

// NewDriverHandler builds the driver-position persist handler.
func NewDriverHandler(store *Store, log zerolog.Logger) *DriverHandler {
	return &DriverHandler{store: store, log: log}
}

// Handle decodes and persists one driver position.
func (h *DriverHandler) Handle(ctx context.Context, msg redis.XMessage) stream.HandleResult {
	d, err := event.ParseDriverPosition(msg.Values)
	if err != nil {
		return stream.Fail(fmt.Errorf("decode driver position: %w", err))
	}
	if err := h.store.InsertDriverPosition(ctx, d); err != nil {
		return stream.Fail(err)
	}
	h.log.Debug().Str("driver_id", d.DriverID).Msg("driver position persisted")
	return stream.OK()
}

// OrderHandler persists orders.
type OrderHandler struct {
	store *Store
	log   zerolog.Logger
}

// NewOrderHandler builds the order persist handler.
func NewOrderHandler(store *Store, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{store: store, log: log}
}

// Handle decodes and persists one order.
func (h *OrderHandler) Handle(ctx context.Context, msg redis.XMessage) stream.HandleResult {
	o, err := event.ParseOrder(msg.Values)
	if err != nil {
		return stream.Fail(fmt.Errorf("decode order: %w", err))
	}
	if err := h.store.InsertOrder(ctx, o); err != nil {
		return stream.Fail(err)
	}
	h.log.Debug().Str("order_id", o.OrderID).Msg("order persisted")
	return stream.OK()
}
