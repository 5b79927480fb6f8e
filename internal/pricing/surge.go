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

// Package pricing derives per-cell surge prices from the demand/supply ratio.
package pricing

import (
	"context"
	"fmt"
)

// CountSource is a windowed view over one counter prefix. Both the driver
// and the order aggregation queries satisfy it.
type CountSource interface {
	CellCounts(ctx context.Context, resolution int) (map[string]int64, error)
	CellCount(ctx context.Context, resolution int, cellID string) (int64, error)
}

// Multiplier applies the ratio ladder. Segments are closed below and open
// above: a ratio of exactly 2.0 pays 1.5x. A cell with orders but no drivers
// has ratio 0 by definition and therefore pays 1.0x; counter-intuitive for
// surge pricing, but it is the shipped policy.
func Multiplier(orderCount, driverCount int64) float64 {
	if orderCount == 0 {
		return 1.0
	}
	var ratio float64
	if driverCount > 0 {
		ratio = float64(orderCount) / float64(driverCount)
	}
	switch {
	case ratio < 1:
		return 1.0
	case ratio < 2:
		return 1.2
	case ratio < 3:
		return 1.5
	default:
		return 2.0
	}
}

// Calculator combines the driver and order windowed views into prices.
type Calculator struct {
	basePrice float64
	drivers   CountSource
	orders    CountSource
}

// NewCalculator builds a calculator over the two count sources.
func NewCalculator(basePrice float64, drivers, orders CountSource) *Calculator {
	return &Calculator{basePrice: basePrice, drivers: drivers, orders: orders}
}

// PriceForCell computes the surge price for a single cell.
func PriceForCell(basePrice float64, orderCount, driverCount int64) float64 {
	return basePrice * Multiplier(orderCount, driverCount)
}

// PricesForAllCells computes the surge price for every cell that has orders
// in the window. Cells with supply but no demand are intentionally omitted.
func (c *Calculator) PricesForAllCells(ctx context.Context, resolution int) (map[string]float64, error) {
	orderCounts, err := c.orders.CellCounts(ctx, resolution)
	if err != nil {
		return nil, fmt.Errorf("order counts: %w", err)
	}
	driverCounts, err := c.drivers.CellCounts(ctx, resolution)
	if err != nil {
		return nil, fmt.Errorf("driver counts: %w", err)
	}

	prices := make(map[string]float64, len(orderCounts))
	for cell, orders := range orderCounts {
		prices[cell] = PriceForCell(c.basePrice, orders, driverCounts[cell])
	}
	return prices, nil
}

// Price computes the surge price for one cell from its current counts.
func (c *Calculator) Price(ctx context.Context, resolution int, cellID string) (float64, error) {
	orders, err := c.orders.CellCount(ctx, resolution, cellID)
	if err != nil {
		return 0, fmt.Errorf("order count for %s: %w", cellID, err)
	}
	drivers, err := c.drivers.CellCount(ctx, resolution, cellID)
	if err != nil {
		return 0, fmt.Errorf("driver count for %s: %w", cellID, err)
	}
	return PriceForCell(c.basePrice, orders, drivers), nil
}
