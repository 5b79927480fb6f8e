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

package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedCounts serves canned per-cell totals.
type fixedCounts map[string]int64

func (f fixedCounts) CellCounts(_ context.Context, _ int) (map[string]int64, error) {
	return f, nil
}

func (f fixedCounts) CellCount(_ context.Context, _ int, cellID string) (int64, error) {
	return f[cellID], nil
}

func TestMultiplier_Ladder(t *testing.T) {
	cases := []struct {
		orders, drivers int64
		want            float64
	}{
		{0, 10, 1.0},  // no demand
		{0, 0, 1.0},   // empty cell
		{1, 2, 1.0},   // ratio 0.5
		{1, 1, 1.2},   // boundary 1.0 takes the upper segment
		{3, 2, 1.2},   // ratio 1.5
		{2, 1, 1.5},   // boundary 2.0 takes the upper segment
		{5, 2, 1.5},   // ratio 2.5
		{3, 1, 2.0},   // boundary 3.0 takes the upper segment
		{100, 1, 2.0}, // deep into the top segment
		{5, 0, 1.0},   // orders with zero drivers: ratio defined as 0
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Multiplier(c.orders, c.drivers),
			"orders=%d drivers=%d", c.orders, c.drivers)
	}
}

func TestMultiplier_MonotonicInRatio(t *testing.T) {
	// With one driver, the ratio equals the order count.
	prev := Multiplier(1, 1)
	for orders := int64(2); orders <= 10; orders++ {
		cur := Multiplier(orders, 1)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestPricesForAllCells(t *testing.T) {
	orders := fixedCounts{"A": 0, "B": 1, "C": 2, "D": 3, "E": 6}
	drivers := fixedCounts{"A": 10, "B": 1, "C": 1, "D": 1, "E": 1}

	calc := NewCalculator(10.0, drivers, orders)
	prices, err := calc.PricesForAllCells(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{
		"A": 10.0,
		"B": 12.0,
		"C": 15.0,
		"D": 20.0,
		"E": 20.0,
	}, prices)
}

func TestPricesForAllCells_SupplyOnlyCellOmitted(t *testing.T) {
	orders := fixedCounts{"A": 0}
	drivers := fixedCounts{"A": 5, "B": 3}

	calc := NewCalculator(10.0, drivers, orders)
	prices, err := calc.PricesForAllCells(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"A": 10.0}, prices)
	assert.NotContains(t, prices, "B")
}

func TestPrice_SingleCell(t *testing.T) {
	orders := fixedCounts{"X": 4}
	drivers := fixedCounts{"X": 2}

	calc := NewCalculator(8.0, drivers, orders)
	price, err := calc.Price(context.Background(), 8, "X")
	require.NoError(t, err)
	assert.Equal(t, 8.0*1.5, price)
}

func TestPriceForCell_Pure(t *testing.T) {
	first := PriceForCell(10, 7, 3)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, PriceForCell(10, 7, 3))
	}
}
