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

// Package geo maps WGS84 coordinates onto H3 hexagonal cells.
package geo

import (
	h3 "github.com/uber/h3-go/v4"
)

// Resolutions are the H3 hierarchy levels every event is fanned out to.
// Coarser first; the aggregator issues increments in this order.
var Resolutions = []int{7, 8, 9}

// CellsFor returns the H3 cell id for the point at each of the given
// resolutions. It is pure: same inputs, same cells.
func CellsFor(lat, lon float64, resolutions []int) map[int]string {
	cells := make(map[int]string, len(resolutions))
	for _, res := range resolutions {
		cell := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lon}, res)
		cells[res] = cell.String()
	}
	return cells
}

// CellFor returns the H3 cell id for the point at a single resolution.
func CellFor(lat, lon float64, resolution int) string {
	return h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lon}, resolution).String()
}
