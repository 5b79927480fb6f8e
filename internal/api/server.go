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

// Package api exposes the windowed counts and surge prices over HTTP. All
// operations are idempotent reads against the counter buckets.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"surgegrid/internal/pricing"
)

// RegionCount is one cell's total over the window.
type RegionCount struct {
	Region string `json:"region"`
	Count  int64  `json:"count"`
}

// CountResponse wraps the per-cell totals. The list is null when no bucket
// in the window has data.
type CountResponse struct {
	DriverPositionCounts []RegionCount `json:"driver_position_counts"`
}

// Server handles the read API requests.
type Server struct {
	drivers pricing.CountSource
	orders  pricing.CountSource
	calc    *pricing.Calculator
	log     zerolog.Logger
}

// NewServer wires the two windowed queries and the surge calculator.
func NewServer(drivers, orders pricing.CountSource, calc *pricing.Calculator, log zerolog.Logger) *Server {
	return &Server{drivers: drivers, orders: orders, calc: calc, log: log}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/driver_counts", s.handleCounts(s.drivers))
		r.Get("/order_counts", s.handleCounts(s.orders))
		r.Get("/driver_count_for_cell", s.handleCountForCell(s.drivers))
		r.Get("/order_count_for_cell", s.handleCountForCell(s.orders))
		r.Get("/surge_prices", s.handleSurgePrices)
		r.Get("/surge_price_for_cell", s.handleSurgePriceForCell)
	})
	return r
}

// handleCounts serves the windowed per-cell totals for one prefix.
func (s *Server) handleCounts(source pricing.CountSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolution, ok := cellResolution(w, r)
		if !ok {
			return
		}
		counts, err := source.CellCounts(r.Context(), resolution)
		if err != nil {
			s.log.Error().Err(err).Int("resolution", resolution).Msg("windowed count query failed")
			http.Error(w, "count query failed", http.StatusInternalServerError)
			return
		}

		var list []RegionCount
		for region, count := range counts {
			list = append(list, RegionCount{Region: region, Count: count})
		}
		writeJSON(w, CountResponse{DriverPositionCounts: list})
	}
}

// handleCountForCell serves one cell's windowed total for one prefix.
func (s *Server) handleCountForCell(source pricing.CountSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cellID := r.URL.Query().Get("cell_id")
		if cellID == "" {
			http.Error(w, "cell_id is required", http.StatusBadRequest)
			return
		}
		resolution, ok := cellResolution(w, r)
		if !ok {
			return
		}
		count, err := source.CellCount(r.Context(), resolution, cellID)
		if err != nil {
			s.log.Error().Err(err).Str("cell_id", cellID).Msg("windowed count query failed")
			http.Error(w, "count query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, RegionCount{Region: cellID, Count: count})
	}
}

func (s *Server) handleSurgePrices(w http.ResponseWriter, r *http.Request) {
	resolution, ok := cellResolution(w, r)
	if !ok {
		return
	}
	prices, err := s.calc.PricesForAllCells(r.Context(), resolution)
	if err != nil {
		s.log.Error().Err(err).Int("resolution", resolution).Msg("surge query failed")
		http.Error(w, "surge query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, prices)
}

func (s *Server) handleSurgePriceForCell(w http.ResponseWriter, r *http.Request) {
	cellID := r.URL.Query().Get("cell_id")
	if cellID == "" {
		http.Error(w, "cell_id is required", http.StatusBadRequest)
		return
	}
	resolution, ok := cellResolution(w, r)
	if !ok {
		return
	}
	price, err := s.calc.Price(r.Context(), resolution, cellID)
	if err != nil {
		s.log.Error().Err(err).Str("cell_id", cellID).Msg("surge query failed")
		http.Error(w, "surge query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]float64{cellID: price})
}

// cellResolution parses the required cell_resolution query parameter,
// answering 400 itself when absent or malformed.
func cellResolution(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("cell_resolution")
	if raw == "" {
		http.Error(w, "cell_resolution is required", http.StatusBadRequest)
		return 0, false
	}
	resolution, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, "cell_resolution must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return resolution, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// HTTPServer wraps the router in an http.Server with sane timeouts; the
// entrypoint owns Shutdown.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
