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

// Package event defines the two record types carried on the streams and the
// strict parsing applied at the stream boundary. Stream entries are flat
// string maps; parsing failures here are per-message errors, never panics.
package event

import (
	"fmt"
	"strconv"
	"time"
)

// Stream field names shared by both event kinds.
const (
	FieldLatitude  = "latitude"
	FieldLongitude = "longitude"
	FieldTimestamp = "timestamp"
)

// timeKeyLen is the length of "YYYY-MM-DDTHH:MM"; the minute bucket key is
// the timestamp truncated to this prefix.
const timeKeyLen = 16

// timestampLayouts are the accepted ISO-8601 shapes, minute precision or
// finer, UTC. Tried in order.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04",
}

// DriverPosition is one driver location report.
type DriverPosition struct {
	DriverID  string
	Latitude  float64
	Longitude float64
	Timestamp time.Time
	// TimeKey is the raw timestamp truncated to the minute, used as the
	// counter bucket component.
	TimeKey string
}

// Order is one customer order placed at a location.
type Order struct {
	OrderID    string
	CustomerID string
	OrderValue float64
	Latitude   float64
	Longitude  float64
	Timestamp  time.Time
	TimeKey    string
}

// Point is the subset of fields the aggregator needs from either kind.
type Point struct {
	Latitude  float64
	Longitude float64
	Timestamp time.Time
	TimeKey   string
}

// ParsePoint extracts and validates latitude, longitude and the minute key
// from a stream entry. It works for both driver and order messages.
func ParsePoint(values map[string]interface{}) (Point, error) {
	lat, err := floatField(values, FieldLatitude)
	if err != nil {
		return Point{}, err
	}
	lon, err := floatField(values, FieldLongitude)
	if err != nil {
		return Point{}, err
	}
	ts, err := stringField(values, FieldTimestamp)
	if err != nil {
		return Point{}, err
	}
	key, parsed, err := minuteKey(ts)
	if err != nil {
		return Point{}, err
	}
	return Point{Latitude: lat, Longitude: lon, Timestamp: parsed, TimeKey: key}, nil
}

// ParseDriverPosition decodes a driver stream entry.
func ParseDriverPosition(values map[string]interface{}) (DriverPosition, error) {
	id, err := stringField(values, "driver_id")
	if err != nil {
		return DriverPosition{}, err
	}
	p, err := ParsePoint(values)
	if err != nil {
		return DriverPosition{}, err
	}
	return DriverPosition{
		DriverID:  id,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Timestamp: p.Timestamp,
		TimeKey:   p.TimeKey,
	}, nil
}

// ParseOrder decodes an order stream entry.
func ParseOrder(values map[string]interface{}) (Order, error) {
	orderID, err := stringField(values, "order_id")
	if err != nil {
		return Order{}, err
	}
	customerID, err := stringField(values, "customer_id")
	if err != nil {
		return Order{}, err
	}
	value, err := floatField(values, "order_value")
	if err != nil {
		return Order{}, err
	}
	if value < 0 {
		return Order{}, fmt.Errorf("field order_value: negative value %v", value)
	}
	p, err := ParsePoint(values)
	if err != nil {
		return Order{}, err
	}
	return Order{
		OrderID:    orderID,
		CustomerID: customerID,
		OrderValue: value,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		Timestamp:  p.Timestamp,
		TimeKey:    p.TimeKey,
	}, nil
}

// Fields renders the driver event as a flat stream entry.
func (d DriverPosition) Fields() map[string]interface{} {
	return map[string]interface{}{
		"driver_id":    d.DriverID,
		FieldLatitude:  strconv.FormatFloat(d.Latitude, 'f', 6, 64),
		FieldLongitude: strconv.FormatFloat(d.Longitude, 'f', 6, 64),
		FieldTimestamp: FormatTimestamp(d.Timestamp),
	}
}

// Fields renders the order event as a flat stream entry.
func (o Order) Fields() map[string]interface{} {
	return map[string]interface{}{
		"order_id":     o.OrderID,
		"customer_id":  o.CustomerID,
		"order_value":  strconv.FormatFloat(o.OrderValue, 'f', 2, 64),
		FieldLatitude:  strconv.FormatFloat(o.Latitude, 'f', 6, 64),
		FieldLongitude: strconv.FormatFloat(o.Longitude, 'f', 6, 64),
		FieldTimestamp: FormatTimestamp(o.Timestamp),
	}
}

// FormatTimestamp renders a time in the on-stream timestamp shape.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05")
}

// minuteKey validates the timestamp and returns its minute prefix plus the
// parsed time. The bucket key is derived from the event's own timestamp, not
// from ingestion time.
func minuteKey(ts string) (string, time.Time, error) {
	if len(ts) < timeKeyLen {
		return "", time.Time{}, fmt.Errorf("field timestamp: %q too short for minute key", ts)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return ts[:timeKeyLen], t.UTC(), nil
		}
	}
	return "", time.Time{}, fmt.Errorf("field timestamp: %q is not a recognized ISO-8601 timestamp", ts)
}

func stringField(values map[string]interface{}, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("field %s: missing", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %s: expected string, got %T", key, raw)
	}
	if s == "" {
		return "", fmt.Errorf("field %s: empty", key)
	}
	return s, nil
}

func floatField(values map[string]interface{}, key string) (float64, error) {
	s, err := stringField(values, key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", key, err)
	}
	return f, nil
}
