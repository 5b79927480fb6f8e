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

package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func driverValues() map[string]interface{} {
	return map[string]interface{}{
		"driver_id": "d1",
		"latitude":  "-19.9191",
		"longitude": "-43.9378",
		"timestamp": "2024-05-01T12:34:56",
	}
}

func orderValues() map[string]interface{} {
	return map[string]interface{}{
		"order_id":    "o1",
		"customer_id": "c1",
		"order_value": "42.50",
		"latitude":    "-19.9191",
		"longitude":   "-43.9378",
		"timestamp":   "2024-05-01T12:34:56.123456",
	}
}

func TestParseDriverPosition(t *testing.T) {
	d, err := ParseDriverPosition(driverValues())
	require.NoError(t, err)

	assert.Equal(t, "d1", d.DriverID)
	assert.InDelta(t, -19.9191, d.Latitude, 1e-9)
	assert.InDelta(t, -43.9378, d.Longitude, 1e-9)
	assert.Equal(t, "2024-05-01T12:34", d.TimeKey)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 34, 56, 0, time.UTC), d.Timestamp)
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder(orderValues())
	require.NoError(t, err)

	assert.Equal(t, "o1", o.OrderID)
	assert.Equal(t, "c1", o.CustomerID)
	assert.InDelta(t, 42.50, o.OrderValue, 1e-9)
	// Sub-second precision still truncates to the minute.
	assert.Equal(t, "2024-05-01T12:34", o.TimeKey)
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint(driverValues())
	require.NoError(t, err)

	assert.InDelta(t, -19.9191, p.Latitude, 1e-9)
	assert.InDelta(t, -43.9378, p.Longitude, 1e-9)
	assert.Equal(t, "2024-05-01T12:34", p.TimeKey)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 34, 56, 0, time.UTC), p.Timestamp)
}

func TestParsePoint_MissingField(t *testing.T) {
	for _, field := range []string{"latitude", "longitude", "timestamp"} {
		values := driverValues()
		delete(values, field)
		_, err := ParsePoint(values)
		assert.Error(t, err, "missing %s must fail", field)
	}
}

func TestParsePoint_BadNumbers(t *testing.T) {
	values := driverValues()
	values["latitude"] = "not-a-number"
	_, err := ParsePoint(values)
	assert.Error(t, err)
}

func TestParsePoint_MalformedTimestamp(t *testing.T) {
	for _, ts := range []string{"yesterday", "2024-05-01", "20240501T123456Z11", ""} {
		values := driverValues()
		values["timestamp"] = ts
		_, err := ParsePoint(values)
		assert.Error(t, err, "timestamp %q must be rejected", ts)
	}
}

func TestParseOrder_NegativeValue(t *testing.T) {
	values := orderValues()
	values["order_value"] = "-1.00"
	_, err := ParseOrder(values)
	assert.Error(t, err)
}

func TestFieldsRoundTrip(t *testing.T) {
	d := DriverPosition{
		DriverID:  "d7",
		Latitude:  -19.95,
		Longitude: -43.90,
		Timestamp: time.Date(2024, 5, 1, 8, 3, 21, 0, time.UTC),
	}
	parsed, err := ParseDriverPosition(d.Fields())
	require.NoError(t, err)
	assert.Equal(t, d.DriverID, parsed.DriverID)
	assert.Equal(t, "2024-05-01T08:03", parsed.TimeKey)
	assert.Equal(t, d.Timestamp, parsed.Timestamp)
}
