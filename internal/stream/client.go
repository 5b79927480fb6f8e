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

package stream

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Connect opens a client against the key-value store and verifies the
// connection with a ping. The caller owns the client and must Close it on
// every exit path.
func Connect(ctx context.Context, addr string, log zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	log.Info().Str("addr", addr).Msg("connected to redis")
	return client, nil
}

// WithClient runs fn with a freshly connected client and releases it when fn
// returns, normally or not.
func WithClient(ctx context.Context, addr string, log zerolog.Logger, fn func(*redis.Client) error) error {
	client, err := Connect(ctx, addr, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info().Msg("closing redis connection")
		_ = client.Close()
	}()
	return fn(client)
}
