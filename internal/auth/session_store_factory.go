// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package auth

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/skillswap/internal/config"
	"github.com/tomtom215/skillswap/internal/logging"
)

// SessionStoreType names a session storage backend.
type SessionStoreType string

const (
	// SessionStoreMemory keeps sessions in process memory (default).
	SessionStoreMemory SessionStoreType = "memory"

	// SessionStoreBadger persists sessions in a local BadgerDB.
	SessionStoreBadger SessionStoreType = "badger"

	// SessionStoreRedis shares sessions through Redis.
	SessionStoreRedis SessionStoreType = "redis"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewSessionStore builds the store selected by sec.SessionStore. The returned
// closer releases the backend and must be called on shutdown.
func NewSessionStore(sec *config.SecurityConfig, rc *config.RedisConfig) (SessionStore, io.Closer, error) {
	switch SessionStoreType(sec.SessionStore) {
	case SessionStoreMemory, "":
		return NewMemorySessionStore(), nopCloser{}, nil

	case SessionStoreBadger:
		opts := badger.DefaultOptions(sec.SessionStorePath)
		opts.Logger = nil
		db, err := badger.Open(opts)
		if err != nil {
			return nil, nil, fmt.Errorf("open badger db for sessions: %w", err)
		}
		logging.Info().Str("path", sec.SessionStorePath).Msg("Using BadgerDB session store")
		return NewBadgerSessionStore(db), db, nil

	case SessionStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", rc.Addr, err)
		}
		logging.Info().Str("addr", rc.Addr).Msg("Using Redis session store")
		return NewRedisSessionStore(client, rc.Prefix), client, nil

	default:
		return nil, nil, fmt.Errorf("unknown session store %q", sec.SessionStore)
	}
}
