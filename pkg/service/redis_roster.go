// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
)

const (
	// rosterStoreKeyPrefix is the prefix for all roster keys
	rosterStoreKeyPrefix = "roster_reconciliation:"
	rosterKey            = "roster"
	sessionsKey          = "sessions"
)

// RedisRosterStore implements RosterStore and SessionStore using Redis. The roster is one
// JSON document; sessions are fields of a hash keyed by session id.
type RedisRosterStore struct {
	client *redis.Client
	cfg    RedisRosterStoreConfig
}

// RedisRosterStoreConfig configures key naming.
type RedisRosterStoreConfig struct {
	// Namespace separates rosters sharing one Redis database.
	Namespace string
}

// NewRedisRosterStore creates a new Redis-backed roster store.
func NewRedisRosterStore(client *redis.Client, cfg RedisRosterStoreConfig) *RedisRosterStore {
	return &RedisRosterStore{
		client: client,
		cfg:    cfg,
	}
}

func (r *RedisRosterStore) makeKey(name string) string {
	if r.cfg.Namespace == "" {
		return rosterStoreKeyPrefix + name
	}
	return fmt.Sprintf("%s%s:%s", rosterStoreKeyPrefix, r.cfg.Namespace, name)
}

// LoadRoster retrieves the roster from Redis.
func (r *RedisRosterStore) LoadRoster(ctx context.Context) (*roster.Roster, error) {
	data, err := r.client.Get(ctx, r.makeKey(rosterKey)).Result()
	if err == redis.Nil {
		logrus.Infof("no stored roster, starting empty")
		return roster.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}

	var snap roster.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roster: %w", err)
	}

	reg, err := roster.FromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("loaded roster with %d members", reg.Len())
	return reg, nil
}

// SaveRoster stores the roster in Redis.
func (r *RedisRosterStore) SaveRoster(ctx context.Context, reg *roster.Roster) error {
	data, err := json.Marshal(reg.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to marshal roster: %w", err)
	}

	if err := r.client.Set(ctx, r.makeKey(rosterKey), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set roster: %w", err)
	}

	logrus.Debugf("saved roster with %d members", reg.Len())
	return nil
}

// LoadSessions retrieves all remembered sessions.
func (r *RedisRosterStore) LoadSessions(ctx context.Context) ([]roster.Session, error) {
	fields, err := r.client.HGetAll(ctx, r.makeKey(sessionsKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}

	sessions := make([]roster.Session, 0, len(fields))
	for id, raw := range fields {
		var s roster.Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			logrus.Warnf("skipping unreadable session %s: %v", id, err)
			continue
		}
		sessions = append(sessions, s)
	}
	sortSessions(sessions)
	return sessions, nil
}

// SaveSessions replaces the stored sessions in one transaction.
func (r *RedisRosterStore) SaveSessions(ctx context.Context, sessions []roster.Session) error {
	values := make([]interface{}, 0, len(sessions)*2)
	for _, s := range sessions {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal session %s: %w", s.ID, err)
		}
		values = append(values, s.ID, data)
	}

	key := r.makeKey(sessionsKey)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}

func sortSessions(sessions []roster.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].Date.Equal(sessions[j].Date) {
			return sessions[i].Date.Before(sessions[j].Date)
		}
		return sessions[i].ID < sessions[j].ID
	})
}
