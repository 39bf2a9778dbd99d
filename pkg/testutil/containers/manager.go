//go:build integration

// Package containers starts shared testcontainers for integration suites.
// Each container kind is started at most once per test binary and reused by
// every suite that asks for it.
package containers

import (
	"sync"
	"testing"
)

type Manager struct {
	mu       sync.Mutex
	redis    *RedisContainer
	postgres *PostgresContainer
	mongo    *MongoContainer
	redpanda *RedpandaContainer
}

var (
	manager     *Manager
	managerOnce sync.Once
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redis == nil {
		m.redis = newRedisContainer(t)
	}
	return m.redis
}

func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postgres == nil {
		m.postgres = newPostgresContainer(t)
	}
	return m.postgres
}

func (m *Manager) GetMongo(t *testing.T) *MongoContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mongo == nil {
		m.mongo = newMongoContainer(t)
	}
	return m.mongo
}

func (m *Manager) GetRedpanda(t *testing.T) *RedpandaContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redpanda == nil {
		m.redpanda = newRedpandaContainer(t)
	}
	return m.redpanda
}
