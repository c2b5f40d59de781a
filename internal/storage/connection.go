package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lugondev/go-swappool/internal/config"
)

type DatabaseType string

const (
	DatabaseTypeMemory   DatabaseType = "memory"
	DatabaseTypeMongoDB  DatabaseType = "mongodb"
	DatabaseTypePostgres DatabaseType = "postgres"
	DatabaseTypeMySQL    DatabaseType = "mysql"
)

// Opener connects a backend using its section of the database config.
type Opener func(ctx context.Context, cfg *config.DatabaseConfig) (Repository, error)

var (
	openersMu sync.RWMutex
	openers   = make(map[DatabaseType]Opener)
)

// Register makes a backend available to ConnectionManager. Backend packages
// call it from init, so importing one for side effects enables it:
//
//	import _ "github.com/lugondev/go-swappool/internal/storage/postgres"
func Register(t DatabaseType, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[t] = open
}

// Registered lists the backends linked into the binary.
func Registered() []DatabaseType {
	openersMu.RLock()
	defer openersMu.RUnlock()
	return registeredLocked()
}

func opener(t DatabaseType) (Opener, error) {
	openersMu.RLock()
	defer openersMu.RUnlock()

	open, ok := openers[t]
	if !ok {
		return nil, fmt.Errorf("database type %q is not registered (registered: %v)", t, registeredLocked())
	}
	return open, nil
}

func registeredLocked() []DatabaseType {
	out := make([]DatabaseType, 0, len(openers))
	for t := range openers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ConnectionManager opens the configured backend once and hands out the
// shared Repository.
type ConnectionManager struct {
	config *config.DatabaseConfig

	mu         sync.Mutex
	repository Repository
}

func NewConnectionManager(cfg *config.DatabaseConfig) (*ConnectionManager, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("database is not enabled in configuration")
	}
	return &ConnectionManager{config: cfg}, nil
}

// Connect opens and pings the backend on first use.
func (cm *ConnectionManager) Connect(ctx context.Context) (Repository, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.repository != nil {
		return cm.repository, nil
	}

	open, err := opener(DatabaseType(cm.config.Type))
	if err != nil {
		return nil, err
	}
	repo, err := open(ctx, cm.config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cm.config.Type, err)
	}
	if err := repo.Ping(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", cm.config.Type, err)
	}

	cm.repository = repo
	return repo, nil
}

func (cm *ConnectionManager) GetRepository() (Repository, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.repository == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	return cm.repository, nil
}

func (cm *ConnectionManager) Close() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.repository == nil {
		return nil
	}
	err := cm.repository.Close()
	cm.repository = nil
	return err
}
