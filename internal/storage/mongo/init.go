package mongo

import (
	"context"
	"fmt"

	"github.com/lugondev/go-swappool/internal/config"
	"github.com/lugondev/go-swappool/internal/storage"
)

func init() {
	storage.Register(storage.DatabaseTypeMongoDB, func(ctx context.Context, cfg *config.DatabaseConfig) (storage.Repository, error) {
		repo, err := NewMongoRepository(ctx, &cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to create mongo repository: %w", err)
		}
		return repo, nil
	})
}
