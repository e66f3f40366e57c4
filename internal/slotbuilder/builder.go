package slotbuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/plancheck/plancheck/internal/kvslot"
	fileslot "github.com/plancheck/plancheck/internal/kvslot/file"
	redisslot "github.com/plancheck/plancheck/internal/kvslot/redis"
	sqlslot "github.com/plancheck/plancheck/internal/kvslot/sql"
)

type Config struct {
	SlotType string
	File     fileslot.Config
	Redis    redisslot.Config
	Database sqlslot.Config
}

func New(config Config) (kvslot.Slot, error) {
	switch config.SlotType {
	case "file":
		return fileslot.New(config.File)
	case "redis":
		s := redisslot.New(config.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to redis %s %d: %w", config.Redis.Host, config.Redis.Port, err)
		}
		return s, nil
	case "sql":
		s := sqlslot.New(config.Database)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to database %s %d: %w", config.Database.Host, config.Database.Port, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown slot type %s", config.SlotType)
	}
}
