package store

import "fmt"

// Options selects and configures a Store backend.
type Options struct {
	Type   string // "memory", "sqlite" or "redis"
	DBPath string
	Redis  RedisConfig
}

func Open(o Options) (Store, error) {
	switch o.Type {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		if o.DBPath == "" {
			return nil, fmt.Errorf("sqlite store needs a db path")
		}
		return NewSQLite(o.DBPath)
	case "redis":
		if o.Redis.Addr == "" {
			return nil, fmt.Errorf("redis store needs an address")
		}
		return NewRedis(o.Redis)
	}
	return nil, fmt.Errorf("unknown store type %q", o.Type)
}
