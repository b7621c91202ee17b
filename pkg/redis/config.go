package redis

import "time"

// Config describes the Redis connection and state store settings.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"` // redis://:password@host:6379/0
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	KeyPrefix      string        `env:"REDIS_STATE_KEY_PREFIX" envDefault:"fsmbind:state:"`
	OpTimeout      time.Duration `env:"REDIS_STATE_OP_TIMEOUT" envDefault:"3s"` // per Read/Write; 0 means no deadline
}
