package pg

import "time"

// Config describes the connection pool and state store settings.
type Config struct {
	ConnectionString  string        `env:"PG_CONN_URL,required"`
	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`

	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"` // grows linearly per attempt

	MigrationsTable string        `env:"PG_MIGRATIONS_TABLE" envDefault:"fsmbind_migrations"`
	Namespace       string        `env:"PG_STATE_NAMESPACE" envDefault:"default"` // separates entity kinds sharing the table
	OpTimeout       time.Duration `env:"PG_STATE_OP_TIMEOUT" envDefault:"3s"`
}
