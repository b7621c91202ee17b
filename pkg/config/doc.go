// Package config loads typed configuration from environment variables and
// optional .env files.
//
// It wraps `github.com/caarlos0/env/v11` for struct parsing and
// `github.com/joho/godotenv` for .env files:
//
//	type CacheConfig struct {
//	    MaxSize int           `env:"MAX_SIZE" envDefault:"100"`
//	    TTL     time.Duration `env:"TTL" envDefault:"10m"`
//	}
//
//	var cfg CacheConfig
//	err := config.Load(&cfg,
//	    config.WithPrefix("ORDERS_"),
//	    config.WithEnvFiles(".env"),
//	)
//
// Values present in the process environment override values read from files.
// WithEnvironment swaps the process environment for an explicit map, which
// keeps tests hermetic.
//
// # Error Handling
//
// Sentinel errors can be compared with `errors.Is`:
//
//   - `ErrParsingConfig`  – env vars could not be parsed into the struct.
//   - `ErrReadingEnvFile` – a file given to WithEnvFiles could not be read.
//   - `ErrNilPointer`     – nil pointer passed to Load/MustLoad.
package config
