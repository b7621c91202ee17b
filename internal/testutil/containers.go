// Package testutil starts the backing services used by store integration
// tests. Each container is started once per test binary and shared; tests
// are skipped when Docker is unavailable or -short is set.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const startupTimeout = 3 * time.Minute

type service struct {
	once sync.Once
	url  string
	err  error
}

var (
	redisSvc    service
	postgresSvc service
	mongoSvc    service
)

// RedisURL returns a redis:// URL of a shared Redis container.
func RedisURL(t *testing.T) string {
	t.Helper()
	return redisSvc.get(t, "redis", func(ctx context.Context) (string, error) {
		endpoint, err := run(ctx, "redis:7", "6379/tcp", nil, wait.ForLog("Ready to accept connections"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("redis://%s/0", endpoint), nil
	})
}

// PostgresDSN returns a connection string of a shared Postgres container.
func PostgresDSN(t *testing.T) string {
	t.Helper()
	return postgresSvc.get(t, "postgres", func(ctx context.Context) (string, error) {
		endpoint, err := run(ctx, "postgres:16", "5432/tcp",
			map[string]string{
				"POSTGRES_USER":     "fsmbind",
				"POSTGRES_PASSWORD": "fsmbind",
				"POSTGRES_DB":       "fsmbind_test",
			},
			// The server restarts once after initdb.
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("postgres://fsmbind:fsmbind@%s/fsmbind_test?sslmode=disable", endpoint), nil
	})
}

// MongoURI returns a mongodb:// URI of a shared MongoDB container.
func MongoURI(t *testing.T) string {
	t.Helper()
	return mongoSvc.get(t, "mongo", func(ctx context.Context) (string, error) {
		endpoint, err := run(ctx, "mongo:7", "27017/tcp", nil, wait.ForLog("Waiting for connections"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("mongodb://%s", endpoint), nil
	})
}

func (s *service) get(t *testing.T, name string, start func(context.Context) (string, error)) string {
	t.Helper()
	if testing.Short() {
		t.Skipf("skipping %s integration test in short mode", name)
	}

	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		// testcontainers panics on some unsupported Docker setups.
		defer func() {
			if r := recover(); r != nil {
				s.err = fmt.Errorf("starting %s container panicked: %v", name, r)
			}
		}()
		s.url, s.err = start(ctx)
	})

	if s.err != nil {
		t.Skipf("skipping %s integration test: %v", name, s.err)
	}
	return s.url
}

// run starts image and returns host:port of its exposed port. Containers are
// not terminated explicitly; the testcontainers reaper removes them when the
// test binary exits.
func run(ctx context.Context, image, port string, env map[string]string, ready wait.Strategy) (string, error) {
	opts := []testcontainers.ContainerCustomizer{
		testcontainers.WithExposedPorts(port),
		testcontainers.WithWaitStrategy(
			wait.ForAll(ready).WithDeadline(2 * time.Minute),
		),
	}
	if len(env) > 0 {
		opts = append(opts, testcontainers.WithEnv(env))
	}

	c, err := testcontainers.Run(ctx, image, opts...)
	if err != nil {
		return "", fmt.Errorf("start %s: %w", image, err)
	}

	endpoint, err := c.Endpoint(ctx, "")
	if err != nil {
		_ = c.Terminate(context.Background())
		return "", fmt.Errorf("resolve %s endpoint: %w", image, err)
	}
	return endpoint, nil
}
