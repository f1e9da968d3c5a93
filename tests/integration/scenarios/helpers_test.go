package scenarios

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"promptly/config"
	"promptly/tests/integration/internal/httpclient"
)

type scenarioConfig struct {
	RequestTimeoutMs int `yaml:"request_timeout_ms"`
	CacheSettleMs    int `yaml:"cache_settle_ms"`
}

func loadScenarioConfig(t *testing.T) scenarioConfig {
	t.Helper()
	cfg := scenarioConfig{RequestTimeoutMs: 10000, CacheSettleMs: 250}
	data, err := os.ReadFile("../config.test.yaml")
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("parse config.test.yaml: %v", err)
	}
	return cfg
}

// newClient returns a client for API_BASE, skipping when nothing listens.
func newClient(t *testing.T) *httpclient.Client {
	t.Helper()
	base := os.Getenv("API_BASE")
	if base == "" {
		base = "http://localhost:8080"
	}
	resp, err := http.Get(base + "/healthz")
	if err != nil {
		t.Skipf("skipping, API not reachable: %v", err)
	}
	resp.Body.Close()
	cfg := loadScenarioConfig(t)
	return httpclient.New(base, time.Duration(cfg.RequestTimeoutMs)*time.Millisecond)
}

// newRedisClient connects to the server's Redis, skipping when unset.
func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	conn := os.Getenv("REDIS_CONNECTION_STRING")
	if conn == "" {
		t.Skip("skipping, REDIS_CONNECTION_STRING not set")
	}
	rc := redis.NewClient(config.RedisOptions(conn))
	t.Cleanup(func() {
		_ = rc.Close()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping, redis not reachable: %v", err)
	}
	return rc
}
