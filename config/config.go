// Package config reads the process environment shared by the web server and
// the terminal browser.
package config

import (
	"crypto/tls"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"promptly/storage"
)

// Prompt source kinds selected by PROMPTS_SOURCE.
const (
	SourceSheets = "sheets"
	SourceStatic = "static"
	SourceTable  = "table"
)

const (
	defaultCacheTTL   = 5 * time.Minute
	defaultListenAddr = ":8080"
	dedupeTTL         = 24 * time.Hour
)

// Config is the parsed environment.
type Config struct {
	Debug             bool
	Source            string
	Sheet             storage.SheetConfig
	StorageConnection string
	PromptsTable      string
	CopyEventsQueue   string
	RedisConnection   string
	CacheTTL          time.Duration
	DedupeTTL         time.Duration
	ListenAddr        string
}

// FromEnv parses the environment through getenv. Missing Google credentials
// are not an error here; they surface as a configuration banner on load.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Source:            strings.ToLower(strings.TrimSpace(getenv("PROMPTS_SOURCE"))),
		StorageConnection: getenv("STORAGE_CONNECTION_STRING"),
		PromptsTable:      getenv("PROMPTS_TABLE"),
		CopyEventsQueue:   getenv("COPY_EVENTS_QUEUE"),
		RedisConnection:   getenv("REDIS_CONNECTION_STRING"),
		CacheTTL:          defaultCacheTTL,
		DedupeTTL:         dedupeTTL,
		ListenAddr:        defaultListenAddr,
		Sheet: storage.NewSheetConfig(
			getenv(storage.EnvClientEmail),
			getenv(storage.EnvPrivateKey),
			getenv(storage.EnvSpreadsheetID),
			getenv(storage.EnvSheetName),
		),
	}
	if dbg, err := strconv.ParseBool(getenv("DEBUG")); err == nil && dbg {
		cfg.Debug = true
	}

	switch cfg.Source {
	case "":
		cfg.Source = SourceSheets
	case SourceSheets, SourceStatic:
	case SourceTable:
		if cfg.StorageConnection == "" || cfg.PromptsTable == "" {
			return cfg, fmt.Errorf("PROMPTS_SOURCE=table requires STORAGE_CONNECTION_STRING and PROMPTS_TABLE")
		}
	default:
		return cfg, fmt.Errorf("invalid PROMPTS_SOURCE %q", cfg.Source)
	}

	if cfg.CopyEventsQueue != "" && cfg.StorageConnection == "" {
		return cfg, fmt.Errorf("COPY_EVENTS_QUEUE requires STORAGE_CONNECTION_STRING")
	}

	if v := getenv("PROMPTS_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return cfg, fmt.Errorf("invalid PROMPTS_CACHE_TTL: %q", v)
		}
		cfg.CacheTTL = d
	}

	if v, ok := lookup(getenv, "FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		cfg.ListenAddr = ":" + v
	} else if v, ok := lookup(getenv, "PORT"); ok {
		cfg.ListenAddr = ":" + v
	}
	return cfg, nil
}

func lookup(getenv func(string) string, key string) (string, bool) {
	v := strings.TrimSpace(getenv(key))
	return v, v != ""
}

// Level returns the logrus level for the config.
func (c Config) Level() log.Level {
	if c.Debug {
		return log.DebugLevel
	}
	return log.InfoLevel
}

// BaseSource builds the uncached prompt source.
func (c Config) BaseSource(logger log.FieldLogger) (storage.Source, error) {
	switch c.Source {
	case SourceStatic:
		return storage.NewStaticSource(nil, logger), nil
	case SourceTable:
		src, err := storage.NewTableSource(c.StorageConnection, c.PromptsTable, logger)
		if err != nil {
			return nil, fmt.Errorf("table source: %w", err)
		}
		return src, nil
	default:
		return storage.NewSheetSource(c.Sheet, logger), nil
	}
}

// PromptSource builds the prompt source wrapped in the cache. rc may be nil.
func (c Config) PromptSource(rc *redis.Client, logger log.FieldLogger) (*storage.Cache, error) {
	base, err := c.BaseSource(logger)
	if err != nil {
		return nil, err
	}
	return storage.NewCache(base, rc, c.CacheTTL), nil
}

// RedisClient returns a client for REDIS_CONNECTION_STRING, or nil when it
// is unset.
func (c Config) RedisClient() *redis.Client {
	if c.RedisConnection == "" {
		return nil
	}
	return redis.NewClient(RedisOptions(c.RedisConnection))
}

// RedisOptions accepts a redis:// URL or the Azure style
// "host:port,password=...,ssl=True" connection string.
func RedisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(strings.TrimSpace(kv[1]), "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
