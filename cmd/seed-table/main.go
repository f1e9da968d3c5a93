package main

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"promptly/config"
	"promptly/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("seed table starting")

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	tableName := os.Getenv("PROMPTS_TABLE")
	if connStr == "" || tableName == "" {
		log.Fatal("missing STORAGE_CONNECTION_STRING or PROMPTS_TABLE")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	table, err := storage.NewTableSource(connStr, tableName, log.StandardLogger())
	if err != nil {
		log.Fatalf("table client: %v", err)
	}
	if err := table.EnsureTable(ctx); err != nil {
		log.Fatalf("create table: %v", err)
	}

	data := storage.BundledPrompts()
	if path := os.Getenv("SEED_FILE"); path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
	}
	prompts, err := storage.NewStaticSource(data, log.StandardLogger()).FetchPrompts(ctx)
	if err != nil {
		log.Fatalf("decode prompts: %v", err)
	}
	if err := table.Seed(ctx, prompts); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.WithField("count", len(prompts)).Info("prompts seeded")

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if rc := cfg.RedisClient(); rc != nil {
		defer rc.Close()
		bustCache(ctx, table, rc)
	}

	if err := createQueue(ctx, connStr, os.Getenv("COPY_EVENTS_QUEUE")); err != nil {
		log.Fatalf("create queue: %v", err)
	}

	log.Info("seed table complete")
}

// bustCache drops the shared cached copy of src so servers reading the
// same table pick up the new rows on their next local miss.
func bustCache(ctx context.Context, src storage.Source, rc *redis.Client) {
	storage.NewCache(src, rc, time.Minute).Invalidate(ctx)
	log.WithField("key", src.Key()).Info("prompt cache invalidated")
}

func createQueue(ctx context.Context, connStr, name string) error {
	if name == "" {
		return nil
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, name, nil)
	if err != nil {
		return err
	}
	_, err = q.Create(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists") {
			return err
		}
	}
	return nil
}
