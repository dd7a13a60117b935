package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"oogiri-dataset/internal/config"
	"oogiri-dataset/internal/storage"
)

func LoadEnvFile(configPath string) {
	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

func SetupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		log.Printf("invalid LOG_LEVEL '%s', using info", level)
		lvl = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// CreateOutputStore returns the store a run writes to: localDir on disk, or
// the configured bucket with prefix when OUTPUT_STORE=s3.
func CreateOutputStore(ctx context.Context, cfg *config.Env, localDir, prefix string) (storage.ObjectStore, error) {
	switch cfg.OutputStore {
	case config.OutputStoreS3:
		return storage.NewS3ObjectStore(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3EndpointURL,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		}, cfg.OutputBucket, prefix)
	case config.OutputStoreLocal:
		return storage.NewLocalObjectStore(localDir)
	default:
		return nil, fmt.Errorf("invalid output store '%s'", cfg.OutputStore)
	}
}
