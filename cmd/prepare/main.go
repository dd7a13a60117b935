package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"oogiri-dataset/cmd"
	"oogiri-dataset/internal/config"
	"oogiri-dataset/internal/core"
)

func main() {
	var envFile string
	var quiet bool
	flag.StringVar(&envFile, "env", "", "path to load env from")
	flag.BoolVar(&quiet, "quiet", false, "disable the progress bar")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: %s [-env file] [-quiet] <settings file>", os.Args[0])
	}

	cmd.LoadEnvFile(envFile)

	cfg, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cmd.SetupLogger(cfg.LogLevel)

	settings, err := config.LoadSettings(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default().With("run_id", uuid.NewString())

	output, err := cmd.CreateOutputStore(ctx, cfg, settings.TrainDir(), "train")
	if err != nil {
		log.Fatalf("Failed to create output store: %v", err)
	}

	normalizer, err := core.NewNormalizer()
	if err != nil {
		log.Fatalf("Failed to create normalizer: %v", err)
	}

	pipeline := core.NewPipeline(core.PipelineOpts{
		RecordsFile:    settings.RecordsFile(),
		OcrResultsFile: settings.OcrResultsFile(),
		ExclusionsFile: settings.ExclusionsFile(),
		ImageDir:       settings.ImageDir(),
		MetadataKey:    config.MetadataFileName,
		TaskCodes:      settings.TaskCodes(),
		TaskOrder:      settings.TaskOrder(),
		Thresholds:     settings.Thresholds(),
		Output:         output,
		ShowProgress:   !quiet,
	}, normalizer, logger)

	summary, err := pipeline.Run(ctx)
	if err != nil {
		log.Fatalf("Pipeline failed, output is invalid and must be regenerated: %v", err)
	}

	for task, n := range summary.SamplesPerTask {
		logger.Info("samples written", "task", task, "samples", n)
	}
	logger.Info("metadata written", "location", summary.MetadataPath, "records_read", summary.RecordsRead, "records_kept", summary.RecordsKept)
}
