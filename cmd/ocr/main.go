package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"oogiri-dataset/cmd"
	"oogiri-dataset/internal/config"
	"oogiri-dataset/internal/ocr"
)

func main() {
	var envFile string
	var quiet bool
	flag.StringVar(&envFile, "env", "", "path to load env from")
	flag.BoolVar(&quiet, "quiet", false, "disable the progress bar")
	flag.Parse()

	if flag.NArg() != 2 {
		log.Fatalf("usage: %s [-env file] [-quiet] <settings file> <prompt file>", os.Args[0])
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
	if settings.OpenAIModel == "" {
		log.Fatalf("Settings file must set openai_api_model_name")
	}

	prompts, err := config.LoadPrompts(flag.Arg(1))
	if err != nil {
		log.Fatalf("Failed to load prompts: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := ocr.NewRunner(ocr.RunnerOpts{
		RecordsFile:  settings.RecordsFile(),
		ImageDir:     settings.ImageDir(),
		OutputFile:   settings.OcrResultsFile(),
		Prompts:      prompts,
		Concurrency:  cfg.OcrConcurrency,
		ShowProgress: !quiet,
	}, ocr.NewOpenAIVision(settings.OpenAIModel, settings.OpenAIAPIKey))

	stats, err := runner.Run(ctx)
	if err != nil {
		log.Fatalf("OCR run failed: %v", err)
	}

	log.Printf("OCR finished: %d images, %d already done, %d transcribed, %d failed", stats.Images, stats.Skipped, stats.Succeeded, stats.Failed)
}
