package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"

	"oogiri-dataset/internal/core/types"
)

const (
	recordsFileName    = "jp.jsonl"
	ocrResultsFileName = "ocr_results.jsonl"
	exclusionsFileName = "test_file_names.csv"
	imagesDirName      = "images"
	trainDirName       = "train"
	MetadataFileName   = "metadata.jsonl"
)

// Settings is the per-run settings file. JSON files are accepted as well since
// the YAML parser reads JSON documents.
type Settings struct {
	OriginalDataDir string         `yaml:"original_data_dir_path"`
	SaveDataDir     string         `yaml:"ogiri_save_data_dir_path"`
	TrainSamples    map[string]int `yaml:"ogiri_train_samples"`
	TaskTypes       yaml.MapSlice  `yaml:"task_types"`
	OpenAIModel     string         `yaml:"openai_api_model_name"`
	OpenAIAPIKey    string         `yaml:"openai_api_key"`

	taskCodes types.TaskCodes
	taskOrder []types.TaskType
}

func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading settings file %s: %w", path, err)
	}
	return ParseSettings(data)
}

func ParseSettings(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("error parsing settings: %w", err)
	}

	if s.OriginalDataDir == "" {
		return nil, fmt.Errorf("settings: original_data_dir_path is required")
	}
	if s.SaveDataDir == "" {
		return nil, fmt.Errorf("settings: ogiri_save_data_dir_path is required")
	}

	if err := s.resolveTaskTypes(); err != nil {
		return nil, err
	}

	return &s, nil
}

func (s *Settings) resolveTaskTypes() error {
	s.taskCodes = make(types.TaskCodes)

	if len(s.TaskTypes) == 0 {
		s.taskCodes = types.DefaultTaskCodes()
		s.taskOrder = []types.TaskType{types.ImageToText, types.TextToText, types.ImageTextToText}
		return nil
	}

	for _, item := range s.TaskTypes {
		code := fmt.Sprint(item.Key)
		task := types.TaskType(fmt.Sprint(item.Value))
		if !task.Valid() {
			return fmt.Errorf("settings: task code '%s' maps to '%s': %w", code, task, types.ErrUnknownTaskType)
		}
		s.taskCodes[code] = task
		// Several codes may alias one task; it is still processed once.
		if !slices.Contains(s.taskOrder, task) {
			s.taskOrder = append(s.taskOrder, task)
		}
	}
	return nil
}

func (s *Settings) TaskCodes() types.TaskCodes {
	return s.taskCodes
}

// TaskOrder is the order in which task types are processed, following the
// order of the task_types mapping.
func (s *Settings) TaskOrder() []types.TaskType {
	return s.taskOrder
}

func (s *Settings) Thresholds() map[types.TaskType]int {
	out := make(map[types.TaskType]int, len(s.TrainSamples))
	for task, n := range s.TrainSamples {
		out[types.TaskType(task)] = n
	}
	return out
}

func (s *Settings) RecordsFile() string {
	return filepath.Join(s.OriginalDataDir, recordsFileName)
}

func (s *Settings) OcrResultsFile() string {
	return filepath.Join(s.OriginalDataDir, ocrResultsFileName)
}

func (s *Settings) ExclusionsFile() string {
	return filepath.Join(s.OriginalDataDir, exclusionsFileName)
}

func (s *Settings) ImageDir() string {
	return filepath.Join(s.OriginalDataDir, imagesDirName)
}

func (s *Settings) TrainDir() string {
	return filepath.Join(s.SaveDataDir, trainDirName)
}

type Env struct {
	OutputStore       string `env:"OUTPUT_STORE" envDefault:"local"`
	OutputBucket      string `env:"OUTPUT_BUCKET"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	OcrConcurrency    int    `env:"OCR_CONCURRENCY" envDefault:"4"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"debug"`
}

const (
	OutputStoreLocal = "local"
	OutputStoreS3    = "s3"
)

func LoadEnv() (*Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	switch cfg.OutputStore {
	case OutputStoreLocal:
	case OutputStoreS3:
		if cfg.OutputBucket == "" {
			return nil, fmt.Errorf("OUTPUT_BUCKET is required when OUTPUT_STORE=%s", OutputStoreS3)
		}
	default:
		return nil, fmt.Errorf("invalid OUTPUT_STORE '%s'", cfg.OutputStore)
	}

	if cfg.OcrConcurrency < 1 {
		cfg.OcrConcurrency = 1
	}

	return &cfg, nil
}

// LoadPrompts reads the OCR instruction per raw task code.
func LoadPrompts(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading prompt file %s: %w", path, err)
	}

	prompts := make(map[string]string)
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("error parsing prompt file %s: %w", path, err)
	}
	return prompts, nil
}
