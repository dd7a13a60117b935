package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oogiri-dataset/internal/config"
	"oogiri-dataset/internal/core/types"
)

func TestParseSettingsJSON(t *testing.T) {
	settings, err := config.ParseSettings([]byte(`{
  "original_data_dir_path": "/data/bokete",
  "ogiri_save_data_dir_path": "/data/ogiri",
  "ogiri_train_samples": {"image_to_text": 100, "text_to_text": 20, "image_text_to_text": 5},
  "openai_api_model_name": "gpt-4o"
}`))
	require.NoError(t, err)

	assert.Equal(t, "/data/bokete/jp.jsonl", settings.RecordsFile())
	assert.Equal(t, "/data/bokete/ocr_results.jsonl", settings.OcrResultsFile())
	assert.Equal(t, "/data/bokete/test_file_names.csv", settings.ExclusionsFile())
	assert.Equal(t, "/data/bokete/images", settings.ImageDir())
	assert.Equal(t, "/data/ogiri/train", settings.TrainDir())
	assert.Equal(t, "gpt-4o", settings.OpenAIModel)

	assert.Equal(t, types.DefaultTaskCodes(), settings.TaskCodes())
	assert.Equal(t, []types.TaskType{types.ImageToText, types.TextToText, types.ImageTextToText}, settings.TaskOrder())
	assert.Equal(t, map[types.TaskType]int{
		types.ImageToText:     100,
		types.TextToText:      20,
		types.ImageTextToText: 5,
	}, settings.Thresholds())
}

func TestParseSettingsTaskOrder(t *testing.T) {
	settings, err := config.ParseSettings([]byte(`
original_data_dir_path: ./data
ogiri_save_data_dir_path: ./out
task_types:
  IT2T: image_text_to_text
  I2T: image_to_text
ogiri_train_samples:
  image_text_to_text: 1
  image_to_text: 2
`))
	require.NoError(t, err)

	assert.Equal(t, []types.TaskType{types.ImageTextToText, types.ImageToText}, settings.TaskOrder())

	_, err = settings.TaskCodes().Canonical("T2T")
	require.ErrorIs(t, err, types.ErrUnknownTaskType)
}

func TestParseSettingsErrors(t *testing.T) {
	_, err := config.ParseSettings([]byte(`ogiri_save_data_dir_path: ./out`))
	require.Error(t, err)

	_, err = config.ParseSettings([]byte(`original_data_dir_path: ./data`))
	require.Error(t, err)

	_, err = config.ParseSettings([]byte(`
original_data_dir_path: ./data
ogiri_save_data_dir_path: ./out
task_types:
  V2T: video_to_text
`))
	require.ErrorIs(t, err, types.ErrUnknownTaskType)
}

func TestParseSettingsAliasedTaskCodes(t *testing.T) {
	settings, err := config.ParseSettings([]byte(`
original_data_dir_path: ./data
ogiri_save_data_dir_path: ./out
task_types:
  I2T: image_to_text
  T2T: text_to_text
  BOKE: image_to_text
`))
	require.NoError(t, err)

	assert.Equal(t, []types.TaskType{types.ImageToText, types.TextToText}, settings.TaskOrder())

	task, err := settings.TaskCodes().Canonical("BOKE")
	require.NoError(t, err)
	assert.Equal(t, types.ImageToText, task)
}

func TestLoadPrompts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"T2T": "画像の文字を書き起こしてください", "IT2T": "空欄は[空欄]としてください"}`), 0644))

	prompts, err := config.LoadPrompts(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"T2T":  "画像の文字を書き起こしてください",
		"IT2T": "空欄は[空欄]としてください",
	}, prompts)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("OUTPUT_STORE", "s3")
	t.Setenv("OUTPUT_BUCKET", "ogiri")
	t.Setenv("OCR_CONCURRENCY", "0")

	cfg, err := config.LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, config.OutputStoreS3, cfg.OutputStore)
	assert.Equal(t, "ogiri", cfg.OutputBucket)
	assert.Equal(t, 1, cfg.OcrConcurrency)
	assert.Equal(t, "us-east-1", cfg.S3Region)

	t.Setenv("OUTPUT_BUCKET", "")
	_, err = config.LoadEnv()
	require.Error(t, err)

	t.Setenv("OUTPUT_STORE", "gcs")
	_, err = config.LoadEnv()
	require.Error(t, err)
}
