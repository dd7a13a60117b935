package types

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrUnknownTaskType = errors.New("unknown task type")

type TaskType string

const (
	ImageToText     TaskType = "image_to_text"
	TextToText      TaskType = "text_to_text"
	ImageTextToText TaskType = "image_text_to_text"
)

func (t TaskType) Valid() bool {
	switch t {
	case ImageToText, TextToText, ImageTextToText:
		return true
	}
	return false
}

// TaskCodes maps the raw codes used in the crowd data to canonical task types.
type TaskCodes map[string]TaskType

func DefaultTaskCodes() TaskCodes {
	return TaskCodes{
		"I2T":  ImageToText,
		"T2T":  TextToText,
		"IT2T": ImageTextToText,
	}
}

func (c TaskCodes) Canonical(code string) (TaskType, error) {
	task, ok := c[code]
	if !ok || !task.Valid() {
		return "", fmt.Errorf("task code '%s': %w", code, ErrUnknownTaskType)
	}
	return task, nil
}

// RawRecord is one crowd response. Response and Prompt are filled in by the
// pipeline; everything else comes from the records file.
type RawRecord struct {
	ImageId      int64
	TaskType     TaskType
	ResponseText string
	Score        int64

	Response string
	Prompt   string
}

func (r RawRecord) FileName() string {
	return ImageFileName(r.ImageId)
}

func ImageFileName(imageId int64) string {
	return strconv.FormatInt(imageId, 10) + ".jpg"
}

type OcrRecord struct {
	ImageId        int64  `json:"image_id"`
	Text           string `json:"text"`
	ImageTokenSize int64  `json:"image_token_size,omitempty"`
}

type Response struct {
	ResponseId int    `json:"response_id"`
	Text       string `json:"text"`
	Score      int64  `json:"score"`
}

type TrainingSample struct {
	SampleId  string     `json:"odai_id"`
	FileName  string     `json:"file_name"`
	Prompt    string     `json:"odai"`
	TaskType  TaskType   `json:"type"`
	Responses []Response `json:"responses"`
}

const sampleIdNamespace = "ogiri-bokete"

func SampleId(n int) string {
	return fmt.Sprintf("%s-%d", sampleIdNamespace, n)
}
