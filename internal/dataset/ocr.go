package dataset

import (
	"fmt"
	"os"

	"oogiri-dataset/internal/core/types"
)

func ReadOcrResults(path string) ([]types.OcrRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening ocr results %s: %w", path, err)
	}
	defer file.Close()

	var records []types.OcrRecord
	err = ReadJSONLines(file, func(_ int, r types.OcrRecord) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading ocr results %s: %w", path, err)
	}
	return records, nil
}
