package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"oogiri-dataset/internal/core/types"
)

var ErrMalformedScore = errors.New("malformed score")

type rawRecordLine struct {
	Image int64           `json:"image"`
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	Star  json.RawMessage `json:"star"`
}

// ParseScore accepts a JSON number or a string of digits with optional
// thousands separators, e.g. 12 or "1,234".
func ParseScore(raw json.RawMessage) (int64, error) {
	s := string(bytes.TrimSpace(raw))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")

	score, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedScore, string(raw))
	}
	return score, nil
}

// ReadRecords loads the crowd response file, canonicalizing task codes and
// parsing scores. Any bad line aborts the load.
func ReadRecords(path string, codes types.TaskCodes) ([]types.RawRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening records file %s: %w", path, err)
	}
	defer file.Close()

	var records []types.RawRecord
	err = ReadJSONLines(file, func(line int, raw rawRecordLine) error {
		task, err := codes.Canonical(raw.Type)
		if err != nil {
			return err
		}
		score, err := ParseScore(raw.Star)
		if err != nil {
			return err
		}
		records = append(records, types.RawRecord{
			ImageId:      raw.Image,
			TaskType:     task,
			ResponseText: raw.Text,
			Score:        score,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading records file %s: %w", path, err)
	}

	return records, nil
}

// RecordLine is the untyped view of a records file line, used by tools that
// only need image ids and raw task codes.
type RecordLine struct {
	ImageId  int64
	TaskCode string
}

func ReadRecordLines(path string) ([]RecordLine, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening records file %s: %w", path, err)
	}
	defer file.Close()

	var lines []RecordLine
	err = ReadJSONLines(file, func(_ int, raw rawRecordLine) error {
		lines = append(lines, RecordLine{ImageId: raw.Image, TaskCode: raw.Type})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading records file %s: %w", path, err)
	}
	return lines, nil
}
