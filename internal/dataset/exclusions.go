package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const fileNameColumn = "file_name"

// ReadExclusions loads the held-out test file names from a CSV file with a
// file_name column.
func ReadExclusions(path string) (map[string]struct{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening exclusion list %s: %w", path, err)
	}
	defer file.Close()

	exclusions, err := parseExclusions(file)
	if err != nil {
		return nil, fmt.Errorf("error reading exclusion list %s: %w", path, err)
	}
	return exclusions, nil
}

func parseExclusions(r io.Reader) (map[string]struct{}, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, err
	}

	column := -1
	for i, name := range header {
		if strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) == fileNameColumn {
			column = i
			break
		}
	}
	if column < 0 {
		return nil, fmt.Errorf("no '%s' column in header %v", fileNameColumn, header)
	}

	exclusions := make(map[string]struct{})
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if column < len(row) {
			exclusions[row[column]] = struct{}{}
		}
	}

	return exclusions, nil
}
