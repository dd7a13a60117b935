package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

const maxLineBytes = 16 * 1024 * 1024

// ReadJSONLines decodes one value of T per non-blank line and hands it to fn
// together with its 1-based line number.
func ReadJSONLines[T any](r io.Reader, fn func(line int, item T) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			return fmt.Errorf("line %d: invalid json: %w", line, err)
		}
		if err := fn(line, item); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading json lines: %w", err)
	}
	return nil
}

// JSONLinesWriter writes one JSON value per line. Non-ASCII text is written
// as-is and HTML characters are not escaped.
type JSONLinesWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

func NewJSONLinesWriter(w io.Writer) *JSONLinesWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &JSONLinesWriter{w: bw, enc: enc}
}

func (w *JSONLinesWriter) Write(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("error encoding json line: %w", err)
	}
	return nil
}

func (w *JSONLinesWriter) Flush() error {
	return w.w.Flush()
}

func EncodeJSONLines[T any](items []T) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := NewJSONLinesWriter(buf)
	for _, item := range items {
		if err := w.Write(item); err != nil {
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
