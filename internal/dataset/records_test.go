package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oogiri-dataset/internal/core/types"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: `"1,234"`, want: 1234},
		{raw: `"10,000,000"`, want: 10000000},
		{raw: `"42"`, want: 42},
		{raw: `42`, want: 42},
		{raw: `" 7 "`, want: 7},
		{raw: `"0"`, want: 0},
		{raw: `"abc"`, wantErr: true},
		{raw: `""`, wantErr: true},
		{raw: `null`, wantErr: true},
		{raw: `1.5`, wantErr: true},
		{raw: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseScore(json.RawMessage(tt.raw))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedScore)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jp.jsonl")
	content := `{"image": 10, "type": "I2T", "text": "一言", "star": "1,234"}

{"image": 11, "type": "IT2T", "text": "穴埋め", "star": 5}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	records, err := ReadRecords(path, types.DefaultTaskCodes())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, types.RawRecord{ImageId: 10, TaskType: types.ImageToText, ResponseText: "一言", Score: 1234}, records[0])
	assert.Equal(t, "10.jpg", records[0].FileName())
	assert.Equal(t, types.ImageTextToText, records[1].TaskType)
	assert.Equal(t, int64(5), records[1].Score)
}

func TestReadRecordsErrors(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.jsonl")
	require.NoError(t, os.WriteFile(unknown, []byte(`{"image": 1, "type": "X", "text": "a", "star": 1}`), 0644))
	_, err := ReadRecords(unknown, types.DefaultTaskCodes())
	require.ErrorIs(t, err, types.ErrUnknownTaskType)

	malformed := filepath.Join(dir, "malformed.jsonl")
	require.NoError(t, os.WriteFile(malformed, []byte(`{"image": 1, "type": "I2T", "text": "a", "star": "1.2.3"}`), 0644))
	_, err = ReadRecords(malformed, types.DefaultTaskCodes())
	require.ErrorIs(t, err, ErrMalformedScore)

	_, err = ReadRecords(filepath.Join(dir, "missing.jsonl"), types.DefaultTaskCodes())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadRecordLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jp.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"image": 3, "type": "T2T", "text": "a", "star": "bad"}`+"\n"), 0644))

	lines, err := ReadRecordLines(path)
	require.NoError(t, err)
	assert.Equal(t, []RecordLine{{ImageId: 3, TaskCode: "T2T"}}, lines)
}
