package dataset

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oogiri-dataset/internal/core/types"
)

func TestEncodeJSONLinesKeepsNativeText(t *testing.T) {
	data, err := EncodeJSONLines([]types.OcrRecord{
		{ImageId: 1, Text: "画像で一言 <b>&</b>"},
		{ImageId: 2, Text: "二行目"},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"image_id":1,"text":"画像で一言 <b>&</b>"}`+"\n"+`{"image_id":2,"text":"二行目"}`+"\n", string(data))
}

func TestReadJSONLines(t *testing.T) {
	input := "{\"image_id\": 1, \"text\": \"a\"}\n\n  \n{\"image_id\": 2, \"text\": \"b\"}"

	var got []types.OcrRecord
	err := ReadJSONLines(strings.NewReader(input), func(_ int, r types.OcrRecord) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []types.OcrRecord{{ImageId: 1, Text: "a"}, {ImageId: 2, Text: "b"}}, got)
}

func TestReadJSONLinesReportsLine(t *testing.T) {
	err := ReadJSONLines(strings.NewReader("{}\n{broken\n"), func(_ int, _ map[string]any) error {
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	sentinel := errors.New("stop")
	err = ReadJSONLines(bytes.NewReader([]byte("{}\n")), func(_ int, _ map[string]any) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
}
