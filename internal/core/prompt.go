package core

import (
	"strings"

	"oogiri-dataset/internal/core/types"
)

const (
	ImageToTextPrompt = "画像で一言"
	BlankMarker       = "[空欄]"
	blankInstruction  = BlankMarker + "を穴埋めしてください。\n"
)

// OcrIndex maps an image id to the first OCR record seen for it.
type OcrIndex map[int64]types.OcrRecord

func NewOcrIndex(records []types.OcrRecord) OcrIndex {
	index := make(OcrIndex, len(records))
	for _, r := range records {
		if _, seen := index[r.ImageId]; !seen {
			index[r.ImageId] = r
		}
	}
	return index
}

// ResolvePrompt returns the odai shown to the crowd for the record, or "" when
// it cannot be determined.
func ResolvePrompt(record types.RawRecord, index OcrIndex) string {
	if record.TaskType == types.ImageToText {
		return ImageToTextPrompt
	}

	ocr, ok := index[record.ImageId]
	if !ok {
		return ""
	}

	switch record.TaskType {
	case types.TextToText:
		return ocr.Text
	case types.ImageTextToText:
		if !strings.Contains(ocr.Text, BlankMarker) {
			return ""
		}
		return blankInstruction + ocr.Text
	default:
		return ""
	}
}
