package core_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oogiri-dataset/internal/core"
)

func newNormalizer(t *testing.T) *core.Normalizer {
	t.Helper()
	n, err := core.NewNormalizer()
	require.NoError(t, err)
	return n
}

func TestNormalize(t *testing.T) {
	n := newNormalizer(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "plain", text: "猫が空を飛んでいる", want: "猫が空を飛んでいる"},
		{name: "full width ascii", text: "ＡＢＣ１２３", want: "ABC123"},
		{name: "half width katakana", text: "ｶﾀｶﾅ", want: "カタカナ"},
		{name: "full width brackets", text: "［空欄］です", want: "[空欄]です"},
		{name: "surrounding whitespace", text: "  ボケ\n", want: "ボケ"},
		{name: "whitespace only", text: " 　\n\t", want: ""},
		{name: "empty", text: "", want: ""},
		{name: "adult ja", text: "これはエロ動画です", want: ""},
		{name: "adult en", text: "free PORN here", want: ""},
		{name: "en keyword inside word", text: "xxxl size shirt", want: "xxxl size shirt"},
		{name: "violence ja", text: "お前を殺してやる", want: ""},
		{name: "discrimination ja", text: "このガイジが", want: ""},
		{name: "max length", text: strings.Repeat("あ", 100), want: strings.Repeat("あ", 100)},
		{name: "too long", text: strings.Repeat("あ", 101), want: ""},
		{name: "invalid utf8", text: "ok\xffok", want: "okok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.text))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := newNormalizer(t)

	inputs := []string{
		"ＡＢＣ　ｄｅｆ",
		"  ｶﾀｶﾅ ﾃｽﾄ  ",
		"①②③",
		"㍻",
		"´",
		"é",
		"お前を殺してやる",
		strings.Repeat("ｱ", 100),
		strings.Repeat("x", 150),
		"　全角スペース　",
	}

	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestNormalizerWithCustomFilters(t *testing.T) {
	n := core.NewNormalizerWithFilters(&core.DocumentNormalizer{}, core.NewLengthFilter(1, 3))

	assert.Equal(t, "abc", n.Normalize(" ａｂｃ "))
	assert.Equal(t, "", n.Normalize("   "))
	assert.Equal(t, "", n.Normalize("abcd"))
}
