package core

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v2"
)

// DocumentFilter either rewrites a document or rejects it. A rejected document
// is reported with keep=false and the returned text is ignored.
type DocumentFilter interface {
	Apply(doc string) (out string, keep bool)
}

type ComposeFilter struct {
	filters []DocumentFilter
}

func NewComposeFilter(filters ...DocumentFilter) *ComposeFilter {
	return &ComposeFilter{filters: filters}
}

func (f *ComposeFilter) Apply(doc string) (string, bool) {
	for _, filter := range f.filters {
		var keep bool
		if doc, keep = filter.Apply(doc); !keep {
			return "", false
		}
	}
	return doc, true
}

// DocumentNormalizer applies NFKC and trims surrounding whitespace, so a
// whitespace-only document comes out empty and is later discarded.
type DocumentNormalizer struct{}

func (f *DocumentNormalizer) Apply(doc string) (string, bool) {
	doc = strings.ToValidUTF8(doc, "")
	doc = norm.NFKC.String(doc)
	return strings.TrimSpace(doc), true
}

type LengthFilter struct {
	min int
	max int
}

func NewLengthFilter(minLen, maxLen int) *LengthFilter {
	return &LengthFilter{min: minLen, max: maxLen}
}

func (f *LengthFilter) Apply(doc string) (string, bool) {
	n := utf8.RuneCountInString(doc)
	return doc, f.min <= n && n <= f.max
}

type KeywordFilter struct {
	name    string
	pattern *regexp.Regexp
}

func (f *KeywordFilter) Name() string {
	return f.name
}

func (f *KeywordFilter) Apply(doc string) (string, bool) {
	return doc, !f.pattern.MatchString(doc)
}

const (
	matchSubstring = "substring"
	matchWord      = "word"
)

//go:embed content_filters.yaml
var contentFiltersYAML []byte

func loadKeywordFilters(data []byte) ([]*KeywordFilter, error) {
	raw := struct {
		Filters []struct {
			Name     string   `yaml:"name"`
			Match    string   `yaml:"match"`
			Keywords []string `yaml:"keywords"`
		} `yaml:"filters"`
	}{}

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing content filters: %w", err)
	}

	out := make([]*KeywordFilter, 0, len(raw.Filters))
	for _, f := range raw.Filters {
		if len(f.Keywords) == 0 {
			continue
		}

		alternatives := make([]string, 0, len(f.Keywords))
		for _, kw := range f.Keywords {
			alternatives = append(alternatives, regexp.QuoteMeta(norm.NFKC.String(kw)))
		}
		expr := strings.Join(alternatives, "|")

		switch f.Match {
		case matchSubstring, "":
			expr = "(?:" + expr + ")"
		case matchWord:
			expr = `(?i)\b(?:` + expr + `)\b`
		default:
			return nil, fmt.Errorf("content filter '%s' has unknown match mode '%s'", f.Name, f.Match)
		}

		rx, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("error compiling content filter '%s': %w", f.Name, err)
		}
		out = append(out, &KeywordFilter{name: f.Name, pattern: rx})
	}

	return out, nil
}
