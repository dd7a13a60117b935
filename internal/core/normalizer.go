package core

import "fmt"

const (
	MinDocumentLength = 0
	MaxDocumentLength = 100
)

// Normalizer cleans crowd responses and OCR text. Documents rejected by any
// filter come back as the empty string, which later stages treat as unusable.
type Normalizer struct {
	chain DocumentFilter
}

func NewNormalizer() (*Normalizer, error) {
	keywordFilters, err := loadKeywordFilters(contentFiltersYAML)
	if err != nil {
		return nil, fmt.Errorf("error loading content filters: %w", err)
	}

	filters := []DocumentFilter{&DocumentNormalizer{}}
	for _, f := range keywordFilters {
		filters = append(filters, f)
	}
	filters = append(filters, NewLengthFilter(MinDocumentLength, MaxDocumentLength))

	return NewNormalizerWithFilters(filters...), nil
}

func NewNormalizerWithFilters(filters ...DocumentFilter) *Normalizer {
	return &Normalizer{chain: NewComposeFilter(filters...)}
}

func (n *Normalizer) Normalize(text string) string {
	out, keep := n.chain.Apply(text)
	if !keep {
		return ""
	}
	return out
}
