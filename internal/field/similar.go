package field

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-ego/gse"

	"github.com/yumeleng/scholar-qa-go/internal/stringutil"
)

// Suggester finds field names similar to a query that matched nothing,
// so the caller can offer alternatives instead of an empty answer.
type Suggester struct {
	norm *Normalizer
	seg  gse.Segmenter
	cap  int
}

// NewSuggester loads the segmentation dictionary used to split Chinese
// queries into tokens. cap bounds the number of suggestions returned.
func NewSuggester(norm *Normalizer, cap int) (*Suggester, error) {
	s := &Suggester{norm: norm, cap: cap}
	if err := s.seg.LoadDict(); err != nil {
		return nil, fmt.Errorf("failed to load segmentation dictionary: %w", err)
	}
	return s, nil
}

// Similar returns up to cap candidate field names that overlap the query:
// either one contains the other, or they share a token. English queries
// split on whitespace; Chinese queries are segmented into words first.
func (s *Suggester) Similar(query string, candidates []string) []string {
	queryEn := strings.ToLower(s.norm.Normalize(query))
	tokens := s.tokenize(queryEn)

	var similar []string
	for _, candidate := range candidates {
		if s.matches(queryEn, tokens, strings.ToLower(candidate)) {
			similar = append(similar, candidate)
			if len(similar) == s.cap {
				break
			}
		}
	}
	return similar
}

func (s *Suggester) matches(queryEn string, tokens []string, candidate string) bool {
	if stringutil.ContainsEitherFold(candidate, queryEn) {
		return true
	}
	for _, token := range tokens {
		if strings.Contains(candidate, token) {
			return true
		}
	}
	return false
}

// tokenize splits a lowercased query into comparison tokens. Whitespace
// handles English; the segmenter handles runs of Han characters, which
// carry no word boundaries.
func (s *Suggester) tokenize(query string) []string {
	var tokens []string
	for _, word := range strings.Fields(query) {
		if containsHan(word) {
			for _, seg := range s.seg.Cut(word, true) {
				if len([]rune(seg)) > 1 {
					tokens = append(tokens, seg)
				}
			}
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
