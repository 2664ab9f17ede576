// Package field normalizes research field names between their Chinese
// aliases and the canonical English names stored in the knowledge graph,
// and suggests similar fields when a lookup finds nothing.
package field

import "strings"

// aliases maps Chinese field names and common abbreviations to the
// canonical English names used by the knowledge graph. Longer aliases
// are listed before their prefixes so extraction sites that scan this
// table match the most specific name first.
var aliases = map[string]string{
	"自然语言生成": "Natural Language Generation",
	"自然语言":   "Natural Language",
	"自然语言处理": "Natural Language Processing",
	"NLP":    "Natural Language Processing",
	"机器学习":   "Machine Learning",
	"ML":     "Machine Learning",
	"深度学习":   "Deep Learning",
	"DL":     "Deep Learning",
	"计算机视觉":  "Computer Vision",
	"CV":     "Computer Vision",
	"NLG":    "Natural Language Generation",
}

// Normalizer resolves field names to their canonical English form.
type Normalizer struct {
	canonical map[string]struct{}
}

// NewNormalizer builds a normalizer over the built-in alias table.
func NewNormalizer() *Normalizer {
	canonical := make(map[string]struct{}, len(aliases))
	for _, en := range aliases {
		canonical[strings.ToLower(en)] = struct{}{}
	}
	return &Normalizer{canonical: canonical}
}

// Normalize maps a field name to its canonical English form. Input that
// already matches a canonical name (case-insensitively) is returned
// unchanged, and unknown names pass through as-is so the store query can
// still attempt an exact then fuzzy match.
func (n *Normalizer) Normalize(name string) string {
	if _, ok := n.canonical[strings.ToLower(name)]; ok {
		return name
	}
	if en, ok := aliases[name]; ok {
		return en
	}
	return name
}

// IsAlias reports whether name is an alias key, which answer rendering
// uses to decide on dual Chinese/English field display.
func (n *Normalizer) IsAlias(name string) bool {
	_, ok := aliases[name]
	return ok
}

// Alias returns the alias key whose canonical form is name, if any.
// When several aliases share a canonical form the Chinese one wins.
func (n *Normalizer) Alias(name string) (string, bool) {
	var fallback string
	for alias, en := range aliases {
		if !strings.EqualFold(en, name) {
			continue
		}
		if !isASCII(alias) {
			return alias, true
		}
		fallback = alias
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}
