package stubserver

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Match methods reported in the Method column.
const (
	MethodRuleBased = "rule-based"
	MethodSemantic  = "semantic"
	MethodFallback  = "fallback"
	MethodUnmatched = "unmatched"
)

var (
	disallowedChars = regexp.MustCompile(`[^\w\s./-]`)
	sizePattern     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s?(oz|g|lb|ml)\b`)

	abbreviations = map[string]string{
		"choc.":   "chocolate",
		"choc":    "chocolate",
		"strwbr.": "strawberry",
		"eng.":    "energy",
		"pb":      "peanut butter",
		"w/":      "with",
	}

	stopWords = map[string]bool{"and": true, "with": true, "the": true}
)

// Product is a normalized product name.
type Product struct {
	Original string
	Cleaned  string
	Size     string
	Tokens   map[string]bool
}

// Normalize lowercases name, strips punctuation, expands abbreviations and
// drops stop words.
func Normalize(name string) Product {
	lower := strings.ToLower(strings.TrimSpace(name))
	lower = strings.ReplaceAll(lower, "w/", "w/ ")

	var words []string
	for _, w := range strings.Fields(lower) {
		if full, ok := abbreviations[w]; ok {
			w = full
		}
		w = disallowedChars.ReplaceAllString(w, "")
		for _, part := range strings.Fields(w) {
			if part != "" && !stopWords[part] {
				words = append(words, part)
			}
		}
	}

	cleaned := strings.Join(words, " ")
	p := Product{
		Original: name,
		Cleaned:  cleaned,
		Tokens:   make(map[string]bool, len(words)),
	}
	if m := sizePattern.FindStringSubmatch(cleaned); m != nil {
		p.Size = m[1] + m[2]
	}
	for _, w := range words {
		p.Tokens[w] = true
	}
	return p
}

// Similarity is the Jaccard index of the two token sets.
func Similarity(a, b Product) float64 {
	if len(a.Tokens) == 0 || len(b.Tokens) == 0 {
		return 0
	}
	shared := 0
	for t := range a.Tokens {
		if b.Tokens[t] {
			shared++
		}
	}
	union := len(a.Tokens) + len(b.Tokens) - shared
	return float64(shared) / float64(union)
}

// ruleMatch requires equal sizes and one cleaned name containing the other.
func ruleMatch(a, b Product) bool {
	if a.Cleaned == "" || b.Cleaned == "" || a.Size != b.Size {
		return false
	}
	return strings.Contains(a.Cleaned, b.Cleaned) || strings.Contains(b.Cleaned, a.Cleaned)
}

// Matcher maps external product names onto an internal catalog.
type Matcher struct {
	internal []Product
	// Threshold is the minimum similarity for a semantic match.
	Threshold float64
	// FallbackThreshold is the minimum similarity for a fallback suggestion.
	FallbackThreshold float64
}

// NewMatcher indexes the internal catalog.
func NewMatcher(internalNames []string, threshold float64) *Matcher {
	m := &Matcher{
		Threshold:         threshold,
		FallbackThreshold: threshold / 2,
		internal:          make([]Product, 0, len(internalNames)),
	}
	for _, name := range internalNames {
		if strings.TrimSpace(name) == "" {
			continue
		}
		m.internal = append(m.internal, Normalize(name))
	}
	return m
}

type candidate struct {
	product Product
	score   float64
}

// Match produces one record per external name. Missing values are empty
// strings.
func (m *Matcher) Match(externalNames []string) []map[string]any {
	records := make([]map[string]any, 0, len(externalNames))

	for _, name := range externalNames {
		ext := Normalize(name)
		rec := map[string]any{
			"External":                name,
			"Internal":                "",
			"Method":                  MethodUnmatched,
			"Semantic_Score":          "",
			"Fallback_Internal":       "",
			"Fallback_Semantic_Score": "",
		}

		if p, ok := m.ruleBased(ext); ok {
			rec["Internal"] = p.Original
			rec["Method"] = MethodRuleBased
			records = append(records, rec)
			continue
		}

		best, ok := m.best(ext)
		switch {
		case ok && best.score >= m.Threshold:
			rec["Internal"] = best.product.Original
			rec["Method"] = MethodSemantic
			rec["Semantic_Score"] = round(best.score, 4)
		case ok && best.score >= m.FallbackThreshold:
			rec["Method"] = MethodFallback
			rec["Fallback_Internal"] = best.product.Original
			rec["Fallback_Semantic_Score"] = round(best.score, 4)
		}
		records = append(records, rec)
	}

	return records
}

func (m *Matcher) ruleBased(ext Product) (Product, bool) {
	for _, p := range m.internal {
		if ruleMatch(ext, p) {
			return p, true
		}
	}
	return Product{}, false
}

func (m *Matcher) best(ext Product) (candidate, bool) {
	if len(m.internal) == 0 {
		return candidate{}, false
	}
	candidates := make([]candidate, len(m.internal))
	for i, p := range m.internal {
		candidates[i] = candidate{product: p, score: Similarity(ext, p)}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	return candidates[0], candidates[0].score > 0
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
