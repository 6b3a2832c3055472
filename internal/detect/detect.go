package detect

import (
	"strings"
)

const tokenCutset = `.,!?()[]{};"'`

// Rule is one entry of the ordered keyword table. A single-word Keyword
// matches as a whole token; a multi-word Keyword matches as a
// case-insensitive substring of the original text. When Context is
// non-empty, at least one context word must also appear as a whole
// token anywhere in the text. Context carries no proximity requirement;
// that keeps recall broad on long transcripts at the cost of precision.
type Rule struct {
	Keyword string   `yaml:"keyword"`
	Context []string `yaml:"context,omitempty"`
}

type Match struct {
	Keyword string
}

type Detector struct {
	rules []Rule
}

func NewDetector(rules []Rule) *Detector {
	return &Detector{rules: rules}
}

// Detect scans text against the rule table in order and returns the
// first satisfied rule's keyword. Pure and deterministic.
func (d *Detector) Detect(text string) (Match, bool) {
	if strings.TrimSpace(text) == "" {
		return Match{}, false
	}
	lowered := strings.ToLower(text)
	tokens := tokenize(lowered)

	for _, rule := range d.rules {
		keyword := strings.ToLower(rule.Keyword)
		if keyword == "" {
			continue
		}
		var hit bool
		if strings.ContainsRune(keyword, ' ') {
			hit = strings.Contains(lowered, keyword)
		} else {
			hit = tokens[keyword]
		}
		if !hit {
			continue
		}
		if len(rule.Context) == 0 {
			return Match{Keyword: rule.Keyword}, true
		}
		for _, ctx := range rule.Context {
			if tokens[strings.ToLower(ctx)] {
				return Match{Keyword: rule.Keyword}, true
			}
		}
	}
	return Match{}, false
}

func (d *Detector) Rules() []Rule {
	out := make([]Rule, len(d.rules))
	copy(out, d.rules)
	return out
}

func tokenize(lowered string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.Fields(lowered) {
		token := strings.Trim(field, tokenCutset)
		if token != "" {
			tokens[token] = true
		}
	}
	return tokens
}
