package detect

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultRules is the built-in keyword table. Order matters: the first
// satisfied rule decides the reported keyword, so specific phrases sit
// above the broad single words they overlap with.
func DefaultRules() []Rule {
	return []Rule{
		{Keyword: "call now"},
		{Keyword: "text to win"},
		{Keyword: "caller number"},
		{Keyword: "chance to win"},
		{Keyword: "giveaway"},
		{Keyword: "sweepstakes"},
		{Keyword: "win"},
		{Keyword: "winner"},
		{Keyword: "prize"},
		{Keyword: "contest", Context: []string{"enter", "win", "call", "text"}},
		{Keyword: "caller", Context: []string{"now", "ninth", "tenth", "lucky"}},
		{Keyword: "free", Context: []string{"tickets", "vacation", "cash", "trip"}},
	}
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a keyword table from a YAML file. An empty path
// returns the built-in table.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword rules file %s: %w", path, err)
	}
	var parsed rulesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse keyword rules file %s: %w", path, err)
	}
	if len(parsed.Rules) == 0 {
		return nil, fmt.Errorf("keyword rules file %s contains no rules", path)
	}
	for i, r := range parsed.Rules {
		if r.Keyword == "" {
			return nil, fmt.Errorf("keyword rules file %s: rule %d has an empty keyword", path, i)
		}
	}
	return parsed.Rules, nil
}
