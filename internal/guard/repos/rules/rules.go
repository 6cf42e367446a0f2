// Package rules loads keyword rule groups, search-form identifiers, extra
// block domains and overlay text from YAML, JSON or TOML files.
package rules

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/pageguard/internal/guard/domain"
)

// ErrUnsupportedFormat is returned for rule files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported rules file format")

// RuleSet is the static configuration of one guard instance. Words and
// exclusions are lowercased because the corpus is.
type RuleSet struct {
	Group1            domain.RuleGroup
	Group2            domain.RuleGroup
	SearchIdentifiers []string
	BlockDomains      []string
	Messages          domain.BlockMessages
	Source            string
}

// Load returns the built-in rule set when path is empty and LoadFile otherwise.
func Load(path string) (RuleSet, error) {
	if strings.TrimSpace(path) == "" {
		return lowered(Default()), nil
	}
	return LoadFile(path)
}

// LoadFile parses a rules file. Sections the file omits keep their built-in
// values, so a file may override only the word groups.
func LoadFile(path string) (RuleSet, error) {
	parser, err := parserFor(path)
	if err != nil {
		return RuleSet{}, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return RuleSet{}, fmt.Errorf("failed to load rules file %s: %w", path, err)
	}

	rs := Default()
	rs.Source = path

	if k.Exists("group1") {
		rules, err := toKeywordRules(k.Get("group1"))
		if err != nil {
			return RuleSet{}, fmt.Errorf("invalid group1 in %s: %w", path, err)
		}
		rs.Group1 = domain.NewRuleGroup(domain.GroupSolicitation, rules...)
	}
	if k.Exists("group2") {
		rules, err := toKeywordRules(k.Get("group2"))
		if err != nil {
			return RuleSet{}, fmt.Errorf("invalid group2 in %s: %w", path, err)
		}
		rs.Group2 = domain.NewRuleGroup(domain.GroupRefusal, rules...)
	}
	if k.Exists("search_identifiers") {
		rs.SearchIdentifiers = toStringValues(k.Get("search_identifiers"))
	}
	if k.Exists("block_domains") {
		rs.BlockDomains = toStringValues(k.Get("block_domains"))
	}

	custom := domain.BlockMessages{
		KeywordHeader:      k.String("messages.keyword_header"),
		KeywordInstruction: k.String("messages.keyword_instruction"),
		DetectedLabel:      k.String("messages.detected_label"),
		Group1Label:        k.String("messages.group1_label"),
		Group2Label:        k.String("messages.group2_label"),
		DomainHeader:       k.String("messages.domain_header"),
		DomainMessage:      k.String("messages.domain_message"),
	}
	rs.Messages = custom.Merge(rs.Messages)

	return lowered(rs), nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// toKeywordRules converts a parsed list whose elements are either strings
// (bare rules) or maps with "word" and an optional "exclude".
func toKeywordRules(val any) ([]domain.KeywordRule, error) {
	var items []any
	switch v := val.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	case []map[string]any:
		for _, m := range v {
			items = append(items, m)
		}
	default:
		return nil, fmt.Errorf("expected a list, got %T", val)
	}

	out := make([]domain.KeywordRule, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			if w := strings.TrimSpace(v); w != "" {
				out = append(out, domain.Bare(w))
			}
		case map[string]any:
			w, _ := v["word"].(string)
			w = strings.TrimSpace(w)
			if w == "" {
				continue
			}
			out = append(out, domain.Structured(w, toStringValues(v["exclude"])...))
		default:
			return nil, fmt.Errorf("entry %d: unsupported type %T", i, item)
		}
	}
	return out, nil
}

// toStringValues converts a string or list of strings into a slice of
// non-empty trimmed strings. Other element types are skipped.
func toStringValues(val any) []string {
	switch v := val.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		return []string{s}
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []string:
		return toStringValues(stringsToAny(v))
	default:
		return nil
	}
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func lowered(rs RuleSet) RuleSet {
	rs.Group1 = lowerGroup(rs.Group1)
	rs.Group2 = lowerGroup(rs.Group2)
	for i, s := range rs.SearchIdentifiers {
		rs.SearchIdentifiers[i] = strings.ToLower(s)
	}
	return rs
}

func lowerGroup(g domain.RuleGroup) domain.RuleGroup {
	rules := g.Rules()
	for i, r := range rules {
		rules[i] = r.Lower()
	}
	return domain.NewRuleGroup(g.Name, rules...)
}
