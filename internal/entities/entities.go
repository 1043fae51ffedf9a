// Package entities extracts candidate organization names from retrieved
// text. This is a best-effort pattern matcher over noisy prose, kept behind
// a capability interface so the regex strategy can be swapped out later.
package entities

import (
	"fmt"
	"regexp"
	"strings"
)

// Extractor yields candidate entity names found in text.
type Extractor interface {
	Extract(text string) []string
}

// DefaultOrgPatterns match organization mentions in internship prose. They
// are defaults for the config-supplied pattern list, not a fixed law.
var DefaultOrgPatterns = []string{
	`(?:interned|internship|placed|placement)\s+(?:at|with)\s+([A-Z][A-Za-z0-9&.\-]*(?:\s+[A-Z][A-Za-z0-9&.\-]*){0,4})`,
	`\b([A-Z][A-Za-z0-9&.\-]*(?:\s+[A-Z][A-Za-z0-9&.\-]*){0,4}\s+(?:Inc|LLC|Ltd|Corp|Corporation|Labs|Technologies|Systems|Solutions|Group|Company|Institute|University|Hospital|Bank))\b`,
}

// RegexExtractor applies a configurable list of capture-group patterns.
type RegexExtractor struct {
	patterns []*regexp.Regexp
}

// NewRegexExtractor compiles the given patterns; with none given, the
// defaults apply. Each pattern must have at least one capture group.
func NewRegexExtractor(patterns []string) (*RegexExtractor, error) {
	if len(patterns) == 0 {
		patterns = DefaultOrgPatterns
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile entity pattern %q: %w", p, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("entity pattern %q has no capture group", p)
		}
		compiled = append(compiled, re)
	}
	return &RegexExtractor{patterns: compiled}, nil
}

// Extract returns deduplicated candidates in first-seen order.
func (e *RegexExtractor) Extract(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, re := range e.patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			name := strings.TrimRight(strings.TrimSpace(m[1]), ".,")
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, name)
		}
	}
	return out
}
