// Package engine implements the deterministic rule matcher for IntentPipe.
//
// Rules are loaded once at startup from YAML files, compiled, sorted by
// priority, and are immutable for the process lifetime.
package engine

import (
	"log/slog"
	"os"
	"regexp"
	"sort"

	"github.com/BTreeMap/IntentPipe/internal/models"
	"gopkg.in/yaml.v3"
)

// Defaults applied to rule declarations that omit the field.
const (
	DefaultRulePriority   = 100
	DefaultRuleConfidence = 1.0
)

// compiledRule pairs a rule declaration with its precompiled patterns.
type compiledRule struct {
	rule     models.Rule
	patterns []*regexp.Regexp
}

// LoadRules reads rule declarations from the given YAML files, applies
// defaults, and validates each rule. Files are read in order; priority
// ordering is applied later by the engine.
func LoadRules(paths ...string) ([]models.Rule, error) {
	var rules []models.Rule
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, models.NewConfigError("reading rule file %s: %v", path, err)
		}
		var fileRules []models.Rule
		if err := yaml.Unmarshal(data, &fileRules); err != nil {
			return nil, models.NewConfigError("parsing rule file %s: %v", path, err)
		}
		rules = append(rules, fileRules...)
		slog.Debug("engine.LoadRules: loaded rule file", "path", path, "count", len(fileRules))
	}

	for i := range rules {
		applyRuleDefaults(&rules[i])
		if err := rules[i].Validate(); err != nil {
			return nil, models.NewConfigError("invalid rule: %v", err)
		}
	}

	slog.Info("engine.LoadRules: rules loaded", "files", len(paths), "rules", len(rules))
	return rules, nil
}

func applyRuleDefaults(r *models.Rule) {
	if r.Priority == 0 {
		r.Priority = DefaultRulePriority
	}
	if r.Confidence == 0 {
		r.Confidence = DefaultRuleConfidence
	}
}

// compileRules compiles every pattern case-insensitively and sorts the result
// by ascending priority (lower value checked first).
func compileRules(rules []models.Rule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{rule: r}
		for _, pattern := range r.Match.Regex {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, models.NewConfigError("rule %q: bad pattern %q: %v", r.Intent, pattern, err)
			}
			cr.patterns = append(cr.patterns, re)
		}
		compiled = append(compiled, cr)
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].rule.Priority < compiled[j].rule.Priority
	})
	return compiled, nil
}

// allowMLFallback resolves the rule's fallback policy; unset means allowed.
func allowMLFallback(r models.Rule) bool {
	if r.AllowMLFallback == nil {
		return true
	}
	return *r.AllowMLFallback
}
