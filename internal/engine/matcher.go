package engine

import (
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/BTreeMap/IntentPipe/internal/models"
)

// DefaultSkipTokenCeiling is the utterance length above which rule evaluation
// is bypassed. Rules are a precision tool for short, unambiguous input.
const DefaultSkipTokenCeiling = 6

// Verb and noun vocabularies for the mixed-intent skip guard: an utterance
// combining a business verb with a business noun is routed straight to the
// classifier even when short.
var (
	businessVerbs = map[string]bool{
		"want": true, "need": true, "looking": true, "explore": true,
		"planning": true, "interested": true, "searching": true,
	}
	businessNouns = map[string]bool{
		"service": true, "services": true, "product": true, "platform": true,
		"pricing": true, "solution": true, "internship": true, "job": true,
		"career": true, "demo": true, "trial": true,
	}
)

// Opts holds configuration options for the rule engine.
type Opts struct {
	SkipTokenCeiling int
}

// EngineOption defines a configuration option for the rule engine.
type EngineOption func(*Opts)

// WithSkipTokenCeiling overrides the skip-gate token ceiling.
func WithSkipTokenCeiling(n int) EngineOption {
	return func(o *Opts) { o.SkipTokenCeiling = n }
}

// Engine evaluates an immutable, priority-ordered rule set against utterances.
type Engine struct {
	rules            []compiledRule
	skipTokenCeiling int
}

// NewEngine compiles the given rules into an Engine. Pattern compilation
// failures surface as ConfigError.
func NewEngine(rules []models.Rule, opts ...EngineOption) (*Engine, error) {
	cfg := Opts{SkipTokenCeiling: DefaultSkipTokenCeiling}
	for _, opt := range opts {
		opt(&cfg)
	}
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	slog.Debug("engine.NewEngine: engine ready", "rules", len(compiled), "skip_token_ceiling", cfg.SkipTokenCeiling)
	return &Engine{rules: compiled, skipTokenCeiling: cfg.SkipTokenCeiling}, nil
}

// Run evaluates the utterance against the rule set and returns an outcome
// value. Evaluation stops as soon as a second rule matches: two conflicting
// deterministic rules must abstain rather than silently pick one.
func (e *Engine) Run(utterance string) models.MatchResult {
	if e.shouldSkip(utterance) {
		slog.Debug("engine.Run: skip gate bypassed rules", "utterance_tokens", len(strings.Fields(utterance)))
		return models.MatchResult{Matched: false, AllowMLFallback: true, Reason: models.ReasonSkipped}
	}

	var matched []compiledRule
	for _, cr := range e.rules {
		if e.ruleMatches(cr, utterance) {
			matched = append(matched, cr)
		}
		if len(matched) > 1 {
			break
		}
	}

	switch len(matched) {
	case 0:
		return models.MatchResult{Matched: false, AllowMLFallback: true, Reason: models.ReasonNoRuleMatch}
	case 1:
		r := matched[0].rule
		response := r.Response.Messages[rand.IntN(len(r.Response.Messages))]
		slog.Debug("engine.Run: rule matched", "intent", r.Intent, "priority", r.Priority)
		return models.MatchResult{
			Matched:         true,
			Intent:          r.Intent,
			Confidence:      r.Confidence,
			Response:        response,
			AllowMLFallback: allowMLFallback(r),
			Reason:          models.ReasonRuleMatch,
		}
	default:
		slog.Warn("engine.Run: conflicting rule matches, abstaining",
			"first", matched[0].rule.Intent, "second", matched[1].rule.Intent)
		return models.MatchResult{Matched: false, AllowMLFallback: true, Reason: models.ReasonMultipleRuleMatch}
	}
}

// shouldSkip implements the pre-rule gate: empty input, input past the token
// ceiling, or a mixed business verb+noun phrase goes straight to the
// classifier.
func (e *Engine) shouldSkip(utterance string) bool {
	tokens := strings.Fields(strings.ToLower(utterance))
	if len(tokens) == 0 {
		return true
	}
	if len(tokens) > e.skipTokenCeiling {
		return true
	}
	hasVerb, hasNoun := false, false
	for _, t := range tokens {
		if businessVerbs[t] {
			hasVerb = true
		}
		if businessNouns[t] {
			hasNoun = true
		}
	}
	return hasVerb && hasNoun
}

// ruleMatches checks one rule against the utterance: token ceiling, negative
// keyword veto, then regex patterns.
func (e *Engine) ruleMatches(cr compiledRule, utterance string) bool {
	text := strings.ToLower(utterance)
	tokens := strings.Fields(text)

	for _, neg := range cr.rule.NegativeKeywords {
		if strings.Contains(text, neg) {
			return false
		}
	}

	if cr.rule.MaxTokens > 0 && len(tokens) > cr.rule.MaxTokens {
		return false
	}

	for _, re := range cr.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
