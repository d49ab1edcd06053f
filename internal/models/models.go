// Package models defines core data structures and API types used across IntentPipe.
//
// It contains the session record, rule and flow configuration types, decision
// outcomes, and the standard API response envelope shared by all endpoints.
package models

import (
	"fmt"
	"strings"
)

// DecisionSource identifies which subsystem produced a reply.
type DecisionSource string

const (
	// SourceRule indicates the reply came from a deterministic rule match.
	SourceRule DecisionSource = "RULE"
	// SourceML indicates the reply came from a canned response selected by the classifier.
	SourceML DecisionSource = "ML"
	// SourceFlow indicates the reply came from an active slot-filling flow.
	SourceFlow DecisionSource = "FLOW"
	// SourceSystem indicates a system-generated reply (consent prompts, diagnostics).
	SourceSystem DecisionSource = "SYSTEM"
	// SourceLLM indicates the generic fallback responder produced the reply.
	SourceLLM DecisionSource = "LLM"
)

// DecisionResult is the outcome of processing one utterance through the cascade.
type DecisionResult struct {
	Reply           string         `json:"reply"`
	Intent          string         `json:"intent"`
	PredictedIntent string         `json:"predicted_intent,omitempty"` // raw classifier output, kept for audit
	Confidence      float64        `json:"confidence"`
	Source          DecisionSource `json:"source"`
}

// MatchReason explains the outcome of a rule evaluation pass.
type MatchReason string

const (
	// ReasonRuleMatch means exactly one rule matched.
	ReasonRuleMatch MatchReason = "RULE_MATCH"
	// ReasonNoRuleMatch means no rule matched the utterance.
	ReasonNoRuleMatch MatchReason = "NO_RULE_MATCH"
	// ReasonMultipleRuleMatch means two rules matched; the engine abstains.
	ReasonMultipleRuleMatch MatchReason = "MULTIPLE_RULE_MATCH"
	// ReasonSkipped means the skip gate bypassed rule evaluation entirely.
	ReasonSkipped MatchReason = "SKIPPED_RULE_ENGINE"
)

// MatchResult is the outcome of running the rule engine on one utterance.
// Non-match conditions are carried as values, never as errors.
type MatchResult struct {
	Matched         bool        `json:"matched"`
	Intent          string      `json:"intent,omitempty"`
	Confidence      float64     `json:"confidence"`
	Response        string      `json:"response,omitempty"`
	AllowMLFallback bool        `json:"allow_ml_fallback"`
	Reason          MatchReason `json:"reason"`
}

// Rule is one deterministic pattern as declared in a rule YAML file.
type Rule struct {
	Intent           string       `yaml:"intent" json:"intent"`
	Priority         int          `yaml:"priority" json:"priority"`
	Confidence       float64      `yaml:"confidence" json:"confidence"`
	MaxTokens        int          `yaml:"max_tokens" json:"max_tokens,omitempty"`
	NegativeKeywords []string     `yaml:"negative_keywords" json:"negative_keywords,omitempty"`
	Match            RuleMatch    `yaml:"match" json:"match"`
	Response         RuleResponse `yaml:"response" json:"response"`
	AllowMLFallback  *bool        `yaml:"allow_ml_fallback" json:"allow_ml_fallback,omitempty"`
}

// RuleMatch holds the case-insensitive regex patterns for a rule.
type RuleMatch struct {
	Regex []string `yaml:"regex" json:"regex"`
}

// RuleResponse holds the candidate reply pool for a matched rule.
type RuleResponse struct {
	Messages []string `yaml:"messages" json:"messages"`
}

// Validate checks that a rule declaration is usable.
func (r *Rule) Validate() error {
	if strings.TrimSpace(r.Intent) == "" {
		return fmt.Errorf("rule missing intent")
	}
	if len(r.Match.Regex) == 0 {
		return fmt.Errorf("rule %q has no regex patterns", r.Intent)
	}
	if len(r.Response.Messages) == 0 {
		return fmt.Errorf("rule %q has no response messages", r.Intent)
	}
	return nil
}

// Step is one question in a flow definition.
type Step struct {
	Slot       string           `yaml:"slot" json:"slot"`
	Question   string           `yaml:"question" json:"question"`
	Validation ValidationConfig `yaml:"validation" json:"validation"`
}

// ValidationConfig configures slot validation for a step. An empty Type means
// the type is inferred from the slot name.
type ValidationConfig struct {
	Type   string   `yaml:"type" json:"type,omitempty"`
	Format string   `yaml:"format" json:"format,omitempty"` // date/time layout override
	Min    *float64 `yaml:"min" json:"min,omitempty"`       // numeric bounds
	Max    *float64 `yaml:"max" json:"max,omitempty"`
}

// FlowDefinition is an ordered sequence of slot-collecting steps.
type FlowDefinition struct {
	Name              string `yaml:"-" json:"name"`
	Steps             []Step `yaml:"steps" json:"steps"`
	OnComplete        string `yaml:"on_complete" json:"on_complete,omitempty"`
	CompletionMessage string `yaml:"completion_message" json:"completion_message,omitempty"`
}

// Validate checks the structural requirements for a flow definition: at least
// one step, each with a slot and a question.
func (f *FlowDefinition) Validate() error {
	if len(f.Steps) == 0 {
		return fmt.Errorf("flow %q must have at least one step", f.Name)
	}
	for i, step := range f.Steps {
		if strings.TrimSpace(step.Slot) == "" {
			return fmt.Errorf("flow %q step %d missing slot", f.Name, i)
		}
		if strings.TrimSpace(step.Question) == "" {
			return fmt.Errorf("flow %q step %d missing question", f.Name, i)
		}
	}
	return nil
}
