// Package orchestrator implements the per-turn decision cascade for IntentPipe.
//
// One utterance flows through an ordered set of tiers: diagnostic command,
// pending consent, active flow, rule engine, classifier, flow-trigger gate,
// direct ML response, optional soft clarification, and the generic fallback.
// The first tier that produces a reply wins; every reply-producing tier logs
// the turn to session history before returning.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/IntentPipe/internal/classifier"
	"github.com/BTreeMap/IntentPipe/internal/engine"
	"github.com/BTreeMap/IntentPipe/internal/flowengine"
	"github.com/BTreeMap/IntentPipe/internal/models"
	"github.com/BTreeMap/IntentPipe/internal/preprocess"
	"github.com/BTreeMap/IntentPipe/internal/session"
)

// Cascade defaults.
const (
	// DefaultTriggerThreshold gates the consent-gated flow offer.
	DefaultTriggerThreshold = 0.60
	// DefaultResponseThreshold gates direct canned ML responses.
	DefaultResponseThreshold = 0.20
	// DefaultCooldown is the minimum time after a flow completion before any
	// flow may be auto-offered again.
	DefaultCooldown = 300 * time.Second
	// HistoryCommand is the reserved literal utterance that returns the
	// session transcript.
	HistoryCommand = "/history"
)

// ResponseResolver resolves a canned response for a classified intent. An
// empty string means none exists, which forces fallback.
type ResponseResolver interface {
	Resolve(intent string) string
}

// Opts holds configuration options for the orchestrator.
type Opts struct {
	TriggerThreshold  float64
	ResponseThreshold float64
	// SoftThreshold enables the clarification tier between the direct-ML and
	// fallback thresholds when set above zero.
	SoftThreshold float64
	Cooldown      time.Duration
}

// Option defines a configuration option for the orchestrator.
type Option func(*Opts)

// WithTriggerThreshold overrides the flow-trigger confidence threshold.
func WithTriggerThreshold(v float64) Option {
	return func(o *Opts) { o.TriggerThreshold = v }
}

// WithResponseThreshold overrides the direct-ML confidence threshold.
func WithResponseThreshold(v float64) Option {
	return func(o *Opts) { o.ResponseThreshold = v }
}

// WithSoftThreshold enables the soft clarification tier at the given
// confidence.
func WithSoftThreshold(v float64) Option {
	return func(o *Opts) { o.SoftThreshold = v }
}

// WithCooldown overrides the post-completion flow cooldown.
func WithCooldown(d time.Duration) Option {
	return func(o *Opts) { o.Cooldown = d }
}

// Orchestrator ties the session store, rule engine, flow engine, and the
// external collaborators together. It is the single entry point per turn.
type Orchestrator struct {
	sessions *session.Store
	rules    *engine.Engine
	flows    *flowengine.Engine
	clf      classifier.Classifier
	resolver ResponseResolver
	fallback Responder
	cfg      Opts
}

// New creates an orchestrator with the given components and options.
func New(sessions *session.Store, rules *engine.Engine, flows *flowengine.Engine, clf classifier.Classifier, resolver ResponseResolver, fallback Responder, opts ...Option) *Orchestrator {
	cfg := Opts{
		TriggerThreshold:  DefaultTriggerThreshold,
		ResponseThreshold: DefaultResponseThreshold,
		Cooldown:          DefaultCooldown,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("orchestrator.New: orchestrator ready",
		"trigger_threshold", cfg.TriggerThreshold,
		"response_threshold", cfg.ResponseThreshold,
		"soft_threshold", cfg.SoftThreshold,
		"cooldown", cfg.Cooldown)
	return &Orchestrator{
		sessions: sessions,
		rules:    rules,
		flows:    flows,
		clf:      clf,
		resolver: resolver,
		fallback: fallback,
		cfg:      cfg,
	}
}

// Process runs one utterance through the decision cascade for the session
// identified by key. The turn is processed to completion while holding the
// session's turn lock; concurrent turns on the same key serialize.
func (o *Orchestrator) Process(ctx context.Context, key, utterance string) (models.DecisionResult, error) {
	sess, release := o.sessions.Acquire(key)
	defer release()

	trimmed := strings.TrimSpace(utterance)
	slog.Debug("Orchestrator.Process: turn started", "session", key, "phase", sess.Flow.Phase)

	// Diagnostic command: transcript back to the caller, no decision-state
	// mutation.
	if trimmed == HistoryCommand {
		return o.logTurn(sess, trimmed, models.DecisionResult{
			Reply:  renderTranscript(sess.History),
			Intent: "history",
			Source: models.SourceSystem,
		}), nil
	}

	// Pending consent gate.
	if pending := sess.PendingFlowIntent(); pending != "" {
		return o.handleConsent(sess, pending, trimmed)
	}

	// Active flow turns always go to the flow engine.
	if sess.ActiveFlowIntent() != "" {
		step, err := o.flows.Respond(ctx, sess, trimmed)
		if err != nil {
			return models.DecisionResult{}, err
		}
		return o.logTurn(sess, trimmed, models.DecisionResult{
			Reply:  flowReply(step),
			Intent: step.Intent,
			Source: models.SourceFlow,
		}), nil
	}

	// Rule engine: a match that forbids ML fallback answers immediately.
	ruleResult := o.rules.Run(trimmed)
	if ruleResult.Matched && !ruleResult.AllowMLFallback {
		sess.LastIntent = ruleResult.Intent
		return o.logTurn(sess, trimmed, models.DecisionResult{
			Reply:      ruleResult.Response,
			Intent:     ruleResult.Intent,
			Confidence: ruleResult.Confidence,
			Source:     models.SourceRule,
		}), nil
	}

	// Classifier. The prediction is recorded on the session regardless of
	// which tier ends up answering, preserving a diagnostic trail.
	pred, err := o.clf.Predict(ctx, preprocess.Normalize(trimmed))
	if err != nil {
		slog.Error("Orchestrator.Process: classifier failed", "session", key, "error", err)
		return models.DecisionResult{}, &models.CollaboratorError{Collaborator: "classifier", Err: err}
	}
	sess.LastIntent = pred.Intent
	sess.Touch()

	confidence := 0.0
	if pred.Confidence != nil {
		confidence = *pred.Confidence
	}

	// Flow-trigger gate: offer a consent-gated flow for confident intents.
	if pred.Confidence != nil && confidence >= o.cfg.TriggerThreshold &&
		o.cooldownElapsed(sess) &&
		pred.Intent != sess.LastCompletedFlowIntent &&
		o.flows.Registry().HasFlow(pred.Intent) {
		sess.SetPendingFlow(pred.Intent)
		slog.Info("Orchestrator.Process: flow offered", "session", key, "intent", pred.Intent, "confidence", confidence)
		return o.logTurn(sess, trimmed, models.DecisionResult{
			Reply:           consentPrompt(pred.Intent),
			Intent:          pred.Intent,
			PredictedIntent: pred.Intent,
			Confidence:      confidence,
			Source:          models.SourceSystem,
		}), nil
	}

	// Direct ML response for confident, mapped intents.
	if pred.Confidence != nil && confidence >= o.cfg.ResponseThreshold {
		if text := o.resolver.Resolve(pred.Intent); text != "" {
			return o.logTurn(sess, trimmed, models.DecisionResult{
				Reply:           text,
				Intent:          pred.Intent,
				PredictedIntent: pred.Intent,
				Confidence:      confidence,
				Source:          models.SourceML,
			}), nil
		}
	}

	// Optional soft clarification tier.
	if o.cfg.SoftThreshold > 0 && pred.Confidence != nil && pred.Intent != "" && confidence >= o.cfg.SoftThreshold {
		return o.logTurn(sess, trimmed, models.DecisionResult{
			Reply:           "Could you please clarify a bit more so I can help you better?",
			Intent:          "clarification_needed",
			PredictedIntent: pred.Intent,
			Confidence:      confidence,
			Source:          models.SourceML,
		}), nil
	}

	// Generic fallback. All local state for this turn is already committed.
	reply, err := o.fallback.Respond(ctx, trimmed)
	if err != nil {
		slog.Error("Orchestrator.Process: fallback responder failed", "session", key, "error", err)
		return models.DecisionResult{}, &models.CollaboratorError{Collaborator: "fallback responder", Err: err}
	}
	return o.logTurn(sess, trimmed, models.DecisionResult{
		Reply:           reply,
		Intent:          "unknown",
		PredictedIntent: pred.Intent,
		Confidence:      confidence,
		Source:          models.SourceLLM,
	}), nil
}

// handleConsent classifies the reply to an outstanding flow offer.
func (o *Orchestrator) handleConsent(sess *models.Session, pending, trimmed string) (models.DecisionResult, error) {
	switch {
	case flowengine.IsAffirmative(trimmed):
		step, err := o.flows.Start(sess, pending)
		if err != nil {
			// A broken flow must not trap the session in the consent state.
			sess.ClearFlow()
			return models.DecisionResult{}, err
		}
		return o.logTurn(sess, trimmed, models.DecisionResult{
			Reply:  step.Question,
			Intent: pending,
			Source: models.SourceFlow,
		}), nil
	case flowengine.IsNegative(trimmed):
		sess.ClearFlow()
		slog.Debug("Orchestrator.handleConsent: offer declined", "session", sess.Key, "intent", pending)
		return o.logTurn(sess, trimmed, models.DecisionResult{
			Reply:  "No problem. Let me know if there's anything else I can help with.",
			Intent: pending,
			Source: models.SourceSystem,
		}), nil
	default:
		// Ambiguous: re-prompt without clearing the pending marker.
		return o.logTurn(sess, trimmed, models.DecisionResult{
			Reply:  "Please reply yes or no so I know how to proceed.",
			Intent: pending,
			Source: models.SourceSystem,
		}), nil
	}
}

// cooldownElapsed reports whether enough time has passed since the session's
// last flow completion for the trigger gate to offer another flow.
func (o *Orchestrator) cooldownElapsed(sess *models.Session) bool {
	if sess.FlowCompletedAt.IsZero() {
		return true
	}
	return time.Since(sess.FlowCompletedAt) >= o.cfg.Cooldown
}

// logTurn appends the utterance and the reply to session history and returns
// the result unchanged.
func (o *Orchestrator) logTurn(sess *models.Session, utterance string, result models.DecisionResult) models.DecisionResult {
	sess.AppendMessage(models.RoleUser, utterance, "")
	sess.AppendMessage(models.RoleBot, result.Reply, result.Source)
	return result
}

// flowReply picks the user-facing text out of a flow step result.
func flowReply(step models.FlowStepResult) string {
	if step.ValidationError != "" {
		return step.ValidationError
	}
	if step.Completed {
		return step.Message
	}
	return step.Question
}

// consentPrompt renders the yes/no offer for a detected flow intent.
func consentPrompt(intent string) string {
	topic := strings.ReplaceAll(intent, "_", " ")
	return fmt.Sprintf("It sounds like you're interested in a %s. I can collect a few details to get that started. Shall I? (yes/no)", topic)
}

// renderTranscript formats the session history for the diagnostic command.
func renderTranscript(history []models.Message) string {
	if len(history) == 0 {
		return "No conversation history yet."
	}
	var b strings.Builder
	for _, m := range history {
		line := fmt.Sprintf("[%s] %s", m.Role, m.Text)
		if m.Source != "" {
			line += fmt.Sprintf(" (%s)", m.Source)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
