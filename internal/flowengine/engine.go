package flowengine

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/IntentPipe/internal/models"
)

// DefaultCompletionMessage is returned when a flow omits its own.
const DefaultCompletionMessage = "Thank you! We have collected all the information. Our team will contact you shortly."

// Notifier dispatches the post-completion action for a finished flow. The
// call is best-effort: its result is logged, never acted upon.
type Notifier interface {
	Notify(ctx context.Context, intent string, slots map[string]string) bool
}

// Engine drives flow state transitions on a session. Callers must hold the
// session's turn lock for the duration of any call.
type Engine struct {
	registry *Registry
	notifier Notifier
}

// NewEngine creates a flow engine over the given registry and notifier. A nil
// notifier disables post-completion dispatch.
func NewEngine(registry *Registry, notifier Notifier) *Engine {
	slog.Debug("flowengine.NewEngine: engine ready", "has_notifier", notifier != nil)
	return &Engine{registry: registry, notifier: notifier}
}

// Registry exposes the engine's flow registry for lookup-only callers.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Start begins the flow registered for intent, putting the session at step 0
// and returning the first question. It fails with NotFoundError when no flow
// is registered and ConfigError when the definition does not validate; both
// are fatal to this start attempt only, never to the session.
func (e *Engine) Start(sess *models.Session, intent string) (models.FlowStepResult, error) {
	def, ok := e.registry.FlowForIntent(intent)
	if !ok {
		slog.Warn("flowengine.Engine.Start: no flow for intent", "intent", intent, "session", sess.Key)
		return models.FlowStepResult{}, &models.NotFoundError{Kind: "flow", Key: intent}
	}
	if err := def.Validate(); err != nil {
		slog.Error("flowengine.Engine.Start: invalid flow definition", "flow", def.Name, "error", err)
		return models.FlowStepResult{}, models.NewConfigError("invalid flow definition: %v", err)
	}

	sess.SetActiveFlow(intent, 0)
	slog.Info("flowengine.Engine.Start: flow started", "intent", intent, "flow", def.Name, "session", sess.Key, "steps", len(def.Steps))
	return models.FlowStepResult{
		Intent:      intent,
		SessionID:   sess.Key,
		CurrentStep: 0,
		TotalSteps:  len(def.Steps),
		Question:    def.Steps[0].Question,
	}, nil
}

// Respond handles the user's answer to the current step of the active flow.
// Invalid input keeps the session at the same step and returns the
// validator's message (or the step question when the validator gives none)
// in ValidationError. Valid input stores the slot and either advances to the
// next question or completes the flow.
func (e *Engine) Respond(ctx context.Context, sess *models.Session, raw string) (models.FlowStepResult, error) {
	intent := sess.ActiveFlowIntent()
	if intent == "" {
		return models.FlowStepResult{}, &models.NotFoundError{Kind: "active flow", Key: sess.Key}
	}

	def, ok := e.registry.FlowForIntent(intent)
	if !ok {
		slog.Error("flowengine.Engine.Respond: active flow no longer registered", "intent", intent, "session", sess.Key)
		return models.FlowStepResult{}, &models.NotFoundError{Kind: "flow", Key: intent}
	}

	step := sess.Flow.Step
	if step >= len(def.Steps) {
		return models.FlowStepResult{}, models.NewConfigError("flow %q step %d out of range", def.Name, step)
	}
	stepDef := def.Steps[step]

	result := ValidateSlot(stepDef.Slot, raw, stepDef.Validation)
	if !result.Valid {
		sess.Touch()
		message := result.Message
		if message == "" {
			message = stepDef.Question
		}
		slog.Debug("flowengine.Engine.Respond: validation failed", "session", sess.Key, "flow", def.Name, "step", step, "slot", stepDef.Slot)
		return models.FlowStepResult{
			Intent:          intent,
			SessionID:       sess.Key,
			CurrentStep:     step,
			TotalSteps:      len(def.Steps),
			Question:        stepDef.Question,
			ValidationError: message,
		}, nil
	}

	if stepDef.Slot != "" {
		sess.SetSlot(stepDef.Slot, raw)
	}

	next := step + 1
	if next < len(def.Steps) {
		sess.SetActiveFlow(intent, next)
		return models.FlowStepResult{
			Intent:      intent,
			SessionID:   sess.Key,
			CurrentStep: next,
			TotalSteps:  len(def.Steps),
			Question:    def.Steps[next].Question,
		}, nil
	}

	// Completion: the session transition commits before the external
	// dispatch so a notifier failure cannot roll it back.
	sess.CompleteFlow(intent)
	collected := copySlots(sess.Slots)
	slog.Info("flowengine.Engine.Respond: flow completed", "intent", intent, "flow", def.Name, "session", sess.Key, "slots", len(collected))

	if e.notifier != nil {
		delivered := e.notifier.Notify(ctx, intent, collected)
		slog.Info("flowengine.Engine.Respond: post-flow action dispatched", "intent", intent, "delivered", delivered)
	}

	message := def.CompletionMessage
	if message == "" {
		message = DefaultCompletionMessage
	}
	return models.FlowStepResult{
		Intent:      intent,
		SessionID:   sess.Key,
		CurrentStep: next,
		TotalSteps:  len(def.Steps),
		Completed:   true,
		Message:     message,
		Slots:       collected,
	}, nil
}

// Cancel resets any pending or active flow progress on the session. Collected
// slots are retained. Idempotent.
func (e *Engine) Cancel(sess *models.Session) {
	if sess.Flow.Phase != models.FlowPhaseIdle {
		slog.Info("flowengine.Engine.Cancel: flow cancelled", "session", sess.Key, "phase", sess.Flow.Phase, "intent", sess.Flow.Intent)
	}
	sess.ClearFlow()
}

func copySlots(slots map[string]string) map[string]string {
	out := make(map[string]string, len(slots))
	for k, v := range slots {
		out[k] = v
	}
	return out
}
