package orchestrator

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/IntentPipe/internal/models"
)

// StartFlow begins the flow registered for intent on the given session,
// bypassing the consent gate. This is the explicit start operation exposed to
// API callers.
func (o *Orchestrator) StartFlow(key, intent string) (models.FlowStepResult, error) {
	sess, release := o.sessions.Acquire(key)
	defer release()

	step, err := o.flows.Start(sess, intent)
	if err != nil {
		return models.FlowStepResult{}, err
	}
	sess.AppendMessage(models.RoleBot, step.Question, models.SourceFlow)
	return step, nil
}

// RespondFlow handles a user's answer to the active flow on the session.
func (o *Orchestrator) RespondFlow(ctx context.Context, key, response string) (models.FlowStepResult, error) {
	sess, release := o.sessions.Acquire(key)
	defer release()

	step, err := o.flows.Respond(ctx, sess, response)
	if err != nil {
		return models.FlowStepResult{}, err
	}
	sess.AppendMessage(models.RoleUser, response, "")
	sess.AppendMessage(models.RoleBot, flowReply(step), models.SourceFlow)
	return step, nil
}

// CancelFlow resets flow progress on the session. Collected slots survive.
func (o *Orchestrator) CancelFlow(key string) {
	sess, release := o.sessions.Acquire(key)
	defer release()
	o.flows.Cancel(sess)
}

// SessionData returns a read-only snapshot of the session, or NotFoundError
// when no live session exists for the key.
func (o *Orchestrator) SessionData(key string) (models.SessionSnapshot, error) {
	if !o.sessions.Exists(key) {
		return models.SessionSnapshot{}, &models.NotFoundError{Kind: "session", Key: key}
	}

	sess, release := o.sessions.Acquire(key)
	defer release()

	totalSteps := 0
	if intent := sess.Flow.Intent; intent != "" {
		if def, ok := o.flows.Registry().FlowForIntent(intent); ok {
			totalSteps = len(def.Steps)
		}
	}

	slog.Debug("Orchestrator.SessionData: snapshot served", "session", key)
	return models.SessionSnapshot{
		SessionID:               sess.Key,
		Flow:                    sess.Flow,
		LastCompletedFlowIntent: sess.LastCompletedFlowIntent,
		LastIntent:              sess.LastIntent,
		Slots:                   copySnapshotSlots(sess.Slots),
		TotalSteps:              totalSteps,
		HistoryLength:           len(sess.History),
		CreatedAt:               sess.CreatedAt.Unix(),
		LastActive:              sess.LastActiveAt.Unix(),
	}, nil
}

// History returns a copy of the session's conversation history.
func (o *Orchestrator) History(key string) []models.Message {
	return o.sessions.History(key)
}

// Flows exposes the flow registry for listing endpoints.
func (o *Orchestrator) Flows() []string {
	return o.flows.Registry().FlowNames()
}

// IntentsWithFlows lists the intents that map to a loaded flow.
func (o *Orchestrator) IntentsWithFlows() []string {
	return o.flows.Registry().IntentsWithFlows()
}

func copySnapshotSlots(slots map[string]string) map[string]string {
	out := make(map[string]string, len(slots))
	for k, v := range slots {
		out[k] = v
	}
	return out
}
