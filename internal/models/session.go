// Package models defines session state structures for IntentPipe.
package models

import "time"

// FlowPhase names the flow sub-state of a session. Pending and active are
// mutually exclusive by construction: a session carries exactly one phase.
type FlowPhase string

const (
	// FlowPhaseIdle means no flow is pending or collecting slots.
	FlowPhaseIdle FlowPhase = "idle"
	// FlowPhasePending means a flow offer is awaiting yes/no consent.
	FlowPhasePending FlowPhase = "pending"
	// FlowPhaseActive means a flow is collecting slots.
	FlowPhaseActive FlowPhase = "active"
)

// FlowState is the tagged flow sub-state of a session. Intent is set for the
// pending and active phases; Step is meaningful only while active.
type FlowState struct {
	Phase  FlowPhase `json:"phase"`
	Intent string    `json:"intent,omitempty"`
	Step   int       `json:"step,omitempty"`
}

// MessageRole identifies the author of a history entry.
type MessageRole string

const (
	// RoleUser marks an utterance sent by the user.
	RoleUser MessageRole = "user"
	// RoleBot marks a reply produced by the cascade.
	RoleBot MessageRole = "bot"
)

// Message is one entry in a session's conversation history.
type Message struct {
	Role      MessageRole    `json:"role"`
	Text      string         `json:"text"`
	Source    DecisionSource `json:"source,omitempty"` // set for bot messages only
	Timestamp time.Time      `json:"timestamp"`
}

// Session holds all per-conversation state for one session key.
// Mutations must go through the setter methods so that the flow-phase
// invariant holds and LastActiveAt stays fresh.
type Session struct {
	Key                     string            `json:"session_id"`
	Flow                    FlowState         `json:"flow"`
	LastCompletedFlowIntent string            `json:"last_completed_flow_intent,omitempty"`
	FlowCompletedAt         time.Time         `json:"flow_completed_at,omitzero"`
	Slots                   map[string]string `json:"slots"`
	LastIntent              string            `json:"last_intent,omitempty"`
	History                 []Message         `json:"history"`
	CreatedAt               time.Time         `json:"created_at"`
	LastActiveAt            time.Time         `json:"last_active_at"`
}

// NewSession creates a session with default fields for the given key.
func NewSession(key string) *Session {
	now := time.Now()
	return &Session{
		Key:          key,
		Flow:         FlowState{Phase: FlowPhaseIdle},
		Slots:        make(map[string]string),
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// Touch refreshes the activity timestamp.
func (s *Session) Touch() {
	s.LastActiveAt = time.Now()
}

// ActiveFlowIntent returns the intent of the flow currently collecting slots,
// or empty if none.
func (s *Session) ActiveFlowIntent() string {
	if s.Flow.Phase == FlowPhaseActive {
		return s.Flow.Intent
	}
	return ""
}

// PendingFlowIntent returns the intent awaiting consent, or empty if none.
func (s *Session) PendingFlowIntent() string {
	if s.Flow.Phase == FlowPhasePending {
		return s.Flow.Intent
	}
	return ""
}

// SetPendingFlow marks a flow offer as awaiting consent. Any active flow
// progress is replaced; the phases can never coexist.
func (s *Session) SetPendingFlow(intent string) {
	s.Flow = FlowState{Phase: FlowPhasePending, Intent: intent}
	s.Touch()
}

// SetActiveFlow marks a flow as collecting slots at the given step.
func (s *Session) SetActiveFlow(intent string, step int) {
	s.Flow = FlowState{Phase: FlowPhaseActive, Intent: intent, Step: step}
	s.Touch()
}

// ClearFlow resets pending and active flow progress. Collected slots are
// retained so an abandoned flow can be resumed or pre-fill a later one.
func (s *Session) ClearFlow() {
	s.Flow = FlowState{Phase: FlowPhaseIdle}
	s.Touch()
}

// CompleteFlow records a successful flow completion and resets progress.
func (s *Session) CompleteFlow(intent string) {
	s.Flow = FlowState{Phase: FlowPhaseIdle}
	s.LastCompletedFlowIntent = intent
	s.FlowCompletedAt = time.Now()
	s.Touch()
}

// SetSlot stores a collected slot value.
func (s *Session) SetSlot(name, value string) {
	if s.Slots == nil {
		s.Slots = make(map[string]string)
	}
	s.Slots[name] = value
	s.Touch()
}

// AppendMessage appends a history entry. History is append-only and unbounded
// within the session lifetime.
func (s *Session) AppendMessage(role MessageRole, text string, source DecisionSource) {
	s.History = append(s.History, Message{
		Role:      role,
		Text:      text,
		Source:    source,
		Timestamp: time.Now(),
	})
	s.Touch()
}

// Expired reports whether the session has been idle past the timeout.
func (s *Session) Expired(timeout time.Duration) bool {
	return time.Since(s.LastActiveAt) > timeout
}
