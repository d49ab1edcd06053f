package models

import (
	"errors"
	"testing"
	"time"
)

func TestRuleValidate(t *testing.T) {
	rule := Rule{
		Intent:   "greeting",
		Match:    RuleMatch{Regex: []string{"^hi$"}},
		Response: RuleResponse{Messages: []string{"Hello!"}},
	}
	if err := rule.Validate(); err != nil {
		t.Errorf("valid rule rejected: %v", err)
	}

	missing := rule
	missing.Intent = "  "
	if err := missing.Validate(); err == nil {
		t.Error("rule without intent accepted")
	}

	missing = rule
	missing.Match.Regex = nil
	if err := missing.Validate(); err == nil {
		t.Error("rule without patterns accepted")
	}

	missing = rule
	missing.Response.Messages = nil
	if err := missing.Validate(); err == nil {
		t.Error("rule without responses accepted")
	}
}

func TestFlowDefinitionValidate(t *testing.T) {
	def := FlowDefinition{
		Name: "demo_booking_flow",
		Steps: []Step{
			{Slot: "email", Question: "Email?"},
		},
	}
	if err := def.Validate(); err != nil {
		t.Errorf("valid flow rejected: %v", err)
	}

	if err := (&FlowDefinition{Name: "empty"}).Validate(); err == nil {
		t.Error("stepless flow accepted")
	}

	bad := def
	bad.Steps = []Step{{Question: "Email?"}}
	if err := bad.Validate(); err == nil {
		t.Error("step without slot accepted")
	}

	bad = def
	bad.Steps = []Step{{Slot: "email"}}
	if err := bad.Validate(); err == nil {
		t.Error("step without question accepted")
	}
}

func TestSessionFlowPhases(t *testing.T) {
	sess := NewSession("s1")
	if sess.Flow.Phase != FlowPhaseIdle {
		t.Fatalf("new session should be idle, got %q", sess.Flow.Phase)
	}

	sess.SetPendingFlow("demo_request")
	if sess.PendingFlowIntent() != "demo_request" {
		t.Errorf("expected pending demo_request, got %q", sess.PendingFlowIntent())
	}
	if sess.ActiveFlowIntent() != "" {
		t.Error("pending session must not report an active flow")
	}

	// Activating replaces the pending marker: the phases never coexist.
	sess.SetActiveFlow("demo_request", 1)
	if sess.PendingFlowIntent() != "" {
		t.Error("active session must not report a pending flow")
	}
	if sess.ActiveFlowIntent() != "demo_request" || sess.Flow.Step != 1 {
		t.Errorf("unexpected active state: %+v", sess.Flow)
	}

	sess.SetSlot("email", "ada@example.com")
	sess.ClearFlow()
	if sess.Flow.Phase != FlowPhaseIdle {
		t.Errorf("clear should idle the session, got %q", sess.Flow.Phase)
	}
	if sess.Slots["email"] != "ada@example.com" {
		t.Error("clear must retain collected slots")
	}
}

func TestSessionCompleteFlow(t *testing.T) {
	sess := NewSession("s1")
	sess.SetActiveFlow("demo_request", 2)

	sess.CompleteFlow("demo_request")
	if sess.Flow.Phase != FlowPhaseIdle {
		t.Errorf("completion should idle the session, got %q", sess.Flow.Phase)
	}
	if sess.LastCompletedFlowIntent != "demo_request" {
		t.Errorf("expected recorded intent, got %q", sess.LastCompletedFlowIntent)
	}
	if sess.FlowCompletedAt.IsZero() {
		t.Error("expected completion timestamp")
	}
}

func TestSessionExpired(t *testing.T) {
	sess := NewSession("s1")
	if sess.Expired(time.Minute) {
		t.Error("fresh session reported expired")
	}
	sess.LastActiveAt = time.Now().Add(-2 * time.Minute)
	if !sess.Expired(time.Minute) {
		t.Error("stale session reported live")
	}
	sess.Touch()
	if sess.Expired(time.Minute) {
		t.Error("touched session reported expired")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cfgErr := NewConfigError("bad value %d", 42)
	if !IsConfigError(cfgErr) {
		t.Error("IsConfigError missed a ConfigError")
	}
	if IsNotFound(cfgErr) {
		t.Error("ConfigError misclassified as NotFoundError")
	}

	nf := &NotFoundError{Kind: "flow", Key: "demo_request"}
	if !IsNotFound(nf) {
		t.Error("IsNotFound missed a NotFoundError")
	}

	inner := errors.New("connection refused")
	collab := &CollaboratorError{Collaborator: "classifier", Err: inner}
	if !errors.Is(collab, inner) {
		t.Error("CollaboratorError should unwrap to its cause")
	}
	if IsConfigError(collab) || IsNotFound(collab) {
		t.Error("CollaboratorError misclassified")
	}
}

func TestAPIResponseBuilder(t *testing.T) {
	resp := Success(map[string]string{"key": "value"})
	if resp.Status != string(APIStatusOK) {
		t.Errorf("expected ok status, got %q", resp.Status)
	}
	if resp.Result == nil {
		t.Error("expected result data")
	}

	resp = Error("something broke")
	if resp.Status != string(APIStatusError) || resp.Message != "something broke" {
		t.Errorf("unexpected error response: %+v", resp)
	}

	resp = SuccessWithMessage("done", nil)
	if resp.Status != string(APIStatusOK) || resp.Message != "done" {
		t.Errorf("unexpected response: %+v", resp)
	}
}
