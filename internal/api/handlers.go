// Package api provides HTTP handlers for IntentPipe endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BTreeMap/IntentPipe/internal/models"
	"github.com/BTreeMap/IntentPipe/internal/session"
)

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// chatHandler is the main chat endpoint: one utterance in, one decision out.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatHandler: processing chat request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.chatHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.chatHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	// Stable session key: caller-supplied user or session ID, else generated.
	key := req.UserID
	if key == "" {
		key = req.SessionID
	}
	if key == "" {
		key = session.GenerateKey()
	}

	result, err := s.orch.Process(r.Context(), key, req.Query)
	if err != nil {
		slog.Error("Server.chatHandler: turn failed", "error", err, "session", key)
		writeErrorForFailure(w, err)
		return
	}

	slog.Info("Server.chatHandler: turn processed", "session", key, "source", result.Source, "intent", result.Intent)
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"session_id":       key,
		"reply":            result.Reply,
		"intent":           result.Intent,
		"predicted_intent": result.PredictedIntent,
		"confidence":       result.Confidence,
		"source":           result.Source,
	}))
}

// flowStartHandler starts a flow directly, bypassing the consent gate.
func (s *Server) flowStartHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.FlowStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.flowStartHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	key := req.SessionID
	if key == "" {
		key = session.GenerateKey()
	}

	step, err := s.orch.StartFlow(key, req.Intent)
	if err != nil {
		slog.Warn("Server.flowStartHandler: start failed", "error", err, "intent", req.Intent)
		writeErrorForFailure(w, err)
		return
	}

	slog.Info("Server.flowStartHandler: flow started", "intent", req.Intent, "session", key)
	writeJSONResponse(w, http.StatusOK, models.Success(step))
}

// flowRespondHandler handles a user's answer inside an active flow.
func (s *Server) flowRespondHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.FlowRespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.flowRespondHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	step, err := s.orch.RespondFlow(r.Context(), req.SessionID, req.Response)
	if err != nil {
		slog.Warn("Server.flowRespondHandler: respond failed", "error", err, "session", req.SessionID)
		writeErrorForFailure(w, err)
		return
	}

	if step.ValidationError != "" {
		// Invalid input is an expected outcome: repeat the question.
		writeJSONResponse(w, http.StatusBadRequest, models.NewAPIResponseBuilder().
			WithStatus(models.APIStatusError).
			WithMessage(step.ValidationError).
			WithResult(step).
			Build())
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(step))
}

// flowCancelHandler cancels flow progress for the session in the path.
func (s *Server) flowCancelHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/api/flow/cancel/")
	if key == "" || strings.Contains(key, "/") {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing session ID"))
		return
	}

	s.orch.CancelFlow(key)
	slog.Info("Server.flowCancelHandler: flow cancelled", "session", key)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Flow session cancelled successfully", nil))
}

// flowSessionHandler returns the session snapshot for the key in the path.
func (s *Server) flowSessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/api/flow/session/")
	if key == "" || strings.Contains(key, "/") {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing session ID"))
		return
	}

	snapshot, err := s.orch.SessionData(key)
	if err != nil {
		writeErrorForFailure(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(snapshot))
}

func (s *Server) flowsAvailableHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flows := s.orch.Flows()
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"flows": flows,
		"count": len(flows),
	}))
}

func (s *Server) intentsWithFlowsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	intents := s.orch.IntentsWithFlows()
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"intents": intents,
		"count":   len(intents),
	}))
}
