// Package models defines API request and response types for IntentPipe endpoints.
package models

import (
	"fmt"
	"strings"
)

// ChatRequest is the body for POST /api/chat.
type ChatRequest struct {
	Query     string `json:"query"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Validate checks the chat request for required fields.
func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}

// FlowStartRequest is the body for POST /api/flow/start (the explicit bypass
// path that starts a flow without the consent gate).
type FlowStartRequest struct {
	Intent    string `json:"intent"`
	SessionID string `json:"session_id,omitempty"`
}

// Validate checks the flow start request for required fields.
func (r *FlowStartRequest) Validate() error {
	if strings.TrimSpace(r.Intent) == "" {
		return fmt.Errorf("intent cannot be empty")
	}
	return nil
}

// FlowRespondRequest is the body for POST /api/flow/respond.
type FlowRespondRequest struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

// Validate checks the flow respond request for required fields.
func (r *FlowRespondRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return fmt.Errorf("session_id cannot be empty")
	}
	if strings.TrimSpace(r.Response) == "" {
		return fmt.Errorf("response cannot be empty")
	}
	return nil
}

// FlowStepResult describes the flow position after a start or respond call.
type FlowStepResult struct {
	Intent          string            `json:"intent"`
	SessionID       string            `json:"session_id"`
	CurrentStep     int               `json:"current_step"`
	TotalSteps      int               `json:"total_steps"`
	Question        string            `json:"question,omitempty"`
	Completed       bool              `json:"completed"`
	ValidationError string            `json:"error,omitempty"` // reprompt text when the answer failed validation
	Message         string            `json:"message,omitempty"`
	Slots           map[string]string `json:"collected_data,omitempty"` // populated on completion
}

// SessionSnapshot is a read-only view of session state for the inspect API.
type SessionSnapshot struct {
	SessionID               string            `json:"session_id"`
	Flow                    FlowState         `json:"flow"`
	LastCompletedFlowIntent string            `json:"last_completed_flow_intent,omitempty"`
	LastIntent              string            `json:"last_intent,omitempty"`
	Slots                   map[string]string `json:"collected_slots"`
	TotalSteps              int               `json:"total_steps"`
	HistoryLength           int               `json:"history_length"`
	CreatedAt               int64             `json:"created_at"`
	LastActive              int64             `json:"last_active"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}
