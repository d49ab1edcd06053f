// Package api provides HTTP response utilities for IntentPipe.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/IntentPipe/internal/models"
)

// Pre-marshaled fallback response to avoid runtime JSON encoding failures
var fallbackErrorResponse []byte

// init validates that our fallback response can be marshaled
func init() {
	var err error
	fallbackErrorResponse, err = json.Marshal(models.Error("Internal server error"))
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal fallback error response at startup: %v", err))
	}
}

// writeJSONResponse writes a JSON response to the http.ResponseWriter with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	// Marshal the response to JSON first to catch encoding errors before writing headers
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to marshal JSON response", "error", err)
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server.writeJSONResponse: failed to write JSON response", "error", writeErr)
	}
}

// writeErrorForFailure maps the error taxonomy onto HTTP status codes:
// configuration errors are bad requests, lookup misses are 404s, and
// collaborator failures surface as bad gateways. Stack traces never leave
// the process.
func writeErrorForFailure(w http.ResponseWriter, err error) {
	switch {
	case models.IsConfigError(err):
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
	case models.IsNotFound(err):
		writeJSONResponse(w, http.StatusNotFound, models.Error(err.Error()))
	default:
		writeJSONResponse(w, http.StatusBadGateway, models.Error(err.Error()))
	}
}
