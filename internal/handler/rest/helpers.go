package hrest

import (
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"ledger-service/pkg/xerrors"
)

// ===============================
// ERROR HANDLING
// ===============================

// httpStatusFor maps usecase errors to HTTP status codes. Consistency
// violations are logged loudly: they mean a partial write slipped through,
// which is a bug, not bad input.
func httpStatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	logger := log.WithFields(log.Fields{
		"error":      err.Error(),
		"error_type": fmt.Sprintf("%T", err),
	})

	switch {
	case xerrors.IsValidation(err):
		logger.Debug("validation failure")
		return http.StatusBadRequest

	case xerrors.IsNotFound(err):
		logger.Debug("entity not found")
		return http.StatusNotFound

	case xerrors.IsConflict(err):
		logger.Info("conflict, caller may retry")
		return http.StatusConflict

	case xerrors.IsConsistency(err):
		logger.Error("CONSISTENCY VIOLATION - operator attention required")
		return http.StatusInternalServerError

	default:
		logger.Error("unhandled usecase error")
		return http.StatusInternalServerError
	}
}

// Response helpers

func sendSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func sendError(w http.ResponseWriter, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusFor(err))

	response := map[string]interface{}{
		"success": false,
		"message": message,
	}
	if err != nil {
		response["error"] = err.Error()
	}
	json.NewEncoder(w).Encode(response)
}
