package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	apperrors "roomly/pkg/errors"
)

type ErrorResponse struct {
	Code    string         `json:"code"`
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data any `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// TimeoutError is the response for a request that ran out of time before its
// action finished.
func TimeoutError() *apperrors.AppError {
	return apperrors.New(apperrors.CodeTimeout, "Request timed out before the booking action finished", http.StatusServiceUnavailable)
}

// WriteError renders any error. An expired deadline anywhere in the chain is a
// 503 TIMEOUT. Other AppErrors keep their code and status; everything else
// becomes a 500 without leaking the cause.
func WriteError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		err = TimeoutError()
	}
	if !apperrors.IsAppError(err) {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:  apperrors.CodeInternal,
			Error: "Internal server error",
		})
		return
	}

	appErr := apperrors.AsAppError(err)
	resp := ErrorResponse{
		Code:    appErr.Code,
		Error:   appErr.Message,
		Details: appErr.Details,
	}
	if appErr.StatusCode() >= http.StatusInternalServerError {
		resp.Details = nil
	}
	WriteJSON(w, appErr.StatusCode(), resp)
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
