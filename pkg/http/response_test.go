package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "roomly/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWriteError_WrappedAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("check-capacity: %w", apperrors.CapacityExceeded("r1", 2, 2))

	WriteError(rec, err)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeCapacityExceeded, resp.Code)
	assert.Equal(t, "r1", resp.Details["room_id"])
}

func TestWriteError_PlainErrorIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteError(rec, errors.New("connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeInternal, resp.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestWriteError_DeadlineIsTimeout(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"bare", context.DeadlineExceeded},
		{"transaction", fmt.Errorf("transaction failed: %w", context.DeadlineExceeded)},
		{"internal app error", apperrors.Internal("Failed to lock room", context.DeadlineExceeded)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, apperrors.CodeTimeout, decodeError(t, rec).Code)
		})
	}
}

func TestActorID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ActorID(req)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	req.Header.Set(HeaderUserID, "  owner-1 ")
	id, err := ActorID(req)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", id)
}

func TestDecodeJSON(t *testing.T) {
	var body struct {
		Reason string `json:"reason"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.NoError(t, DecodeJSON(req, &body, true))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.Error(t, DecodeJSON(req, &body, false))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"moving","extra":1}`))
	err := DecodeJSON(req, &body, false)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
