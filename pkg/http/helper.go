package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	apperrors "roomly/pkg/errors"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// HeaderUserID carries the caller identity resolved by the upstream gateway.
const HeaderUserID = "X-User-ID"

// ActorID returns the caller's user id or an Unauthorized error when the
// gateway did not set one.
func ActorID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return "", apperrors.Unauthorized("missing " + HeaderUserID + " header")
	}
	return id, nil
}

// PathID returns the :id route parameter.
func PathID(ps httprouter.Params) (string, error) {
	id := strings.TrimSpace(ps.ByName("id"))
	if id == "" {
		return "", apperrors.InvalidInput("id is required")
	}
	return id, nil
}

// DecodeJSON decodes the request body into dst. An empty body is allowed when
// optional is true.
func DecodeJSON(r *http.Request, dst any, optional bool) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.New(apperrors.CodeInvalidInput, "request body too large", http.StatusRequestEntityTooLarge)
		}
		return apperrors.InvalidInput("invalid JSON body: " + err.Error())
	}
	return nil
}
