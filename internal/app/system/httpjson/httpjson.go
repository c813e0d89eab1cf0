// Package httpjson writes JSON responses and maps store errors to status
// codes. Every error body has the shape {"error": "<message>"}.
package httpjson

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/divvyapp/divvy/internal/app/system/docschema"
	"github.com/divvyapp/divvy/internal/app/system/recurrence"
	"go.uber.org/zap"
)

// MaxBodyBytes caps request bodies accepted by Decode.
const MaxBodyBytes = 1 << 20

// ErrBadJSON is returned by Decode for bodies that are not a JSON object.
var ErrBadJSON = errors.New("request body must be a JSON object")

// internalBody is sent when a response value cannot be encoded.
var internalBody = []byte(`{"error":"Internal Server Error"}` + "\n")

// Write encodes v as the response body with the given status. A value
// that cannot be encoded is logged and answered with a 500 instead of an
// empty body.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	body, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("encode response failed", zap.Error(err), zap.Int("status", status))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(internalBody)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		zap.L().Debug("write response failed", zap.Error(err))
	}
}

// Error writes {"error": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, map[string]string{"error": msg})
}

// Decode reads a JSON object body into a generic map. Numbers decode as
// float64, matching what docschema expects.
func Decode(r *http.Request) (map[string]any, error) {
	var body map[string]any
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, ErrBadJSON
	}
	if body == nil {
		return nil, ErrBadJSON
	}
	return body, nil
}

// BodyID returns the "id" field of a decoded body, "" when absent or null.
// Any other non-string value is a field error.
func BodyID(body map[string]any) (string, error) {
	raw, ok := body["id"]
	if !ok || raw == nil {
		return "", nil
	}
	id, ok := raw.(string)
	if !ok {
		return "", &docschema.FieldError{Field: "id", Message: "must be a string"}
	}
	return id, nil
}

// DecodeInto reads a JSON body into a typed request struct.
func DecodeInto(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return ErrBadJSON
	}
	return nil
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, docstore.ErrInvalidID),
		errors.Is(err, ErrBadJSON),
		docschema.IsFieldError(err),
		errors.Is(err, recurrence.ErrRangeReversed),
		errors.Is(err, recurrence.ErrTooMany),
		errors.Is(err, recurrence.ErrInvalidDays):
		return http.StatusBadRequest
	case errors.Is(err, docstore.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// Fail logs err and writes the mapped error response. Server errors hide the
// underlying message from the client.
func Fail(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.Error(op+" failed", zap.Error(err), zap.Int("status", status))
		msg = http.StatusText(status)
	} else {
		log.Info(op+" rejected", zap.Error(err), zap.Int("status", status))
	}
	Error(w, status, msg)
}
