// Package handlers exposes the prediction services over JSON.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"estimator/internal/api/middleware"
	"estimator/pkg/errors"
	"estimator/pkg/logger"
)

// ErrorBody describes one failed request
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorEnvelope is the body of every non-2xx response
type ErrorEnvelope struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// StatusFor maps an error kind onto its HTTP status
func StatusFor(kind errors.Kind) int {
	switch kind {
	case errors.KindInvalidInput:
		return http.StatusBadRequest
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindRateLimited:
		return http.StatusTooManyRequests
	case errors.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Responder writes JSON bodies and error envelopes
type Responder struct {
	log     *logger.Logger
	maxBody int64
}

// NewResponder creates a responder. maxBody bounds decoded request bodies.
func NewResponder(log *logger.Logger, maxBody int64) *Responder {
	return &Responder{log: log, maxBody: maxBody}
}

// JSON writes v with status
func (rs *Responder) JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rs.log.Warnw("Failed to write response", "error", err)
	}
}

// Error writes the envelope for err. Invariant violations are logged with context and
// sent to the error tracker; their details are not echoed to the caller.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := errors.KindOf(err)
	requestID := middleware.RequestIDFrom(r.Context())

	body := ErrorBody{Kind: kind.String(), Message: err.Error(), Field: errors.FieldOf(err)}
	if kind.Internal() {
		rs.log.ErrorWithContext(r.Context(), err, map[string]string{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": requestID,
			"kind":       kind.String(),
		})
		body.Message = "the request could not be completed"
	}

	rs.JSON(w, StatusFor(kind), ErrorEnvelope{Error: body, RequestID: requestID})
}

// Decode reads exactly one JSON object into dst, rejecting unknown fields and oversized bodies
func (rs *Responder) Decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if rs.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rs.maxBody)
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.NewValidationError("body", "must contain a single JSON object", nil)
	}
	return nil
}

func decodeError(err error) error {
	var (
		tooLarge  *http.MaxBytesError
		syntax    *json.SyntaxError
		typeError *json.UnmarshalTypeError
		invalid   *errors.ValidationError
	)
	switch {
	case errors.As(err, &invalid):
		return err
	case errors.As(err, &tooLarge):
		return errors.NewValidationError("body", "request body too large", tooLarge.Limit)
	case errors.As(err, &syntax):
		return errors.NewValidationError("body", "malformed JSON", syntax.Offset)
	case errors.As(err, &typeError):
		return errors.NewValidationError(typeError.Field, "expected "+typeError.Type.String(), typeError.Value)
	case err == io.EOF:
		return errors.NewValidationError("body", "request body is empty", nil)
	}
	return errors.NewValidationError("body", err.Error(), nil)
}
