package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"emhana.org/internal/auth"
	"emhana.org/internal/otp"
)

// envelope is the uniform response shape: every result, success or failure,
// carries statusCode and message; successes may add data, failures add the
// status text under error. Validation failures put the field errors list in
// message.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    any    `json:"message"`
	Error      string `json:"error,omitempty"`
	Data       any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respond(w http.ResponseWriter, code int, message string, data any) {
	writeJSON(w, code, envelope{
		StatusCode: code,
		Message:    message,
		Data:       data,
	})
}

func respondError(w http.ResponseWriter, code int, message any) {
	writeJSON(w, code, envelope{
		StatusCode: code,
		Message:    message,
		Error:      http.StatusText(code),
	})
}

// respondDomainError maps the service error taxonomy onto the documented
// status codes. Anything outside the taxonomy is a system failure and stays
// distinguishable from business-rule rejections.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrAlreadyExists):
		respondError(w, http.StatusForbidden, "User already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusForbidden, "Invalid credentials")
	case errors.Is(err, auth.ErrAccountInactive):
		respondError(w, http.StatusForbidden, "User inactive")
	case errors.Is(err, auth.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, auth.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, auth.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, otp.ErrAttemptsExceeded):
		respondError(w, http.StatusNotAcceptable, "OTP attempts exceeded, contact client services")
	case errors.Is(err, otp.ErrInvalidOTP):
		respondError(w, http.StatusNotAcceptable, "Invalid OTP")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	respondError(w, http.StatusMethodNotAllowed, "method not allowed")
}
