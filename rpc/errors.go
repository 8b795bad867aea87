package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	nativecommon "ricks/native/common"
)

// statusFor maps the native error taxonomy onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch nativecommon.Class(err) {
	case nativecommon.ErrPreconditionViolation:
		return http.StatusConflict, "precondition"
	case nativecommon.ErrInsufficientValue:
		return http.StatusUnprocessableEntity, "insufficient_value"
	case nativecommon.ErrArithmeticViolation:
		return http.StatusInternalServerError, "arithmetic"
	case nativecommon.ErrTransferFailure:
		return http.StatusBadGateway, "transfer_failure"
	}
	var bad *badRequestError
	if errors.As(err, &bad) {
		return http.StatusBadRequest, "bad_request"
	}
	return http.StatusInternalServerError, ""
}

type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	if err == nil {
		return nil
	}
	return &badRequestError{err: err}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) int {
	status, class := statusFor(err)
	writeJSON(w, status, ErrorResult{Error: err.Error(), Class: class})
	return status
}

func writeStatus(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResult{Error: message})
}
