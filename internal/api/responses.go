package api

import (
	"encoding/json"
	"net/http"

	"todo/internal/logging"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.FromContext(r.Context(), nil).WithError(err).Error("failed to encode JSON response")
	}
}

// RespondWithError writes a JSON error response with the given status code and message.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithJSON(w, r, status, ErrorResponse{Error: message})
}

// RespondWithErrorAndLog maps err to a status code, logs it and writes a
// sanitized error response. 5xx errors are logged at error level, the rest
// at debug level.
func RespondWithErrorAndLog(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	respondWithStatusAndLog(w, r, status, err)
}

func respondWithStatusAndLog(w http.ResponseWriter, r *http.Request, status int, err error) {
	log := logging.FromContext(r.Context(), nil).WithError(err).WithField("status_code", status)
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Debug("request rejected")
	}
	RespondWithError(w, r, status, GetSafeErrorMessage(err))
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
