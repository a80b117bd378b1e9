package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rpupo63/portfolio-backend/errs"
)

// Alerter receives unexpected server errors.
type Alerter interface {
	Alert(subject, body string)
}

type Responder struct {
	logger  zerolog.Logger
	alerter Alerter
}

func NewResponder(logger zerolog.Logger, alerter Alerter) Responder {
	return Responder{logger: logger, alerter: alerter}
}

const maxResponseSize = 10 * 1024 * 1024 // 10MB

func (r Responder) WriteJSON(w http.ResponseWriter, data any) {
	r.WriteJSONStatus(w, http.StatusOK, data)
}

// WriteJSONStatus writes data with the given status code.
func (r Responder) WriteJSONStatus(w http.ResponseWriter, status int, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if len(jsonData) > maxResponseSize {
		r.logger.Error().
			Int("responseSize", len(jsonData)).
			Int("maxSize", maxResponseSize).
			Msg("response too large")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Response too large","status":"error"}`))
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	// The client went away; nobody is left to read a response.
	if errors.Is(err, context.Canceled) {
		r.logger.Debug().Err(err).Msg("request canceled")
		return
	}

	var apiErr *errs.ApiErr
	if !errors.As(err, &apiErr) {
		r.logger.Error().Err(err).Msg("unexpected error")
		if r.alerter != nil {
			r.alerter.Alert("Unexpected server error", err.Error())
		}
		r.WriteJSONStatus(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal Server Error",
			Status:  "error",
			Message: "Something went wrong",
		})
		return
	}

	response := ErrorResponse{
		Error:   apiErr.Message(),
		Status:  "error",
		Field:   apiErr.Field,
		Details: apiErr.Details,
		Fields:  apiErr.Fields,
	}

	if apiErr.StatusCode >= http.StatusInternalServerError {
		r.logger.Error().Str("error", apiErr.GetFullError()).Int("status", apiErr.StatusCode).Msg("server error")
		if apiErr.StatusCode == http.StatusInternalServerError && r.alerter != nil {
			r.alerter.Alert("Server error", apiErr.GetFullError())
		}
	} else if apiErr.Cause != nil {
		r.logger.Warn().Str("error", apiErr.GetFullError()).Int("status", apiErr.StatusCode).Msg("request failed")
	}

	r.WriteJSONStatus(w, apiErr.StatusCode, response)
}

// wrapDatabaseError wraps a database error with context information. A nil cause stays nil.
func wrapDatabaseError(operation, entity string, cause error) error {
	if cause == nil {
		return nil
	}
	var apiErr *errs.ApiErr
	if errors.As(cause, &apiErr) || errors.Is(cause, context.Canceled) {
		return cause
	}
	return errs.NewDatabaseError(operation, entity, cause)
}
