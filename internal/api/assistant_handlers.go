package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/carebridge/booking-platform/internal/assistant"
)

func submitAssistantJobHandler(reg assistant.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := reg.Get(assistant.Kind(chi.URLParam(r, "service")))
		if err != nil {
			handleAssistantError(w, err)
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not read payload")
			return
		}
		if !json.Valid(payload) {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "payload must be JSON")
			return
		}

		jobID, err := client.Submit(r.Context(), payload)
		if err != nil {
			handleAssistantError(w, err)
			return
		}

		writeJSON(w, http.StatusAccepted, AssistantSubmitResponse{JobID: jobID})
	}
}

func pollAssistantJobHandler(reg assistant.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := reg.Get(assistant.Kind(chi.URLParam(r, "service")))
		if err != nil {
			handleAssistantError(w, err)
			return
		}

		jobID := chi.URLParam(r, "jobID")
		result, ready, err := client.Poll(r.Context(), jobID)
		if err != nil {
			handleAssistantError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AssistantJobResponse{
			JobID:  jobID,
			Ready:  ready,
			Result: result,
		})
	}
}

func handleAssistantError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assistant.ErrNotConfigured):
		writeError(w, http.StatusNotFound, "assistant_not_configured", err.Error())
	case errors.Is(err, assistant.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "job_not_found", err.Error())
	case errors.Is(err, assistant.ErrServiceUnavailable):
		writeError(w, http.StatusBadGateway, "assistant_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
