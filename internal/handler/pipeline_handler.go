package handler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"adstudio-backend/internal/idempotency"
	"adstudio-backend/internal/models"
	"adstudio-backend/internal/service"
	"adstudio-backend/internal/validation"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	WebhookSecretHeader  = "X-Webhook-Secret"
	IdempotencyKeyHeader = "Idempotency-Key"
	UserIDHeader         = "X-User-ID"

	maxWebhookBody = 1 << 20
)

type PipelineHandler struct {
	Service *service.PipelineService
	Secret  string
	// Guard is optional; without it every delivery is applied.
	Guard idempotency.Guard
	Log   logrus.FieldLogger
}

// UpdatePipelineStatus is called by the generation workers when a stage job
// starts, finishes or fails.
func (h *PipelineHandler) UpdatePipelineStatus(w http.ResponseWriter, r *http.Request) {

	if !h.authorized(r) {
		h.Log.WithField("remote", r.RemoteAddr).Warn("pipeline webhook: unauthorized")
		webhookError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var ev models.StageEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&ev); err != nil {
		webhookError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := validation.ValidateStageEvent(&ev); err != nil {
		webhookError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if key != "" && h.Guard != nil {
		first, err := h.Guard.Claim(r.Context(), key)
		if err != nil {
			// Redis being down must not block stage updates.
			h.Log.WithError(err).Warn("idempotency check failed, applying event")
			key = ""
		} else if !first {
			h.Log.WithFields(logrus.Fields{"pipeline_id": ev.PipelineID, "key": key}).Info("duplicate delivery ignored")
			writeJSON(w, http.StatusOK, webhookResponse{Success: true})
			return
		}
	}

	err := h.Service.ApplyStageEvent(r.Context(), &ev)
	if errors.Is(err, service.ErrPipelineNotFound) {
		// Nothing to write is not a write failure; the worker must not retry.
		h.Log.WithFields(logrus.Fields{"pipeline_id": ev.PipelineID, "stage": ev.Stage}).Warn("status update for unknown pipeline")
		err = nil
	}
	if err != nil {
		if key != "" && h.Guard != nil {
			if rerr := h.Guard.Release(r.Context(), key); rerr != nil {
				h.Log.WithError(rerr).Warn("release idempotency key")
			}
		}
		webhookError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{Success: true})
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, validation.ErrMissingFields):
		return "Missing required fields: pipeline_id, stage, status"
	case errors.Is(err, validation.ErrInvalidStatus):
		return "Invalid status: must be one of processing, completed, failed"
	case errors.Is(err, validation.ErrInvalidPipelineID):
		return "Invalid pipeline_id: must be a UUID"
	}
	return "Invalid request"
}

func (h *PipelineHandler) authorized(r *http.Request) bool {
	got := r.Header.Get(WebhookSecretHeader)
	if h.Secret == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) == 1
}

// GetPipeline returns a pipeline to its owner. X-User-ID is injected by the API gateway.
func (h *PipelineHandler) GetPipeline(w http.ResponseWriter, r *http.Request) {

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pipeline id"})
		return
	}

	userID, err := uuid.Parse(r.Header.Get(UserIDHeader))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user"})
		return
	}

	p, err := h.Service.GetPipeline(r.Context(), id, userID)
	switch {
	case errors.Is(err, service.ErrPipelineNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, service.ErrUnauthorized):
		// Do not reveal that the pipeline exists.
		writeJSON(w, http.StatusNotFound, map[string]string{"error": service.ErrPipelineNotFound.Error()})
		return
	case err != nil:
		h.Log.WithError(err).WithField("pipeline_id", id).Error("get pipeline")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, p)
}
