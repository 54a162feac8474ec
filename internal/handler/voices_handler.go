package handler

import (
	"context"
	"net/http"

	"adstudio-backend/internal/models"

	"github.com/sirupsen/logrus"
)

type VoiceLister interface {
	ListSharedVoices(ctx context.Context) ([]models.SharedVoice, error)
}

type VoicesHandler struct {
	Voices VoiceLister
	Log    logrus.FieldLogger
}

func (h *VoicesHandler) ListVoices(w http.ResponseWriter, r *http.Request) {

	voices, err := h.Voices.ListSharedVoices(r.Context())
	if err != nil {
		h.Log.WithError(err).Error("list shared voices")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if voices == nil {
		voices = []models.SharedVoice{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"voices": voices})
}
