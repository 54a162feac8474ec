package handler

import (
	"encoding/json"
	"net/http"

	"adstudio-backend/internal/estimate"
	"adstudio-backend/internal/models"
	"adstudio-backend/internal/validation"
)

type estimateRequest struct {
	TaskType             string  `json:"task_type" validate:"required"`
	Stage                string  `json:"stage,omitempty" validate:"omitempty,oneof=first_frame script voice final_video"`
	CharacterCount       int     `json:"character_count" validate:"gte=0"`
	AudioDurationSeconds float64 `json:"audio_duration_seconds" validate:"gte=0"`
}

type estimateResponse struct {
	EstimatedSeconds int     `json:"estimated_seconds"`
	Credits          float64 `json:"credits"`
}

// Estimate quotes duration and, when a stage is given, the credit cost of a job.
func Estimate(w http.ResponseWriter, r *http.Request) {

	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	params := estimate.Params{
		CharacterCount:       req.CharacterCount,
		AudioDurationSeconds: req.AudioDurationSeconds,
	}

	resp := estimateResponse{
		EstimatedSeconds: estimate.Estimate(estimate.TaskType(req.TaskType), params),
	}
	if req.Stage != "" {
		resp.Credits = estimate.StageCost(models.Stage(req.Stage), params)
	}

	writeJSON(w, http.StatusOK, resp)
}
