// internal/service/pipeline_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adstudio-backend/internal/models"
	"adstudio-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Sentinel errors — callers use errors.Is() instead of string matching
var (
	ErrPipelineNotFound = storage.ErrPipelineNotFound
	ErrUnauthorized     = errors.New("unauthorized: pipeline belongs to another user")
)

type PipelineService struct {
	Store  storage.PipelineStore
	Ledger storage.CreditLedger
	Log    logrus.FieldLogger

	// Now stamps stage outputs; defaults to time.Now.
	Now func() time.Time
}

func NewPipelineService(store storage.PipelineStore, ledger storage.CreditLedger, log logrus.FieldLogger) *PipelineService {
	return &PipelineService{Store: store, Ledger: ledger, Log: log, Now: time.Now}
}

// ApplyStageEvent is the webhook state machine. The event must already be validated.
//
//	processing → status=processing
//	completed  → stage output + complete flag, status=draft
//	failed     → optional refund, status=draft, outputs untouched
//
// The refund and the pipeline write are independent: a refund can land even
// when the write fails, and a refund failure never fails the event.
func (s *PipelineService) ApplyStageEvent(ctx context.Context, ev *models.StageEvent) error {
	id, err := uuid.Parse(ev.PipelineID)
	if err != nil {
		return fmt.Errorf("parse pipeline id: %w", err)
	}

	log := s.Log.WithFields(logrus.Fields{
		"pipeline_id": ev.PipelineID,
		"stage":       ev.Stage,
		"status":      ev.Status,
	})

	var update models.PipelineUpdate
	switch ev.Status {
	case models.EventProcessing:
		update.Status = statusPtr(models.PipelineProcessing)
	case models.EventCompleted:
		update = s.completedUpdate(ev)
		if !ev.Stage.Valid() {
			log.Warn("completed event for unknown stage, only resetting status")
		}
	case models.EventFailed:
		s.refund(ctx, ev, log)
		update.Status = statusPtr(models.PipelineDraft)
	default:
		return fmt.Errorf("unsupported status %q", ev.Status)
	}

	if err := s.Store.UpdatePipeline(ctx, id, update); err != nil {
		log.WithError(err).Error("pipeline update failed")
		return err
	}

	log.Info("pipeline updated")
	return nil
}

func (s *PipelineService) completedUpdate(ev *models.StageEvent) models.PipelineUpdate {
	now := s.now()
	update := models.PipelineUpdate{Status: statusPtr(models.PipelineDraft)}
	done := true

	switch ev.Stage {
	case models.StageFirstFrame:
		update.FirstFrameOutput = &models.MediaOutput{URL: ev.OutputURL, GeneratedAt: now}
		update.FirstFrameComplete = &done
	case models.StageScript:
		update.ScriptOutput = &models.ScriptOutput{Text: ev.ScriptText, GeneratedAt: now}
		update.ScriptComplete = &done
	case models.StageVoice:
		update.VoiceOutput = &models.MediaOutput{URL: ev.OutputURL, GeneratedAt: now, DurationSeconds: ev.DurationSeconds}
		update.VoiceComplete = &done
	case models.StageFinalVideo:
		// final video is the last stage and has no completion flag
		update.FinalVideoOutput = &models.MediaOutput{URL: ev.OutputURL, GeneratedAt: now, DurationSeconds: ev.DurationSeconds}
	}

	return update
}

func (s *PipelineService) refund(ctx context.Context, ev *models.StageEvent, log logrus.FieldLogger) {
	if ev.UserID == "" || ev.CreditsCost == nil || *ev.CreditsCost <= 0 || s.Ledger == nil {
		return
	}

	log = log.WithFields(logrus.Fields{"user_id": ev.UserID, "credits": *ev.CreditsCost})

	userID, err := uuid.Parse(ev.UserID)
	if err != nil {
		log.WithError(err).Error("refund skipped: invalid user id")
		return
	}

	desc := RefundDescription(ev.Stage, ev.ErrorMessage)
	if err := s.Ledger.Refund(ctx, userID, *ev.CreditsCost, desc); err != nil {
		log.WithError(err).Error("credit refund failed")
		return
	}

	log.Info("credits refunded")
}

// RefundDescription is the ledger entry text for a failed stage.
func RefundDescription(stage models.Stage, errorMessage string) string {
	if errorMessage == "" {
		errorMessage = "unknown error"
	}
	return fmt.Sprintf("Refund for failed %s generation: %s", stage, errorMessage)
}

// GetPipeline fetches a pipeline and verifies ownership.
// Passing userID ensures one user cannot read another user's pipeline.
func (s *PipelineService) GetPipeline(ctx context.Context, id, userID uuid.UUID) (*models.Pipeline, error) {
	p, err := s.Store.GetPipeline(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.UserID != userID {
		return nil, ErrUnauthorized
	}

	return p, nil
}

func (s *PipelineService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func statusPtr(s models.PipelineStatus) *models.PipelineStatus { return &s }
