// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"adstudio-backend/internal/models"

	"github.com/google/uuid"
)

var ErrPipelineNotFound = errors.New("pipeline not found")

// PipelineStore is the only persistence surface the webhook depends on.
// Postgres today; tests swap in an in-memory fake.
type PipelineStore interface {
	GetPipeline(ctx context.Context, id uuid.UUID) (*models.Pipeline, error)
	UpdatePipeline(ctx context.Context, id uuid.UUID, update models.PipelineUpdate) error
}

// CreditLedger is the external credit balance. Only refunds are issued from here.
type CreditLedger interface {
	Refund(ctx context.Context, userID uuid.UUID, amount float64, description string) error
}
