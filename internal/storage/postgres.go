// internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"adstudio-backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const queryTimeout = 5 * time.Second

type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (s *PostgresStore) GetPipeline(ctx context.Context, id uuid.UUID) (*models.Pipeline, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, user_id, current_stage, status,
		       first_frame_complete, script_complete, voice_complete,
		       first_frame_input, script_input, voice_input, final_video_input,
		       first_frame_output, script_output, voice_output, final_video_output,
		       tags, kanban_status, created_at, updated_at
		FROM pipelines
		WHERE id = $1
	`

	p := &models.Pipeline{}
	var (
		ffIn, scIn, voIn, fvIn     []byte
		ffOut, scOut, voOut, fvOut []byte
		kanban                     sql.NullString
	)

	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.UserID,
		&p.CurrentStage,
		&p.Status,
		&p.FirstFrameComplete,
		&p.ScriptComplete,
		&p.VoiceComplete,
		&ffIn, &scIn, &voIn, &fvIn,
		&ffOut, &scOut, &voOut, &fvOut,
		pq.Array(&p.Tags),
		&kanban,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPipelineNotFound
	}
	if err != nil {
		return nil, err
	}
	p.KanbanStatus = kanban.String

	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{ffIn, &p.FirstFrameInput},
		{scIn, &p.ScriptInput},
		{voIn, &p.VoiceInput},
		{fvIn, &p.FinalVideoInput},
		{ffOut, &p.FirstFrameOutput},
		{scOut, &p.ScriptOutput},
		{voOut, &p.VoiceOutput},
		{fvOut, &p.FinalVideoOutput},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decode pipeline %s: %w", id, err)
		}
	}

	return p, nil
}

// UpdatePipeline writes only the columns set on update and bumps updated_at.
func (s *PostgresStore) UpdatePipeline(ctx context.Context, id uuid.UUID, update models.PipelineUpdate) error {
	if update.Empty() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		sets []string
		args []any
	)
	add := func(col string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	addJSON := func(col string, val any) error {
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("encode %s: %w", col, err)
		}
		add(col, raw)
		return nil
	}

	if update.Status != nil {
		add("status", string(*update.Status))
	}
	if update.FirstFrameOutput != nil {
		if err := addJSON("first_frame_output", update.FirstFrameOutput); err != nil {
			return err
		}
	}
	if update.FirstFrameComplete != nil {
		add("first_frame_complete", *update.FirstFrameComplete)
	}
	if update.ScriptOutput != nil {
		if err := addJSON("script_output", update.ScriptOutput); err != nil {
			return err
		}
	}
	if update.ScriptComplete != nil {
		add("script_complete", *update.ScriptComplete)
	}
	if update.VoiceOutput != nil {
		if err := addJSON("voice_output", update.VoiceOutput); err != nil {
			return err
		}
	}
	if update.VoiceComplete != nil {
		add("voice_complete", *update.VoiceComplete)
	}
	if update.FinalVideoOutput != nil {
		if err := addJSON("final_video_output", update.FinalVideoOutput); err != nil {
			return err
		}
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE pipelines SET %s, updated_at = NOW() WHERE id = $%d",
		strings.Join(sets, ", "), len(args),
	)

	result, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update pipeline %s: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrPipelineNotFound
	}

	return nil
}

// Refund credits back through the refund_credits database function, which owns
// the ledger row and the balance update.
func (s *PostgresStore) Refund(ctx context.Context, userID uuid.UUID, amount float64, description string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.DB.ExecContext(ctx,
		`SELECT refund_credits($1, $2, $3)`, userID, amount, description)
	if err != nil {
		return fmt.Errorf("refund %v credits to %s: %w", amount, userID, err)
	}
	return nil
}
