package models

import (
	"time"

	"github.com/google/uuid"
)

// Stage is one of the four ordered steps of a content pipeline.
type Stage string

const (
	StageFirstFrame Stage = "first_frame"
	StageScript     Stage = "script"
	StageVoice      Stage = "voice"
	StageFinalVideo Stage = "final_video"
)

// Valid reports whether s is one of the known pipeline stages.
func (s Stage) Valid() bool {
	switch s {
	case StageFirstFrame, StageScript, StageVoice, StageFinalVideo:
		return true
	}
	return false
}

type PipelineStatus string

const (
	PipelineDraft      PipelineStatus = "draft"
	PipelineProcessing PipelineStatus = "processing"
	PipelineCompleted  PipelineStatus = "completed"
	PipelineFailed     PipelineStatus = "failed"
)

// MediaOutput is the result of a stage that produces a file (first frame, voice, final video).
type MediaOutput struct {
	URL             string    `json:"url"`
	GeneratedAt     time.Time `json:"generated_at"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
}

type ScriptOutput struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Pipeline is a single content-generation job: first frame → script → voice → final video.
// A stage output is only set once its *Complete flag is true.
type Pipeline struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`

	CurrentStage Stage          `json:"current_stage"`
	Status       PipelineStatus `json:"status"`

	FirstFrameComplete bool `json:"first_frame_complete"`
	ScriptComplete     bool `json:"script_complete"`
	VoiceComplete      bool `json:"voice_complete"`

	FirstFrameInput map[string]interface{} `json:"first_frame_input,omitempty"`
	ScriptInput     map[string]interface{} `json:"script_input,omitempty"`
	VoiceInput      map[string]interface{} `json:"voice_input,omitempty"`
	FinalVideoInput map[string]interface{} `json:"final_video_input,omitempty"`

	FirstFrameOutput *MediaOutput  `json:"first_frame_output"`
	ScriptOutput     *ScriptOutput `json:"script_output"`
	VoiceOutput      *MediaOutput  `json:"voice_output"`
	FinalVideoOutput *MediaOutput  `json:"final_video_output"`

	Tags         []string `json:"tags"`
	KanbanStatus string   `json:"kanban_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PipelineUpdate is a partial update of a pipeline row. Nil fields are left untouched.
type PipelineUpdate struct {
	Status *PipelineStatus

	FirstFrameOutput   *MediaOutput
	FirstFrameComplete *bool
	ScriptOutput       *ScriptOutput
	ScriptComplete     *bool
	VoiceOutput        *MediaOutput
	VoiceComplete      *bool
	FinalVideoOutput   *MediaOutput
}

// Empty reports whether the update would not change any column.
func (u PipelineUpdate) Empty() bool {
	return u.Status == nil &&
		u.FirstFrameOutput == nil && u.FirstFrameComplete == nil &&
		u.ScriptOutput == nil && u.ScriptComplete == nil &&
		u.VoiceOutput == nil && u.VoiceComplete == nil &&
		u.FinalVideoOutput == nil
}
