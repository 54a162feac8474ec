package models

// StageEventStatus is the status an external worker reports for a stage job.
type StageEventStatus string

const (
	EventProcessing StageEventStatus = "processing"
	EventCompleted  StageEventStatus = "completed"
	EventFailed     StageEventStatus = "failed"
)

// StageEvent is the body posted to the pipeline status webhook. Consumed once, never stored.
type StageEvent struct {
	PipelineID      string           `json:"pipeline_id" validate:"required"`
	Stage           Stage            `json:"stage" validate:"required"`
	Status          StageEventStatus `json:"status" validate:"required"`
	OutputURL       string           `json:"output_url,omitempty"`
	ScriptText      string           `json:"script_text,omitempty"`
	DurationSeconds *float64         `json:"duration_seconds,omitempty"`
	ErrorMessage    string           `json:"error_message,omitempty"`
	UserID          string           `json:"user_id,omitempty"`
	CreditsCost     *float64         `json:"credits_cost,omitempty"`
}

// SharedVoice is a voice entry from the ElevenLabs shared voice library.
type SharedVoice struct {
	VoiceID       string  `json:"voice_id"`
	Name          string  `json:"name"`
	PublicOwnerID string  `json:"public_owner_id,omitempty"`
	Category      string  `json:"category,omitempty"`
	Gender        string  `json:"gender,omitempty"`
	Age           string  `json:"age,omitempty"`
	Accent        string  `json:"accent,omitempty"`
	Language      string  `json:"language,omitempty"`
	Descriptive   string  `json:"descriptive,omitempty"`
	UseCase       string  `json:"use_case,omitempty"`
	Description   string  `json:"description,omitempty"`
	PreviewURL    string  `json:"preview_url,omitempty"`
	UsageCount    int64   `json:"usage_character_count_1y,omitempty"`
	ClonedByCount int64   `json:"cloned_by_count,omitempty"`
	Rate          float64 `json:"rate,omitempty"`
}
