package estimate

import (
	"math"

	"adstudio-backend/internal/models"
)

// Fixed credit costs. Generate, edit and regenerate are all charged the same.
const (
	FirstFrameCost = 0.25
	ScriptCost     = 0.25

	voiceCostPer1000Chars = 0.25
	videoCostPerSecond    = 0.2
)

// VoiceCost charges per started block of 1000 characters.
func VoiceCost(charCount int) float64 {
	if charCount <= 0 {
		return 0
	}
	return math.Ceil(float64(charCount)/1000) * voiceCostPer1000Chars
}

// VideoCost charges per second of driving audio.
func VideoCost(audioDurationSeconds float64) float64 {
	if audioDurationSeconds <= 0 {
		return 0
	}
	return audioDurationSeconds * videoCostPerSecond
}

// StageCost is the credit cost of running one pipeline stage job.
func StageCost(stage models.Stage, params Params) float64 {
	switch stage {
	case models.StageFirstFrame:
		return FirstFrameCost
	case models.StageScript:
		return ScriptCost
	case models.StageVoice:
		return VoiceCost(params.CharacterCount)
	case models.StageFinalVideo:
		return VideoCost(params.AudioDurationSeconds)
	}
	return 0
}

// StageTask maps a pipeline stage to the task whose duration estimates it.
func StageTask(stage models.Stage) TaskType {
	switch stage {
	case models.StageFirstFrame:
		return TaskFirstFrame
	case models.StageScript:
		return TaskScript
	case models.StageVoice:
		return TaskSpeech
	case models.StageFinalVideo:
		return TaskLipSync
	}
	return TaskType(stage)
}
