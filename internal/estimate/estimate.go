// Package estimate holds the duration estimates and credit pricing shown to
// creators before and while a generation job runs.
package estimate

import (
	"fmt"
	"math"
	"time"
)

type TaskType string

const (
	TaskCreateActor TaskType = "create_actor"
	TaskSpeech      TaskType = "speech"
	TaskLipSync     TaskType = "lip_sync"
	TaskFirstFrame  TaskType = "first_frame"
	TaskScript      TaskType = "script"
	TaskBRoll       TaskType = "b_roll"
)

// Params describes the input size of a task. Zero means "not provided".
type Params struct {
	CharacterCount       int
	AudioDurationSeconds float64
}

const (
	defaultSpeechSeconds  = 30
	minSpeechSeconds      = 10
	defaultLipSyncSeconds = 240
	minLipSyncSeconds     = 120
	unknownTaskSeconds    = 60
)

// Estimate returns the expected duration of a task in seconds.
func Estimate(taskType TaskType, params Params) int {
	switch taskType {
	case TaskCreateActor:
		return 360
	case TaskSpeech:
		if params.CharacterCount <= 0 {
			return defaultSpeechSeconds
		}
		// ~5s of processing per 20 characters
		secs := int(math.Ceil(float64(params.CharacterCount) / 20 * 5))
		return max(minSpeechSeconds, secs)
	case TaskLipSync:
		if params.AudioDurationSeconds <= 0 {
			return defaultLipSyncSeconds
		}
		// ~4 minutes per 8 seconds of audio
		secs := int(math.Ceil(params.AudioDurationSeconds / 8 * 240))
		return max(minLipSyncSeconds, secs)
	case TaskFirstFrame:
		return 30
	case TaskScript:
		return 20
	case TaskBRoll:
		return 120
	default:
		return unknownTaskSeconds
	}
}

// RemainingTimeLabel renders the countdown shown on an in-flight job card.
func RemainingTimeLabel(startedAt time.Time, estimatedSeconds int, now time.Time) string {
	elapsed := now.Sub(startedAt).Seconds()
	remaining := math.Max(0, float64(estimatedSeconds)-elapsed)

	switch {
	case remaining <= 0:
		return "Almost done..."
	case remaining < 60:
		return fmt.Sprintf("~%ds remaining", int(math.Ceil(remaining)))
	default:
		return fmt.Sprintf("~%dm remaining", int(math.Ceil(remaining/60)))
	}
}
