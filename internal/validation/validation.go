package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"adstudio-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrMissingFields     = errors.New("missing required fields: pipeline_id, stage, status")
	ErrInvalidStatus     = errors.New("invalid status - must be one of processing, completed, failed")
	ErrInvalidPipelineID = errors.New("invalid pipeline_id - must be a UUID")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json names in messages, not Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStageEvent checks a webhook body before any side effect happens.
func ValidateStageEvent(ev *models.StageEvent) error {

	if err := validate.Struct(ev); err != nil {
		return ErrMissingFields
	}

	switch ev.Status {
	case models.EventProcessing, models.EventCompleted, models.EventFailed:
	default:
		return ErrInvalidStatus
	}

	if _, err := uuid.Parse(ev.PipelineID); err != nil {
		return ErrInvalidPipelineID
	}

	return nil
}

// FieldError is the friendly form of a validator failure.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string { return e.Message }

// ValidateStruct validates tagged request structs and returns the first failing
// field (ordered by name so the message is deterministic).
func ValidateStruct(s any) error {

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	sort.Slice(verrs, func(i, j int) bool { return verrs[i].Field() < verrs[j].Field() })

	e := verrs[0]
	return FieldError{Field: e.Field(), Message: message(e)}
}

func message(e validator.FieldError) string {

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("The field '%s' is required.", e.Field())
	case "gte":
		return fmt.Sprintf("The field '%s' must be greater than or equal to %s.", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("The field '%s' must be one of %s.", e.Field(), e.Param())
	}

	return fmt.Sprintf("Field '%s' is invalid: %s", e.Field(), e.Tag())
}
