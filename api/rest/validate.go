package rest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/unrealsaint/lucera2missionparser/reward"
)

// RewardValidator checks editor payloads before they reach the catalog.
type RewardValidator struct {
	v *validator.Validate
}

// NewRewardValidator registers the reward-specific rules.
func NewRewardValidator() *RewardValidator {
	v := validator.New()
	_ = v.RegisterValidation("single_line", validateSingleLine)
	_ = v.RegisterValidation("requirement_type", validateRequirementType)
	return &RewardValidator{v: v}
}

// Validate runs struct validation and flattens failures into one message.
func (rv *RewardValidator) Validate(i interface{}) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "single_line":
		return field + " must not contain tabs or line breaks"
	case "requirement_type":
		return field + " must be a plain identifier"
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// validateSingleLine rejects characters that would split a flat-text field.
func validateSingleLine(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), "\t\r\n")
}

func validateRequirementType(fl validator.FieldLevel) bool {
	return reward.ValidRequirementType(fl.Field().String())
}
