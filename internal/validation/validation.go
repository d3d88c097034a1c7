// Package validation checks request payloads before they reach the services.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"squadup/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so messages match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("gamerole", func(fl validator.FieldLevel) bool {
		for _, r := range models.ValidGameRoles {
			if string(r) == fl.Field().String() {
				return true
			}
		}
		return false
	})
	_ = v.RegisterValidation("platformrole", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("teamname", func(fl validator.FieldLevel) bool {
		return ValidateTeamName(fl.Field().String()) == nil
	})

	return v
}

// Struct validates s against its `validate` tags and returns an
// INVALID_ARGUMENT AppError describing every failed field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewValidationError(err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return models.NewValidationError(strings.Join(msgs, ", "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", field, param)
		}
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", field, param)
		}
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, strings.ToLower(param))
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, param)
	case "gamerole":
		return fmt.Sprintf("%s contains an unknown game role %q", field, fe.Value())
	case "platformrole":
		return fmt.Sprintf("%s is not a platform role", field)
	case "teamname":
		return field + " may only contain letters, numbers, spaces, dots, dashes and underscores"
	case "url":
		return field + " must be a valid URL"
	default:
		return field + " is invalid"
	}
}

var teamNameRegex = regexp.MustCompile(`^[\p{L}\p{N} ._-]{3,40}$`)

// ValidateTeamName checks length and character set of a team name.
func ValidateTeamName(name string) error {
	if !teamNameRegex.MatchString(name) {
		return fmt.Errorf("team name must be 3-40 characters of letters, numbers, spaces, dots, dashes or underscores")
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("team name cannot start or end with a space")
	}
	return nil
}

// ValidateID rejects the zero id, which no stored record uses.
func ValidateID(name string, id uint) error {
	if id == 0 {
		return models.NewValidationError(name + " is required")
	}
	return nil
}
