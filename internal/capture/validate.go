package capture

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/go-playground/validator.v9"
)

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("nopath", noPathSeparator)
	return v
}

// The prefix becomes part of a file name inside the output directory.
func noPathSeparator(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), `/\`)
}

func validateRequest(v *validator.Validate, req Request) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			problems = append(problems, fe.Field()+" is empty")
		case "nopath":
			problems = append(problems, fe.Field()+" must not contain a path separator")
		default:
			problems = append(problems, fe.Field()+" failed "+fe.Tag())
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, ", "))
}
