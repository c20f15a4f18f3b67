package notes

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize trims title and content, canonicalizes the tag list, and then
// checks the result against the length limits.
func (in NoteInput) Normalize() (NoteInput, error) {
	out := NoteInput{
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
		Tags:    NormalizeTagNames(in.Tags),
	}
	if err := validate.Struct(out); err != nil {
		return NoteInput{}, toValidationError(err)
	}
	return out, nil
}

// Normalize returns the canonical tag name, or a validation error when it is
// empty or too long.
func (in TagInput) Normalize() (TagInput, error) {
	out := TagInput{Name: NormalizeTagName(in.Name)}
	if err := validate.Struct(out); err != nil {
		return TagInput{}, toValidationError(err)
	}
	return out, nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	field, _, _ := strings.Cut(fe.Field(), "[")
	switch fe.Tag() {
	case "required":
		return invalid(field, "cannot be empty or whitespace-only")
	case "max":
		return invalid(field, "cannot exceed %s characters", fe.Param())
	default:
		return invalid(field, "failed %q validation", fe.Tag())
	}
}
