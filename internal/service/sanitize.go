package service

import (
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/academic-help-api/pkg/errors"
)

// sanitizeText trims s and strips angle brackets.
func sanitizeText(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return -1
		}
		return r
	}, s))
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitizeText(*s)
	return &clean
}

// validationError converts validator output into a VALIDATION_ERROR whose
// details name each failing field and rule, e.g. "description:min".
func validationError(err error, message string) error {
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			appErr.Details = append(appErr.Details, lowerFirst(fe.Field())+":"+fe.Tag())
		}
	}
	return appErr
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
