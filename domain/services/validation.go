package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"cagnotte/domain"
	"cagnotte/domain/entities"

	"github.com/go-playground/validator/v10"
)

func newPotValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names so field errors match the request body
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "entryprice", func(fl validator.FieldLevel) bool {
		return entities.IsValidEntryPrice(fl.Field().Int())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

var validationMessages = map[string]string{
	"required":   "est obligatoire",
	"notblank":   "ne peut pas être vide",
	"max":        "est trop long",
	"oneof":      "doit valoir personal ou competition",
	"entryprice": "doit être un multiple de 100 entre 100 et 1000 FCFA",
}

// translateValidationError turns validator output into a ValidationError
// listing each offending field
func translateValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ErrValidation.WithError(err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := validationMessages[fe.Tag()]
		if !ok {
			msg = "est invalide"
		}
		fields[fe.Field()] = msg
	}
	return domain.NewValidationError(fields)
}
