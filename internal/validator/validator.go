// Package validator pre-validates request payloads before they are sent to
// the API, mirroring the server's binding rules so obviously bad requests
// never leave the process.
package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator wraps a validate instance with English translations.
type Validator struct {
	validate *govalidator.Validate
	trans    ut.Translator
}

// New builds a validator that reports field names by their JSON tag.
func New() *Validator {
	v := govalidator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	return &Validator{validate: v, trans: trans}
}

// Struct validates dst and returns a field → message map, or nil when valid.
func (v *Validator) Struct(dst any) map[string]string {
	err := v.validate.Struct(dst)
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	if ve, ok := err.(govalidator.ValidationErrors); ok {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(v.trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}
