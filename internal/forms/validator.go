// Package forms validates request payloads with struct tags, shared by the
// console (tag "validate") and the development backend (tag "binding").
package forms

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/orvull/omnisia-admin-console/internal/apierr"
)

// Validator implements a validator with lazy initialization. Failures are
// reported as *apierr.ValidationError keyed by the JSON field names.
type Validator struct {
	tag      string
	once     sync.Once
	validate *validator.Validate
}

var _ binding.StructValidator = (*Validator)(nil)

// New returns a validator reading rules from the given struct tag.
func New(tag string) *Validator {
	return &Validator{tag: tag}
}

var client = New("validate")

// Validate checks obj against its "validate" tags.
func Validate(obj any) error {
	return client.ValidateStruct(obj)
}

func (v *Validator) ValidateStruct(obj any) error {
	if kindOfData(obj) != reflect.Struct {
		return nil
	}
	v.lazyinit()

	err := v.validate.Struct(obj)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := apierr.Fields{}
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], message(fe))
	}
	return &apierr.ValidationError{Fields: fields}
}

// Engine returns the underlying validator engine.
func (v *Validator) Engine() any {
	v.lazyinit()
	return v.validate
}

func (v *Validator) lazyinit() {
	v.once.Do(func() {
		v.validate = validator.New(validator.WithRequiredStructEnabled())
		if v.tag != "" {
			v.validate.SetTagName(v.tag)
		}
		v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		for tag, fn := range rules {
			// registration only fails on empty tags or nil funcs
			_ = v.validate.RegisterValidation(tag, fn)
		}
	})
}

// kindOfData returns the Kind of data, dereferencing pointers.
func kindOfData(data any) reflect.Kind {
	value := reflect.ValueOf(data)
	kind := value.Kind()
	if kind == reflect.Ptr {
		kind = value.Elem().Kind()
	}
	return kind
}
