package handlers

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"stockbook/internal/core/types"
)

// embeddedSegment names embedded structs in validator namespaces so
// FieldErrors can drop them.
const embeddedSegment = "~"

// MaxQuantity bounds any quantity a client may send.
var MaxQuantity = types.NewQuantity(1_000_000_000)

// RegisterValidators adds the custom binding tags to gin's validator and
// makes field errors use JSON names. Call once before serving.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if f.Anonymous {
			return embeddedSegment
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v.RegisterValidation("qty", validateQuantity)
}

// validateQuantity accepts quantities within ±MaxQuantity.
func validateQuantity(fl validator.FieldLevel) bool {
	q, ok := fl.Field().Interface().(types.Quantity)
	if !ok {
		return false
	}
	return q.Abs() <= MaxQuantity
}

var tagMessages = map[string]string{
	"required": "is required",
	"qty":      "is out of range",
	"email":    "invalid email format",
	"oneof":    "has an unsupported value",
}

// FieldErrors maps validator failures to JSON paths, like
// "lines[0].quantity": ["is out of range"].
func FieldErrors(verrs validator.ValidationErrors) map[string][]string {
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		segments := strings.Split(fe.Namespace(), ".")
		kept := segments[:0]
		for _, seg := range segments[1:] {
			if seg != embeddedSegment {
				kept = append(kept, seg)
			}
		}
		path := strings.Join(kept, ".")
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = "failed " + fe.Tag()
			if fe.Param() != "" {
				msg += "=" + fe.Param()
			}
		}
		out[path] = append(out[path], msg)
	}
	return out
}
