package metadata

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

const decimalPattern = `^-?[0-9]+(\.[0-9]+)?$`

func newReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		// request bodies overlay stored values, nothing is required by shape
		RequiredFromJSONSchemaTags: true,
		Mapper:                     mapSchemaType,
	}
}

// mapSchemaType describes the wire form of the value types whose Go shape
// differs from their JSON encoding.
func mapSchemaType(t reflect.Type) *jsonschema.Schema {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t {
	case idType:
		return &jsonschema.Schema{Type: "string", Format: "uuid"}
	case quantityType:
		return &jsonschema.Schema{
			Description: "quantity with up to 4 decimals",
			OneOf: []*jsonschema.Schema{
				{Type: "number"},
				{Type: "string", Pattern: decimalPattern},
			},
		}
	case decimalType:
		return &jsonschema.Schema{
			Description: "decimal amount",
			OneOf: []*jsonschema.Schema{
				{Type: "string", Pattern: decimalPattern},
				{Type: "number"},
			},
		}
	}
	return nil
}
