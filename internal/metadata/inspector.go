package metadata

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/status"
)

var (
	idType       = reflect.TypeOf(id.ID{})
	timeType     = reflect.TypeOf(time.Time{})
	decimalType  = reflect.TypeOf(decimal.Decimal{})
	quantityType = reflect.TypeOf(types.Quantity(0))
	statusType   = reflect.TypeOf(status.Status(""))
)

// referenceTypes names the entity an id field points at when the field name
// alone does not.
var referenceTypes = map[string]string{
	"ItemID":         "product",
	"LocationID":     "location",
	"FromLocationID": "location",
	"ToLocationID":   "location",
}

// readOnlyFields are computed or system-maintained; clients may send them
// but they are ignored on save.
var readOnlyFields = map[string]bool{
	"ID":                true,
	"CreatedAt":         true,
	"UpdatedAt":         true,
	"CreatedBy":         true,
	"UpdatedBy":         true,
	"Status":            true,
	"DeletionMark":      true,
	"TotalNet":          true,
	"TotalTax":          true,
	"TotalGross":        true,
	"LineID":            true,
	"LineNo":            true,
	"Net":               true,
	"Tax":               true,
	"Gross":             true,
	"QuantityReceived":  true,
	"QuantityBilled":    true,
	"QuantityCredited":  true,
	"CostAtFulfillment": true,
	"COGS":              true,
	"AverageCost":       true,
}

// Inspect analyzes a struct and returns its EntityDef.
func Inspect(entity any, name string, entityType EntityType) EntityDef {
	t := reflect.TypeOf(entity)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if name == "" {
		name = t.Name()
	}

	def := EntityDef{
		Name:       name,
		Label:      guessLabel(name),
		Type:       entityType,
		Fields:     make([]FieldDef, 0),
		TableParts: make([]TablePartDef, 0),
	}

	inspectStruct(t, &def)

	return def
}

// SetEnum turns the named field into an enum with the given options.
func (d *EntityDef) SetEnum(name string, options ...string) {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			d.Fields[i].Type = TypeEnum
			d.Fields[i].Options = options
			return
		}
	}
}

func inspectStruct(t reflect.Type, def *EntityDef) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			inspectStruct(field.Type, def)
			continue
		}

		if field.Type.Kind() == reflect.Slice && field.Type.Elem().Kind() == reflect.Struct {
			def.TableParts = append(def.TableParts, TablePartDef{
				Name:    jsonName(field),
				Label:   guessLabel(field.Name),
				Columns: inspectColumns(field.Type.Elem(), nil),
			})
			continue
		}

		if fDef, ok := fieldDef(field); ok {
			def.Fields = append(def.Fields, fDef)
		}
	}
}

func inspectColumns(t reflect.Type, cols []FieldDef) []FieldDef {
	if cols == nil {
		cols = make([]FieldDef, 0)
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			cols = inspectColumns(field.Type, cols)
			continue
		}
		if fDef, ok := fieldDef(field); ok {
			cols = append(cols, fDef)
		}
	}
	return cols
}

func fieldDef(field reflect.StructField) (FieldDef, bool) {
	name := jsonName(field)
	// tempId only correlates request lines with validation errors
	if name == "-" || field.Name == "TempID" {
		return FieldDef{}, false
	}
	fDef := FieldDef{
		Name:     name,
		Label:    guessLabel(field.Name),
		Required: isRequired(field),
		ReadOnly: readOnlyFields[field.Name],
	}
	mapFieldType(&fDef, field)
	return fDef, true
}

func mapFieldType(def *FieldDef, field reflect.StructField) {
	t := field.Type
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t {
	case idType:
		def.Type = TypeReference
		def.ReferenceType = referenceType(field.Name)
		return
	case timeType:
		def.Type = TypeDate
		return
	case quantityType:
		def.Type = TypeNumber
		def.Scale = types.QuantityDecimals
		return
	case decimalType:
		if strings.Contains(field.Name, "Rate") || strings.Contains(field.Name, "Cost") {
			def.Type = TypeNumber
			def.Scale = 4
		} else {
			def.Type = TypeMoney
			def.Scale = 2
		}
		return
	case statusType:
		def.Type = TypeEnum
		for _, s := range status.All() {
			def.Options = append(def.Options, string(s))
		}
		return
	}

	switch t.Kind() {
	case reflect.String:
		def.Type = TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		def.Type = TypeInteger
	case reflect.Float32, reflect.Float64:
		def.Type = TypeNumber
		def.Scale = 2
	case reflect.Bool:
		def.Type = TypeBoolean
	case reflect.Map, reflect.Struct:
		def.Type = TypeObject
	default:
		def.Type = TypeString
	}
}

// referenceType maps "PurchaseOrderLineID" to "purchaseOrderLine".
func referenceType(fieldName string) string {
	if ref, ok := referenceTypes[fieldName]; ok {
		return ref
	}
	base := strings.TrimSuffix(fieldName, "ID")
	if base == "" {
		return ""
	}
	runes := []rune(base)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func jsonName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" {
			return name
		}
	}
	runes := []rune(field.Name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func isRequired(field reflect.StructField) bool {
	tag, ok := field.Tag.Lookup("binding")
	if !ok {
		return false
	}
	for _, rule := range strings.Split(tag, ",") {
		if rule == "required" {
			return true
		}
	}
	return false
}

// guessLabel splits a Go identifier into words: "PurchaseOrderLineID"
// becomes "Purchase Order Line ID".
func guessLabel(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte(' ')
			}
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
