// Package metadata describes catalogs and documents for form builders:
// field configuration inspected from the domain structs and JSON Schemas
// reflected from the request bodies the API accepts.
package metadata

import (
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
)

// EntityType defines the category of the entity.
type EntityType string

const (
	TypeCatalog  EntityType = "catalog"
	TypeDocument EntityType = "document"
)

// FieldType defines the data type of a field.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeInteger   FieldType = "integer"
	TypeNumber    FieldType = "number"
	TypeBoolean   FieldType = "boolean"
	TypeDate      FieldType = "date"
	TypeReference FieldType = "reference"
	TypeEnum      FieldType = "enum"
	TypeMoney     FieldType = "money"
	TypeObject    FieldType = "object"
)

// EntityDef describes a business entity.
type EntityDef struct {
	Name       string         `json:"name"`
	Label      string         `json:"label,omitempty"`
	Type       EntityType     `json:"type"`
	Path       string         `json:"path,omitempty"`
	Fields     []FieldDef     `json:"fields"`
	TableParts []TablePartDef `json:"tableParts,omitempty"`
}

// TablePartDef describes a nested collection (lines).
type TablePartDef struct {
	Name    string     `json:"name"`
	Label   string     `json:"label,omitempty"`
	Columns []FieldDef `json:"columns"`
}

// FieldDef describes a field.
type FieldDef struct {
	Name          string    `json:"name"`
	Label         string    `json:"label,omitempty"`
	Type          FieldType `json:"type"`
	ReferenceType string    `json:"referenceType,omitempty"`
	Required      bool      `json:"required,omitempty"`
	ReadOnly      bool      `json:"readOnly,omitempty"`
	Scale         int       `json:"scale,omitempty"`
	Options       []string  `json:"options,omitempty"`
}

// Summary is the short form of an entity used by listings.
type Summary struct {
	Name  string     `json:"name"`
	Label string     `json:"label,omitempty"`
	Type  EntityType `json:"type"`
	Path  string     `json:"path,omitempty"`
}

type entry struct {
	def     EntityDef
	request any
	schema  *jsonschema.Schema
}

// Registry stores entity definitions and the request type of each entity.
// Schemas are reflected on first use.
type Registry struct {
	mu        sync.Mutex
	entities  map[string]*entry
	reflector *jsonschema.Reflector
}

func NewRegistry() *Registry {
	return &Registry{
		entities:  make(map[string]*entry),
		reflector: newReflector(),
	}
}

// Register adds def. request is a zero value of the body accepted by the
// create and update endpoints; nil means the entity has no schema.
func (r *Registry) Register(def EntityDef, request any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[def.Name] = &entry{def: def, request: request}
}

func (r *Registry) Get(name string) (EntityDef, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[name]
	if !ok {
		return EntityDef{}, false
	}
	return e.def, true
}

// List returns the summaries sorted by type then name.
func (r *Registry) List() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]Summary, 0, len(r.entities))
	for _, e := range r.entities {
		list = append(list, Summary{Name: e.def.Name, Label: e.def.Label, Type: e.def.Type, Path: e.def.Path})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Type != list[j].Type {
			return list[i].Type < list[j].Type
		}
		return list[i].Name < list[j].Name
	})
	return list
}

// Schema returns the JSON Schema of the request body for name.
func (r *Registry) Schema(name string) (*jsonschema.Schema, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[name]
	if !ok || e.request == nil {
		return nil, false
	}
	if e.schema == nil {
		e.schema = r.reflector.Reflect(e.request)
		e.schema.Title = e.def.Label
	}
	return e.schema, true
}
