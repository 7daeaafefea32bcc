// Package typemap is the single source of truth for type conversion between
// the language-level field types, the fixed SQL dialect, and OpenAPI
// type/format pairs. Both the DDL generator (forward) and the OpenAPI
// importer (reverse) must consult this table so the two directions never
// drift apart.
package typemap

import (
	"fmt"

	"github.com/erdlab/erdgen/internal/model"
)

// -----------------------------------------------------------------------------
// Def - type mapping entry
// -----------------------------------------------------------------------------

// Def maps one language-level field type to its SQL column type and its
// OpenAPI representation.
type Def struct {
	Type    model.FieldType // language-level type
	SQL     string          // fixed DDL column type
	OpenAPI OpenAPIType     // OpenAPI/JSON Schema type info
}

// OpenAPIType is the OpenAPI/JSON Schema type information for a field type.
type OpenAPIType struct {
	Type   string // JSON Schema type: string, integer, number, boolean
	Format string // format hint: int64, date-time, uuid, byte, ...
}

// registry holds all type mapping entries indexed by field type.
var registry = make(map[model.FieldType]*Def)

// register adds a mapping entry. Panics on duplicates: the table is fixed at
// init time and never mutated afterwards.
func register(d *Def) {
	if _, exists := registry[d.Type]; exists {
		panic("type mapping already registered: " + string(d.Type))
	}
	registry[d.Type] = d
}

// Get returns the mapping entry for the given field type, or nil if unknown.
func Get(t model.FieldType) *Def {
	return registry[t]
}

// All returns the mapping entries in the field-type declaration order.
func All() []*Def {
	defs := make([]*Def, 0, len(registry))
	for _, t := range model.FieldTypes() {
		if d := registry[t]; d != nil {
			defs = append(defs, d)
		}
	}
	return defs
}

func init() {
	register(&Def{Type: model.TypeText, SQL: "VARCHAR(255)", OpenAPI: OpenAPIType{Type: "string"}})
	register(&Def{Type: model.TypeLong, SQL: "BIGINT", OpenAPI: OpenAPIType{Type: "integer", Format: "int64"}})
	register(&Def{Type: model.TypeInteger, SQL: "INTEGER", OpenAPI: OpenAPIType{Type: "integer", Format: "int32"}})
	register(&Def{Type: model.TypeDouble, SQL: "DOUBLE PRECISION", OpenAPI: OpenAPIType{Type: "number", Format: "double"}})
	register(&Def{Type: model.TypeFloat, SQL: "REAL", OpenAPI: OpenAPIType{Type: "number", Format: "float"}})
	register(&Def{Type: model.TypeDecimal, SQL: "DECIMAL(19,2)", OpenAPI: OpenAPIType{Type: "string", Format: "decimal"}})
	register(&Def{Type: model.TypeBoolean, SQL: "BOOLEAN", OpenAPI: OpenAPIType{Type: "boolean"}})
	register(&Def{Type: model.TypeDate, SQL: "DATE", OpenAPI: OpenAPIType{Type: "string", Format: "date"}})
	register(&Def{Type: model.TypeDateTime, SQL: "TIMESTAMP", OpenAPI: OpenAPIType{Type: "string", Format: "date-time"}})
	register(&Def{Type: model.TypeTime, SQL: "TIME", OpenAPI: OpenAPIType{Type: "string", Format: "time"}})
	register(&Def{Type: model.TypeInstant, SQL: "TIMESTAMP", OpenAPI: OpenAPIType{Type: "string", Format: "date-time"}})
	register(&Def{Type: model.TypeUUID, SQL: "UUID", OpenAPI: OpenAPIType{Type: "string", Format: "uuid"}})
	register(&Def{Type: model.TypeBlob, SQL: "BLOB", OpenAPI: OpenAPIType{Type: "string", Format: "byte"}})
}

// -----------------------------------------------------------------------------
// Forward: field -> SQL column type
// -----------------------------------------------------------------------------

// SQLType returns the DDL column type for a field. A text field carrying a
// size rule with an upper bound overrides the default varchar length.
func SQLType(f *model.Field) string {
	d := Get(f.Type)
	if d == nil {
		// Unknown types fall back to the text column type. Field validation
		// rejects them before generation, so this is a safety net only.
		d = Get(model.TypeText)
	}
	if f.Type == model.TypeText {
		if max, ok := f.SizeMax(); ok {
			return fmt.Sprintf("VARCHAR(%d)", max)
		}
	}
	return d.SQL
}

// -----------------------------------------------------------------------------
// Reverse: OpenAPI (type, format) -> field type
// -----------------------------------------------------------------------------

// FromOpenAPI maps an external schema type+format pair to a language-level
// field type. Format is checked before the bare type; unrecognized or absent
// values fall back to text.
func FromOpenAPI(typ, format string) model.FieldType {
	switch format {
	case "int64":
		return model.TypeLong
	case "int32":
		return model.TypeInteger
	case "double":
		return model.TypeDouble
	case "float":
		return model.TypeFloat
	case "decimal":
		return model.TypeDecimal
	case "date":
		return model.TypeDate
	case "date-time":
		return model.TypeDateTime
	case "time":
		return model.TypeTime
	case "uuid":
		return model.TypeUUID
	case "byte", "binary":
		return model.TypeBlob
	}

	switch typ {
	case "integer":
		return model.TypeInteger
	case "number":
		return model.TypeDouble
	case "boolean":
		return model.TypeBoolean
	case "string":
		return model.TypeText
	}

	return model.TypeText
}
