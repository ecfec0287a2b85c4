package jsondb

import (
	"github.com/invopop/jsonschema"
)

// JSONSchema describes the persisted document with one property per table.
// Rows are described with prefixItems so each position carries its column's
// JSON type.
func (db *Database) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	var required []string
	for p := db.tables.Oldest(); p != nil; p = p.Next() {
		props.Set(p.Key, tableJSONSchema(p.Value.schema))
		required = append(required, p.Key)
	}
	return &jsonschema.Schema{
		Version:              jsonschema.Version,
		Title:                "jsondb document",
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: documentTableSchema(),
	}
}

func tableJSONSchema(s Schema) *jsonschema.Schema {
	schemaProps := jsonschema.NewProperties()
	items := make([]*jsonschema.Schema, 0, s.Len())
	names := make([]string, 0, s.Len())
	for _, c := range s.columns {
		schemaProps.Set(c.Name, &jsonschema.Schema{Const: c.Type.String()})
		items = append(items, &jsonschema.Schema{Type: jsonType(c.Type), Title: c.Name})
		names = append(names, c.Name)
	}
	width := uint64(s.Len())
	props := jsonschema.NewProperties()
	props.Set(schemaKey, &jsonschema.Schema{
		Type:                 "object",
		Properties:           schemaProps,
		Required:             names,
		AdditionalProperties: jsonschema.FalseSchema,
	})
	props.Set(rowsKey, &jsonschema.Schema{
		Type: "array",
		Items: &jsonschema.Schema{
			Type:        "array",
			PrefixItems: items,
			MinItems:    &width,
			MaxItems:    &width,
		},
	})
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{schemaKey, rowsKey},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

// documentTableSchema describes any table, used for tables not yet created.
func documentTableSchema() *jsonschema.Schema {
	tags := make([]any, len(Types))
	for i, t := range Types {
		tags[i] = t.String()
	}
	props := jsonschema.NewProperties()
	props.Set(schemaKey, &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: &jsonschema.Schema{Enum: tags},
	})
	props.Set(rowsKey, &jsonschema.Schema{
		Type:  "array",
		Items: &jsonschema.Schema{Type: "array"},
	})
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   []string{schemaKey, rowsKey},
	}
}

func jsonType(t Type) string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeBool:
		return "boolean"
	case TypeFloat:
		return "number"
	default:
		return ""
	}
}
