// Package openapi imports an OpenAPI/Swagger document into an
// entity-relationship model fragment.
//
// The importer is the reverse direction of the transformation engine: named
// object schemas become entities, scalar properties become fields (typed via
// the shared mapping table), and $ref properties become relations. The result
// is a fragment for the caller to review and merge, never a complete model.
package openapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/erdlab/erdgen/internal/model"
	"github.com/erdlab/erdgen/internal/typemap"
	"github.com/erdlab/erdgen/internal/xerr"
)

// Result aggregates the imported fragment and its diagnostics. A non-empty
// Errors list implies empty entity and relation lists; Warnings may accompany
// a usable partial result.
type Result struct {
	Entities  []*model.Entity   `json:"entities"`
	Relations []*model.Relation `json:"relations"`
	Warnings  []xerr.Diagnostic `json:"warnings,omitempty"`
	Errors    []xerr.Diagnostic `json:"errors,omitempty"`
}

func (r *Result) warn(code xerr.Code, path, format string, args ...any) {
	r.Warnings = append(r.Warnings, xerr.Diagnostic{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
	})
}

func (r *Result) fail(code xerr.Code, path, format string, args ...any) *Result {
	r.Errors = append(r.Errors, xerr.Diagnostic{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
	})
	r.Entities = nil
	r.Relations = nil
	return r
}

// -----------------------------------------------------------------------------
// Document shape
// -----------------------------------------------------------------------------

// document is the subset of an OpenAPI/Swagger file the importer reads.
type document struct {
	OpenAPI     string             `json:"openapi" yaml:"openapi"`
	Swagger     string             `json:"swagger" yaml:"swagger"`
	Components  *components        `json:"components" yaml:"components"`
	Definitions map[string]*schema `json:"definitions" yaml:"definitions"`
}

type components struct {
	Schemas map[string]*schema `json:"schemas" yaml:"schemas"`
}

// schema is a JSON Schema node. Pointer fields distinguish absent from zero.
type schema struct {
	Ref         string             `json:"$ref" yaml:"$ref"`
	Type        string             `json:"type" yaml:"type"`
	Format      string             `json:"format" yaml:"format"`
	Description string             `json:"description" yaml:"description"`
	Properties  map[string]*schema `json:"properties" yaml:"properties"`
	Required    []string           `json:"required" yaml:"required"`
	AllOf       []*schema          `json:"allOf" yaml:"allOf"`
	Items       *schema            `json:"items" yaml:"items"`
	Nullable    *bool              `json:"nullable" yaml:"nullable"`
	MinLength   *int               `json:"minLength" yaml:"minLength"`
	MaxLength   *int               `json:"maxLength" yaml:"maxLength"`
	Minimum     *float64           `json:"minimum" yaml:"minimum"`
	Maximum     *float64           `json:"maximum" yaml:"maximum"`
	Pattern     string             `json:"pattern" yaml:"pattern"`
}

// flatten merges the schema's own properties and required list with every
// allOf member. Later members win on property name collisions.
func (s *schema) flatten() (map[string]*schema, map[string]bool) {
	props := make(map[string]*schema)
	required := make(map[string]bool)

	merge := func(m *schema) {
		for name, p := range m.Properties {
			props[name] = p
		}
		for _, name := range m.Required {
			required[name] = true
		}
	}

	merge(s)
	for _, member := range s.AllOf {
		if member == nil {
			continue
		}
		if member.Ref != "" {
			// Inherited base schemas are not expanded; the base entity is
			// imported on its own and the caller relates them manually.
			continue
		}
		merge(member)
	}
	return props, required
}

// isObject reports whether the schema describes an importable record type.
func (s *schema) isObject() bool {
	if s.Type == "object" || len(s.Properties) > 0 {
		return true
	}
	for _, member := range s.AllOf {
		if member == nil {
			continue
		}
		if member.Type == "object" || len(member.Properties) > 0 {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Import
// -----------------------------------------------------------------------------

// Import parses an OpenAPI/Swagger document and extracts an
// entity-relationship fragment. The filename appears in diagnostics only.
//
// Schema and property names are processed in sorted order so repeated imports
// of the same document produce the same entity and relation order.
func Import(data []byte, filename string) *Result {
	res := &Result{}

	doc, err := decode(data)
	if err != nil {
		return res.fail(xerr.ErrUnparsableDocument, filename,
			"document is neither valid JSON nor YAML: %v", err)
	}
	if doc.OpenAPI == "" && doc.Swagger == "" {
		return res.fail(xerr.ErrNoVersionMarker, filename,
			"document has no openapi or swagger version field")
	}

	schemas := doc.schemaMap()
	if len(schemas) == 0 {
		res.warn(xerr.WarnNoSchemas, filename, "document declares no schemas")
		return res
	}

	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	// Pass 1: entities and scalar fields. Reference-valued properties are
	// deferred to pass 2.
	for _, name := range names {
		s := schemas[name]
		if s == nil {
			res.warn(xerr.WarnSkippedSchema, name, "schema %q is null; skipped", name)
			continue
		}
		if !s.isObject() {
			res.warn(xerr.WarnSkippedSchema, name, "schema %q is not an object type; skipped", name)
			continue
		}
		e := importEntity(name, s, res)
		if len(e.Fields) == 0 {
			res.warn(xerr.WarnNoUsableFields, name,
				"schema %q has no usable properties after filtering; skipped", name)
			continue
		}
		res.Entities = append(res.Entities, e)
	}

	// Pass 2: relation inference from reference-valued properties. Entity
	// names are the schema names, so the fragment resolves lookups; schemas
	// skipped in pass 1 resolve to nil and own no relations.
	frag := &model.Model{Entities: res.Entities}
	for _, name := range names {
		owner := frag.EntityByName(name)
		if owner == nil {
			continue
		}
		props, _ := schemas[name].flatten()
		for _, propName := range sortedKeys(props) {
			if propName == "id" {
				// The synthetic primary key, same as pass 1.
				continue
			}
			p := props[propName]
			if p == nil {
				continue
			}
			kind, refTarget := referenceKind(p)
			if kind == "" {
				continue
			}
			target := frag.EntityByName(refTarget)
			if target == nil {
				res.warn(xerr.WarnDanglingReference, name+"."+propName,
					"reference to unknown or skipped schema %q; dropped", refTarget)
				continue
			}
			res.Relations = append(res.Relations, &model.Relation{
				ID:       model.NewID(),
				Kind:     kind,
				SourceID: owner.ID,
				TargetID: target.ID,
			})
		}
	}

	return res
}

// decode parses the document as JSON first, then as YAML.
func decode(data []byte) (*document, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err == nil {
		return &doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// schemaMap returns the named schema map: components.schemas for OpenAPI 3,
// definitions for Swagger 2.
func (d *document) schemaMap() map[string]*schema {
	if d.Components != nil && len(d.Components.Schemas) > 0 {
		return d.Components.Schemas
	}
	return d.Definitions
}

// importEntity builds one entity from an object schema. Properties named "id"
// (the synthetic primary key) and reference-valued properties are skipped;
// null property nodes are skipped with a warning.
func importEntity(name string, s *schema, res *Result) *model.Entity {
	e := &model.Entity{
		ID:          model.NewID(),
		Name:        name,
		Description: s.Description,
	}
	props, required := s.flatten()
	for _, propName := range sortedKeys(props) {
		if propName == "id" {
			continue
		}
		p := props[propName]
		if p == nil {
			res.warn(xerr.WarnSkippedProperty, name+"."+propName,
				"property %q is null; skipped", propName)
			continue
		}
		if kind, _ := referenceKind(p); kind != "" {
			continue
		}
		e.Fields = append(e.Fields, importField(propName, p, required[propName]))
	}
	return e
}

// importField builds one field from a scalar property. Nullability follows
// the schema-declared nullable flag when present, otherwise the inverse of
// membership in the required list.
func importField(name string, p *schema, required bool) *model.Field {
	nullable := !required
	if p.Nullable != nil {
		nullable = *p.Nullable
	}

	f := &model.Field{
		ID:          model.NewID(),
		Name:        name,
		Type:        typemap.FromOpenAPI(p.Type, p.Format),
		Nullable:    nullable,
		Description: p.Description,
	}

	if !nullable {
		f.Rules = append(f.Rules, model.ValidationRule{Kind: model.RuleRequired})
	}
	if p.Format == "email" {
		f.Rules = append(f.Rules, model.ValidationRule{Kind: model.RuleEmail})
	}
	if size := sizePayload(p.MinLength, p.MaxLength); size != "" {
		f.Rules = append(f.Rules, model.ValidationRule{Kind: model.RuleSize, Value: size})
	}
	if p.Minimum != nil {
		f.Rules = append(f.Rules, model.ValidationRule{Kind: model.RuleMin, Value: formatNumber(*p.Minimum)})
	}
	if p.Maximum != nil {
		f.Rules = append(f.Rules, model.ValidationRule{Kind: model.RuleMax, Value: formatNumber(*p.Maximum)})
	}
	if p.Pattern != "" {
		f.Rules = append(f.Rules, model.ValidationRule{Kind: model.RulePattern, Value: p.Pattern})
	}
	return f
}

// referenceKind classifies a reference-valued property: a direct $ref yields
// a many-to-one relation, an array of $ref items yields a one-to-many. The
// second return is the referenced schema name.
func referenceKind(p *schema) (model.RelationKind, string) {
	if p == nil {
		return "", ""
	}
	if p.Ref != "" {
		return model.ManyToOne, refName(p.Ref)
	}
	if p.Type == "array" && p.Items != nil && p.Items.Ref != "" {
		return model.OneToMany, refName(p.Items.Ref)
	}
	return "", ""
}

// refName extracts the schema name from a JSON pointer such as
// "#/components/schemas/Tag" or "#/definitions/Tag".
func refName(ref string) string {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '/' {
			return ref[i+1:]
		}
	}
	return ref
}

// sizePayload encodes minLength/maxLength as the size rule value, e.g.
// "min=2,max=50" with absent parts omitted.
func sizePayload(min, max *int) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("min=%d,max=%d", *min, *max)
	case min != nil:
		return fmt.Sprintf("min=%d", *min)
	case max != nil:
		return fmt.Sprintf("max=%d", *max)
	}
	return ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortedKeys(m map[string]*schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
