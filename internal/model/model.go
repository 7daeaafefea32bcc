// Package model defines the entity-relationship data contract shared by the
// visual editor, the DDL generator, and the OpenAPI importer.
//
// The engine treats a Model as an immutable snapshot: the generator and the
// importer only read it and emit text or a new model fragment. Merging
// imported entities into a live design is the caller's responsibility.
package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/erdlab/erdgen/internal/strutil"
	"github.com/erdlab/erdgen/internal/xerr"
)

// -----------------------------------------------------------------------------
// Field Types
// -----------------------------------------------------------------------------

// FieldType is a language-level field type. This enumeration is a shared
// vocabulary also consumed by code-generation tooling outside this module;
// new kinds must be added everywhere the vocabulary is consumed.
type FieldType string

const (
	TypeText     FieldType = "text"     // bounded string
	TypeLong     FieldType = "long"     // 64-bit integer
	TypeInteger  FieldType = "integer"  // 32-bit integer
	TypeDouble   FieldType = "double"   // 64-bit float
	TypeFloat    FieldType = "float"    // 32-bit float
	TypeDecimal  FieldType = "decimal"  // fixed-point decimal
	TypeBoolean  FieldType = "boolean"  // true/false
	TypeDate     FieldType = "date"     // calendar date
	TypeDateTime FieldType = "datetime" // date and time with zone
	TypeTime     FieldType = "time"     // time of day
	TypeInstant  FieldType = "instant"  // point on the UTC timeline
	TypeUUID     FieldType = "uuid"     // RFC 4122 identifier
	TypeBlob     FieldType = "blob"     // binary data
)

// FieldTypes lists all valid field types in declaration order.
func FieldTypes() []FieldType {
	return []FieldType{
		TypeText, TypeLong, TypeInteger, TypeDouble, TypeFloat, TypeDecimal,
		TypeBoolean, TypeDate, TypeDateTime, TypeTime, TypeInstant, TypeUUID,
		TypeBlob,
	}
}

// Valid reports whether t is a member of the shared type vocabulary.
func (t FieldType) Valid() bool {
	for _, ft := range FieldTypes() {
		if t == ft {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Validation Rules
// -----------------------------------------------------------------------------

// RuleKind is a declarative field constraint kind. Rules are carried through
// the model but not enforced by the DDL generator itself (except the size
// rule, which bounds varchar length).
type RuleKind string

const (
	RuleRequired RuleKind = "required"
	RuleNotBlank RuleKind = "not_blank"
	RuleEmail    RuleKind = "email"
	RuleSize     RuleKind = "size"
	RuleMin      RuleKind = "min"
	RuleMax      RuleKind = "max"
	RulePattern  RuleKind = "pattern"
)

// RuleKinds lists all valid validation rule kinds.
func RuleKinds() []RuleKind {
	return []RuleKind{RuleRequired, RuleNotBlank, RuleEmail, RuleSize, RuleMin, RuleMax, RulePattern}
}

// Valid reports whether k is a known rule kind.
func (k RuleKind) Valid() bool {
	for _, rk := range RuleKinds() {
		if k == rk {
			return true
		}
	}
	return false
}

// ValidationRule is a declarative constraint on a field. Value carries the
// rule payload where one exists; size bounds are encoded as "min=N,max=N"
// with absent parts omitted (e.g. "max=120").
type ValidationRule struct {
	Kind    RuleKind `json:"kind" yaml:"kind"`
	Value   string   `json:"value,omitempty" yaml:"value,omitempty"`
	Message string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// -----------------------------------------------------------------------------
// Field
// -----------------------------------------------------------------------------

// Field is a designed attribute of an entity, rendered to one table column.
type Field struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	ColumnName  string           `json:"columnName,omitempty" yaml:"column_name,omitempty"` // explicit override
	Type        FieldType        `json:"type" yaml:"type"`
	Nullable    bool             `json:"nullable" yaml:"nullable"`
	Unique      bool             `json:"unique,omitempty" yaml:"unique,omitempty"`
	Rules       []ValidationRule `json:"rules,omitempty" yaml:"rules,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
}

// Column returns the derived column name: the explicit override if present,
// otherwise the snake_case of the field name.
func (f *Field) Column() string {
	if f.ColumnName != "" {
		return f.ColumnName
	}
	return strutil.ToSnakeCase(f.Name)
}

// HasRule reports whether the field carries a rule of the given kind.
func (f *Field) HasRule(kind RuleKind) bool {
	for _, r := range f.Rules {
		if r.Kind == kind {
			return true
		}
	}
	return false
}

// SizeMax returns the upper bound of a size rule, if the field has one with a
// "max=N" component in its payload.
func (f *Field) SizeMax() (int, bool) {
	for _, r := range f.Rules {
		if r.Kind != RuleSize {
			continue
		}
		for _, part := range strings.Split(r.Value, ",") {
			part = strings.TrimSpace(part)
			if v, ok := strings.CutPrefix(part, "max="); ok {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					return n, true
				}
			}
		}
	}
	return 0, false
}

// Validate checks that the field definition is well-formed.
func (f *Field) Validate() error {
	if f.Name == "" {
		return xerr.New(xerr.ErrModelInvalid, "field name is required")
	}
	if !f.Type.Valid() {
		return xerr.Newf(xerr.ErrInvalidType, "unknown field type %q", f.Type).WithField(f.Name)
	}
	for _, r := range f.Rules {
		if !r.Kind.Valid() {
			return xerr.Newf(xerr.ErrInvalidRule, "unknown validation rule %q", r.Kind).WithField(f.Name)
		}
	}
	if err := ValidateIdentifier(f.Column()); err != nil {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------
// Entity
// -----------------------------------------------------------------------------

// Entity is a designed record type with fields, rendered to one table.
type Entity struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	TableName   string   `json:"tableName,omitempty" yaml:"table_name,omitempty"` // explicit override
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []*Field `json:"fields" yaml:"fields"`
}

// Table returns the derived table name: the explicit override if present,
// otherwise the pluralized snake_case of the entity name.
func (e *Entity) Table() string {
	if e.TableName != "" {
		return e.TableName
	}
	return strutil.TableName(e.Name)
}

// Field returns the field with the given name, or nil if not found.
func (e *Entity) Field(name string) *Field {
	for _, f := range e.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Validate checks that the entity is well-formed: it has a name, a valid
// derived table name, and no duplicate field names.
func (e *Entity) Validate() error {
	if e.Name == "" {
		return xerr.New(xerr.ErrModelInvalid, "entity name is required")
	}
	if err := ValidateIdentifier(e.Table()); err != nil {
		return xerr.Wrap(xerr.ErrModelInvalid, err, "invalid table name").WithEntity(e.Name)
	}
	seen := make(map[string]bool)
	for _, f := range e.Fields {
		if seen[f.Name] {
			return xerr.New(xerr.ErrDuplicateField, "duplicate field name").
				WithEntity(e.Name).
				WithField(f.Name)
		}
		seen[f.Name] = true
		if err := f.Validate(); err != nil {
			return xerr.Wrap(xerr.ErrModelInvalid, err, "invalid field").
				WithEntity(e.Name).
				WithField(f.Name)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Relations
// -----------------------------------------------------------------------------

// RelationKind is the cardinality of a directed association between entities.
type RelationKind string

const (
	OneToOne   RelationKind = "one_to_one"
	OneToMany  RelationKind = "one_to_many"
	ManyToOne  RelationKind = "many_to_one"
	ManyToMany RelationKind = "many_to_many"
)

// RelationKinds lists all valid relation kinds.
func RelationKinds() []RelationKind {
	return []RelationKind{OneToOne, OneToMany, ManyToOne, ManyToMany}
}

// Valid reports whether k is a known relation kind.
func (k RelationKind) Valid() bool {
	for _, rk := range RelationKinds() {
		if k == rk {
			return true
		}
	}
	return false
}

// ValidFKActions is the set of valid ON DELETE / ON UPDATE actions.
// Empty means no action was specified (the generator emits NO ACTION).
var ValidFKActions = map[string]bool{
	"":            true,
	"CASCADE":     true,
	"SET NULL":    true,
	"SET DEFAULT": true,
	"RESTRICT":    true,
	"NO ACTION":   true,
}

// NormalizeFKAction uppercases and validates an FK referential action.
func NormalizeFKAction(action string) (string, error) {
	if action == "" {
		return "", nil
	}
	upper := strings.ToUpper(strings.TrimSpace(action))
	if !ValidFKActions[upper] {
		return "", xerr.Newf(xerr.ErrInvalidFKAction,
			"invalid foreign key action %q; must be one of: CASCADE, SET NULL, SET DEFAULT, RESTRICT, NO ACTION", action)
	}
	return upper, nil
}

// ForeignKey configures the foreign-key column a many-to-one or one-to-one
// relation contributes to its source entity's table.
type ForeignKey struct {
	ColumnName string `json:"columnName,omitempty" yaml:"column_name,omitempty"` // default: <target_singular>_id
	Nullable   bool   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	OnDelete   string `json:"onDelete,omitempty" yaml:"on_delete,omitempty"`
	OnUpdate   string `json:"onUpdate,omitempty" yaml:"on_update,omitempty"`
}

// JoinTable configures the auxiliary table implementing a many-to-many
// relation. Both column names are required and must be distinct.
type JoinTable struct {
	Name              string `json:"name" yaml:"name"`
	JoinColumn        string `json:"joinColumn" yaml:"join_column"`
	InverseJoinColumn string `json:"inverseJoinColumn" yaml:"inverse_join_column"`
}

// Relation is a named, directed association between two entities.
type Relation struct {
	ID         string       `json:"id" yaml:"id"`
	Kind       RelationKind `json:"kind" yaml:"kind"`
	SourceID   string       `json:"sourceId" yaml:"source_id"`
	TargetID   string       `json:"targetId" yaml:"target_id"`
	ForeignKey ForeignKey   `json:"foreignKey,omitempty" yaml:"foreign_key,omitempty"`
	JoinTable  *JoinTable   `json:"joinTable,omitempty" yaml:"join_table,omitempty"`
}

// Validate checks the relation in isolation (endpoint resolution is checked
// at the model level where the entity list is known).
func (r *Relation) Validate() error {
	if !r.Kind.Valid() {
		return xerr.Newf(xerr.ErrModelInvalid, "unknown relation kind %q", r.Kind).WithRelation(r.ID)
	}
	if r.SourceID == "" || r.TargetID == "" {
		return xerr.New(xerr.ErrModelInvalid, "relation must have source and target").WithRelation(r.ID)
	}
	if _, err := NormalizeFKAction(r.ForeignKey.OnDelete); err != nil {
		return err
	}
	if _, err := NormalizeFKAction(r.ForeignKey.OnUpdate); err != nil {
		return err
	}
	if r.Kind == ManyToMany {
		jt := r.JoinTable
		if jt == nil || jt.Name == "" || jt.JoinColumn == "" || jt.InverseJoinColumn == "" {
			return xerr.New(xerr.ErrMissingJoinTable,
				"many-to-many relation requires a join table with two column names").
				WithRelation(r.ID)
		}
		if jt.JoinColumn == jt.InverseJoinColumn {
			return xerr.New(xerr.ErrModelInvalid, "join table columns must be distinct").
				WithRelation(r.ID).
				With("column", jt.JoinColumn)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Model
// -----------------------------------------------------------------------------

// Model is a snapshot of a design: the ordered entity and relation lists the
// editor saved, plus the project name used in generated banners.
type Model struct {
	Name      string      `json:"name,omitempty" yaml:"name,omitempty"`
	Entities  []*Entity   `json:"entities" yaml:"entities"`
	Relations []*Relation `json:"relations,omitempty" yaml:"relations,omitempty"`
}

// Entity returns the entity with the given id, or nil if not found.
func (m *Model) Entity(id string) *Entity {
	for _, e := range m.Entities {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// EntityByName returns the entity with the given name, or nil if not found.
func (m *Model) EntityByName(name string) *Entity {
	for _, e := range m.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Validate checks the model invariants: valid entities, valid relations, and
// relation endpoints that resolve to entities present in this snapshot.
func (m *Model) Validate() error {
	names := make(map[string]bool)
	for _, e := range m.Entities {
		if err := e.Validate(); err != nil {
			return err
		}
		if names[e.Name] {
			return xerr.New(xerr.ErrModelInvalid, "duplicate entity name").WithEntity(e.Name)
		}
		names[e.Name] = true
	}
	for _, r := range m.Relations {
		if err := r.Validate(); err != nil {
			return err
		}
		if m.Entity(r.SourceID) == nil {
			return xerr.New(xerr.ErrEntityNotFound, "relation source entity not found").
				WithRelation(r.ID).
				With("source", r.SourceID)
		}
		if m.Entity(r.TargetID) == nil {
			return xerr.New(xerr.ErrEntityNotFound, "relation target entity not found").
				WithRelation(r.ID).
				With("target", r.TargetID)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

// validIdentifierPattern matches safe SQL identifiers (lowercase snake_case).
var validIdentifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidateIdentifier checks that a name is a safe SQL identifier.
func ValidateIdentifier(name string) error {
	if !validIdentifierPattern.MatchString(name) {
		return xerr.Newf(xerr.ErrInvalidIdentifier,
			"invalid identifier %q; must match [a-z_][a-z0-9_]*", name)
	}
	return nil
}

// NewID returns a fresh ULID for an entity, field, or relation created by the
// importer. Callers merging imported fragments into a live design re-key ids
// to avoid collisions.
func NewID() string {
	return ulid.Make().String()
}

// -----------------------------------------------------------------------------
// Decoding
// -----------------------------------------------------------------------------

// Decode parses a saved model snapshot. JSON is the canonical editor format;
// YAML is accepted for hand-written design files.
func Decode(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err == nil {
		return &m, nil
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, xerr.Wrap(xerr.ErrModelInvalid, err, "model file is neither valid JSON nor YAML")
	}
	return &m, nil
}

// Encode serializes a model snapshot as indented JSON, the canonical format.
func Encode(m *Model) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, xerr.Wrap(xerr.ErrModelInvalid, err, "failed to encode model")
	}
	return data, nil
}

// String implements fmt.Stringer for debugging output.
func (m *Model) String() string {
	return fmt.Sprintf("Model(%q, %d entities, %d relations)", m.Name, len(m.Entities), len(m.Relations))
}
