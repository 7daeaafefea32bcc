package model

import (
	"testing"

	"github.com/erdlab/erdgen/internal/xerr"
)

func TestFieldColumn(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{"derived", Field{Name: "firstName"}, "first_name"},
		{"override", Field{Name: "firstName", ColumnName: "fname"}, "fname"},
		{"already_snake", Field{Name: "email"}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.field.Column(); got != tt.want {
				t.Errorf("Column() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEntityTable(t *testing.T) {
	tests := []struct {
		name   string
		entity Entity
		want   string
	}{
		{"derived_plural", Entity{Name: "Author"}, "authors"},
		{"derived_compound", Entity{Name: "OrderItem"}, "order_items"},
		{"override", Entity{Name: "Author", TableName: "writer_records"}, "writer_records"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entity.Table(); got != tt.want {
				t.Errorf("Table() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFieldSizeMax(t *testing.T) {
	tests := []struct {
		name   string
		rules  []ValidationRule
		want   int
		wantOK bool
	}{
		{"max_only", []ValidationRule{{Kind: RuleSize, Value: "max=120"}}, 120, true},
		{"min_and_max", []ValidationRule{{Kind: RuleSize, Value: "min=2,max=50"}}, 50, true},
		{"min_only", []ValidationRule{{Kind: RuleSize, Value: "min=2"}}, 0, false},
		{"no_size_rule", []ValidationRule{{Kind: RuleRequired}}, 0, false},
		{"garbage_payload", []ValidationRule{{Kind: RuleSize, Value: "max=abc"}}, 0, false},
		{"none", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Field{Name: "title", Type: TypeText, Rules: tt.rules}
			got, ok := f.SizeMax()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("SizeMax() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEntityValidateDuplicateFields(t *testing.T) {
	e := Entity{
		ID:   "e1",
		Name: "Author",
		Fields: []*Field{
			{ID: "f1", Name: "name", Type: TypeText},
			{ID: "f2", Name: "name", Type: TypeText},
		},
	}
	err := e.Validate()
	if !xerr.Is(err, xerr.ErrDuplicateField) {
		t.Errorf("Validate() = %v, want code %s", err, xerr.ErrDuplicateField)
	}
}

func TestFieldValidate(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		wantCode xerr.Code
	}{
		{"valid", Field{Name: "email", Type: TypeText}, ""},
		{"missing_name", Field{Type: TypeText}, xerr.ErrModelInvalid},
		{"bad_type", Field{Name: "x", Type: FieldType("varchar")}, xerr.ErrInvalidType},
		{"bad_rule", Field{Name: "x", Type: TypeText, Rules: []ValidationRule{{Kind: RuleKind("length")}}}, xerr.ErrInvalidRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !xerr.Is(err, tt.wantCode) {
				t.Errorf("Validate() = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestRelationValidate(t *testing.T) {
	tests := []struct {
		name     string
		rel      Relation
		wantCode xerr.Code
	}{
		{
			"valid_many_to_one",
			Relation{ID: "r1", Kind: ManyToOne, SourceID: "a", TargetID: "b"},
			"",
		},
		{
			"valid_many_to_many",
			Relation{ID: "r2", Kind: ManyToMany, SourceID: "a", TargetID: "b",
				JoinTable: &JoinTable{Name: "a_b", JoinColumn: "a_id", InverseJoinColumn: "b_id"}},
			"",
		},
		{
			"bad_kind",
			Relation{ID: "r3", Kind: RelationKind("has_many"), SourceID: "a", TargetID: "b"},
			xerr.ErrModelInvalid,
		},
		{
			"missing_endpoint",
			Relation{ID: "r4", Kind: ManyToOne, SourceID: "a"},
			xerr.ErrModelInvalid,
		},
		{
			"m2m_without_join_table",
			Relation{ID: "r5", Kind: ManyToMany, SourceID: "a", TargetID: "b"},
			xerr.ErrMissingJoinTable,
		},
		{
			"m2m_same_columns",
			Relation{ID: "r6", Kind: ManyToMany, SourceID: "a", TargetID: "b",
				JoinTable: &JoinTable{Name: "a_b", JoinColumn: "x_id", InverseJoinColumn: "x_id"}},
			xerr.ErrModelInvalid,
		},
		{
			"bad_fk_action",
			Relation{ID: "r7", Kind: ManyToOne, SourceID: "a", TargetID: "b",
				ForeignKey: ForeignKey{OnDelete: "EXPLODE"}},
			xerr.ErrInvalidFKAction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rel.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !xerr.Is(err, tt.wantCode) {
				t.Errorf("Validate() = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestModelEntityLookup(t *testing.T) {
	m := Model{
		Entities: []*Entity{
			{ID: "e1", Name: "Author"},
			{ID: "e2", Name: "Book"},
		},
	}
	if e := m.Entity("e2"); e == nil || e.Name != "Book" {
		t.Errorf("Entity(e2) = %v", e)
	}
	if e := m.EntityByName("Author"); e == nil || e.ID != "e1" {
		t.Errorf("EntityByName(Author) = %v", e)
	}
	if m.Entity("missing") != nil || m.EntityByName("Ghost") != nil {
		t.Errorf("missing lookups should return nil")
	}
}

func TestModelValidateEndpoints(t *testing.T) {
	m := Model{
		Entities: []*Entity{
			{ID: "e1", Name: "Author", Fields: []*Field{{ID: "f1", Name: "name", Type: TypeText}}},
		},
		Relations: []*Relation{
			{ID: "r1", Kind: ManyToOne, SourceID: "e1", TargetID: "missing"},
		},
	}
	err := m.Validate()
	if !xerr.Is(err, xerr.ErrEntityNotFound) {
		t.Errorf("Validate() = %v, want code %s", err, xerr.ErrEntityNotFound)
	}
}

func TestModelValidateDuplicateEntityNames(t *testing.T) {
	m := Model{
		Entities: []*Entity{
			{ID: "e1", Name: "Author"},
			{ID: "e2", Name: "Author"},
		},
	}
	err := m.Validate()
	if !xerr.Is(err, xerr.ErrModelInvalid) {
		t.Errorf("Validate() = %v, want code %s", err, xerr.ErrModelInvalid)
	}
}

func TestNormalizeFKAction(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"cascade", "CASCADE", false},
		{"Set Null", "SET NULL", false},
		{" restrict ", "RESTRICT", false},
		{"no action", "NO ACTION", false},
		{"explode", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeFKAction(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeFKAction(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeFKAction(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	data := []byte(`{
		"name": "library",
		"entities": [
			{"id": "e1", "name": "Author", "fields": [
				{"id": "f1", "name": "name", "type": "text", "nullable": false}
			]}
		],
		"relations": []
	}`)
	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if m.Name != "library" || len(m.Entities) != 1 {
		t.Errorf("Decode() = %v", m)
	}
	if m.Entities[0].Fields[0].Type != TypeText {
		t.Errorf("field type = %q, want text", m.Entities[0].Fields[0].Type)
	}
}

func TestDecodeYAML(t *testing.T) {
	data := []byte(`
name: library
entities:
  - id: e1
    name: Author
    fields:
      - id: f1
        name: name
        type: text
`)
	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if m.Entities[0].Name != "Author" {
		t.Errorf("entity name = %q", m.Entities[0].Name)
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("{{{not a document"))
	if !xerr.Is(err, xerr.ErrModelInvalid) {
		t.Errorf("Decode() = %v, want code %s", err, xerr.ErrModelInvalid)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 26 {
			t.Fatalf("NewID() = %q, want 26-char ULID", id)
		}
		if seen[id] {
			t.Fatalf("NewID() produced duplicate %q", id)
		}
		seen[id] = true
	}
}
