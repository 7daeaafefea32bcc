// Package ddl generates the SQL schema script for a model snapshot.
//
// Statement ordering uses a stable two-bucket partition (entities without
// outgoing many-to-one/one-to-one relations first) rather than a full
// topological sort. That is sufficient because every foreign-key constraint
// is emitted as a separate ALTER TABLE placed after all CREATE TABLE
// statements, so forward references are always valid — mutual references
// included. If constraints ever move inline, this must become a real
// dependency sort with cycle detection.
package ddl

import (
	"fmt"
	"strings"
	"time"

	"github.com/erdlab/erdgen/internal/model"
	"github.com/erdlab/erdgen/internal/strutil"
	"github.com/erdlab/erdgen/internal/typemap"
	"github.com/erdlab/erdgen/internal/xerr"
)

// Options configures one generation run. Now is the injected generation
// clock: given identical (model, project, clock) the output is byte-identical.
type Options struct {
	Project string    // banner project name; falls back to the model name
	Now     time.Time // generation timestamp for the banner
}

// Result is the outcome of a generation run. Warnings report relations that
// were skipped defensively (dangling endpoints); they never abort generation.
type Result struct {
	SQL      string            `json:"sql"`
	Warnings []xerr.Diagnostic `json:"warnings,omitempty"`
}

// Fixed column fragments shared by every generated table.
const (
	pkColumn     = "id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"
	fkColumnType = "BIGINT"
)

// auditColumns are the six fixed auditing columns appended to every entity table.
var auditColumns = []string{
	"status VARCHAR(50)",
	"created_at TIMESTAMP NOT NULL",
	"updated_at TIMESTAMP",
	"created_by VARCHAR(100)",
	"updated_by VARCHAR(100)",
	"version BIGINT NOT NULL DEFAULT 0",
}

// fkRef is a resolved outgoing many-to-one/one-to-one relation: the foreign
// key column it contributes to the source table and the table it references.
type fkRef struct {
	rel    *model.Relation
	target *model.Entity
	column string
}

// Generate renders the complete DDL script for a model snapshot. The input
// is read-only; entity and relation array order is preserved except for the
// has-FK/no-FK partition.
func Generate(m *model.Model, opts Options) (*Result, error) {
	if m == nil {
		return nil, xerr.New(xerr.ErrGenerateFailed, "model is nil")
	}

	res := &Result{}

	// Resolve outgoing FK relations per source entity, skipping dangling
	// references with a warning instead of failing the whole run.
	outgoing := make(map[string][]fkRef)
	var joinRels []*model.Relation
	for _, r := range m.Relations {
		switch r.Kind {
		case model.ManyToOne, model.OneToOne:
			src, tgt := m.Entity(r.SourceID), m.Entity(r.TargetID)
			if src == nil || tgt == nil {
				res.warnDangling(r)
				continue
			}
			col := r.ForeignKey.ColumnName
			if col == "" {
				col = strutil.FKColumn(tgt.Table())
			}
			outgoing[src.ID] = append(outgoing[src.ID], fkRef{rel: r, target: tgt, column: col})
		case model.ManyToMany:
			if m.Entity(r.SourceID) == nil || m.Entity(r.TargetID) == nil {
				res.warnDangling(r)
				continue
			}
			joinRels = append(joinRels, r)
		}
		// One-to-many relations contribute no DDL of their own: the inverse
		// side owns the foreign key column when the design declares it.
	}

	// Stable two-bucket partition: entities without outgoing FKs first.
	ordered := make([]*model.Entity, 0, len(m.Entities))
	for _, e := range m.Entities {
		if len(outgoing[e.ID]) == 0 {
			ordered = append(ordered, e)
		}
	}
	for _, e := range m.Entities {
		if len(outgoing[e.ID]) > 0 {
			ordered = append(ordered, e)
		}
	}

	var sections []string
	sections = append(sections, banner(projectName(m, opts), opts.Now))

	for _, e := range ordered {
		sections = append(sections, createTableSection(e, outgoing[e.ID]))
	}
	for _, e := range ordered {
		if sec := constraintSection(e, outgoing[e.ID]); sec != "" {
			sections = append(sections, sec)
		}
	}
	for _, r := range joinRels {
		sections = append(sections, joinTableSection(r, m))
	}

	res.SQL = strings.Join(sections, "\n\n") + "\n"
	return res, nil
}

func (r *Result) warnDangling(rel *model.Relation) {
	r.Warnings = append(r.Warnings, xerr.Diagnostic{
		Code:    xerr.WarnSkippedRelation,
		Message: fmt.Sprintf("relation %s references an entity missing from the model; skipped", rel.ID),
		Path:    string(rel.Kind) + ":" + rel.SourceID + "->" + rel.TargetID,
	})
}

func projectName(m *model.Model, opts Options) string {
	if opts.Project != "" {
		return opts.Project
	}
	if m.Name != "" {
		return m.Name
	}
	return "untitled"
}

// banner renders the script header with project name and generation timestamp.
func banner(project string, now time.Time) string {
	var b strings.Builder
	rule := "-- " + strings.Repeat("-", 76)
	b.WriteString(rule + "\n")
	b.WriteString("-- Project:   " + project + "\n")
	b.WriteString("-- Generated: " + now.UTC().Format(time.RFC3339) + "\n")
	b.WriteString(rule)
	return b.String()
}

// createTableSection renders the header comment and CREATE TABLE statement
// for one entity: synthetic primary key, field columns, FK columns for
// outgoing many-to-one/one-to-one relations, then the audit columns.
func createTableSection(e *model.Entity, fks []fkRef) string {
	var b strings.Builder

	b.WriteString("-- Entity: " + e.Name + "\n")
	if e.Description != "" {
		for _, line := range strings.Split(e.Description, "\n") {
			b.WriteString("-- " + line + "\n")
		}
	}

	b.WriteString("CREATE TABLE " + e.Table() + " (\n")

	cols := make([]string, 0, len(e.Fields)+len(fks)+len(auditColumns)+1)
	cols = append(cols, pkColumn)
	for _, f := range e.Fields {
		cols = append(cols, columnDef(f))
	}
	for _, fk := range fks {
		cols = append(cols, fkColumnDef(fk))
	}
	cols = append(cols, auditColumns...)

	for i, col := range cols {
		b.WriteString("  " + col)
		if i < len(cols)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");")
	return b.String()
}

// columnDef renders one field column: name, mapped type, and the
// validation-derived NOT NULL / UNIQUE modifiers.
func columnDef(f *model.Field) string {
	var b strings.Builder
	b.WriteString(f.Column())
	b.WriteString(" ")
	b.WriteString(typemap.SQLType(f))
	if !f.Nullable || f.HasRule(model.RuleRequired) || f.HasRule(model.RuleNotBlank) {
		b.WriteString(" NOT NULL")
	}
	if f.Unique {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}

// fkColumnDef renders the foreign key column an outgoing relation adds to
// its source table. FK columns share the primary key type.
func fkColumnDef(fk fkRef) string {
	col := fk.column + " " + fkColumnType
	if !fk.rel.ForeignKey.Nullable {
		col += " NOT NULL"
	}
	return col
}

// constraintSection renders the ALTER TABLE constraints and indexes for one
// entity's outgoing relations. Emitted after every CREATE TABLE so forward
// references are always valid.
func constraintSection(e *model.Entity, fks []fkRef) string {
	if len(fks) == 0 {
		return ""
	}
	table := e.Table()
	stmts := make([]string, 0, len(fks)*2)
	for _, fk := range fks {
		stmts = append(stmts, fmt.Sprintf(
			"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(id) ON DELETE %s ON UPDATE %s;",
			table,
			strutil.ConstraintName(table, fk.column),
			fk.column,
			fk.target.Table(),
			fkAction(fk.rel.ForeignKey.OnDelete),
			fkAction(fk.rel.ForeignKey.OnUpdate),
		))
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX %s ON %s (%s);",
			strutil.IndexName(table, fk.column), table, fk.column,
		))
	}
	return strings.Join(stmts, "\n")
}

// fkAction normalizes a referential action, defaulting to NO ACTION.
// Invalid actions are caught by model validation before generation.
func fkAction(action string) string {
	norm, err := model.NormalizeFKAction(action)
	if err != nil || norm == "" {
		return "NO ACTION"
	}
	return norm
}

// joinTableSection renders the auxiliary table for a many-to-many relation:
// composite primary key, two cascading foreign keys, two indexes.
func joinTableSection(r *model.Relation, m *model.Model) string {
	jt := r.JoinTable
	src, tgt := m.Entity(r.SourceID), m.Entity(r.TargetID)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("-- Join table: %s (%s <-> %s)\n", jt.Name, src.Name, tgt.Name))
	b.WriteString("CREATE TABLE " + jt.Name + " (\n")
	b.WriteString(fmt.Sprintf("  %s %s NOT NULL,\n", jt.JoinColumn, fkColumnType))
	b.WriteString(fmt.Sprintf("  %s %s NOT NULL,\n", jt.InverseJoinColumn, fkColumnType))
	b.WriteString(fmt.Sprintf("  PRIMARY KEY (%s, %s)\n", jt.JoinColumn, jt.InverseJoinColumn))
	b.WriteString(");\n")
	b.WriteString(fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(id) ON DELETE CASCADE;\n",
		jt.Name, strutil.ConstraintName(jt.Name, jt.JoinColumn), jt.JoinColumn, src.Table()))
	b.WriteString(fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(id) ON DELETE CASCADE;\n",
		jt.Name, strutil.ConstraintName(jt.Name, jt.InverseJoinColumn), jt.InverseJoinColumn, tgt.Table()))
	b.WriteString(fmt.Sprintf("CREATE INDEX %s ON %s (%s);\n",
		strutil.IndexName(jt.Name, jt.JoinColumn), jt.Name, jt.JoinColumn))
	b.WriteString(fmt.Sprintf("CREATE INDEX %s ON %s (%s);",
		strutil.IndexName(jt.Name, jt.InverseJoinColumn), jt.Name, jt.InverseJoinColumn))
	return b.String()
}
