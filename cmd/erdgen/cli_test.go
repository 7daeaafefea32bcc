package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erdlab/erdgen/internal/xerr"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	configFile = filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.ModelFile != "model.json" || cfg.OutFile != "schema.sql" || cfg.ListenAddr != ":8080" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	configFile = writeFile(t, dir, "erdgen.yaml", `
project_name: library
model_file: design/library.json
out_file: out/schema.sql
`)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.ProjectName != "library" || cfg.ModelFile != "design/library.json" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("unset keys keep defaults: addr = %q", cfg.ListenAddr)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configFile = writeFile(t, dir, "erdgen.yaml", "project_name: from_file\n")
	t.Setenv("ERDGEN_PROJECT", "from_env")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.ProjectName != "from_env" {
		t.Errorf("project = %q, want env override", cfg.ProjectName)
	}
}

func TestLoadConfigExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SCHEMA_DIR", "/tmp/schemas")
	configFile = writeFile(t, dir, "erdgen.yaml", "out_file: ${SCHEMA_DIR}/out.sql\n")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.OutFile != "/tmp/schemas/out.sql" {
		t.Errorf("out_file = %q, want expanded path", cfg.OutFile)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	configFile = writeFile(t, t.TempDir(), "erdgen.yaml", "project_name: [unclosed\n")

	_, err := loadConfig()
	if !xerr.Is(err, xerr.ErrConfig) {
		t.Errorf("loadConfig() = %v, want code %s", err, xerr.ErrConfig)
	}
}

func TestImportCmdReportsPathOnReadFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")

	cmd := importCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{missing})

	err := cmd.Execute()
	if !xerr.Is(err, xerr.ErrUnparsableDocument) {
		t.Fatalf("Execute() = %v, want code %s", err, xerr.ErrUnparsableDocument)
	}
	if !strings.Contains(err.Error(), "path: "+missing) {
		t.Errorf("error should carry the document path: %v", err)
	}
}

func TestGenerateOnce(t *testing.T) {
	dir := t.TempDir()
	modelFile := writeFile(t, dir, "model.json", `{
		"name": "library",
		"entities": [
			{"id": "e1", "name": "Author", "fields": [
				{"id": "f1", "name": "name", "type": "text"}
			]},
			{"id": "e2", "name": "Book", "fields": [
				{"id": "f2", "name": "title", "type": "text"}
			]}
		],
		"relations": [
			{"id": "r1", "kind": "many_to_one", "sourceId": "e2", "targetId": "e1"}
		]
	}`)
	outFile := filepath.Join(dir, "schema.sql")

	if err := generateOnce(modelFile, outFile, "library", false); err != nil {
		t.Fatalf("generateOnce() error = %v", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	sql := string(data)
	for _, frag := range []string{
		"-- Project:   library",
		"CREATE TABLE authors (",
		"CREATE TABLE books (",
		"fk_books_author_id",
	} {
		if !strings.Contains(sql, frag) {
			t.Errorf("output missing %q", frag)
		}
	}
}

func TestGenerateOnceRejectsInvalidModel(t *testing.T) {
	dir := t.TempDir()
	modelFile := writeFile(t, dir, "model.json", `{
		"entities": [
			{"id": "e1", "name": "Author", "fields": [
				{"id": "f1", "name": "x", "type": "varchar"}
			]}
		]
	}`)

	err := generateOnce(modelFile, filepath.Join(dir, "schema.sql"), "", false)
	if err == nil {
		t.Fatal("generateOnce() should reject an unknown field type")
	}
}

func TestLoadModelToleratesDanglingRelations(t *testing.T) {
	dir := t.TempDir()
	modelFile := writeFile(t, dir, "model.json", `{
		"entities": [
			{"id": "e1", "name": "Author", "fields": [
				{"id": "f1", "name": "name", "type": "text"}
			]}
		],
		"relations": [
			{"id": "r1", "kind": "many_to_one", "sourceId": "e1", "targetId": "gone"}
		]
	}`)

	m, err := loadModel(modelFile)
	if err != nil {
		t.Fatalf("loadModel() error = %v; dangling endpoints are the generator's concern", err)
	}
	if len(m.Relations) != 1 {
		t.Errorf("relations = %d, want the dangling relation kept for the generator", len(m.Relations))
	}
}
