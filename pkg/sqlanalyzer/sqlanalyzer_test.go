package sqlanalyzer_test

import (
	"testing"

	"github.com/wlf-engine/wlf/pkg/sqlanalyzer"
	"github.com/wlf-engine/wlf/pkg/value"
)

func TestAnalyzeCreateTable(t *testing.T) {
	a := sqlanalyzer.New()
	v, err := a.Analyze("app", "CREATE TABLE users (id INT, name VARCHAR(64))")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	typ, ok := mustField(t, v, "type").AsString()
	if !ok || typ != "table-create" {
		t.Errorf("type = %v, want table-create", typ)
	}
	db, _ := mustField(t, v, "database").AsString()
	if db != "app" {
		t.Errorf("database = %v, want app", db)
	}
	table, _ := mustField(t, v, "table").AsString()
	if table != "users" {
		t.Errorf("table = %v, want users", table)
	}

	defs, err := a.GetColumnDefs(17)
	if _, noTableErr := err.(*sqlanalyzer.ErrTableIDNotFound); !noTableErr {
		t.Fatalf("expected ErrTableIDNotFound before MapTable, got %v (defs=%v)", err, defs)
	}

	a.MapTable("app", "users", 17)
	defs, err = a.GetColumnDefs(17)
	if err != nil {
		t.Fatalf("GetColumnDefs after MapTable: %v", err)
	}
	if len(defs) != 2 || defs[0].Name != "id" || defs[1].Name != "name" {
		t.Errorf("unexpected column defs: %+v", defs)
	}
}

func TestAnalyzeInsert(t *testing.T) {
	a := sqlanalyzer.New()
	v, err := a.Analyze("app", "INSERT INTO users (id) VALUES (1)")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	typ, _ := mustField(t, v, "type").AsString()
	if typ != "insert" {
		t.Errorf("type = %v, want insert", typ)
	}
	table, _ := mustField(t, v, "table").AsString()
	if table != "users" {
		t.Errorf("table = %v, want users", table)
	}
}

func TestAnalyzeCreateDatabase(t *testing.T) {
	a := sqlanalyzer.New()
	v, err := a.Analyze("app", "CREATE DATABASE app")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	typ, _ := mustField(t, v, "type").AsString()
	if typ != "database-create" {
		t.Errorf("type = %v, want database-create", typ)
	}
}

func TestAnalyzeSkipsUninterestingStatements(t *testing.T) {
	a := sqlanalyzer.New()
	for _, sql := range []string{"BEGIN", "COMMIT", "SET autocommit=1"} {
		v, err := a.Analyze("app", sql)
		if err != nil {
			t.Fatalf("Analyze(%q) returned error: %v", sql, err)
		}
		if !v.IsNull() {
			t.Errorf("Analyze(%q) = %v, want null", sql, v)
		}
	}
}

func TestAnalyzeRejectsBatchedStatements(t *testing.T) {
	a := sqlanalyzer.New()
	_, err := a.Analyze("app", "INSERT INTO a VALUES (1); INSERT INTO b VALUES (2)")
	if err == nil {
		t.Fatal("expected an error for a batched statement")
	}
}

func TestGetTableInfoUnknownID(t *testing.T) {
	a := sqlanalyzer.New()
	_, _, err := a.GetTableInfo(99)
	if _, ok := err.(*sqlanalyzer.ErrTableIDNotFound); !ok {
		t.Fatalf("expected ErrTableIDNotFound, got %v", err)
	}
}

func mustField(t *testing.T, v value.Value, name string) value.Value {
	t.Helper()
	field, ok := v.Pointer("/" + name)
	if !ok {
		t.Fatalf("expected field %q in %v", name, v)
	}
	return field
}
