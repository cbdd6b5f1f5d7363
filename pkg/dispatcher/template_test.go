package dispatcher_test

import (
	"testing"

	"github.com/wlf-engine/wlf/pkg/dispatcher"
	"github.com/wlf-engine/wlf/pkg/value"
)

func TestSubstituteMultipleCaptures(t *testing.T) {
	ev := value.Object(
		value.Pair{Key: "meta", Value: value.Object(value.Pair{Key: "database", Value: value.String("app")})},
		value.Pair{Key: "sql", Value: value.Object(value.Pair{Key: "table", Value: value.String("users")})},
	)

	got, err := dispatcher.Substitute("logFlex.%{/meta/database}.%{/sql/table}", ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "logFlex.app.users" {
		t.Errorf("got %q", got)
	}
}

func TestSubstituteFailsAtomically(t *testing.T) {
	ev := value.Object(value.Pair{Key: "meta", Value: value.Object(value.Pair{Key: "database", Value: value.String("app")})})

	_, err := dispatcher.Substitute("logFlex.%{/meta/database}.%{/sql/table}", ev)
	if err == nil {
		t.Fatal("expected an error for the missing /sql/table field")
	}
}

func TestSubstituteRejectsNonStringField(t *testing.T) {
	ev := value.Object(value.Pair{Key: "count", Value: value.Int(3)})
	_, err := dispatcher.Substitute("n=%{/count}", ev)
	if err == nil {
		t.Fatal("expected an error for a non-string field")
	}
}

func TestSubstituteNoTemplateFields(t *testing.T) {
	got, err := dispatcher.Substitute("static-name", value.Null())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "static-name" {
		t.Errorf("got %q", got)
	}
}
