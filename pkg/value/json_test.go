package value

import (
	"encoding/json"
	"testing"
)

func TestMarshalObjectPreservesOrder(t *testing.T) {
	v := Object(Pair{"type", String("insert")}, Pair{"database", String("app")})
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"insert","database":"app"}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}

func TestUnmarshalRoundTrip(t *testing.T) {
	src := `{"a":1,"b":"s","c":[1,2,3],"d":null,"e":true}`
	var v Value
	if err := json.Unmarshal([]byte(src), &v); err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != src {
		t.Errorf("got %s, want %s", b, src)
	}
}
