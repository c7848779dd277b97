package document

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodePreservesKeyOrder(t *testing.T) {
	t.Parallel()

	v, err := Decode([]byte(`{"zeta":1,"alpha":{"nginx":{},"PHP":{},"jQuery":{}},"mid":true}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, v.Keys()); diff != "" {
		t.Fatalf("Keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"nginx", "PHP", "jQuery"}, v.Path("alpha").Keys()); diff != "" {
		t.Fatalf("nested Keys mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeDuplicateKeys(t *testing.T) {
	t.Parallel()

	v, err := Decode([]byte(`{"a":1,"b":2,"a":3}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, v.Keys()); diff != "" {
		t.Fatalf("Keys mismatch (-want +got):\n%s", diff)
	}
	a, _ := v.Get("a")
	if got, _ := a.Text(); got != "3" {
		t.Fatalf("a = %q, want %q", got, "3")
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{"a":1,}`,
		`{"a":1}{"b":2}`,
		`{'a':1}`,
		``,
		`[1,2`,
	}
	for _, input := range inputs {
		input := input
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			if _, err := Decode([]byte(input)); err == nil {
				t.Fatalf("Decode(%q) succeeded, want error", input)
			}
		})
	}
}

func TestDecodeSyntaxErrorOffset(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"a":1,}`))
	var syn *json.SyntaxError
	if !errors.As(err, &syn) {
		t.Fatalf("Decode error = %T, want *json.SyntaxError", err)
	}
	if syn.Offset != 8 {
		t.Fatalf("Offset = %d, want 8", syn.Offset)
	}
}

func TestValueAccessors(t *testing.T) {
	t.Parallel()

	v, err := Decode([]byte(`{"ip":16909060,"s":"x","n":null,"arr":[1,"two",false],"http":{"host":"a.b"}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got := v.Path("http", "host"); got.Kind() != String {
		t.Fatalf("Path(http, host).Kind() = %v, want string", got.Kind())
	}
	if got := v.Path("http", "missing", "deeper"); !got.IsNull() {
		t.Fatalf("Path on missing key = %v, want null", got.Kind())
	}
	if got := v.Path("s", "x"); !got.IsNull() {
		t.Fatalf("Path through string = %v, want null", got.Kind())
	}

	ip, _ := v.Get("ip")
	if f, ok := ip.Float(); !ok || f != 16909060 {
		t.Fatalf("Float() = %v, %v", f, ok)
	}
	if lit, ok := ip.Literal(); !ok || lit != "16909060" {
		t.Fatalf("Literal() = %q, %v", lit, ok)
	}
	if _, ok := v.Path("s").Literal(); ok {
		t.Fatal("Literal() on a string should report false")
	}

	arr, _ := v.Get("arr")
	if arr.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", arr.Len())
	}
	if got, _ := arr.Index(1).Str(); got != "two" {
		t.Fatalf("Index(1) = %q, want %q", got, "two")
	}
	if !arr.Index(7).IsNull() {
		t.Fatalf("Index out of range should be null")
	}
}

func TestTruthy(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		`0`:     false,
		`0.0`:   false,
		`-1`:    true,
		`""`:    false,
		`"0"`:   true,
		`null`:  false,
		`false`: false,
		`true`:  true,
		`[]`:    true,
		`{}`:    true,
	}
	for input, want := range tests {
		input, want := input, want
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			v, err := Decode([]byte(input))
			if err != nil {
				t.Fatalf("Decode(%q): %v", input, err)
			}
			if got := v.Truthy(); got != want {
				t.Fatalf("Truthy(%s) = %v, want %v", input, got, want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"80":        "80",
		"80.0":      "80",
		"-0":        "0",
		"9.8":       "9.8",
		"1e3":       "1000",
		"1.50":      "1.5",
		"1e21":      "1e+21",
		"1e+100":    "1e+100",
		"0.0000001": "1e-7",
		"-3e-7":     "-3e-7",
		"1.5E-10":   "1.5e-10",
		"2.5e-8":    "2.5e-8",
	}
	for input, want := range tests {
		if got := FormatNumber(input); got != want {
			t.Errorf("FormatNumber(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestIndent(t *testing.T) {
	t.Parallel()

	v := NewObject(Field{Key: "a", Value: NewNumber("1")})
	got, err := Indent(v)
	if err != nil {
		t.Fatalf("Indent: %v", err)
	}
	if want := "{\n  \"a\": 1\n}"; got != want {
		t.Fatalf("Indent() = %q, want %q", got, want)
	}

	arr := NewArray(
		NewObject(Field{Key: "a", Value: NewNumber("1")}),
		NewObject(Field{Key: "b", Value: NewString("<x&y>")}),
	)
	got, err = Indent(arr)
	if err != nil {
		t.Fatalf("Indent: %v", err)
	}
	want := "[\n  {\n    \"a\": 1\n  },\n  {\n    \"b\": \"<x&y>\"\n  }\n]"
	if got != want {
		t.Fatalf("Indent() = %q, want %q", got, want)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	src := `{"b":[1,2.5,"x",null,true],"a":{"y":1,"x":2}}`
	v, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != src {
		t.Fatalf("Marshal() = %s, want %s", out, src)
	}

	again, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode(again): %v", err)
	}
	if diff := cmp.Diff(v.Interface(), again.Interface()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
