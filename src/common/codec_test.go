package common

import (
	"bytes"
	"testing"
)

func TestEncodeCanonicalSortsKeys(t *testing.T) {
	a := map[string]int{"b": 2, "a": 1, "c": 3}
	b := map[string]int{"c": 3, "a": 1, "b": 2}

	ea, err := EncodeCanonical(a)
	if err != nil {
		t.Fatal(err)
	}
	eb, err := EncodeCanonical(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ea, eb) {
		t.Fatalf("canonical encodings differ: %s vs %s", ea, eb)
	}

	var out map[string]int
	if err := DecodeCanonical(ea, &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 || out["b"] != 2 {
		t.Fatalf("decoded %v", out)
	}
}
