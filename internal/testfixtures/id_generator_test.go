package testfixtures

import "testing"

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("ev")
	if got := gen.Next(); got != "ev-1" {
		t.Fatalf("first id = %q", got)
	}
	if got := gen.Next(); got != "ev-2" {
		t.Fatalf("second id = %q", got)
	}
}

func TestIDGeneratorDefaultPrefix(t *testing.T) {
	gen := NewIDGenerator("")
	if got := gen.Next(); got != "id-1" {
		t.Fatalf("id = %q", got)
	}
}

func TestIDGeneratorNilNextFunc(t *testing.T) {
	var gen *IDGenerator
	if got := gen.NextFunc()(); got != "" {
		t.Fatalf("nil generator id = %q", got)
	}
}
