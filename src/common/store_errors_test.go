package common

import (
	"errors"
	"testing"
)

func TestIsStore(t *testing.T) {
	err := NewStoreErr("AgreedTable", TooLate, "12")

	if !IsStore(err, TooLate) {
		t.Fatalf("expected TooLate")
	}
	if IsStore(err, SkippedIndex) {
		t.Fatalf("TooLate should not match SkippedIndex")
	}
	if IsStore(errors.New("AgreedTable, 12, Too Late"), TooLate) {
		t.Fatalf("plain errors are not store errors")
	}
	if err.Error() != "AgreedTable, 12, Too Late" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
