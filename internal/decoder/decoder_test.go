package decoder

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeError_Error(t *testing.T) {
	base := errors.New("exit status 1")
	err := &DecodeError{StationID: "kxyz", Stderr: "invalid data", Err: base}

	msg := err.Error()
	if !strings.Contains(msg, "kxyz") || !strings.Contains(msg, "invalid data") {
		t.Fatalf("unexpected message: %s", msg)
	}
	if !errors.Is(err, base) {
		t.Fatal("expected errors.Is to unwrap the base error")
	}
}

func TestDecodeError_WithoutStderr(t *testing.T) {
	err := &DecodeError{StationID: "kxyz", Err: errors.New("exit status 1")}
	if strings.HasSuffix(err.Error(), ": ") {
		t.Fatalf("unexpected trailing separator: %s", err.Error())
	}
}
