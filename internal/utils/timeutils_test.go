package utils

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseTimestampZoneless(t *testing.T) {
	got, err := ParseTimestamp("2024-03-18T09:23:45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 3, 18, 9, 23, 45, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseTimestampRFC3339(t *testing.T) {
	got, err := ParseTimestamp("2024-03-17T08:30:00+02:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UTC().Hour() != 6 {
		t.Fatalf("expected offset to be honoured, got %v", got.UTC())
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := ParseTimestamp(""); err == nil {
		t.Fatalf("expected error for empty value")
	}
}

func TestFormatTimestampZero(t *testing.T) {
	if FormatTimestamp(time.Time{}) != "" {
		t.Fatalf("expected empty string for zero time")
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := NewAppError("feed.load", "read failed", base)
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to match")
	}
	if err.Error() != "feed.load: read failed: boom" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewKindError(KindInvalid, "feed.parse", "decode", nil))
	if KindOf(err) != KindInvalid {
		t.Fatalf("expected invalid kind through wrapping")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatalf("expected internal kind for foreign errors")
	}
	if KindOf(NewAppError("op", "msg", nil)) != KindInternal {
		t.Fatalf("expected NewAppError to be internal")
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG").String() != "DEBUG" {
		t.Fatalf("expected debug level")
	}
	if ParseLevel("nonsense").String() != "INFO" {
		t.Fatalf("expected info default")
	}
}
