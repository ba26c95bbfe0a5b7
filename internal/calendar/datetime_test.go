package calendar

import (
	"testing"
	"time"
)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	return loc
}

func TestParseDateTime_NaiveLocalized(t *testing.T) {
	loc := kolkata(t)
	got, err := ParseDateTime("2024-01-15T17:00:00", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 1, 15, 17, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseDateTime_ZuluSuffix(t *testing.T) {
	got, err := ParseDateTime("2024-01-15T11:30:00Z", kolkata(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 1, 15, 11, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseDateTime_ExplicitOffset(t *testing.T) {
	got, err := ParseDateTime("2024-01-15T17:00:00-05:00", kolkata(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 1, 15, 22, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseDateTime_Invalid(t *testing.T) {
	if _, err := ParseDateTime("next tuesday", kolkata(t)); err == nil {
		t.Fatal("expected error for non-ISO input")
	}
	if _, err := ParseDateTime("", kolkata(t)); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestResolveTimes_DefaultEnd(t *testing.T) {
	loc := kolkata(t)
	start, end, err := ResolveTimes("2024-01-15T14:00:00", "", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := end.Sub(start); got != time.Hour {
		t.Fatalf("expected one hour default duration, got %v", got)
	}
	if end.Format("2006-01-02T15:04:05") != "2024-01-15T15:00:00" {
		t.Fatalf("unexpected end time: %v", end)
	}
}

func TestResolveTimes_ExplicitEnd(t *testing.T) {
	loc := kolkata(t)
	start, end, err := ResolveTimes("2024-01-15T14:00:00", "2024-01-15T14:30:00", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := end.Sub(start); got != 30*time.Minute {
		t.Fatalf("unexpected duration: %v", got)
	}
}

func TestResolveTimes_BadEndFallsBack(t *testing.T) {
	loc := kolkata(t)
	start, end, err := ResolveTimes("2024-01-15T14:00:00", "whenever", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := end.Sub(start); got != time.Hour {
		t.Fatalf("expected default duration fallback, got %v", got)
	}
}

func TestResolveTimes_BadStartFails(t *testing.T) {
	if _, _, err := ResolveTimes("soon", "", kolkata(t)); err == nil {
		t.Fatal("expected error for invalid start time")
	}
}
