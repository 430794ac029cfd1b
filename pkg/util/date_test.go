package util

import (
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeCalendarForms(t *testing.T) {
	want := time.Date(2020, 3, 9, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2020-03-09", " 2020-03-09 ", "2020-03-09 00:00:00", "2020-03-09T00:00:00", "2020/03/09", "09-Mar-20", "9-Mar-20", "Mar 9, 2020"} {
		got, ok := ParseTime(s)
		if !ok {
			t.Fatalf("expected ok for %q", s)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: unexpected time %v", s, got)
		}
	}
}

func TestParseTimeRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "yesterday", "2020-13-01", "-5", "20200103", "1577836800"} {
		if _, ok := ParseTime(s); ok {
			t.Fatalf("expected %q to fail", s)
		}
	}
}
