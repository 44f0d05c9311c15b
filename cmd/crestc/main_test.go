package main

import "testing"

func TestParseSkip(t *testing.T) {
	got := parseSkip(" foo, bar ,,baz")
	want := []string{"foo", "bar", "baz"}
	if len(got) != len(want) {
		t.Fatalf("parseSkip returned %v, want %v", got, want)
	}
	for _, name := range want {
		if !got[name] {
			t.Errorf("missing %q in %v", name, got)
		}
	}
}

func TestParseSkipEmpty(t *testing.T) {
	got := parseSkip("")
	if len(got) != 0 {
		t.Errorf("parseSkip(\"\") = %v, want empty", got)
	}
}
