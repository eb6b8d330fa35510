package main

import (
	"testing"
	"unicode/utf8"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Sapiens", 10, "Sapiens"},
		{"Él", 1, "É"},
		{"Cien Años de Soledad", 8, "Cien ..."},
		{"Desolación", 10, "Desolación"},
		{"Ñandú", 3, "Ñan"},
	}
	for _, tt := range tests {
		got := truncateString(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncateString(%q, %d) returned invalid UTF-8", tt.in, tt.max)
		}
	}
}
