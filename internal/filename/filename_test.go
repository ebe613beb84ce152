package filename

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", "Untitled.md"},
		{"   ", "Untitled.md"},
		{"notes", "notes.md"},
		{"notes.md", "notes.md"},
		{"my notes", "mynotes.md"},
		{`a\b/c:d*e?f"g<h>i|j`, "abcdefghij.md"},
		{"../../etc/passwd", "etcpasswd.md"},
		{".md", "Untitled.md"},
		{"..md", "Untitled.md"},
		{".hidden", "hidden.md"},
		{"a.md.md", "a.md.md"},
		{"md", "md.md"},
		{"tab\tand\nnewline", "tabandnewline.md"},
		{"привет", "привет.md"},
		{"***", "Untitled.md"},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitize_Truncates(t *testing.T) {
	got := Sanitize(strings.Repeat("x", 200) + ".md")
	stem := strings.TrimSuffix(got, Extension)
	if n := utf8.RuneCountInString(stem); n != MaxStemLength {
		t.Errorf("stem length = %d, want %d", n, MaxStemLength)
	}
}

func TestSanitize_Properties(t *testing.T) {
	inputs := []string{
		"", "a", "a.md", " spaced out .md ", `C:\Users\me\doc.md`, "<script>",
		"...", "x.md.md", strings.Repeat("é", 90), "\x00\x01ctrl", "file|name?.txt",
		"\xff\xfebroken", strings.Repeat("ab", 40) + ".md",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
		if !strings.HasSuffix(once, ".md") {
			t.Errorf("Sanitize(%q) = %q, missing .md", in, once)
		}
		if strings.ContainsAny(once, unsafeChars) {
			t.Errorf("Sanitize(%q) = %q contains unsafe characters", in, once)
		}
	}
}
