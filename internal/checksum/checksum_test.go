package checksum

import "testing"

func TestSum_KnownDigest(t *testing.T) {
	got := Sum([]byte(""))
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Errorf("Sum(\"\") = %q, want %q", got, want)
	}
}

func TestString_MatchesSum(t *testing.T) {
	if String("# Hi") != Sum([]byte("# Hi")) {
		t.Error("String and Sum disagree")
	}
}
