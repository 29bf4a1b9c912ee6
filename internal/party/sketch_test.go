package party

import "testing"

func TestMaskWord(t *testing.T) {
	t.Parallel()

	if got := maskWord("cat", nil); got != " _  _  _ " {
		t.Fatalf("mask = %q", got)
	}
	if got := maskWord("cat", map[int]bool{0: true}); got != " c  _  _ " {
		t.Fatalf("mask with reveal = %q", got)
	}
	if got := maskWord("ice cream", map[int]bool{4: true}); got != " _  _  _    c  _  _  _  _ " {
		t.Fatalf("phrase mask = %q", got)
	}
}

func TestNormalizeGuess(t *testing.T) {
	t.Parallel()

	if got := normalizeGuess("  Ice   Cream "); got != "ice cream" {
		t.Fatalf("normalize = %q", got)
	}
}

func TestCloseGuess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		guess, target string
		want          bool
	}{
		{"car", "cat", true},
		{"cats", "cat", true},
		{"ca", "cat", true},
		{"c", "cat", true},
		{"candy", "cat", true},
		{"cannon", "cat", false},
		{"dog", "cat", false},
		{"bermaid", "mermaid", false},
		{"mermaidab", "mermaid", true},
		{"", "cat", false},
		{"mermaid", "mermaid", true},
	}
	for _, tt := range tests {
		if got := closeGuess(tt.guess, tt.target); got != tt.want {
			t.Errorf("closeGuess(%q, %q) = %v, want %v", tt.guess, tt.target, got, tt.want)
		}
	}
}
