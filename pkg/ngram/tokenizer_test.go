package ngram

import (
	"reflect"
	"testing"
)

func TestDefaultTokenizerSplit(t *testing.T) {
	tok := NewDefaultTokenizer()

	tests := []struct {
		name     string
		document string
		want     []string
	}{
		{"simple", "the cat sat", []string{"the", "cat", "sat"}},
		{"collapsed whitespace", "  the\tcat \n sat ", []string{"the", "cat", "sat"}},
		{"empty", "", nil},
		{"whitespace only", " \t\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tok.Split(tt.document); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %v, want %v", tt.document, got, tt.want)
			}
		})
	}
}

func TestDefaultTokenizerOptions(t *testing.T) {
	tok := NewDefaultTokenizer(WithLowercase(), WithSplitRegex(`[\w']+`))

	got := tok.Split("The cat, it sat!")
	want := []string{"the", "cat", "it", "sat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split() = %v, want %v", got, want)
	}
}
