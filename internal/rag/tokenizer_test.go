package rag

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercases and splits on whitespace",
			input: "Introduction to Computer Science",
			want:  []string{"introduction", "to", "computer", "science"},
		},
		{
			name:  "splits on punctuation",
			input: "proofs, sets & functions (discrete math)",
			want:  []string{"proofs", "sets", "functions", "discrete", "math"},
		},
		{
			name:  "folds diacritics",
			input: "Gödel's incompleteness théorème",
			want:  []string{"godel", "s", "incompleteness", "theoreme"},
		},
		{
			name:  "keeps digits attached to letters",
			input: "CS50 covers C and SQL",
			want:  []string{"cs50", "covers", "c", "and", "sql"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "punctuation only",
			input: "... !!! ---",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
